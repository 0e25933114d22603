package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"indecstat/internal/importer"
)

// Ingest 手动触发一次采集 (SSE 流式响应)
// POST /api/ingest/:indicator
func (h *Handler) Ingest(c *gin.Context) {
	name := c.Param("indicator")
	ind, ok := h.indicator(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown indicator %q", name)})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}

	if !h.acquire(name) {
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("indicator %q is already being ingested", name)})
		return
	}
	defer h.release(name)

	// 设置 SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	// 客户端断开后采集继续完成，保证日志与写入完整
	ctx := context.WithoutCancel(c.Request.Context())
	progress := h.coordinator.Start(ctx, ind, importer.RunOptions{})

	for event := range progress {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		// SSE 格式: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", data)
		flusher.Flush()
	}
}
