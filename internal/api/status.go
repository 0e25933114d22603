package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"indecstat/internal/importer"
	"indecstat/internal/model"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Database   string                     `json:"database"`   // 数据库驱动
	Healthy    bool                       `json:"healthy"`    // 数据库可用
	Indicators []string                   `json:"indicators"` // 已注册指标
	LastRuns   map[string]model.ImportLog `json:"lastRuns"`   // 各指标最近一次采集
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	ctx := c.Request.Context()
	resp := StatusResponse{
		Database: h.store.Driver(),
		Healthy:  h.store.Ping(ctx) == nil,
		LastRuns: make(map[string]model.ImportLog),
	}

	for _, ind := range h.indicators {
		resp.Indicators = append(resp.Indicators, ind.Name())
		logs, err := h.store.ListImportLogs(ctx, ind.Name(), 1)
		if err != nil {
			h.logger.Warn("[API] list import logs failed", "indicator", ind.Name(), "error", err)
			continue
		}
		if len(logs) > 0 {
			resp.LastRuns[ind.Name()] = logs[0]
		}
	}

	c.JSON(http.StatusOK, resp)
}

// IndicatorInfo 指标描述
type IndicatorInfo struct {
	Name    string            `json:"name"`
	Sources []importer.Source `json:"sources"`
}

// ListIndicators 指标与数据源列表
// GET /api/indicators
func (h *Handler) ListIndicators(c *gin.Context) {
	out := make([]IndicatorInfo, 0, len(h.indicators))
	for _, ind := range h.indicators {
		out = append(out, IndicatorInfo{Name: ind.Name(), Sources: ind.Sources()})
	}
	c.JSON(http.StatusOK, gin.H{"indicators": out})
}
