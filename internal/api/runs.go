package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ListRuns 采集日志
// GET /api/runs?indicator=&limit=
func (h *Handler) ListRuns(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, 500)
	}

	logs, err := h.store.ListImportLogs(c.Request.Context(), c.Query("indicator"), limit)
	if err != nil {
		h.logger.Error("[API] list runs failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": nonNil(logs)})
}
