package api

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"indecstat/internal/calculator"
	"indecstat/internal/model"
)

// SeriesChanges 一条序列的变动率
type SeriesChanges struct {
	Code         string              `json:"code"`
	Region       string              `json:"region"`
	CategoryType string              `json:"categoryType"`
	Points       []calculator.Change `json:"points"`
}

func bindFilter(c *gin.Context) (model.SeriesFilter, bool) {
	var f model.SeriesFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return f, false
	}
	return f, true
}

// ListEMAE EMAE 序列（原始/季调/趋势循环）及原始序列变动率
// GET /api/series/emae?from=&to=
func (h *Handler) ListEMAE(c *gin.Context) {
	f, ok := bindFilter(c)
	if !ok {
		return
	}
	rows, err := h.store.ListEMAE(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("[API] list emae failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	obs := make([]model.Observation, 0, len(rows))
	for _, r := range rows {
		if r.OriginalValue != nil {
			obs = append(obs, model.Observation{Date: r.Date, Value: *r.OriginalValue})
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":    nonNil(rows),
		"changes": calculator.PercentChanges(obs),
	})
}

// ListIPC IPC 分项指数，按 (代码, 地区, 类别) 分组计算月度/年度通胀
// GET /api/series/ipc?from=&to=&region=&category=&code=
func (h *Handler) ListIPC(c *gin.Context) {
	f, ok := bindFilter(c)
	if !ok {
		return
	}
	rows, err := h.store.ListIPC(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("[API] list ipc failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	type seriesKey struct{ code, region, category string }
	groups := make(map[seriesKey][]model.Observation)
	for _, r := range rows {
		if r.IndexValue == nil {
			continue
		}
		k := seriesKey{r.ComponentCode, r.Region, r.CategoryType}
		groups[k] = append(groups[k], model.Observation{Date: r.Date, Value: *r.IndexValue})
	}
	series := make([]SeriesChanges, 0, len(groups))
	for k, obs := range groups {
		series = append(series, SeriesChanges{
			Code:         k.code,
			Region:       k.region,
			CategoryType: k.category,
			Points:       calculator.PercentChanges(obs),
		})
	}
	sort.Slice(series, func(i, j int) bool {
		a, b := series[i], series[j]
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		if a.CategoryType != b.CategoryType {
			return a.CategoryType < b.CategoryType
		}
		return a.Code < b.Code
	})

	c.JSON(http.StatusOK, gin.H{
		"data":    nonNil(rows),
		"changes": series,
	})
}

// ListLabor 劳动力市场指标
// GET /api/series/labor?from=&to=&region=&category=&code=
func (h *Handler) ListLabor(c *gin.Context) {
	f, ok := bindFilter(c)
	if !ok {
		return
	}
	rows, err := h.store.ListLabor(c.Request.Context(), f)
	if err != nil {
		h.logger.Error("[API] list labor failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": nonNil(rows)})
}

// nonNil 空结果序列化为 [] 而不是 null
func nonNil[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}
