package importer

import (
	"sort"
	"strings"

	"indecstat/internal/model"
)

// Combine 合并多个来源的记录：全国汇总记录按 (date, period_label) 分组逐字段合并，
// 取最后出现的非空值，空值不覆盖已有值；其他记录原样保留。结果按日期稳定排序。
func Combine(records []model.CanonicalRecord) []model.CanonicalRecord {
	type periodKey struct {
		date  string
		label string
	}

	out := make([]model.CanonicalRecord, 0, len(records))
	index := make(map[periodKey]int)
	for _, r := range records {
		if !r.IsAggregate() {
			out = append(out, r)
			continue
		}
		k := periodKey{date: r.Date, label: r.PeriodLabel}
		if i, ok := index[k]; ok {
			out[i] = mergeRecord(out[i], r)
			continue
		}
		index[k] = len(out)
		out = append(out, cloneRecord(r))
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Fold 合并同一来源内自然键相同的记录（多指标分表时每张表只提供一个字段）
func Fold(records []model.CanonicalRecord) []model.CanonicalRecord {
	out := make([]model.CanonicalRecord, 0, len(records))
	index := make(map[model.NaturalKey]int)
	for _, r := range records {
		k := r.Key()
		if i, ok := index[k]; ok {
			out[i] = mergeRecord(out[i], r)
			continue
		}
		index[k] = len(out)
		out = append(out, cloneRecord(r))
	}
	return out
}

func cloneRecord(r model.CanonicalRecord) model.CanonicalRecord {
	values := make(model.Metrics, len(r.Values))
	for k, v := range r.Values {
		values[k] = v
	}
	r.Values = values
	return r
}

// mergeRecord 将 src 合并进 dst（dst 已是副本）
func mergeRecord(dst, src model.CanonicalRecord) model.CanonicalRecord {
	for field, v := range src.Values {
		if v != nil {
			dst.Values[field] = v
			continue
		}
		if _, ok := dst.Values[field]; !ok {
			dst.Values[field] = nil
		}
	}
	dst.SourceFile = joinSources(dst.SourceFile, src.SourceFile)
	return dst
}

func joinSources(a, b string) string {
	if b == "" {
		return a
	}
	if a == "" {
		return b
	}
	for _, s := range strings.Split(a, ";") {
		if s == b {
			return a
		}
	}
	return a + ";" + b
}
