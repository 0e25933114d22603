package parser

import (
	"fmt"
	"strings"

	"indecstat/internal/model"
)

// StructureNotFoundError 无法在工作表中定位期别或实体
type StructureNotFoundError struct {
	Sheet  string
	Reason string
	Dump   string // 前 N 行内容，便于排查
}

func (e *StructureNotFoundError) Error() string {
	return fmt.Sprintf("structure not found in sheet %q: %s", e.Sheet, e.Reason)
}

func structureNotFound(sheet model.Sheet, rows int, format string, args ...any) *StructureNotFoundError {
	return &StructureNotFoundError{
		Sheet:  sheet.Name,
		Reason: fmt.Sprintf(format, args...),
		Dump:   dumpSheet(sheet, rows),
	}
}

// dumpSheet 前 n 行的文本形式
func dumpSheet(sheet model.Sheet, n int) string {
	if n <= 0 || n > len(sheet.Rows) {
		n = len(sheet.Rows)
	}
	var b strings.Builder
	for i := 0; i < n; i++ {
		cells := make([]string, 0, len(sheet.Rows[i]))
		for _, c := range sheet.Rows[i] {
			cells = append(cells, c.String())
		}
		fmt.Fprintf(&b, "%3d: %s\n", i, strings.Join(cells, " | "))
	}
	return b.String()
}
