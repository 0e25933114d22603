package fetcher

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotSpreadsheet 响应体不是表格文件（常见于返回 HTML 的错误页）
var ErrNotSpreadsheet = errors.New("response is not a spreadsheet")

// TransientFetchError 单个候选 URL 下载失败，可尝试下一个
type TransientFetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransientFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransientFetchError) Unwrap() error { return e.Err }

// SourceUnavailableError 全部候选 URL 均失败
type SourceUnavailableError struct {
	Source   string
	Attempts []error
}

func (e *SourceUnavailableError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("source %s unavailable: no candidate urls", e.Source)
	}
	msgs := make([]string, 0, len(e.Attempts))
	for _, err := range e.Attempts {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("source %s unavailable after %d attempts: %s", e.Source, len(e.Attempts), strings.Join(msgs, "; "))
}

func (e *SourceUnavailableError) Unwrap() []error { return e.Attempts }
