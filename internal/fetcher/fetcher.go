package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"indecstat/internal/parser"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "indecstat/1.0"
	defaultMaxBytes  = 64 << 20
)

// Config 下载器配置
type Config struct {
	Timeout   time.Duration // 单次尝试超时
	RateLimit rate.Limit    // 每秒请求数
	Burst     int
	UserAgent string
	MaxBytes  int64
}

// Document 已下载的表格文件
type Document struct {
	URL    string
	Body   []byte
	Format parser.Format
}

// Fetcher 按候选顺序下载 INDEC 表格文件
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	timeout   time.Duration
	userAgent string
	maxBytes  int64
	logger    *slog.Logger
}

// New 创建下载器
func New(cfg Config, logger *slog.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = rate.Every(500 * time.Millisecond)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client:    &http.Client{},
		limiter:   rate.NewLimiter(cfg.RateLimit, cfg.Burst),
		timeout:   cfg.Timeout,
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBytes,
		logger:    logger,
	}
}

// Download 依次尝试候选 URL，返回第一个成功的表格文件
// 全部失败时返回 *SourceUnavailableError
func (f *Fetcher) Download(ctx context.Context, source string, candidates []string) (*Document, error) {
	var attempts []error
	for _, u := range candidates {
		if err := f.limiter.Wait(ctx); err != nil {
			attempts = append(attempts, &TransientFetchError{URL: u, Err: err})
			break
		}
		doc, err := f.attempt(ctx, u)
		if err == nil {
			f.logger.Info("[Fetcher] downloaded", "source", source, "url", u, "bytes", len(doc.Body), "attempts", len(attempts)+1)
			return doc, nil
		}
		f.logger.Debug("[Fetcher] candidate failed", "source", source, "url", u, "error", err)
		attempts = append(attempts, err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, &SourceUnavailableError{Source: source, Attempts: attempts}
}

func (f *Fetcher) attempt(ctx context.Context, u string) (*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	body, status, err := f.get(ctx, u)
	if err != nil {
		return nil, &TransientFetchError{URL: u, StatusCode: status, Err: err}
	}
	format := parser.DetectFormat(body)
	if format == parser.FormatUnknown {
		return nil, &TransientFetchError{URL: u, Err: ErrNotSpreadsheet}
	}
	return &Document{URL: u, Body: body, Format: format}, nil
}

func (f *Fetcher) get(ctx context.Context, u string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

// Discover 扫描发布页中的表格文件链接（.xls/.xlsx），pattern 为空时不过滤
func (f *Fetcher) Discover(ctx context.Context, pageURL string, pattern *regexp.Regexp) ([]string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url: %w", err)
	}
	body, _, err := f.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	seen := make(map[string]struct{})
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		ext := strings.ToLower(path.Ext(abs.Path))
		if ext != ".xls" && ext != ".xlsx" {
			return
		}
		if pattern != nil && !pattern.MatchString(abs.String()) {
			return
		}
		if _, ok := seen[abs.String()]; ok {
			return
		}
		seen[abs.String()] = struct{}{}
		links = append(links, abs.String())
	})
	return links, nil
}
