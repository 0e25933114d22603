package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"indecstat/internal/fetcher"
	"indecstat/internal/model"
	"indecstat/internal/parser"
	"indecstat/internal/store"
)

// Downloader 表格文件下载
type Downloader interface {
	Download(ctx context.Context, source string, candidates []string) (*fetcher.Document, error)
	Discover(ctx context.Context, pageURL string, pattern *regexp.Regexp) ([]string, error)
}

// Store 采集结果持久化
type Store interface {
	Upsert(ctx context.Context, b store.Batch) (int, error)
	CreateImportLog(ctx context.Context, runID, indicator string, startedAt time.Time) error
	FinishImportLog(ctx context.Context, report model.RunReport) error
}

// Notifier 采集完成通知（调度方）
type Notifier interface {
	Publish(ctx context.Context, report model.RunReport) error
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string    `json:"type"`      // start/source_start/sheet_done/source_done/done/error
	Indicator string    `json:"indicator"` // 指标名
	Message   string    `json:"message"`   // 事件消息
	Data      any       `json:"data"`      // 附加数据
	Timestamp time.Time `json:"timestamp"` // 时间戳
}

// RunOptions 单次采集选项
type RunOptions struct {
	Progress chan<- ProgressEvent // 可选，满时丢弃事件
	// Files 来源名 -> 本地文件路径，指定时不下载
	Files map[string]string
}

// Coordinator 采集协调器：下载 → 定位 → 抽取 → 合并 → [季节调整] → 写入
type Coordinator struct {
	downloader Downloader
	store      Store
	notifier   Notifier
	logger     *slog.Logger
	now        func() time.Time
}

// Option 协调器可选项
type Option func(*Coordinator)

// WithNotifier 采集完成后发布报告
func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) { c.notifier = n }
}

// WithClock 替换时钟（候选期别计算）
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// NewCoordinator 创建采集协调器
func NewCoordinator(downloader Downloader, st Store, logger *slog.Logger, opts ...Option) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{
		downloader: downloader,
		store:      st,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start 异步执行采集，返回进度通道（结束后关闭）
func (c *Coordinator) Start(ctx context.Context, ind Indicator, opts RunOptions) <-chan ProgressEvent {
	ch := make(chan ProgressEvent, 100)
	opts.Progress = ch

	go func() {
		defer close(ch)
		c.Run(ctx, ind, opts)
	}()

	return ch
}

// RunAll 并发采集多个指标，报告顺序与输入一致
func (c *Coordinator) RunAll(ctx context.Context, inds []Indicator, opts RunOptions) []model.RunReport {
	reports := make([]model.RunReport, len(inds))
	var wg sync.WaitGroup
	for i, ind := range inds {
		i, ind := i, ind
		wg.Add(1)
		go func() {
			defer wg.Done()
			reports[i] = c.Run(ctx, ind, opts)
		}()
	}
	wg.Wait()
	return reports
}

// Run 同步采集一个指标
// 单个来源失败只影响该来源：至少一个来源成功为 partial，全部失败或写入失败为 error
func (c *Coordinator) Run(ctx context.Context, ind Indicator, opts RunOptions) model.RunReport {
	start := c.now()
	report := model.RunReport{
		RunID:     uuid.NewString(),
		Indicator: ind.Name(),
		StartedAt: start,
	}
	logger := c.logger.With("indicator", ind.Name(), "run_id", report.RunID)

	if err := c.store.CreateImportLog(ctx, report.RunID, report.Indicator, start); err != nil {
		logger.Warn("[Importer] create import log failed", "error", err)
	}
	c.sendProgress(opts.Progress, ind, "start", fmt.Sprintf("开始采集 %s", ind.Name()), map[string]string{"run_id": report.RunID})

	var (
		records []model.CanonicalRecord
		errs    []error
	)
	for _, src := range ind.Sources() {
		c.sendProgress(opts.Progress, ind, "source_start", src.Name, nil)

		recs, result, err := c.runSource(ctx, ind, src, opts, logger)
		report.Sources = append(report.Sources, result)
		for _, sheet := range result.Sheets {
			c.sendProgress(opts.Progress, ind, "sheet_done", sheet.SheetName, sheet)
		}
		if err != nil {
			logger.Error("[Importer] source failed", "source", src.Name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", src.Name, err))
			c.sendProgress(opts.Progress, ind, "error", err.Error(), result)
			continue
		}
		records = append(records, recs...)
		c.sendProgress(opts.Progress, ind, "source_done", src.Name, result)
	}

	ok := len(report.Sources) - len(errs)
	switch {
	case ok == 0:
		report.Status = model.RunError
		if len(errs) == 0 {
			errs = append(errs, errors.New("indicator has no sources"))
		}
	default:
		upserted, n, err := c.persist(ctx, ind, records)
		report.Records = n
		report.Upserted = upserted
		if err != nil {
			errs = append(errs, err)
			report.Status = model.RunError
			break
		}
		report.Status = model.RunSuccess
		if len(errs) > 0 {
			report.Status = model.RunPartial
		}
	}

	for _, err := range errs {
		report.Errors = append(report.Errors, err.Error())
	}
	report.Duration = c.now().Sub(start)

	c.finish(ctx, report, logger)
	if report.Status == model.RunError {
		c.sendProgress(opts.Progress, ind, "error", errors.Join(errs...).Error(), report)
	}
	c.sendProgress(opts.Progress, ind, "done", "采集完成", report)
	return report
}

// runSource 下载并抽取一个来源
func (c *Coordinator) runSource(ctx context.Context, ind Indicator, src Source, opts RunOptions, logger *slog.Logger) ([]model.CanonicalRecord, model.SourceResult, error) {
	result := model.SourceResult{Source: src.Name, Status: "error"}

	doc, attempts, err := c.fetch(ctx, src, opts, logger)
	result.Attempts = attempts
	if err != nil {
		result.Error = err.Error()
		return nil, result, err
	}
	result.URL = doc.URL

	wb, err := parser.ReadWorkbook(doc.Body)
	if err != nil {
		result.Error = err.Error()
		return nil, result, fmt.Errorf("decode %s: %w", doc.URL, err)
	}

	records, sheets, err := ind.Extract(wb, src, fileName(doc.URL))
	result.Sheets = sheets
	if err != nil {
		var snf *parser.StructureNotFoundError
		if errors.As(err, &snf) && snf.Dump != "" {
			logger.Debug("[Importer] sheet dump", "source", src.Name, "sheet", snf.Sheet, "dump", snf.Dump)
		}
		result.Error = err.Error()
		return nil, result, err
	}

	for _, s := range sheets {
		if s.MalformedCells > 0 || s.DuplicateKeys > 0 || len(s.Warnings) > 0 {
			logger.Warn("[Importer] soft errors", "source", src.Name, "sheet", s.SheetName,
				"malformed", s.MalformedCells, "duplicates", s.DuplicateKeys, "warnings", len(s.Warnings))
		}
		for _, w := range s.Warnings {
			logger.Debug("[Importer] warning", "source", src.Name, "sheet", s.SheetName, "warning", w)
		}
	}

	result.Status = "imported"
	result.Records = len(records)
	logger.Info("[Importer] source imported", "source", src.Name, "url", doc.URL, "records", len(records))
	return records, result, nil
}

// fetch 本地文件优先，否则按候选 URL 下载
func (c *Coordinator) fetch(ctx context.Context, src Source, opts RunOptions, logger *slog.Logger) (*fetcher.Document, int, error) {
	if p, ok := opts.Files[src.Name]; ok {
		body, err := os.ReadFile(p)
		if err != nil {
			return nil, 0, fmt.Errorf("read %s: %w", p, err)
		}
		return &fetcher.Document{URL: p, Body: body, Format: parser.DetectFormat(body)}, 0, nil
	}

	candidates := fetcher.Candidates(src.URLTemplates, src.Cadence, c.now(), src.Lookback)
	if src.PageURL != "" {
		links, err := c.discover(ctx, src)
		if err != nil {
			logger.Warn("[Importer] discover failed", "source", src.Name, "page", src.PageURL, "error", err)
		}
		for _, l := range links {
			if !slices.Contains(candidates, l) {
				candidates = append(candidates, l)
			}
		}
	}

	doc, err := c.downloader.Download(ctx, src.Name, candidates)
	if err != nil {
		attempts := 0
		var unavailable *fetcher.SourceUnavailableError
		if errors.As(err, &unavailable) {
			attempts = len(unavailable.Attempts)
		}
		return nil, attempts, err
	}
	return doc, slices.Index(candidates, doc.URL) + 1, nil
}

func (c *Coordinator) discover(ctx context.Context, src Source) ([]string, error) {
	var pattern *regexp.Regexp
	if src.LinkPattern != "" {
		p, err := regexp.Compile(src.LinkPattern)
		if err != nil {
			return nil, fmt.Errorf("invalid link pattern: %w", err)
		}
		pattern = p
	}
	return c.downloader.Discover(ctx, src.PageURL, pattern)
}

// persist 合并各来源记录并写入；返回写入行数与合并后记录数
func (c *Coordinator) persist(ctx context.Context, ind Indicator, records []model.CanonicalRecord) (int, int, error) {
	combined := Combine(records)
	batch, err := ind.Batch(combined)
	if err != nil {
		return 0, len(combined), fmt.Errorf("build batch: %w", err)
	}
	n, err := c.store.Upsert(ctx, batch)
	if err != nil {
		return 0, len(combined), fmt.Errorf("persist %s: %w", batch.Table, err)
	}
	return n, len(combined), nil
}

func (c *Coordinator) finish(ctx context.Context, report model.RunReport, logger *slog.Logger) {
	// 调用方取消后仍需落日志
	ctx = context.WithoutCancel(ctx)

	if err := c.store.FinishImportLog(ctx, report); err != nil {
		logger.Warn("[Importer] finish import log failed", "error", err)
	}
	if c.notifier != nil {
		if err := c.notifier.Publish(ctx, report); err != nil {
			logger.Warn("[Importer] notify failed", "error", err)
		}
	}
	logger.Info("[Importer] run finished",
		"status", report.Status,
		"records", report.Records,
		"upserted", report.Upserted,
		"duration", report.Duration,
	)
}

// sendProgress 发送进度事件（非阻塞）
func (c *Coordinator) sendProgress(ch chan<- ProgressEvent, ind Indicator, typ, msg string, data any) {
	if ch == nil {
		return
	}
	event := ProgressEvent{
		Type:      typ,
		Indicator: ind.Name(),
		Message:   msg,
		Data:      data,
		Timestamp: time.Now(),
	}
	select {
	case ch <- event:
	default:
		// 通道已满，丢弃事件
	}
}

// fileName URL 或本地路径的文件名
func fileName(u string) string {
	if base := path.Base(u); base != "." && base != "/" {
		return filepath.Base(base)
	}
	return u
}
