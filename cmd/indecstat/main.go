package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"indecstat/internal/config"
	"indecstat/internal/fetcher"
	"indecstat/internal/importer"
	"indecstat/internal/notify"
	"indecstat/internal/store"
)

var (
	configPath string
	logJSON    bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "indecstat",
	Short:         "INDEC 经济指标采集与季节调整",
	Long:          "下载 INDEC 发布的 EMAE / IPC / EPH 表格，抽取为统一口径记录并写入数据库。",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径（缺省为可执行文件同目录的 config.toml）")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "JSON 格式日志")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "输出调试日志")

	rootCmd.AddCommand(serveCmd, ingestCmd, adjustCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if logJSON {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(h)
}

// loadConfig 加载配置；文件损坏时退回默认配置
func loadConfig(logger *slog.Logger) (*config.AppConfig, config.LoadConfigInfo) {
	cfg, info, err := config.LoadConfigWithInfo(configPath)
	if err != nil {
		logger.Warn("[Config] load failed, using defaults", "path", info.Path, "error", err)
		return config.DefaultConfig(), config.LoadConfigInfo{Path: info.Path}
	}
	logger.Debug("[Config] loaded", "path", info.Path, "from_file", info.Loaded)
	return cfg, info
}

// app 一次命令所需的全部依赖
type app struct {
	store       *store.Store
	coordinator *importer.Coordinator
	notifier    interface{ Close() error }
}

func (a *app) Close() {
	_ = a.notifier.Close()
	_ = a.store.Close()
}

func openApp(cfg *config.AppConfig, logger *slog.Logger) (*app, error) {
	if _, err := config.EnsureDataDir(cfg); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	st, err := store.New(cfg.Store.Driver, cfg.DatabaseDSN())
	if err != nil {
		return nil, err
	}

	var pub interface {
		importer.Notifier
		Close() error
	} = notify.Nop{}
	if cfg.Notify.URL != "" {
		p, err := notify.Dial(cfg.Notify, logger)
		if err != nil {
			// 通知不可用不影响采集
			logger.Warn("[Notify] dial failed, notifications disabled", "error", err)
		} else {
			pub = p
		}
	}

	coordinator := importer.NewCoordinator(
		fetcher.New(cfg.FetcherConfig(), logger),
		st,
		logger,
		importer.WithNotifier(pub),
	)
	return &app{store: st, coordinator: coordinator, notifier: pub}, nil
}
