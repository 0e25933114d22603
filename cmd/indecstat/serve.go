package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"indecstat/internal/server"
)

var (
	servePort int
	serveDev  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 服务",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	serveCmd.Flags().BoolVar(&serveDev, "dev", false, "开发模式")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg, info := loadConfig(logger)

	// 命令行参数覆盖配置
	if servePort > 0 && !info.PortSpecified {
		cfg.Server.Port = servePort
	}
	if serveDev {
		cfg.Server.DevMode = true
	}

	a, err := openApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.NewServer(cfg, a.store, a.coordinator, logger)
	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("[Server] listening", "addr", addr, "database", a.store.Driver())
		errCh <- srv.Run(addr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info("[Server] shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
