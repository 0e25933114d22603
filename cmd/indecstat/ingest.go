package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"indecstat/internal/importer"
	"indecstat/internal/model"
)

var ingestFiles []string

var ingestCmd = &cobra.Command{
	Use:   "ingest [indicator...]",
	Short: "采集指标（缺省为全部：emae ipc labor）",
	Example: `  indecstat ingest
  indecstat ingest labor --file eph-national=./cuadros_eph_informe_4_23.xls`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringArrayVarP(&ingestFiles, "file", "f", nil, "使用本地文件代替下载，格式 source=path，可重复")
}

func runIngest(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg, _ := loadConfig(logger)

	files, err := parseFileFlags(ingestFiles)
	if err != nil {
		return err
	}

	inds, err := selectIndicators(cfg.Indicators(), args)
	if err != nil {
		return err
	}

	a, err := openApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reports := a.coordinator.RunAll(ctx, inds, importer.RunOptions{Files: files})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(reports); err != nil {
		return err
	}

	var failed []string
	for _, r := range reports {
		if r.Status == model.RunError {
			failed = append(failed, r.Indicator)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("ingest failed: %s", strings.Join(failed, ", "))
	}
	return nil
}

// parseFileFlags 解析 source=path
func parseFileFlags(values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	files := make(map[string]string, len(values))
	for _, v := range values {
		source, path, ok := strings.Cut(v, "=")
		source, path = strings.TrimSpace(source), strings.TrimSpace(path)
		if !ok || source == "" || path == "" {
			return nil, fmt.Errorf("invalid --file %q, want source=path", v)
		}
		files[source] = path
	}
	return files, nil
}

// selectIndicators 按名称筛选，names 为空时返回全部
func selectIndicators(all []importer.Indicator, names []string) ([]importer.Indicator, error) {
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]importer.Indicator, len(all))
	known := make([]string, 0, len(all))
	for _, ind := range all {
		byName[ind.Name()] = ind
		known = append(known, ind.Name())
	}

	out := make([]importer.Indicator, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		ind, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("unknown indicator %q (known: %s)", n, strings.Join(known, ", "))
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, ind)
	}
	return out, nil
}
