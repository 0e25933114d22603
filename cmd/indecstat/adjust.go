package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"indecstat/internal/calculator"
	"indecstat/internal/model"
	"indecstat/internal/parser"
)

var (
	adjustInput  string
	adjustMethod string
	adjustWindow int
	adjustLambda float64
)

var adjustCmd = &cobra.Command{
	Use:   "adjust",
	Short: "对 CSV（date,value）做季节调整，输出 JSON",
	Long:  "读取两列 CSV（date,value，可带表头；日期支持 2021-03、03/2021、marzo 2021 等写法），按所选方法做季节调整并附带 HP 趋势循环值。",
	RunE:  runAdjust,
}

func init() {
	d := calculator.DefaultOptions()
	adjustCmd.Flags().StringVarP(&adjustInput, "input", "i", "-", "输入 CSV 路径，- 表示标准输入")
	adjustCmd.Flags().StringVarP(&adjustMethod, "method", "m", string(d.Method), "moving-average / ratio-to-moving-average / trend-cycle")
	adjustCmd.Flags().IntVarP(&adjustWindow, "window", "w", d.Window, "移动平均窗口")
	adjustCmd.Flags().Float64Var(&adjustLambda, "lambda", d.Lambda, "HP 平滑参数")
}

func runAdjust(cmd *cobra.Command, args []string) error {
	method, err := calculator.ParseMethod(adjustMethod)
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	if adjustInput != "-" {
		f, err := os.Open(adjustInput)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	points, err := readObservations(in)
	if err != nil {
		return err
	}

	opts := calculator.DefaultOptions()
	opts.Method = method
	opts.Window = adjustWindow
	opts.Lambda = adjustLambda

	out, err := calculator.Decompose(points, opts)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// readObservations 解析 date,value；首行无法解析为数值时视为表头
// 日期按 ExtractDate 支持的格式归一为 YYYY-MM-01，数值须为有限的十进制数
func readObservations(r io.Reader) ([]model.Observation, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var points []model.Observation
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) < 2 || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		v, ok := model.ParseNumber(rec[1])
		if !ok {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("line %d: invalid value %q", line, rec[1])
		}
		date, ok := parser.ExtractDate(strings.TrimSpace(rec[0]))
		if !ok {
			return nil, fmt.Errorf("line %d: invalid date %q", line, rec[0])
		}
		points = append(points, model.Observation{Date: date, Value: v})
	}
	return points, nil
}
