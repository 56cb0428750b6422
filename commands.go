package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"seed-eval/internal/config"
	"seed-eval/internal/db"
	"seed-eval/internal/logger"
	"seed-eval/internal/model"
	"seed-eval/internal/router"
	"seed-eval/internal/service"
)

var (
	configPath string
	cfg        *config.Config

	reportDay  string
	reportJSON bool

	samplesPath   string
	templatesOut  string
	codeOut       string
	feature       string
	minConfidence float64

	rootCmd = &cobra.Command{
		Use:   "seed-eval",
		Short: "Offline evaluation and pattern-distillation harness",
		Long: `seed-eval compares model-backed and rule-based implementations of a
capability, mines templates from model output and grades implementations
against synthetic personas.`,
		SilenceUsage: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}

	reportCmd = &cobra.Command{
		Use:   "report",
		Short: "Aggregate one day of comparison and persona test logs",
		RunE:  runReport,
	}

	templatesCmd = &cobra.Command{
		Use:   "templates",
		Short: "Extract patterns from a saved sample batch, export templates and print rule code",
		RunE:  runTemplates,
	}
)

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		logger.InitLogger(cfg.Log.Level, cfg.Log.Format)
		return nil
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "path to config file")

	reportCmd.Flags().StringVar(&reportDay, "day", "", "day to aggregate, YYYYMMDD (UTC); default today")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "print JSON instead of markdown")

	templatesCmd.Flags().StringVar(&samplesPath, "samples", "", "sample batch file written by the miner")
	templatesCmd.Flags().StringVar(&templatesOut, "out", "", "template output file")
	templatesCmd.Flags().StringVar(&codeOut, "code", "", "write generated rule code to this file instead of stdout")
	templatesCmd.Flags().StringVar(&feature, "feature", "", "feature name used for the generated rule function")
	templatesCmd.Flags().Float64Var(&minConfidence, "min-confidence", 0, "override harness.min_confidence")
	_ = templatesCmd.MarkFlagRequired("samples")
	_ = templatesCmd.MarkFlagRequired("out")
	_ = templatesCmd.MarkFlagRequired("feature")

	rootCmd.AddCommand(serveCmd, reportCmd, templatesCmd)
}

// loadConfig 默认路径不存在时使用内置默认配置
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && !rootCmd.PersistentFlags().Changed("config") {
		slog.Warn("config file not found, using defaults", "path", path)
		return config.Default(), nil
	}
	return config.LoadConfig(path)
}

func runServe(cmd *cobra.Command, args []string) error {
	// 初始化数据库
	if err := db.InitDB(cfg); err != nil {
		return fmt.Errorf("初始化数据库失败: %w", err)
	}

	// 初始化服务
	svcCtx, err := service.NewServiceContext(cmd.Context(), cfg, db.DB)
	if err != nil {
		return err
	}

	// 初始化路由
	r := router.SetupRouter(svcCtx)

	// 启动服务
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	slog.Info("server starting", "addr", addr, "capabilities", len(svcCtx.Capabilities))
	if err := r.Run(addr); err != nil {
		return fmt.Errorf("启动服务失败: %w", err)
	}
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	day := time.Now().UTC()
	if reportDay != "" {
		parsed, err := time.Parse("20060102", reportDay)
		if err != nil {
			return fmt.Errorf("无效的日期 %q: %w", reportDay, err)
		}
		day = parsed
	}

	report, err := service.BuildDailyReport(cfg.Harness.BaseDir, day)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if reportJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	_, err = fmt.Fprint(out, service.RenderReportMarkdown(report))
	return err
}

func runTemplates(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	samples, err := service.ReadJSONFile[[]model.Exemplar](samplesPath)
	if err != nil {
		return fmt.Errorf("读取样本失败: %w", err)
	}

	svcCtx, err := service.NewServiceContext(ctx, cfg, nil)
	if err != nil {
		return err
	}
	miner := svcCtx.Miner
	miner.LoadSamples(samples)
	patterns := miner.ExtractPatterns(ctx, nil)

	threshold := cfg.Harness.MinConfidence
	if cmd.Flags().Changed("min-confidence") {
		threshold = minConfidence
	}
	path, err := miner.SaveAsTemplates(templatesOut, threshold)
	if err != nil {
		return err
	}
	slog.Info("templates written", "path", path, "patterns", len(patterns))

	matched, reproduced := service.RuleCoverage(patterns, samples)
	slog.Info("rule coverage on samples", "samples", len(samples), "matched", matched, "reproduced", reproduced)

	code, err := miner.GenerateRuleCode(feature)
	if err != nil {
		return err
	}
	if codeOut != "" {
		return os.WriteFile(codeOut, []byte(code), 0o644)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), code)
	return err
}
