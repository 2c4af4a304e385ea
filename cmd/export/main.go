package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/vitos/trade_checklist/internal/config"
	"github.com/vitos/trade_checklist/internal/domain"
	"github.com/vitos/trade_checklist/internal/infrastructure/logger"
	"github.com/vitos/trade_checklist/internal/infrastructure/storage"
	"github.com/vitos/trade_checklist/internal/infrastructure/telemetry"
	"github.com/vitos/trade_checklist/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	if err := rootCmd(context.Background()).Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd(ctx context.Context) *cobra.Command {
	var (
		configPath string
		trader     string
		start      string
		end        string
		out        string
	)
	cmd := &cobra.Command{
		Use:          "export",
		Short:        "Write a trader's checklist range as CSV",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			log, err := logger.NewLogger(cfg.Logging.Level)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer log.Sync()

			endDate := domain.DayStart(time.Now())
			if end != "" {
				if endDate, err = domain.ParseDate(end); err != nil {
					return fmt.Errorf("--end: %w", err)
				}
			}
			startDate := endDate.AddDate(0, 0, -6)
			if start != "" {
				if startDate, err = domain.ParseDate(start); err != nil {
					return fmt.Errorf("--start: %w", err)
				}
			}

			store, err := storage.NewSQLiteStore(cfg.Storage.Path)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()

			provider := telemetry.NewDemoProvider(cfg.Telemetry.Seed, cfg.Telemetry.BaseEquity)
			svc := usecase.NewChecklistService(provider, store, store, store, cfg.Rules, cfg.Evaluation.Workers, log).
				WithMaxRangeDays(cfg.Evaluation.MaxRangeDays)

			days, err := svc.Range(ctx, trader, startDate, endDate)
			if err != nil {
				return err
			}
			csv := usecase.ExportCSV(days)

			if out == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), csv)
				return err
			}
			if err := os.WriteFile(out, []byte(csv), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			log.Info("Exported checklist", zap.String("trader", trader), zap.Int("days", len(days)), zap.String("file", out))
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "config/config.yaml", "path to the YAML config")
	cmd.Flags().StringVar(&trader, "trader", "", "trader id")
	cmd.Flags().StringVar(&start, "start", "", "first day, YYYY-MM-DD (default: six days before --end)")
	cmd.Flags().StringVar(&end, "end", "", "last day, YYYY-MM-DD (default: today)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	cmd.MarkFlagRequired("trader")
	return cmd
}
