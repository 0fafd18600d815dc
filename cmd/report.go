package main

import (
	"checkin/internal/config"
	"checkin/internal/report"
	"checkin/pkg/logger"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// reportCommand constructs the 'report' subcommand that generates an exposure
// report for a given email and time range and prints it as JSON to stdout.
// Useful for ad-hoc tracing without going through the HTTP API.
func reportCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generates an exposure report for given email and time range",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			email, _ := cmd.Flags().GetString("email")
			fromStr, _ := cmd.Flags().GetString("from")
			toStr, _ := cmd.Flags().GetString("to")

			from, err := time.Parse(time.RFC3339, fromStr)
			if err != nil {
				logger.Fatal(ctx, "could not parse --from", zap.Error(err))
			}
			to, err := time.Parse(time.RFC3339, toStr)
			if err != nil {
				logger.Fatal(ctx, "could not parse --to", zap.Error(err))
			}

			strg, closeStrg := getPostgres(ctx, cfg)
			defer closeStrg()

			reportSvc := report.New(strg, report.NewOptions(cfg), nil)

			result, err := reportSvc.Generate(ctx, email, from, to)
			if err != nil {
				logger.Fatal(ctx, "could not generate report", zap.Error(err))
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				logger.Fatal(ctx, "could not marshal report", zap.Error(err))
			}

			fmt.Println(string(out)) //nolint: forbidigo
		},
	}

	cmd.Flags().String("email", "", "Reported user email")
	cmd.Flags().String("from", "", "Range start (RFC3339)")
	cmd.Flags().String("to", "", "Range end (RFC3339)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}
