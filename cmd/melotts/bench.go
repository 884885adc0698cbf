package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/go-melotts/internal/bench"
	"github.com/example/go-melotts/internal/tts"
)

type benchCmdOptions struct {
	Text         string
	Runs         int
	Format       string
	RTFThreshold float64
}

func newBenchCmd() *cobra.Command {
	var opts benchCmdOptions

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark synthesis latency, realtime factor and repeatability",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if err := opts.validate(); err != nil {
				return err
			}

			svc, err := openService(cfg)
			if err != nil {
				return fmt.Errorf("initialize synth service: %w", err)
			}
			defer svc.Close()

			return runBench(cmd.Context(), svc, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Text, "text", "", "Text to synthesize for each run (required)")
	cmd.Flags().IntVar(&opts.Runs, "runs", 5, "Number of synthesis runs")
	cmd.Flags().StringVar(&opts.Format, "format", "table", "Output format: table|json")
	cmd.Flags().Float64Var(&opts.RTFThreshold, "rtf-threshold", 0, "Exit non-zero if mean RTF exceeds this value (0 = disabled)")

	return cmd
}

func (o benchCmdOptions) validate() error {
	if strings.TrimSpace(o.Text) == "" {
		return fmt.Errorf("--text is required for bench")
	}
	if o.Runs < 1 {
		return fmt.Errorf("--runs must be at least 1")
	}
	if o.Format != "table" && o.Format != "json" {
		return fmt.Errorf("--format must be 'table' or 'json'")
	}
	return nil
}

// runBench times opts.Runs identical requests, reports them and fails when
// the outputs differ or the mean RTF is over the threshold.
func runBench(ctx context.Context, svc synthService, opts benchCmdOptions, w io.Writer) error {
	results, err := bench.Run(ctx, svc, bench.Options{
		Runs:       opts.Runs,
		SampleRate: svc.Options().SampleRate,
		Request:    tts.Request{Text: opts.Text},
	})
	if err != nil {
		return err
	}

	stats := bench.ComputeStats(bench.Durations(results))

	switch opts.Format {
	case "json":
		if err := bench.FormatJSON(results, stats, w); err != nil {
			return err
		}
	default:
		bench.FormatTable(results, stats, w)
	}

	if err := bench.CheckIdentical(results); err != nil {
		return err
	}

	return bench.CheckRTFThreshold(bench.MeanRTF(results), opts.RTFThreshold)
}
