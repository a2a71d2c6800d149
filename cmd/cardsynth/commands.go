package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	auditdomain "github.com/smallbiznis/cardsynth/internal/audit/domain"
	"github.com/smallbiznis/cardsynth/internal/pipeline"
	portfolio "github.com/smallbiznis/cardsynth/internal/portfolio/domain"
	"github.com/smallbiznis/cardsynth/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

type batchDeps struct {
	runner *pipeline.Runner
	audit  auditdomain.Service
	out    io.Writer
}

func generateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate the base dataset into the data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, opts, false, func(ctx context.Context, deps batchDeps) error {
				d, err := deps.runner.Generate(ctx)
				if err != nil {
					return err
				}
				return writeRowCounts(deps.out, d.RowCounts())
			})
		},
	}
}

func adjustCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "adjust",
		Short: "Apply realism adjustments to the stored dataset in place",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, opts, false, func(ctx context.Context, deps batchDeps) error {
				report, err := deps.runner.Adjust(ctx)
				if err != nil {
					return err
				}
				return writeJSON(deps.out, report)
			})
		},
	}
}

func runCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Generate and adjust in one pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, opts, false, func(ctx context.Context, deps batchDeps) error {
				report, err := deps.runner.Run(ctx)
				if err != nil {
					return err
				}
				return writeJSON(deps.out, report)
			})
		},
	}
}

func auditCmd(opts *rootOptions) *cobra.Command {
	var (
		pdfPath string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Summarize the stored dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, opts, false, func(ctx context.Context, deps batchDeps) error {
				summary, err := deps.runner.Audit(ctx)
				if err != nil {
					return err
				}
				if pdfPath != "" {
					report, err := deps.audit.RenderPDF(ctx, summary)
					if err != nil {
						return err
					}
					if err := os.WriteFile(pdfPath, report, 0o644); err != nil {
						return fmt.Errorf("write %s: %w", pdfPath, err)
					}
				}
				if asJSON {
					return writeJSON(deps.out, summary)
				}
				return deps.audit.WriteText(deps.out, summary)
			})
		},
	}
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "also render the summary as a PDF to this path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}

func exportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Load the stored dataset into the configured SQL database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, opts, true, func(ctx context.Context, deps batchDeps) error {
				run, err := deps.runner.Export(ctx)
				if err != nil {
					return err
				}
				return writeJSON(deps.out, run)
			})
		},
	}
}

func serveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve audit summaries and metrics over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, sim, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			app := fx.New(append(appOptions(cfg, sim, true), server.Module)...)
			if err := app.Err(); err != nil {
				return err
			}
			// Run blocks until SIGINT or SIGTERM.
			app.Run()
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeRowCounts(w io.Writer, counts map[string]int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, table := range portfolio.Tables {
		fmt.Fprintf(tw, "%s\t%d\n", table, counts[table])
	}
	return tw.Flush()
}
