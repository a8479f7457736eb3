package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/feasibility-cli/internal/engine"
	"github.com/sells-group/feasibility-cli/internal/fetcher"
	"github.com/sells-group/feasibility-cli/internal/model"
)

var (
	batchLimit       int
	batchConcurrency int
	batchSave        bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Compute feasibility for many projects from a CSV or XLSX file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		records, err := fetcher.ReadRecords(ctx, args[0])
		if err != nil {
			return err
		}

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.MaxConcurrentProjects
		}

		eng := engine.NewWithSolver(cfg.Solver)
		outcomes, err := processBatch(ctx, records, batchLimit, concurrency, eng)
		if err != nil {
			return err
		}

		if batchSave {
			if err := saveBatch(ctx, outcomes); err != nil {
				return err
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(outcomes)
	},
}

func init() {
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of rows to process (0 = all)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "concurrent computations (default from config)")
	batchCmd.Flags().BoolVar(&batchSave, "save", false, "persist computed projects to the store")
	rootCmd.AddCommand(batchCmd)
}

// batchOutcome is the per-row result of a batch run. Rows that fail
// normalization carry Error instead of Result.
type batchOutcome struct {
	Line   int                      `json:"line"`
	Name   string                   `json:"name"`
	Result *model.FeasibilityResult `json:"result,omitempty"`
	Error  string                   `json:"error,omitempty"`

	raw map[string]any
}

// processBatch computes records concurrently with bounded concurrency.
// Individual row failures do not abort the batch.
func processBatch(ctx context.Context, records []fetcher.Record, limit, concurrency int, eng *engine.Engine) ([]batchOutcome, error) {
	if len(records) == 0 {
		zap.L().Info("no rows to process")
		return nil, nil
	}

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	zap.L().Info("processing batch",
		zap.Int("rows", len(records)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64
	outcomes := make([]batchOutcome, len(records))

	for i, rec := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			log := zap.L().With(zap.String("project", rec.Name), zap.Int("line", rec.Line))
			outcome := batchOutcome{Line: rec.Line, Name: rec.Name, raw: rec.Raw}

			result, err := eng.Compute(rec.Raw, model.TechnicalInput{})
			if err != nil {
				failed.Add(1)
				outcome.Error = err.Error()
				log.Error("computation failed", zap.Error(err))
			} else {
				succeeded.Add(1)
				outcome.Result = result
				log.Info("computation complete",
					zap.Float64("npv", result.NPV),
					zap.Bool("feasible", result.IsFeasible),
				)
			}

			outcomes[i] = outcome
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return outcomes, nil
}

// saveBatch bulk-inserts the successful outcomes as completed-computation
// projects.
func saveBatch(ctx context.Context, outcomes []batchOutcome) error {
	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck
	if err := st.Migrate(ctx); err != nil {
		return eris.Wrap(err, "migrate store")
	}

	now := time.Now().UTC()
	var projects []model.Project
	for _, o := range outcomes {
		if o.Result == nil {
			continue
		}
		projects = append(projects, model.Project{
			ID:        uuid.New().String(),
			Name:      o.Name,
			Financial: o.raw,
			Result:    o.Result,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	n, err := st.SaveProjects(ctx, projects)
	if err != nil {
		return eris.Wrap(err, "save batch")
	}
	zap.L().Info("batch saved", zap.Int64("projects", n))
	return nil
}
