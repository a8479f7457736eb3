package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/feasibility-cli/internal/engine"
	"github.com/sells-group/feasibility-cli/internal/model"
	"github.com/sells-group/feasibility-cli/internal/scenario"
)

var (
	computeInput        string
	computeSave         bool
	computeHideSchedule bool
)

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Compute feasibility for a single scenario file",
	Long:  "Reads a YAML or JSON scenario, runs the feasibility engine, and prints the result as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sc, err := scenario.Load(computeInput)
		if err != nil {
			return err
		}

		var tech model.TechnicalInput
		if sc.Technical != nil {
			tech = *sc.Technical
		}

		eng := engine.NewWithSolver(cfg.Solver)
		result, err := eng.Compute(sc.Financial, tech)
		if err != nil {
			return eris.Wrapf(err, "compute %s", sc.Name)
		}

		for _, w := range result.Warnings {
			zap.L().Warn("input warning",
				zap.String("field", w.Field),
				zap.String("kind", string(w.Kind)),
				zap.String("message", w.Message),
			)
		}

		zap.L().Info("computation complete",
			zap.String("scenario", sc.Name),
			zap.Float64("npv", result.NPV),
			zap.Bool("feasible", result.IsFeasible),
		)

		if computeSave {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}

			p, err := st.CreateProject(ctx, sc.Name)
			if err != nil {
				return err
			}
			if _, err := st.UpdateProjectData(ctx, p.ID, model.ProjectUpdate{
				Financial: sc.Financial,
				Technical: sc.Technical,
				Market:    sc.Market,
			}); err != nil {
				return err
			}
			if err := st.SaveResult(ctx, p.ID, result); err != nil {
				return err
			}
			zap.L().Info("result saved", zap.String("project_id", p.ID))
		}

		if computeHideSchedule {
			result.Schedule = nil
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	computeCmd.Flags().StringVarP(&computeInput, "input", "i", "", "scenario file, .yaml/.yml/.json (required)")
	computeCmd.Flags().BoolVar(&computeSave, "save", false, "persist the project and its result to the store")
	computeCmd.Flags().BoolVar(&computeHideSchedule, "no-schedule", false, "omit the year-by-year schedule from output")
	_ = computeCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(computeCmd)
}
