package cli

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/ohowland/cgc_resilience/internal/pkg/dispatch/model"
	"github.com/ohowland/cgc_resilience/internal/pkg/resilience"
	"github.com/ohowland/cgc_resilience/internal/pkg/scenario"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var resilienceCmd = &cobra.Command{
	Use:   "resilience <scenario.yaml>",
	Short: "Score the grid's response to the scenario's disturbance",
	Long: `Runs the fixed window method at the configured disturbance start, the
local shift method over 24 hours (and over resilience.hours when set), and the
global shift method across the whole horizon.`,
	Args: cobra.ExactArgs(1),
	RunE: runResilience,
}

func init() {
	resilienceCmd.Flags().Int("workers", 0, "parallel shift simulations (default GOMAXPROCS)")
	resilienceCmd.Flags().Float64("hours", 0, "local shift window in hours, overrides the scenario")
	viper.BindPFlag("workers", resilienceCmd.Flags().Lookup("workers"))
}

func runResilience(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	s, err := scenario.Load(args[0])
	if err != nil {
		return err
	}
	if w := viper.GetInt("workers"); w > 0 {
		s.Resilience.Workers = w
	}
	if cmd.Flags().Changed("hours") {
		s.Resilience.Hours, _ = cmd.Flags().GetFloat64("hours")
	}

	g, err := s.Grid()
	if err != nil {
		return err
	}
	m, err := model.New(g, s.ModelConfig())
	if err != nil {
		return err
	}
	d, err := s.NewDisturbance(g)
	if err != nil {
		return err
	}

	dir := filepath.Join(viper.GetString("out"), s.ID)
	if err := writeParams(dir, "resilience", s); err != nil {
		return err
	}

	ctx := cmd.Context()
	b, err := openBackends(ctx, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	a, err := resilience.New(m, d, s.Resilience.Config, b.stores, logger)
	if err != nil {
		return err
	}
	logger.Info("starting resilience analysis",
		zap.String("id", s.ID),
		zap.String("method", d.Method().String()),
		zap.Int("periods", len(m.Periods())))

	results, err := a.Run(ctx, s.ID, s.Resilience.Hours)
	if err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "resilience.json"), results); err != nil {
		return err
	}

	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := cmd.OutOrStdout()
	for _, k := range keys {
		fmt.Fprintf(out, "%-70s %.4f\n", k, results[k])
	}
	return nil
}
