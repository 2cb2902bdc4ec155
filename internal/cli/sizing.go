package cli

import (
	"fmt"
	"path/filepath"

	"github.com/ohowland/cgc_resilience/internal/pkg/asset"
	"github.com/ohowland/cgc_resilience/internal/pkg/dispatch/model"
	"github.com/ohowland/cgc_resilience/internal/pkg/export"
	"github.com/ohowland/cgc_resilience/internal/pkg/scenario"
	"github.com/ohowland/cgc_resilience/internal/pkg/sizing"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var sizingCmd = &cobra.Command{
	Use:   "sizing <scenario.yaml>",
	Short: "Search for minimal diesel, battery and PV capacities",
	Long: `Builds the frontier of non-dominated capacity designs that serve the
scenario's load without deficit. Each accepted design is written to its own
directory, and the frontier to rightsize.csv and rightsize.xlsx.`,
	Args: cobra.ExactArgs(1),
	RunE: runSizing,
}

func runSizing(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	s, err := scenario.Load(args[0])
	if err != nil {
		return err
	}
	g, err := s.Grid()
	if err != nil {
		return err
	}
	for _, kind := range asset.Types {
		if !hasType(g.Generators(), kind) {
			return fmt.Errorf("sizing needs at least one %v in the grid", kind)
		}
	}
	m, err := model.New(g, s.ModelConfig())
	if err != nil {
		return err
	}

	dir := filepath.Join(viper.GetString("out"), s.ID)
	if err := writeParams(dir, "sizing", s); err != nil {
		return err
	}

	ctx := cmd.Context()
	b, err := openBackends(ctx, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	exporters := sizing.MultiExporter{export.Files{}}
	if b.nats != nil {
		exporters = append(exporters, b.nats)
	}
	sz, err := sizing.New(m, sizing.Config{Steps: s.Sizing, Dir: dir}, exporters, logger)
	if err != nil {
		return err
	}

	peak := m.PeakLoad()
	logger.Info("starting capacity search", zap.String("id", s.ID), zap.Float64("peak_load", peak))
	frontier, err := sz.Size(ctx, peak)
	if len(frontier) > 0 {
		if werr := export.WriteFrontier(dir, frontier); werr != nil && err == nil {
			err = werr
		}
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-12s %-12s %-12s\n", "diesel", "photovoltaic", "battery")
	for _, sol := range frontier {
		fmt.Fprintf(out, "%-12g %-12g %-12g\n", sol.Diesel, sol.Photovoltaic, sol.Battery)
	}
	return nil
}

func hasType(generators []asset.Asset, kind asset.Type) bool {
	for _, g := range generators {
		if g.Type() == kind {
			return true
		}
	}
	return false
}
