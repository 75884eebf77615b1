package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/georef-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "georef",
	Short: "Georeference locality descriptions",
	Long: `Turns place descriptions such as "5 mi W of Springfield" into a WGS84 point
with an uncertainty radius, given the footprint of the named feature. Footprints
come from the command line, a saved geocoder response, a local gazetteer, or the
Google geocoder.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
