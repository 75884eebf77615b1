package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/sells-group/georef-cli/internal/resolve"
)

var predictCmd = &cobra.Command{
	Use:   "predict <text>",
	Short: "Predict the kind of a locality description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("predict"); err != nil {
			return err
		}
		env, err := initEnv(cmd.Context(), cfg, envOptions{Predictor: true})
		if err != nil {
			return err
		}
		defer env.Close()
		return runPredict(cmd.Context(), cmd.OutOrStdout(), env.Predictor, args[0])
	},
}

func runPredict(ctx context.Context, w io.Writer, p resolve.KindPredictor, text string) error {
	pred, err := p.Predict(ctx, text)
	if err != nil {
		return err
	}
	return printJSON(w, pred)
}

func init() {
	rootCmd.AddCommand(predictCmd)
}
