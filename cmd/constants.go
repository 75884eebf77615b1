package main

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/georef-cli/internal/registry"
)

var constantsTables string

var constantsCmd = &cobra.Command{
	Use:   "constants",
	Short: "List datums, units, headings, and coordinate sources",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		return runConstants(cmd.OutOrStdout(), reg, splitAndTrim(constantsTables))
	},
}

func runConstants(w io.Writer, reg *registry.Registry, tables []string) error {
	all := reg.Constants()
	if len(tables) == 0 {
		return printJSON(w, all)
	}

	out := make(map[string]any, len(tables))
	for _, t := range tables {
		switch t {
		case "datums":
			out[t] = all.Datums
		case "units":
			out[t] = all.Units
		case "headings":
			out[t] = all.Headings
		case "sources":
			out[t] = all.Sources
		default:
			return eris.Errorf("constants: unknown table %q", t)
		}
	}
	return printJSON(w, out)
}

func init() {
	constantsCmd.Flags().StringVar(&constantsTables, "tables", "", "comma-separated subset: datums,units,headings,sources")
	rootCmd.AddCommand(constantsCmd)
}
