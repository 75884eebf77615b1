package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/sells-group/georef-cli/internal/registry"
	"github.com/sells-group/georef-cli/internal/uncertainty"
)

var (
	precisionUnit string
	convertFrom   string
	convertTo     string
)

var precisionCmd = &cobra.Command{
	Use:   "precision <value>",
	Short: "Show the uncertainty implied by how a distance is written",
	Long: `Infers the precision of a decimal distance from its text: "10.00" implies
0.005, "150" implies 5, "2.5" implies 0.25. With --unit the precision is also
given in meters.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		return runPrecision(cmd.OutOrStdout(), reg, args[0], precisionUnit)
	},
}

type precisionOutput struct {
	Value     string  `json:"value"`
	Precision float64 `json:"precision"`
	Unit      string  `json:"unit,omitempty"`
	Meters    float64 `json:"meters,omitempty"`
}

func runPrecision(w io.Writer, reg *registry.Registry, value, unit string) error {
	p, err := uncertainty.InferPrecision(value)
	if err != nil {
		return err
	}
	out := precisionOutput{Value: value, Precision: p}
	if unit != "" {
		u, err := reg.Units.Lookup(unit)
		if err != nil {
			return err
		}
		out.Unit = u.Code
		out.Meters = u.ToMeters(p)
	}
	return printJSON(w, out)
}

var convertCmd = &cobra.Command{
	Use:   "convert <value>",
	Short: "Convert a distance between units",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		return runConvert(cmd.OutOrStdout(), reg, args[0], convertFrom, convertTo)
	},
}

type convertOutput struct {
	Value float64 `json:"value"`
	From  string  `json:"from"`
	To    string  `json:"to"`
	Out   float64 `json:"result"`
}

func runConvert(w io.Writer, reg *registry.Registry, value, from, to string) error {
	v, err := uncertainty.ParseOffset(value)
	if err != nil {
		return err
	}
	out, err := reg.Units.Convert(v, from, to)
	if err != nil {
		return err
	}
	fu, _ := reg.Units.Lookup(from)
	tu, _ := reg.Units.Lookup(to)
	return printJSON(w, convertOutput{Value: v, From: fu.Code, To: tu.Code, Out: out})
}

func init() {
	precisionCmd.Flags().StringVar(&precisionUnit, "unit", "", "distance unit, e.g. mi")
	convertCmd.Flags().StringVar(&convertFrom, "from", "", "source unit")
	convertCmd.Flags().StringVar(&convertTo, "to", "meter", "target unit")
	_ = convertCmd.MarkFlagRequired("from")
	rootCmd.AddCommand(precisionCmd, convertCmd)
}
