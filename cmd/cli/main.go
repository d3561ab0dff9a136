package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"chronics-kpi/internal/config"
	"chronics-kpi/internal/data"
	"chronics-kpi/internal/pivot"
	"chronics-kpi/internal/render"
	"chronics-kpi/internal/runner"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, config.ErrInvalidConfig) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Every flag can also be set through a
// KPI_<FLAG> environment variable, dashes becoming underscores.
func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("KPI")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:          "kpi",
		Short:        "Compare generated chronics against reference datasets",
		SilenceUsage: true,
	}
	root.PersistentFlags().Bool("verbose", false, "Enable debug logging")
	_ = v.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))

	root.AddCommand(newRunCmd(v), newCheckCmd(v), newCasesCmd(v))
	return root
}

func newLogger(v *viper.Viper) (*zap.Logger, error) {
	if v.GetBool("verbose") {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newRunCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Compute every KPI for the configured scenarios",
		Example: "  kpi run --config run.yaml --scenario 0 --scenario 3 --no-images",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			if s := v.GetStringSlice("scenario"); len(s) > 0 {
				cfg.Scenarios = s
			}
			if v.GetBool("no-images") {
				cfg.Paths.Images = ""
			}

			logger, err := newLogger(v)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			engine := runner.New(runner.WithLogger(logger), runner.WithPlotter(render.New()))
			res, err := engine.Run(cmd.Context(), cfg)
			if res != nil {
				printRun(cmd.OutOrStdout(), res)
			}
			return err
		},
	}
	cmd.Flags().String("config", "", "Path to YAML run config")
	cmd.Flags().StringSlice("scenario", nil, "Scenario id to process (repeatable, overrides the config)")
	cmd.Flags().Bool("no-images", false, "Skip PNG artifacts")
	bindFlags(v, cmd, "config", "scenario", "no-images")
	return cmd
}

func loadConfig(v *viper.Viper) (*config.Config, error) {
	path := v.GetString("config")
	if path == "" {
		return nil, &config.Error{Field: "config", Reason: "is required (flag --config or KPI_CONFIG)"}
	}
	return config.Load(path)
}

func printRun(w io.Writer, res *runner.Result) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "scenario\tbenchmark\trows\treport")
	for _, s := range res.Scenarios {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.Scenario, s.Benchmark, s.Rows, s.ReportPath)
	}
	_ = tw.Flush()
}

func newCheckCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the run config and the case paramsKPI.json without computing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			kcfg, err := config.LoadKPIConfig(filepath.Join(cfg.CaseInputDir(), data.KPIParamsFile))
			if err != nil {
				return err
			}
			adapter, err := pivot.SelectAdapter(kcfg, cfg.WindSolarOnly)
			if err != nil {
				return err
			}
			seasons, err := kcfg.Seasons()
			if err != nil {
				return err
			}
			prods, loads, err := data.LoadCharacteristics(cfg.CharacteristicsDir())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "case %s: comparison=%s benchmark=%s timestep=%s\n",
				cfg.Case, kcfg.Comparison, adapter.Name(), kcfg.Timestep)
			for _, s := range seasons {
				fmt.Fprintf(out, "  season %-8s months=%v window=%s\n", s.Name, s.Months, s.Window)
			}
			fmt.Fprintf(out, "  %d generators, %d loads, %d scenarios\n", len(prods.Units), len(loads.Units), len(cfg.Scenarios))
			fmt.Fprintln(out, "OK")
			return nil
		},
	}
	cmd.Flags().String("config", "", "Path to YAML run config")
	bindFlags(v, cmd, "config")
	return cmd
}

func newCasesCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cases",
		Short: "List the KPI cases found under an input folder",
		RunE: func(cmd *cobra.Command, _ []string) error {
			input := v.GetString("input")
			if input == "" {
				return &config.Error{Field: "input", Reason: "is required"}
			}
			cases, err := data.ListCases(input)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "case\tcomparison\tbenchmarks")
			for _, c := range cases {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, c.Comparison, strings.Join(c.Benchmarks, ","))
			}
			_ = tw.Flush()

			if out := v.GetString("out"); out != "" {
				list := &data.CaseList{
					InputDir:  input,
					UpdatedAt: time.Now().UTC().Format(time.RFC3339),
					Cases:     cases,
				}
				if err := data.SaveCaseList(list, out); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d cases to %s\n", len(cases), out)
			}
			return nil
		},
	}
	cmd.Flags().String("input", "", "KPI input folder holding one folder per case")
	cmd.Flags().String("out", "", "Optional: write the catalog as JSON")
	bindFlags(v, cmd, "input", "out")
	return cmd
}

// bindFlags binds flags to v when the command runs, so that subcommands
// sharing a flag name do not overwrite each other's binding.
func bindFlags(v *viper.Viper, cmd *cobra.Command, names ...string) {
	prev := cmd.PreRunE
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		for _, n := range names {
			if err := v.BindPFlag(n, cmd.Flags().Lookup(n)); err != nil {
				return err
			}
		}
		if prev != nil {
			return prev(cmd, args)
		}
		return nil
	}
}
