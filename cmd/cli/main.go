package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"gocausal/adapters/excel"
	"gocausal/adapters/graphio"
	"gocausal/app"
	"gocausal/domain/causal"
	"gocausal/internal"
	"gocausal/internal/config"
	"gocausal/internal/container"
	"gocausal/internal/report"
	"gocausal/internal/testkit"
	"gocausal/ports"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "gocausal",
		Short:         "Causal structure discovery with latent confounders (FCI)",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newDiscoverCmd(),
		newGenerateCmd(),
		newServeCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type discoverOptions struct {
	alpha         float64
	depth         string
	maxPathLength string
	workers       int
	verbose       bool
	sheet         string
	fill          string
	format        string
	out           string
	variable      string
	into          bool
	knowledge     string
	report        string
	record        string
}

func newDiscoverCmd() *cobra.Command {
	opts := &discoverOptions{}

	cmd := &cobra.Command{
		Use:   "discover [data-file]",
		Short: "Infer a PAG from a CSV or Excel data file",
		Long: `Run FCI over every numeric column of a data file and print the resulting PAG.

Unset flags fall back to the DISCOVERY_* environment defaults.

Example: gocausal discover data.csv --alpha 0.01 --depth 3 --format dot --out pag.dot`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			params, err := opts.params(cmd, cfg.Discovery.Params())
			if err != nil {
				return err
			}
			format, err := graphio.ParseFormat(opts.format)
			if err != nil {
				return err
			}
			readerConfig, err := opts.readerConfig(cmd, cfg.Data.Sheet)
			if err != nil {
				return err
			}
			return runDiscover(cmd.Context(), args[0], params, readerConfig, format, opts, newLogger(cfg))
		},
	}

	defaults := causal.DefaultParams()
	cmd.Flags().Float64Var(&opts.alpha, "alpha", defaults.Alpha, "Significance level of every independence test")
	cmd.Flags().StringVar(&opts.depth, "depth", "unlimited", "Largest conditioning set in the adjacency search")
	cmd.Flags().StringVar(&opts.maxPathLength, "max-path-length", "unlimited", "Longest discriminating path (edges) to consider")
	cmd.Flags().IntVar(&opts.workers, "workers", defaults.Workers, "Parallel independence-test workers")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log every removal and orientation")
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "Worksheet to read from an Excel file (default: first sheet)")
	cmd.Flags().StringVar(&opts.fill, "fill", "", "Replace empty cells with this number instead of failing")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json, gml or dot")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Write the graph to this file instead of stdout")
	cmd.Flags().StringVar(&opts.variable, "variable", "", "Only print edges touching this variable")
	cmd.Flags().BoolVar(&opts.into, "into", false, "With --variable, only print edges with an arrowhead at it")
	cmd.Flags().StringVar(&opts.knowledge, "knowledge", "", "JSON file with forbidden, required and tiers")
	cmd.Flags().StringVar(&opts.report, "report", "", "Also write a run report (.md or .html)")
	cmd.Flags().StringVar(&opts.record, "record", "", "Also write the full run record as JSON (importable with migrate)")

	return cmd
}

// params overlays changed flags on the configured defaults
func (o *discoverOptions) params(cmd *cobra.Command, params causal.Params) (causal.Params, error) {
	flags := cmd.Flags()
	if flags.Changed("alpha") {
		params.Alpha = o.alpha
	}
	if flags.Changed("depth") {
		depth, err := causal.ParseLimit(o.depth)
		if err != nil {
			return params, fmt.Errorf("--depth: %w", err)
		}
		params.Depth = depth
	}
	if flags.Changed("max-path-length") {
		limit, err := causal.ParseLimit(o.maxPathLength)
		if err != nil {
			return params, fmt.Errorf("--max-path-length: %w", err)
		}
		params.MaxPathLength = limit
	}
	if flags.Changed("workers") {
		params.Workers = o.workers
	}
	if o.verbose {
		params.Verbose = true
	}
	if o.knowledge != "" {
		knowledge, err := loadKnowledge(o.knowledge)
		if err != nil {
			return params, err
		}
		params.Knowledge = knowledge
	}
	return params, nil
}

func (o *discoverOptions) readerConfig(cmd *cobra.Command, sheet string) (excel.ExcelConfig, error) {
	cfg := excel.ExcelConfig{Sheet: sheet, Enabled: true}
	if cmd.Flags().Changed("sheet") {
		cfg.Sheet = o.sheet
	}
	if o.fill != "" {
		value, err := strconv.ParseFloat(o.fill, 64)
		if err != nil {
			return cfg, fmt.Errorf("--fill must be a number: %w", err)
		}
		cfg.FillEmpty = true
		cfg.FillValue = value
	}
	return cfg, nil
}

func loadKnowledge(path string) (*causal.BackgroundKnowledge, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading knowledge file: %w", err)
	}
	var knowledge causal.BackgroundKnowledge
	if err := json.Unmarshal(data, &knowledge); err != nil {
		return nil, fmt.Errorf("parsing knowledge file %s: %w", path, err)
	}
	return &knowledge, nil
}

func runDiscover(ctx context.Context, source string, params causal.Params, readerConfig excel.ExcelConfig,
	format graphio.OutputFormat, opts *discoverOptions, logger *internal.Logger) error {
	reader := excel.NewMatrixAdapter(readerConfig, logger)
	service := app.NewDiscoveryService(reader, testkit.NewInMemoryRunRepository(), logger)

	record, err := service.DiscoverFile(ctx, source, params)
	if err != nil {
		return err
	}

	edges := record.PAG.Edges
	if opts.variable != "" {
		edges, err = service.Edges(ctx, record.ID, ports.EdgeFilter{Variable: opts.variable, IntoOnly: opts.into})
		if err != nil {
			return err
		}
	}

	if err := writeTo(opts.out, func(w io.Writer) error {
		return graphio.Write(w, format, record.PAG.Nodes, edges)
	}); err != nil {
		return err
	}

	if opts.report != "" {
		content := []byte(report.Markdown(record))
		if strings.HasSuffix(strings.ToLower(opts.report), ".html") {
			content = report.HTML(record)
		}
		if err := os.WriteFile(opts.report, content, 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		logger.Info("report written to %s", opts.report)
	}

	if opts.record != "" {
		data, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.record, data, 0o644); err != nil {
			return fmt.Errorf("writing run record: %w", err)
		}
	}
	return nil
}

// writeTo writes to path, or to stdout when path is empty
func writeTo(path string, write func(io.Writer) error) error {
	if path == "" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func newGenerateCmd() *cobra.Command {
	var out, sheet string
	var seed int64
	var observations int

	cmd := &cobra.Command{
		Use:   "generate [preset]",
		Short: "Write synthetic linear-Gaussian data from a built-in model",
		Long: fmt.Sprintf(`Simulate a structural equation model and write it as CSV or Excel.

Presets: %s

Example: gocausal generate collider --out collider.csv --seed 7`, strings.Join(testkit.PresetNames(), ", ")),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			semConfig, err := testkit.Preset(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				semConfig.Seed = seed
			}
			if cmd.Flags().Changed("observations") {
				semConfig.Observations = observations
			}

			m, err := testkit.NewSEMGenerator(semConfig).Generate()
			if err != nil {
				return err
			}
			if err := excel.WriteMatrix(out, sheet, m); err != nil {
				return err
			}
			rows, _ := m.Dims()
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d observations of %s to %s\n", rows, strings.Join(m.Names, ", "), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "data.csv", "Output file (.csv or .xlsx)")
	cmd.Flags().StringVar(&sheet, "sheet", "Data", "Worksheet name for .xlsx output")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed")
	cmd.Flags().IntVarP(&observations, "observations", "n", 1000, "Number of observations")

	return cmd
}

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the run browser and JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}
			return container.Serve(cmd.Context(), cfg, newLogger(cfg))
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Port to listen on (default: PORT or 8080)")
	return cmd
}

func newLogger(cfg *config.Config) *internal.Logger {
	level, _ := internal.ParseLogLevel(cfg.LogLevel)
	return internal.NewLogger(level)
}
