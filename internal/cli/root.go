package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/szooyang/ai-project01/internal/config"
	"github.com/szooyang/ai-project01/internal/dataprocessing"
	"github.com/szooyang/ai-project01/internal/exporter"
	"github.com/szooyang/ai-project01/internal/files"
	"github.com/szooyang/ai-project01/internal/infrastructure"
	"github.com/szooyang/ai-project01/internal/services"
	"github.com/szooyang/ai-project01/pkg/contracts"
)

// autoName is the flag value used when --csv or --png is given without a
// file name; the export is then named after the selection.
const autoName = "auto"

type globalFlags struct {
	configFile string
	dataFile   string
	exportsDir string
	year       int
	month      int
	debug      bool
}

// env is what every subcommand needs once flags are parsed.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	service *services.RidershipService
	exports *exporter.FileWriter
	out     io.Writer
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the ridership command tree.
func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:          "ridership",
		Short:        "Subway ridership rankings and station reports from a monthly export",
		Version:      contracts.Version,
		SilenceUsage: true,
	}
	cmd.SetVersionTemplate(contracts.GetVersionString(cmd.Name()) + "\n")

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "Config file (optional; config.yaml is searched for when omitted)")
	pf.StringVarP(&flags.dataFile, "data", "d", "", "Ridership export (.csv or .xlsx); overrides the config")
	pf.StringVar(&flags.exportsDir, "exports-dir", "", "Directory for exports given without a path")
	pf.IntVar(&flags.year, "year", 0, "Year to analyse; overrides the config")
	pf.IntVar(&flags.month, "month", 0, "Month to analyse (1-12); overrides the config")
	pf.BoolVar(&flags.debug, "debug", false, "Verbose logging to stderr")

	cmd.AddCommand(optionsCmd(flags))
	cmd.AddCommand(rankCmd(flags))
	cmd.AddCommand(stationCmd(flags))
	return cmd
}

func (f *globalFlags) setup(cmd *cobra.Command) (*env, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.configFile != "" {
		cfg, err = config.LoadFrom(f.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if f.dataFile != "" {
		cfg.Dataset.File = f.dataFile
	}
	if f.year != 0 {
		cfg.Dataset.Year = f.year
	}
	if f.month != 0 {
		if f.month < 1 || f.month > 12 {
			return nil, fmt.Errorf("--month must be between 1 and 12, got %d", f.month)
		}
		cfg.Dataset.Month = f.month
	}

	level := "warn"
	if f.debug {
		level = "debug"
	}
	logger, err := infrastructure.NewLogger(config.LoggingConfig{
		Level:  level,
		Format: "text",
		Output: "console",
	}, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	paths, err := config.GetPaths()
	if err != nil {
		return nil, err
	}
	if f.exportsDir != "" {
		paths.ExportsDir = f.exportsDir
	}

	ingestor := dataprocessing.NewIngestor(
		dataprocessing.WithEncodings(cfg.Dataset.Encodings...),
		dataprocessing.WithScope(cfg.Dataset.Scope()),
		dataprocessing.WithSheet(cfg.Dataset.Sheet),
		dataprocessing.WithLogger(logger),
	)
	dataPath, err := files.NewDiscovery(paths.ExecutableDir).ResolveDataset(paths.ResolveDataFile(cfg.Dataset.File))
	if err != nil {
		return nil, err
	}
	datasets, err := services.NewDatasetCache(ingestor, dataPath, services.WithCacheLogger(logger))
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:     cfg,
		logger:  logger,
		service: services.NewRidershipService(datasets, dataprocessing.DefaultPalette, nil, logger),
		exports: exporter.NewFileWriter(paths),
		out:     cmd.OutOrStdout(),
	}, nil
}

// save writes an export and reports where it went.
func (e *env) save(ctx context.Context, name string, write func(io.Writer) error) error {
	path, err := e.exports.Save(name, write)
	if err != nil {
		return err
	}
	e.logger.DebugContext(ctx, "export saved", slog.String("path", path))
	fmt.Fprintf(e.out, "saved %s\n", path)
	return nil
}
