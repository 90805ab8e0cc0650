// calparse converts vendor instrument calibration files into the CSV
// coefficient records consumed by the ingest pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/funnyabc/asset-management/internal/batch"
	"github.com/funnyabc/asset-management/internal/config"
	"github.com/funnyabc/asset-management/internal/lookup"
	"github.com/funnyabc/asset-management/internal/writer"
)

var (
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "calparse",
	Short: "Parse vendor calibration files into ingest-ready CSV records",
	Long: `calparse reads instrument calibration files dropped by vendors,
normalizes their coefficients to the canonical ingest vocabulary, resolves
each serial number to its asset tracking id and writes one CSV record per
file. Processed source files are deleted (CTD) or archived (NUTNR).

Run without arguments to process all configured instrument families.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFamilies(runCTDBatch, runNutnrBatch)
	},
}

var ctdCmd = &cobra.Command{
	Use:   "ctd",
	Short: "Process CTD calibration files (XMLCON and legacy SEACAT)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFamilies(runCTDBatch)
	},
}

var nutnrCmd = &cobra.Command{
	Use:   "nutnr",
	Short: "Process SUNA nitrate sensor calibration files",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFamilies(runNutnrBatch)
	},
}

var importLookupCmd = &cobra.Command{
	Use:   "import-lookup <mapping.csv>",
	Short: "Import a serial,uid mapping CSV into the lookup database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := lookup.Open(cfg.LookupDB)
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.ImportCSV(args[0])
		if err != nil {
			return err
		}
		logger.Info("lookup mappings imported",
			zap.String("file", args[0]), zap.Int("rows", n))
		return nil
	},
}

func runFamilies(runs ...func(*batch.Processor) error) error {
	store, err := lookup.Open(cfg.LookupDB)
	if err != nil {
		return err
	}
	defer store.Close()

	proc := batch.New(store, writer.New(cfg.OutputDir), logger)
	for _, run := range runs {
		if err := run(proc); err != nil {
			return err
		}
	}
	return nil
}

func runCTDBatch(proc *batch.Processor) error {
	return proc.Run(cfg.CTD.Manufacturer, batch.CTDFamily())
}

func runNutnrBatch(proc *batch.Processor) error {
	return proc.Run(cfg.Nutnr.Manufacturer, batch.NutnrFamily(cfg.Nutnr.Archive))
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "calparse.yaml",
		"path of the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")

	rootCmd.AddCommand(ctdCmd)
	rootCmd.AddCommand(nutnrCmd)
	rootCmd.AddCommand(importLookupCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
