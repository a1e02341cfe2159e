package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/unitab-io/unitab/catalog"
	"github.com/unitab-io/unitab/catalog/catfile"
	"github.com/unitab-io/unitab/extract"
	"github.com/unitab-io/unitab/log"
	"github.com/unitab-io/unitab/profile"
	"github.com/unitab-io/unitab/uploads"
)

func newExtractCmd() *cobra.Command {
	logCfg := log.NewConfig()
	profCfg := profile.NewConfig()

	var (
		catalogPath string
		dataDir     string
		output      string
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Run one extraction from local CSV files",
		Long: `extract loads a catalog file, binds CSV files from a directory to the
catalog's data sources by file name, and writes the canonical wide table.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExtract(cmd, logCfg, profCfg, catalogPath, dataDir, output)
		},
	}

	logCfg.RegisterFlags(cmd.Flags())
	profCfg.RegisterFlags(cmd.Flags())
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "catalog YAML file (required)")
	cmd.Flags().StringVar(&dataDir, "data", ".", "directory holding the CSV payloads")
	cmd.Flags().StringVar(&output, "out", "-", `output file ("-" for stdout)`)
	_ = cmd.MarkFlagRequired("catalog")

	completionErr := logCfg.RegisterCompletions(cmd)
	if completionErr != nil {
		fmt.Fprintf(os.Stderr, "register completions: %v\n", completionErr)
	}

	return cmd
}

func runExtract(cmd *cobra.Command, logCfg *log.Config, profCfg *profile.Config, catalogPath, dataDir, output string) error {
	logger, err := logCfg.NewLogger(os.Stderr)
	if err != nil {
		return err
	}

	if profCfg.Enabled() {
		stop, err := profCfg.Start()
		if err != nil {
			return err
		}

		defer func() {
			if err := stop(); err != nil {
				logger.Error("stop profiling", slog.Any("error", err))
			}
		}()
	}

	ctx := cmd.Context()
	store := catalog.NewMemStore()

	systemID, err := catfile.LoadFile(ctx, store, catalogPath)
	if err != nil {
		return err
	}

	payloads, err := bindPayloads(ctx, store, systemID, dataDir, logger)
	if err != nil {
		return err
	}

	extractor := extract.New(store, extract.WithLogger(logger))

	result, err := extractor.Run(ctx, extract.Request{SystemID: systemID, Payloads: payloads})
	if err != nil {
		return err
	}

	for _, w := range result.Warnings {
		logger.Warn("extraction warning",
			slog.String("kind", string(w.Kind)), slog.String("message", w.Message))
	}

	data, err := result.Encode()
	if err != nil {
		return err
	}

	if output == "" || output == "-" {
		_, err = cmd.OutOrStdout().Write(data)
	} else {
		err = os.WriteFile(output, data, 0o644)
	}

	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	logger.Info("extraction complete",
		slog.Int("rows", result.Stats.Rows),
		slog.Int("warnings", len(result.Warnings)))

	return nil
}

// bindPayloads reads one CSV per active data source from dir. Sources are
// matched by their FileName, falling back to "<name>.csv". Missing files are
// left unbound; the engine reports them as warnings.
func bindPayloads(ctx context.Context, store catalog.Store, systemID int64, dir string, logger *slog.Logger) (extract.PayloadMap, error) {
	sources, err := store.SourcesBySystem(ctx, systemID)
	if err != nil {
		return nil, err
	}

	payloads := make(extract.PayloadMap, len(sources))

	for _, src := range sources {
		if !src.Active {
			continue
		}

		name := src.FileName
		if name == "" {
			name = src.Name + ".csv"
		}

		path := filepath.Join(dir, name)

		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("no payload file for data source",
				slog.String("source", src.Name), slog.String("path", path))

			continue
		} else if err != nil {
			return nil, fmt.Errorf("read payload: %w", err)
		}

		payloads[src.ID] = uploads.Payload{
			SourceID:   src.ID,
			Filename:   name,
			Data:       data,
			ReceivedAt: time.Now(),
		}
	}

	return payloads, nil
}
