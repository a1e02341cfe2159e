package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/unitab-io/unitab/catalog"
	"github.com/unitab-io/unitab/catalog/catfile"
	"github.com/unitab-io/unitab/catalog/sqlite"
	"github.com/unitab-io/unitab/log"
	"github.com/unitab-io/unitab/server"
)

func newServeCmd() *cobra.Command {
	logCfg := log.NewConfig()
	srvCfg := server.NewConfig()

	var (
		dbPath      string
		catalogPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog and extraction API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, logCfg, srvCfg, dbPath, catalogPath)
		},
	}

	logCfg.RegisterFlags(cmd.Flags())
	srvCfg.RegisterFlags(cmd.Flags())
	cmd.Flags().StringVar(&dbPath, "db", "",
		"sqlite database path (empty for a non-persistent in-memory catalog)")
	cmd.Flags().StringVar(&catalogPath, "catalog", "",
		"catalog YAML file to load on startup")

	completionErr := logCfg.RegisterCompletions(cmd)
	if completionErr != nil {
		fmt.Fprintf(os.Stderr, "register completions: %v\n", completionErr)
	}

	return cmd
}

func runServe(cmd *cobra.Command, logCfg *log.Config, srvCfg *server.Config, dbPath, catalogPath string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	broadcaster := log.NewBroadcaster()
	defer func() { _ = broadcaster.Close() }()

	logger, err := logCfg.NewLogger(io.MultiWriter(os.Stderr, broadcaster))
	if err != nil {
		return err
	}

	var store catalog.Store

	if dbPath == "" {
		store = catalog.NewMemStore()
	} else {
		sqlStore, err := sqlite.Open(ctx, dbPath)
		if err != nil {
			return err
		}
		defer func() { _ = sqlStore.Close() }()

		store = sqlStore
	}

	if catalogPath != "" {
		systemID, err := catfile.LoadFile(ctx, store, catalogPath)
		if err != nil {
			return err
		}

		logger.Info("catalog loaded", "path", catalogPath, "system_id", systemID)
	}

	srv := server.New(store,
		server.WithLogger(logger),
		server.WithBroadcaster(broadcaster),
	)

	return srv.Run(ctx, srvCfg.Addr)
}
