package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/facturio/stocksync/internal/domain/catalog"
	"github.com/facturio/stocksync/pkg/config"
	"github.com/facturio/stocksync/pkg/logging"
	"github.com/facturio/stocksync/pkg/remote"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "stocksync",
	Short: "Parse invoice documents and reconcile product stock",
	Long: `stocksync turns tabular invoice and credit note documents (PDF, CSV, XLSX)
into structured line items, resolves each line against the product API and
optionally applies the resulting stock deltas.

Example usage:
  stocksync parse facture_42.pdf                        # parse and export line items
  stocksync parse avoir_7.csv --update-stock            # parse and apply stock deltas
  stocksync products refresh                            # refetch the product snapshot
  stocksync products search "table basse"               # full-text product search`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command with an interrupt-aware context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultSettingsPath,
		"path to the settings file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")
}

// app bundles the pieces every subcommand needs: configuration, logging and
// the product catalog over its persisted snapshot.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	remote  *remote.Client
	listing *catalog.ListingClient
	store   *catalog.SnapshotStore
	search  *catalog.ProductSearch
	catalog *catalog.Catalog
}

// newApp loads configuration and assembles the catalog. The search index is
// only built for commands that query it.
func newApp(withSearch bool) (*app, error) {
	cfg, err := config.LoadFrom(cfgFile)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger := logging.New(level, cfg.Log.Format)

	rc := remote.New(remote.Config{
		APIKey:            cfg.Remote.APIKey,
		RequestsPerSecond: cfg.Remote.RequestsPerSecond,
		Burst:             cfg.Remote.Burst,
	}, logger)

	var listing *catalog.ListingClient
	if cfg.Endpoints.ProductsURL != "" {
		listing = catalog.NewListingClient(cfg.Endpoints.ProductsURL, rc, logger)
	}

	var search *catalog.ProductSearch
	if withSearch {
		search, err = catalog.NewProductSearch("")
		if err != nil {
			return nil, fmt.Errorf("init product search: %w", err)
		}
	}

	store := catalog.NewSnapshotStore(cfg.Paths.ProductsCache)
	cat := catalog.New(listing, store, search, logger)
	if err := cat.Load(); err != nil {
		return nil, fmt.Errorf("load product snapshot: %w", err)
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		remote:  rc,
		listing: listing,
		store:   store,
		search:  search,
		catalog: cat,
	}, nil
}

func (a *app) Close() {
	if a.search != nil {
		a.search.Close()
	}
}
