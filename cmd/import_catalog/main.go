package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"lending-library/library"

	"github.com/spf13/cobra"
)

func main() {
	cfg := library.LoadConfig()
	var fresh bool

	cmd := &cobra.Command{
		Use:          "import_catalog [CATALOG.yaml]",
		Short:        "Load a YAML catalog into a library database",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.DBPath == "" {
				cfg.DBPath = "library.db"
			}
			if len(args) == 1 {
				cfg.CatalogPath = args[0]
			}
			return importCatalog(cmd.OutOrStdout(), cfg, fresh)
		},
	}
	cmd.Flags().StringVar(&cfg.DBPath, "db", cfg.DBPath, "database file (default library.db)")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "delete the existing database files first")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func importCatalog(w io.Writer, cfg library.Config, fresh bool) error {
	if fresh {
		fmt.Fprintln(w, "Cleaning up existing database files...")
		for _, file := range []string{cfg.DBPath, cfg.DBPath + "-shm", cfg.DBPath + "-wal"} {
			if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
				fmt.Fprintf(w, "Warning: Could not remove %s: %v\n", file, err)
			}
		}
	}

	catalog := library.SampleCatalog()
	source := "bundled sample catalog"
	if cfg.CatalogPath != "" {
		var err error
		if catalog, err = library.LoadCatalogFile(cfg.CatalogPath); err != nil {
			return err
		}
		source = cfg.CatalogPath
	}

	logger, err := library.NewLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		return err
	}
	mgr, err := library.NewLibraryManager(cfg.DBPath, logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer mgr.Close()

	fmt.Fprintf(w, "Importing %d entries from %s...\n", catalog.Len(), source)
	added := mgr.Seed(catalog)
	if err := mgr.Save(context.Background()); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nImport complete!\n")
	fmt.Fprintf(w, "Added: %d\n", added)
	fmt.Fprintf(w, "Already present: %d\n", catalog.Len()-added)

	fmt.Fprintln(w, "\nLibrary inventory:")
	fmt.Fprintf(w, "%-9s %-15s %-50s\n", "Kind", "ID", "Title")
	fmt.Fprintln(w, strings.Repeat("-", 76))
	for _, kind := range library.ItemKinds {
		for _, it := range mgr.Registry().Items(kind) {
			fmt.Fprintf(w, "%-9s %-15s %-50s\n", kind, it.ID(), truncateString(it.Title, 50))
		}
	}
	return nil
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
