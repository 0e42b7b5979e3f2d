package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lending-library/library"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := newRootCmd(library.LoadConfig()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg library.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "librarycli",
		Short:         "Lend books, videos and magazines to library members",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite file to load from and save to (empty keeps state in memory)")
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")

	root.AddCommand(
		newShellCmd(&cfg),
		newSeedCmd(&cfg),
		newExportCmd(&cfg),
		newImportCmd(&cfg),
		newEventsCmd(&cfg),
	)
	return root
}

// openManager builds the logger and the manager for one command run.
func openManager(cfg *library.Config, stderr io.Writer, recorders ...library.Recorder) (*library.LibraryManager, *slog.Logger, error) {
	logger, err := library.NewLogger(stderr, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	mgr, err := library.NewLibraryManager(cfg.DBPath, logger, recorders...)
	if err != nil {
		return nil, nil, fmt.Errorf("open library: %w", err)
	}
	return mgr, logger, nil
}

func newShellCmd(cfg *library.Config) *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive desk for adding items, registering people and lending",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var recorders []library.Recorder
			promReg := prometheus.NewRegistry()
			if cfg.MetricsAddr != "" {
				metrics, err := library.NewMetrics(promReg)
				if err != nil {
					return err
				}
				recorders = append(recorders, metrics)
			}

			mgr, logger, err := openManager(cfg, cmd.ErrOrStderr(), recorders...)
			if err != nil {
				return err
			}
			defer mgr.Close()

			if cfg.MetricsAddr != "" {
				srv := serveMetrics(cfg.MetricsAddr, promReg, logger)
				defer func() {
					ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					_ = srv.Shutdown(ctx)
				}()
			}

			if seed {
				if _, err := seedCatalog(mgr, cfg.CatalogPath); err != nil {
					return err
				}
			}

			interactive := term.IsTerminal(int(os.Stdin.Fd()))
			sh := newShell(cmd.InOrStdin(), cmd.OutOrStdout(), mgr, interactive)
			return sh.run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address, e.g. :9100")
	cmd.Flags().BoolVar(&seed, "seed", false, "add the catalog before starting")
	cmd.Flags().StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "YAML catalog used by --seed (default: bundled sample)")
	return cmd
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener", "addr", addr, "err", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
	return srv
}

func seedCatalog(mgr *library.LibraryManager, path string) (int, error) {
	catalog := library.SampleCatalog()
	if path != "" {
		var err error
		if catalog, err = library.LoadCatalogFile(path); err != nil {
			return 0, err
		}
	}
	added := mgr.Seed(catalog)
	return added, mgr.Save(context.Background())
}

func newSeedCmd(cfg *library.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Add the items of a YAML catalog to the database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.DBPath == "" {
				return errors.New("seed needs --db; an in-memory library would be discarded")
			}
			mgr, _, err := openManager(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer mgr.Close()

			added, err := seedCatalog(mgr, cfg.CatalogPath)
			if err != nil {
				return err
			}
			total := 0
			for _, kind := range library.ItemKinds {
				total += len(mgr.Registry().Items(kind))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d item(s); library now holds %d.\n", added, total)
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "YAML catalog (default: bundled sample)")
	return cmd
}

func newExportCmd(cfg *library.Config) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the library state as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, _, err := openManager(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer mgr.Close()

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(filepath.Clean(out))
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return library.ExportJSON(w, mgr.Registry().Snapshot())
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "file to write (default: stdout)")
	return cmd
}

func newImportCmd(cfg *library.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the database contents with a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.DBPath == "" {
				return errors.New("import needs --db")
			}
			f, err := os.Open(filepath.Clean(args[0]))
			if err != nil {
				return err
			}
			defer f.Close()
			snap, err := library.ImportJSON(f)
			if err != nil {
				return err
			}

			mgr, _, err := openManager(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer mgr.Close()
			if err := mgr.Registry().Restore(snap); err != nil {
				return err
			}
			if err := mgr.Save(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d item(s), %d member(s), %d librarian(s).\n",
				len(snap.Items), len(snap.Members), len(snap.Librarians))
			return nil
		},
	}
}

func newEventsCmd(cfg *library.Config) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the most recent lending events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.DBPath == "" {
				return errors.New("events needs --db")
			}
			mgr, _, err := openManager(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer mgr.Close()
			events, err := mgr.Events(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printEvents(cmd.OutOrStdout(), events)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of events (0 for all)")
	return cmd
}

func printEvents(w io.Writer, events []library.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events recorded.")
		return
	}
	fmt.Fprintf(w, "%-20s %-17s %-9s %-15s %-8s %s\n", "When", "Event", "Kind", "Item", "Person", "Reason")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, e := range events {
		fmt.Fprintf(w, "%-20s %-17s %-9s %-15s %-8s %s\n",
			e.OccurredAt.Local().Format("2006-01-02 15:04:05"), e.Type, e.ItemKind, e.ItemID, e.PersonID, e.Reason)
	}
}
