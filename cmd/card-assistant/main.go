// Command card-assistant replays support conversations through the card
// assistant and maintains its intent catalog.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"card-assistant/internal/common/config"
	"card-assistant/internal/common/logger"
	"card-assistant/pkg/registry"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath  string
	metricsAddr string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "card-assistant",
		Short:         "Conversational payment-card support assistant",
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default: configs/config.yaml discovery)")
	root.PersistentFlags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve /health and /metrics on this address")

	root.AddCommand(newReplayCmd(opts), newIntentsCmd(opts), newCatalogCmd(opts))
	return root
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configPath != "" {
		return config.LoadFromFile(o.configPath)
	}
	return config.Load()
}

func newReplayCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replay SCENARIO.yaml...",
		Short: "Run scripted conversations and print their transcripts as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runReplay(ctx, cfg, log, opts.metricsAddr, args, cmd.OutOrStdout())
		},
	}
}

func runReplay(ctx context.Context, cfg *config.Config, log logger.Logger, metricsAddr string, paths []string, out io.Writer) error {
	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Warn("shutdown incomplete", map[string]interface{}{"error": err.Error()})
		}
	}()

	if addr := firstNonEmpty(metricsAddr, cfg.Metrics.Address); addr != "" {
		stopOps := serveOps(addr, cfg.App.Version, log)
		defer stopOps(context.Background())
	}

	flushDone := make(chan struct{})
	flushCtx, stopFlusher := context.WithCancel(context.Background())
	if app.flusher != nil {
		go func() {
			defer close(flushDone)
			app.flusher.Run(flushCtx)
		}()
	} else {
		close(flushDone)
	}
	defer func() {
		stopFlusher()
		<-flushDone
	}()

	start := time.Now()
	err = app.replay(ctx, paths, out)
	log.Info("replay finished", map[string]interface{}{
		"scenarios":  len(paths),
		"durationMs": time.Since(start).Milliseconds(),
		"events":     app.collector.Len(),
	})
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func newIntentsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "intents",
		Short: "List the registered intents and check them against the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			app, err := newApplication(cmd.Context(), cfg, logger.NewNoOpLogger())
			if err != nil {
				return err
			}
			defer app.Close()
			return printIntents(app, cmd.OutOrStdout())
		},
	}
}

func printIntents(app *application, out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTENT\tVERIFIED\tCATEGORY\tDESCRIPTION")
	for _, name := range app.agent.Router().Intents() {
		h, err := app.agent.Router().Route(name)
		if err != nil {
			return err
		}
		category, description := "-", "-"
		if app.catalog != nil {
			if entry, ok := app.catalog.Find(name); ok {
				category, description = entry.Category, entry.Description
			}
		}
		fmt.Fprintf(w, "%s\t%t\t%s\t%s\n", name, h.RequiresVerification(), category, description)
	}
	return w.Flush()
}

func newCatalogCmd(opts *rootOptions) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Maintain the intent catalog file",
	}
	cmd.PersistentFlags().StringVar(&path, "path", "configs/intents.json", "path to the intent catalog")

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the catalog file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := registry.LoadCatalog(path)
			if err != nil {
				return fmt.Errorf("failed to load catalog: %w", err)
			}
			if err := cat.Validate(); err != nil {
				return fmt.Errorf("catalog validation failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Catalog validation passed. Found %d intents.\n", len(cat.Intents))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set INTENT FIELD VALUE",
		Short: "Update one field of an intent (displayName, description, category, version, requiresVerification)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := registry.LoadCatalog(path)
			if err != nil {
				return fmt.Errorf("failed to load catalog: %w", err)
			}
			if err := cat.Set(args[0], args[1], args[2]); err != nil {
				return err
			}
			if err := cat.Validate(); err != nil {
				return fmt.Errorf("catalog validation failed: %w", err)
			}
			if err := registry.SaveCatalog(cat, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated intent %s, field %s to %s\n", args[0], args[1], args[2])
			return nil
		},
	})
	return cmd
}
