package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rahul/stepwright/internal/observability"
	"github.com/rahul/stepwright/internal/store"
	"github.com/rahul/stepwright/pkg/config"
)

var (
	configPath string
	quiet      bool
)

func main() {
	// Route all log output through the terminal mutex so it never
	// interrupts the live status line.
	log.SetOutput(observability.NewTermWriter())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "stepwright",
	Short:         "Describe a browser test once, emit it for any framework or run it live",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !quiet && observability.IsTerminal() && cmd.Name() == "run" {
			observability.PrintBanner(os.Stdout)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json", "path to the JSON config file")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress the banner and live status")
}

// app bundles the loaded configuration and the resources commands share.
type app struct {
	cfg    *config.Config
	logger *observability.Logger
	store  *store.Store
}

func loadApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := observability.NewLoggerTo(observability.NewTermWriter(), cfg.App.LogDir)
	if quiet {
		logger = observability.Discard()
	}
	return &app{cfg: cfg, logger: logger}, nil
}

// openStore opens the sqlite store on first use.
func (a *app) openStore() (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := store.Open(a.cfg.Memory.Path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", a.cfg.Memory.Path, err)
	}
	a.store = s
	return s, nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
}
