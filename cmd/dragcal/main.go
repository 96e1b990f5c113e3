package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dragcal/internal/config"
	appLog "dragcal/internal/log"
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dragcal",
		Short:         "Calendar drag host",
		Long:          "dragcal serves subscribed ICS calendars and applies drag, move and resize interactions posted by the browser.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "/etc/dragcal/config.yaml", "Path to config file")

	root.AddCommand(newServeCmd(), newEventsCmd())
	return root
}

// loadConfig loads, validates and applies the log level of the config
// named by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	level, _ := appLog.ParseLevel(cfg.LogLevel)
	appLog.SetLevel(level)
	return cfg, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		appLog.Error("dragcal failed", err)
		os.Exit(1)
	}
}
