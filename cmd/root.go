// Package cmd implements the openclaw-docker command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pythonstrup/openclaw-docker/internal/config"
)

var configPath string

// Execute runs the root command.
func Execute() {
	root := &cobra.Command{
		Use:   "openclaw-docker",
		Short: "Bootstrap an OpenClaw gateway inside a locked-down container",
		Long: "openclaw-docker provisions OAuth credentials from a host-mounted file,\n" +
			"breaks the device-pairing startup deadlock by approving this node's own\n" +
			"pending request, and then hands off to the gateway process.",
	}

	root.PersistentFlags().StringVar(&configPath, "config", "",
		"path to a YAML config file (environment variables still win)")

	root.AddCommand(upCmd())
	root.AddCommand(pairingCmd())
	root.AddCommand(doctorCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves configuration from the --config flag, a .env
// file if present, the environment, and path conventions.
func loadConfig() *config.Config {
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
