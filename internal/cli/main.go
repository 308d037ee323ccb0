package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/forPelevin/hlshorts/internal/config"
	"github.com/forPelevin/hlshorts/internal/logging"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := newRootCommand()
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "hlshorts",
		Short:         "Turn a long video into captioned vertical shorts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to hlshorts.toml (default: ./hlshorts.toml, then ~/.config/hlshorts/config.toml)")

	root.AddCommand(newRunCommand(&configPath))
	root.AddCommand(newServeCommand(&configPath))
	root.AddCommand(newConfigCommand(&configPath))
	return root
}

// loadRuntime loads the config and builds the logger from it.
func loadRuntime(configPath string) (*config.Config, *logrus.Logger, error) {
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: %w", err)
	}
	return cfg, logger, nil
}
