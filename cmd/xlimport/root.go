package main

import (
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/xlimport/internal/config"
	"github.com/JonMunkholm/xlimport/internal/core"
	"github.com/JonMunkholm/xlimport/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	envFile  string
	registry *core.Registry
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{registry: core.DefaultRegistry()}
	return newRootCmdWith(opts)
}

func newRootCmdWith(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "xlimport",
		Short:         "Import spreadsheet rows into typed records",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.envFile, "env", "e", "", "Environment file to load before reading configuration")

	cmd.AddCommand(
		newImportCmd(opts),
		newTypesCmd(opts),
		newTemplateCmd(opts),
	)
	return cmd
}

// loadConfig reads the environment file, if any, and the configuration.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", o.envFile, err)
		}
	}
	return config.Load()
}

func (o *rootOptions) logger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
}

func (o *rootOptions) recordType(key string) (core.RecordType, error) {
	rt, ok := o.registry.Get(key)
	if !ok {
		return core.RecordType{}, fmt.Errorf("%w: %s", core.ErrUnknownRecordType, key)
	}
	return rt, nil
}
