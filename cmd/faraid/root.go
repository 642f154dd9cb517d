package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"faraid/internal/inheritance/engine"
	"faraid/internal/inheritance/service"
	"faraid/internal/platform/logger"
)

type rootOptions struct {
	spouseConflict string
	logLevel       string
	jsonOutput     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "faraid",
		Short:         "Islamic inheritance distribution under the four Sunni schools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.spouseConflict, "spouse-conflict", string(engine.SpouseConflictAbort), "husband and wife both present: abort or correct")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")
	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "print JSON instead of tables")

	cmd.AddCommand(
		newCalculateCmd(opts),
		newCompareCmd(opts),
		newMadhabsCmd(opts),
		newHeirsCmd(opts),
		newTokenCmd(),
	)
	return cmd
}

func (o *rootOptions) service(cmd *cobra.Command) (*service.Service, error) {
	policy, err := engine.ParseSpouseConflictPolicy(o.spouseConflict)
	if err != nil {
		return nil, err
	}
	return service.New(
		engine.New(engine.WithSpouseConflictPolicy(policy)),
		service.WithLogger(o.logger(cmd)),
	), nil
}

func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	return logger.NewWithWriter(cmd.ErrOrStderr(), o.logLevel, "text")
}
