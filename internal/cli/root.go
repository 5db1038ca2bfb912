// Package cli implements the iiinspect command line: catalog reflection and
// DDL regeneration against an Ingres or Vector server.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/syssam/actian/dialect"
	"github.com/syssam/actian/dialect/sql"
	"github.com/syssam/actian/internal/config"
)

// Version information (set at build time).
var Version = "0.1.0"

// Opener opens the driver described by the configuration.
type Opener func(cfg *config.Config) (dialect.Driver, error)

// Option configures the root command.
type Option func(*runner)

// WithOpener replaces the database/sql based opener.
func WithOpener(o Opener) Option {
	return func(r *runner) {
		r.open = o
	}
}

type configKey struct{}

// runner carries the state shared by all subcommands.
type runner struct {
	cfgFile string
	open    Opener
}

func openDriver(cfg *config.Config) (dialect.Driver, error) {
	return sql.Open(dialect.Ingres, cfg.Driver, cfg.DSN)
}

// NewRootCmd creates and returns the root command.
func NewRootCmd(opts ...Option) *cobra.Command {
	r := &runner{open: openDriver}
	for _, opt := range opts {
		opt(r)
	}
	rootCmd := &cobra.Command{
		Use:   "iiinspect",
		Short: "Inspect Ingres and Vector catalogs",
		Long: `iiinspect reflects tables, keys and indexes from an Ingres or Vector
catalog and regenerates their DDL.

Configuration is read from iiinspect.yaml, IIINSPECT_ environment
variables and flags, in increasing precedence.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, err := config.Load(r.cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			if cfg.Verbose && cfg.File != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Using config file: %s\n", cfg.File)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&r.cfgFile, "config", "", "config file (default: ./iiinspect.yaml)")
	flags.String("driver", "", "database/sql driver name")
	flags.String("dsn", "", "data source name")
	flags.StringP("schema", "s", "", "schema (owner) to inspect")
	flags.String("name-case", "", "identifier case policy (lower|upper|preserve|auto)")
	flags.Bool("system-indexes", false, "include indexes generated by the server")
	flags.StringP("output", "o", "", "output format (table|yaml|json)")
	flags.BoolP("verbose", "v", false, "log every catalog statement")
	flags.Bool("stats", false, "print statement statistics on exit")
	flags.Duration("slow-threshold", 0, "log statements slower than this")
	flags.String("redis", "", "redis address of the shared reflection cache")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.OutputTable, config.OutputYAML, config.OutputJSON}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("name-case", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"lower", "upper", "preserve", "auto"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(
		newCapabilitiesCmd(r),
		newTablesCmd(r),
		newDescribeCmd(r),
		newDDLCmd(r),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute(opts ...Option) error {
	if err := NewRootCmd(opts...).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// getConfig retrieves the config from the command context.
func getConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{Driver: config.DefaultDriver, Output: config.DefaultOutput}
}

func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}
