package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/sieve/internal/config"
)

// RootOptions holds global flags and the settings resolved from them.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string

	// Settings are resolved in PersistentPreRunE. Commands built without
	// the root command see zero Settings and fall back to config.Defaults.
	Settings config.Settings

	logger *slog.Logger
}

// NewRootCommand creates the root command for the sieve CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "sieve",
		Short: "sieve - bracket filter queries for Go records",
		Long: `Parse JSON:API style bracket filters into condition trees and compile
them into record predicates or parameterized SQL.

Settings come from flags, SIEVE_* environment variables and sieve.yaml,
in that order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(cmd.Flags(), opts.ConfigFile)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			opts.Settings = settings
			opts.Format = settings.Format
			opts.Verbose = settings.Verbose

			if opts.Verbose {
				opts.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
				slog.SetDefault(opts.logger)
			}
			return nil
		},
	}

	def := config.Defaults()

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", def.Format, "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default ./sieve.yaml if present)")
	cmd.PersistentFlags().String("param", def.Param, "query parameter carrying filters")
	cmd.PersistentFlags().Duration("match-timeout", def.MatchTimeout, "time limit for decomposing one filter key")
	cmd.PersistentFlags().Duration("regex-timeout", def.RegexTimeout, "time limit for one $regex match")

	// Add subcommands
	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewEvalCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// settings returns the resolved settings, or the defaults when the command
// runs without the root command.
func (o *RootOptions) settings() config.Settings {
	if o.Settings.Param == "" {
		return config.Defaults()
	}
	return o.Settings
}

// Logger returns the logger commands hand to the parser and compiler.
// Without --verbose, logs are discarded.
func (o *RootOptions) Logger() *slog.Logger {
	if o.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.logger
}

// formatter returns the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}
