package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/legalgate/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Database   string

	// Config and Logger are filled in before any subcommand runs.
	Config *config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the legalgate CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "legalgate",
		Short: "legalgate - legal acceptance fixtures",
		Long: `Seed legal document acceptances and control agreement enforcement
around automated test runs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.load(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default .legalgate.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to the SQLite database")

	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewFixturesCommand(opts))
	cmd.AddCommand(NewAcceptCommand(opts))
	cmd.AddCommand(NewSuspendCommand(opts))
	cmd.AddCommand(NewRestoreCommand(opts))
	cmd.AddCommand(NewDocumentsCommand(opts))

	return cmd
}

// load resolves the effective configuration and installs the logger.
func (o *RootOptions) load(cmd *cobra.Command) error {
	overrides := map[string]any{}
	if o.Database != "" {
		overrides["database.path"] = o.Database
	}
	if o.Verbose {
		overrides["log.level"] = "debug"
	}

	cfg, err := config.Load(config.LoadOptions{
		ConfigPath:    o.ConfigPath,
		FlagOverrides: overrides,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	o.Config = &cfg
	o.Logger = newLogger(cmd.ErrOrStderr(), cfg.Log.Level)
	o.Logger.Debug("config loaded", "database", cfg.Database.Path, "location", cfg.Time.Location)
	return nil
}

// settings returns the loaded configuration. Commands built without the
// root command get the defaults plus the --db flag.
func (o *RootOptions) settings() config.Config {
	if o.Config != nil {
		return *o.Config
	}
	cfg := config.DefaultConfig()
	if o.Database != "" {
		cfg.Database.Path = o.Database
	}
	return cfg
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return discardLogger()
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:  o.Format,
		Writer:  cmd.OutOrStdout(),
		Verbose: o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
