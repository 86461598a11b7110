// Package cli provides the crucible command line: schema DDL, typed record
// stubs, the schema manifest and a persistence round trip demo, all over an
// entity registry supplied by the caller.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"crucible/entity"
	"crucible/internal/config"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitDrift     = 3
)

// Version is the crucible version reported by the version command.
var Version = "dev"

// Builder creates the entity registry the commands operate on.
type Builder func(opts ...entity.RegistryOption) (*entity.Registry, error)

type app struct {
	build   Builder
	demo    Demo
	v       *viper.Viper
	cfgFile string

	cfg    config.Config
	logger *slog.Logger
	reg    *entity.Registry
}

// NewRootCommand returns the crucible root command. Every subcommand loads
// the configuration and builds its registry with build.
func NewRootCommand(build Builder, opts ...Option) *cobra.Command {
	a := &app{build: build, v: config.New()}
	for _, opt := range opts {
		opt(a)
	}

	root := &cobra.Command{
		Use:   "crucible",
		Short: "Crucible maps domain entities onto relational records",
		Long: `Crucible converts domain entities into persistence records and back.
The commands inspect and persist the entities of the built-in registry:
they print the schema DDL, generate typed record wrappers, lock the schema
in a manifest and run a persistence round trip.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: ./crucible.yaml)")
	flags.String("dialect", "", "SQL dialect: sqlite or postgres")
	flags.String("dsn", "", "database connection string")
	flags.StringSlice("coercions", nil, "enabled coercion categories, e.g. safe_number,seconds")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("manifest", "", "schema manifest path")

	a.bind(flags.Lookup("dialect"), config.KeyDialect)
	a.bind(flags.Lookup("dsn"), config.KeyDSN)
	a.bind(flags.Lookup("coercions"), config.KeyCoercions)
	a.bind(flags.Lookup("log-level"), config.KeyLogLevel)
	a.bind(flags.Lookup("manifest"), config.KeyManifest)

	root.AddCommand(
		a.ddlCommand(),
		a.stubsCommand(),
		a.manifestCommand(),
		a.checkCommand(),
		versionCommand(),
	)

	if a.demo != nil {
		root.AddCommand(a.demoCommand())
	}

	return root
}

// Execute runs the root command with the process arguments and returns the
// exit code.
func Execute(build Builder, opts ...Option) int {
	root := NewRootCommand(build, opts...)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)

		var drift *driftError
		if errors.As(err, &drift) {
			return exitDrift
		}

		return exitUserError
	}

	return exitSuccess
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.v, a.cfgFile, ".")
	if err != nil {
		return err
	}

	logger, err := cfg.Logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	cats, err := cfg.Categories()
	if err != nil {
		return err
	}

	reg, err := a.build(entity.WithLogger(logger), entity.WithCoercions(cats))
	if err != nil {
		return fmt.Errorf("build registry: %w", err)
	}

	a.cfg, a.logger, a.reg = cfg, logger, reg
	logger.Debug("configuration loaded", "dialect", cfg.Dialect, "coercions", cats.String())

	return nil
}

func (a *app) bind(flag *pflag.Flag, key string) {
	if err := a.v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the crucible version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "crucible %s\n", Version)

			return err
		},
	}
}
