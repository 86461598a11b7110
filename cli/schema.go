package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"crucible/internal/config"
	"crucible/internal/gen"
	"crucible/internal/manifest"
	"crucible/internal/store"
)

const commandTimeout = 2 * time.Minute

// driftError is returned by check when the manifest no longer matches.
type driftError struct{ count int }

func (e *driftError) Error() string {
	return fmt.Sprintf("schema drifted from the manifest: %d difference(s)", e.count)
}

func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	d, err := store.ParseDialect(a.cfg.Dialect)
	if err != nil {
		return nil, err
	}

	return store.Open(ctx, d, a.cfg.DSN, store.WithLogger(a.logger))
}

func (a *app) ddlCommand() *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "ddl",
		Short: "Print or apply the schema DDL",
		Long: `Print the CREATE statements for every mapped table in the configured
dialect. With --apply the statements are executed against the configured
database instead; existing tables are left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			md := a.reg.Generator().Metadata()

			if !apply {
				d, err := store.ParseDialect(a.cfg.Dialect)
				if err != nil {
					return err
				}

				script, err := store.Script(d, md)
				if err != nil {
					return err
				}

				_, err = fmt.Fprint(cmd.OutOrStdout(), script)

				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.CreateSchema(ctx, md); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "applied %d table(s) to %s\n", len(md.Tables()), s.Dialect().Name())

			return err
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "execute the DDL against the database")

	return cmd
}

func (a *app) stubsCommand() *cobra.Command {
	var noComments bool

	cmd := &cobra.Command{
		Use:   "stubs",
		Short: "Generate typed record wrappers",
		Long: `Generate one Go file per concrete class with a typed wrapper around
its persistence record: getters and setters for columns, getters and link
methods for relationships.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g := gen.NewGenerator(gen.GeneratorConfig{
				PackageName:      a.cfg.Package,
				OutputDir:        a.cfg.OutputDir,
				GenerateComments: !noComments,
			})

			files, err := g.Generate(a.reg.Generator().Classes())
			if err != nil {
				return err
			}

			if err := gen.WriteFiles(files, a.cfg.OutputDir); err != nil {
				return err
			}

			for _, f := range files {
				a.logger.Debug("generated", "file", f.Filename)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %d file(s) to %s\n", len(files), a.cfg.OutputDir)

			return err
		},
	}

	flags := cmd.Flags()
	flags.String("output-dir", "", "output directory (default: ./records)")
	flags.String("package", "", "package name (default: records)")
	flags.BoolVar(&noComments, "no-comments", false, "omit doc comments")

	a.bind(flags.Lookup("output-dir"), config.KeyOutputDir)
	a.bind(flags.Lookup("package"), config.KeyPackage)

	return cmd
}

func (a *app) manifestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "manifest",
		Short: "Lock the current schema in the manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m := manifest.FromClasses(a.reg.Generator().Classes())
			if err := manifest.WriteFile(m, a.cfg.Manifest); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "locked %d class(es) in %s\n", len(m.Classes), a.cfg.Manifest)

			return err
		},
	}
}

func (a *app) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Compare the current schema with the manifest",
		Long: `Compare the classes of the registry with the locked manifest and list
every difference. The command fails when the schema drifted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			locked, err := manifest.LoadFile(a.cfg.Manifest)
			if err != nil {
				return err
			}

			diags := manifest.Check(locked, manifest.FromClasses(a.reg.Generator().Classes()))
			out := cmd.OutOrStdout()

			for _, d := range diags.Errors {
				fmt.Fprintln(out, d.String())
			}

			if diags.HasErrors() {
				return &driftError{count: len(diags.Errors)}
			}

			_, err = fmt.Fprintln(out, "schema matches the manifest")

			return err
		},
	}
}
