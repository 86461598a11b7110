package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"crucible/entity"
	"crucible/internal/store"
)

// Demo runs a persistence round trip over an open store, writing its
// progress to w.
type Demo func(ctx context.Context, reg *entity.Registry, s *store.Store, w io.Writer) error

// Option configures the root command.
type Option func(*app)

// WithDemo adds the demo command running fn.
func WithDemo(fn Demo) Option {
	return func(a *app) { a.demo = fn }
}

func (a *app) demoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run a persistence round trip against the configured database",
		Long: `Create the schema in the configured database, persist a few entities,
query them back and print the loaded entities.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.CreateSchema(ctx, a.reg.Generator().Metadata()); err != nil {
				return err
			}

			return a.demo(ctx, a.reg, s, cmd.OutOrStdout())
		},
	}
}
