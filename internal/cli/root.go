package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// Execute runs the gema-admin command tree with args (os.Args when nil)
// and releases redis and nats connections whether or not the command
// failed.
func Execute(ctx context.Context, opts Options, args []string) error {
	root, app := newRootCommand(opts)
	if args != nil {
		root.SetArgs(args)
	}
	defer func() {
		if a := app(); a != nil {
			a.Close()
		}
	}()
	return root.ExecuteContext(ctx)
}

func newRootCommand(opts Options) (*cobra.Command, func() *App) {
	var app *App
	current := func() *App { return app }

	root := &cobra.Command{
		Use:           "gema-admin",
		Short:         "Administer the GEMA school backend from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			built, err := bootstrap(cmd.Context(), opts)
			if err != nil {
				return err
			}
			app = built
			return nil
		},
	}

	root.AddCommand(
		newLoginCommand(current),
		newLogoutCommand(current),
		newWhoamiCommand(current),
		newListCommand(current),
		newStatsCommand(current),
		newDeleteCommand(current),
		newWatchCommand(current),
	)
	return root, current
}
