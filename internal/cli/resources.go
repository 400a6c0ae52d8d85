package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/gema-admin/internal/dashboard"
	"github.com/noah-isme/gema-admin/internal/listing"
	"github.com/noah-isme/gema-admin/internal/resources"
)

func newListCommand(app func() *App) *cobra.Command {
	var filters []string
	var search string
	var pageNumber, limit int

	cmd := &cobra.Command{
		Use:   "list <resource>",
		Short: "List one page of records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			b, err := a.binding(args[0])
			if err != nil {
				return err
			}
			parsed, err := parseFilters(filters, b.filters)
			if err != nil {
				return err
			}
			if search != "" {
				parsed["search"] = search
			}
			out, err := b.fetch(cmd.Context(), resources.ListParams{Filters: parsed, Page: pageNumber, Limit: limit})
			if err != nil {
				return err
			}
			return a.print(out)
		},
	}
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "filter as key=value; repeat or separate with commas")
	cmd.Flags().StringVarP(&search, "search", "s", "", "free-text search")
	cmd.Flags().IntVar(&pageNumber, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", listing.DefaultLimit, "rows per page")
	return cmd
}

func newStatsCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <resource>",
		Short: "Show summary counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			b, err := a.binding(args[0])
			if err != nil {
				return err
			}
			stats, err := b.stats(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(stats)
		},
	}
}

func newDeleteCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <resource> <id>...",
		Short: "Delete records, in one bulk call when several ids are given",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			ctx := cmd.Context()
			b, err := a.binding(args[0])
			if err != nil {
				return err
			}
			broadcaster, err := a.broadcaster(ctx)
			if err != nil {
				a.logger.Warn().Err(err).Msg("mutation fan-out unavailable")
				broadcaster = nil
			}

			p := b.newPage(broadcaster, dashboard.NewLogNotifier(a.logger), a.logger)
			defer p.Close()

			deleted, err := p.Delete(ctx, args[1:])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted %d record(s)\n", deleted)
			return a.print(p.Output())
		},
	}
}
