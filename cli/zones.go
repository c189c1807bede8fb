// ABOUTME: zones command: reclassify every board item's service zone
// ABOUTME: Reads City and Zip Code from the board and writes changed zones back
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ProxiMyti/proximyti-monday-integration/board"
	"github.com/ProxiMyti/proximyti-monday-integration/sync"
)

func newZonesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "zones",
		Short: "Recompute the Service Zone of every board item",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			classifier, err := a.classifier()
			if err != nil {
				return err
			}
			client, err := a.boardClient()
			if err != nil {
				return err
			}
			mapping, err := a.boardMapping(ctx, client)
			if err != nil {
				return err
			}

			result, err := board.Reclassify(ctx, client, mapping, classifier, sync.NewPacer(a.cfg.SyncDelay))
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(a.out, titleStyle.Render("Service zones updated"))
			_, _ = fmt.Fprintf(a.out, "  %s %d\n", okStyle.Render("✓ updated:"), result.Updated)
			_, _ = fmt.Fprintf(a.out, "  unchanged %d\n", result.Unchanged)
			_, _ = fmt.Fprintf(a.out, "  %s %d\n", warnStyle.Render("skipped (no city):"), result.Skipped)
			_, _ = fmt.Fprintf(a.out, "  %s %d\n", errorStyle.Render("✗ failed:"), result.Failed)
			if result.Failed > 0 {
				return fmt.Errorf("%d zone updates failed", result.Failed)
			}
			return nil
		},
	}
}
