// ABOUTME: status and check commands: ledger state and connectivity checks
// ABOUTME: status reads the local ledger; check calls the board and mirror
package cli

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ProxiMyti/proximyti-monday-integration/db"
	"github.com/ProxiMyti/proximyti-monday-integration/models"
)

func newStatusCommand(a *app) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the latest board and mirror runs from the ledger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ledger, err := a.openLedger()
			if err != nil {
				return err
			}
			defer func() { _ = ledger.Close() }()

			_, _ = fmt.Fprintln(a.out, titleStyle.Render("Sync status"))
			for _, target := range []string{models.StoreBoard, models.StoreMirror} {
				if err := a.printTargetStatus(ledger, target, verbose); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List every vendor of the latest run")
	return cmd
}

func (a *app) printTargetStatus(ledger *sql.DB, target string, verbose bool) error {
	_, _ = fmt.Fprintln(a.out)
	_, _ = fmt.Fprintln(a.out, headerStyle.Render(strings.ToUpper(target[:1])+target[1:]))

	state, err := db.GetSyncState(ledger, target)
	if err != nil {
		return err
	}
	if state == nil {
		_, _ = fmt.Fprintln(a.out, messageStyle.Render("  never synced"))
		return nil
	}

	_, _ = fmt.Fprintf(a.out, "  status: %s\n", statusStyle(state.Status).Render(state.Status))
	if state.LastSyncTime != nil {
		_, _ = fmt.Fprintf(a.out, "  last run: %s (%s ago)\n",
			state.LastSyncTime.Local().Format("2006-01-02 15:04"), time.Since(*state.LastSyncTime).Round(time.Second))
	}
	if state.ErrorMessage != nil {
		_, _ = fmt.Fprintf(a.out, "  error: %s\n", errorStyle.Render(*state.ErrorMessage))
	}
	if state.LastRunID == nil {
		return nil
	}

	entries, err := db.RunOutcomes(ledger, target, *state.LastRunID)
	if err != nil {
		return err
	}

	counts := map[string]int{}
	for _, e := range entries {
		counts[e.Status]++
	}
	_, _ = fmt.Fprintf(a.out, "  run %s: %s %d, %s %d, %s %d\n", *state.LastRunID,
		okStyle.Render(models.StatusComplete), counts[models.StatusComplete],
		warnStyle.Render(models.StatusPartialChildren), counts[models.StatusPartialChildren],
		errorStyle.Render(models.StatusFailed), counts[models.StatusFailed])

	for _, e := range entries {
		if !verbose && e.Status == models.StatusComplete {
			continue
		}
		line := fmt.Sprintf("    %s %s (%s)", statusStyle(e.Status).Render(e.Status), e.VendorName, e.RecordKey)
		if e.Error != "" {
			line += " " + messageStyle.Render(e.Error)
		}
		_, _ = fmt.Fprintln(a.out, line)
	}
	return nil
}

func newCheckCommand(a *app) *cobra.Command {
	var skipMirror bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the board token, board columns and mirror connection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			_, _ = fmt.Fprintln(a.out, titleStyle.Render("Connection check"))

			client, err := a.boardClient()
			if err != nil {
				return err
			}
			name, err := client.Me(ctx)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(a.out, "  %s authenticated as %s\n", okStyle.Render("✓"), name)

			mapping, err := a.boardMapping(ctx, client)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(a.out, "  %s board %s has every required column\n", okStyle.Render("✓"), a.cfg.BoardID)
			for _, title := range mapping.Missing {
				_, _ = fmt.Fprintf(a.out, "  %s optional column missing: %s\n", warnStyle.Render("!"), title)
			}

			if skipMirror {
				return nil
			}
			store, release, err := a.openMirror(ctx)
			if err != nil {
				return err
			}
			defer release()
			if err := store.Ping(ctx); err != nil {
				return fmt.Errorf("mirror unreachable: %w", err)
			}
			_, _ = fmt.Fprintf(a.out, "  %s mirror reachable (%s)\n", okStyle.Render("✓"), a.cfg.MirrorDriver)
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipMirror, "board-only", false, "Skip the mirror check")
	return cmd
}
