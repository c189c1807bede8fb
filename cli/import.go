// ABOUTME: import and retry commands: push normalized vendors to the board
// ABOUTME: Every run is recorded in the ledger so incomplete vendors can be retried
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ProxiMyti/proximyti-monday-integration/board"
	"github.com/ProxiMyti/proximyti-monday-integration/db"
	"github.com/ProxiMyti/proximyti-monday-integration/models"
	"github.com/ProxiMyti/proximyti-monday-integration/normalize"
	"github.com/ProxiMyti/proximyti-monday-integration/sync"
)

// source selects where vendor records come from: a raw CRM export, or
// the vendors CSV and contacts JSON written by clean.
type source struct {
	crm      string
	vendors  string
	contacts string
}

func (s *source) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.crm, "in", "", "CRM export CSV")
	cmd.Flags().StringVar(&s.vendors, "vendors", "", "Cleaned vendors CSV (instead of --in)")
	cmd.Flags().StringVar(&s.contacts, "contacts", "", "Contacts JSON to pair with --vendors")
	cmd.MarkFlagsMutuallyExclusive("in", "vendors")
	cmd.MarkFlagsOneRequired("in", "vendors")
}

// load returns one sync record per vendor, keyed by vendor code.
func (s *source) load(a *app) ([]sync.Record, error) {
	if s.crm != "" {
		records, _, err := a.readCRM(s.crm)
		if err != nil {
			return nil, err
		}
		return toRecords(records), nil
	}

	f, err := os.Open(s.vendors)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.vendors, err)
	}
	defer func() { _ = f.Close() }()

	vendors, err := normalize.ReadVendorsCSV(f)
	if err != nil {
		return nil, err
	}

	byCode := map[string][]models.Contact{}
	if s.contacts != "" {
		cf, err := os.Open(s.contacts)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", s.contacts, err)
		}
		defer func() { _ = cf.Close() }()
		if byCode, err = normalize.ReadContactsJSON(cf); err != nil {
			return nil, err
		}
	}

	records := make([]normalize.Record, 0, len(vendors))
	for _, v := range vendors {
		records = append(records, normalize.Record{Vendor: v, Contacts: byCode[v.VendorCode]})
	}
	return toRecords(records), nil
}

func toRecords(records []normalize.Record) []sync.Record {
	out := make([]sync.Record, 0, len(records))
	for _, r := range records {
		children := make([]sync.ChildRecord, 0, len(r.Contacts))
		for _, c := range r.Contacts {
			children = append(children, sync.ChildRecord{Contact: c})
		}
		out = append(out, sync.Record{Key: r.Vendor.VendorCode, Vendor: r.Vendor, Contacts: children})
	}
	return out
}

// onlyKeys keeps the records whose key is in keys, preserving order.
func onlyKeys(records []sync.Record, keys []string) []sync.Record {
	want := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			want[k] = struct{}{}
		}
	}

	var out []sync.Record
	for _, r := range records {
		if _, ok := want[r.Key]; ok {
			out = append(out, r)
		}
	}
	return out
}

func newImportCommand(a *app) *cobra.Command {
	var src source
	var only []string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create or update board items for every vendor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := src.load(a)
			if err != nil {
				return err
			}
			if len(only) > 0 {
				records = onlyKeys(records, only)
			}

			if dryRun {
				a.printPlan(records)
				return nil
			}
			return a.pushToBoard(cmd.Context(), records)
		},
	}
	src.register(cmd)
	cmd.Flags().StringSliceVar(&only, "only", nil, "Vendor codes to import (default all)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print what would be pushed without calling the board")
	return cmd
}

func newRetryCommand(a *app) *cobra.Command {
	var src source
	var runID string

	cmd := &cobra.Command{
		Use:   "retry",
		Short: "Re-push the vendors a previous import did not write completely",
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys, err := a.incompleteKeys(runID)
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				_, _ = fmt.Fprintln(a.out, okStyle.Render("✓ nothing to retry"))
				return nil
			}

			records, err := src.load(a)
			if err != nil {
				return err
			}
			retry := onlyKeys(records, keys)
			if missing := len(keys) - len(retry); missing > 0 {
				a.log.Warn("incomplete vendors not found in input", "count", missing)
			}
			return a.pushToBoard(cmd.Context(), retry)
		},
	}
	src.register(cmd)
	cmd.Flags().StringVar(&runID, "run", "", "Run id to retry (default the latest board run)")
	return cmd
}

func (a *app) incompleteKeys(runID string) ([]string, error) {
	ledger, err := a.openLedger()
	if err != nil {
		return nil, err
	}
	defer func() { _ = ledger.Close() }()

	if runID == "" {
		if runID, err = db.LatestRunID(ledger, models.StoreBoard); err != nil {
			return nil, err
		}
		if runID == "" {
			return nil, errors.New("no board run recorded yet")
		}
	}
	return db.IncompleteKeys(ledger, models.StoreBoard, runID)
}

func (a *app) printPlan(records []sync.Record) {
	_, _ = fmt.Fprintln(a.out, titleStyle.Render(fmt.Sprintf("Dry run: %d vendors", len(records))))
	for _, r := range records {
		_, _ = fmt.Fprintf(a.out, "  %-30s %-22s %d contacts\n", r.Key, r.Vendor.ServiceZone, len(r.Contacts))
	}
}

// pushToBoard syncs records into the board and records the run.
func (a *app) pushToBoard(ctx context.Context, records []sync.Record) error {
	runID, report, err := a.track(ctx, models.StoreBoard, func(ctx context.Context) (*sync.Report, error) {
		client, err := a.boardClient()
		if err != nil {
			return nil, err
		}
		mapping, err := a.boardMapping(ctx, client)
		if err != nil {
			return nil, err
		}
		target, err := board.NewTarget(client, mapping)
		if err != nil {
			return nil, err
		}

		engine := sync.NewEngine(target, sync.WithPacer(sync.NewPacer(a.cfg.SyncDelay)))
		return engine.Sync(ctx, records), nil
	})
	if err != nil {
		return err
	}

	printReport(a.out, "Board import", runID, report)
	if report.Failed() > 0 {
		return fmt.Errorf("%d of %d vendors incomplete, rerun with: proximyti retry --run %s", report.Failed(), report.Total(), runID)
	}
	return nil
}
