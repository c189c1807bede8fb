// ABOUTME: clean command: CRM export to board-ready vendors CSV and contacts JSON
// ABOUTME: Runs the normalizer offline and reports zone and contact counts
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ProxiMyti/proximyti-monday-integration/normalize"
)

func newCleanCommand(a *app) *cobra.Command {
	var in, out, contactsOut string

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Normalize a CRM export into a vendors CSV and a contacts JSON file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, skipped, err := a.readCRM(in)
			if err != nil {
				return err
			}

			if err := writeFile(out, func(w io.Writer) error {
				return normalize.WriteVendorsCSV(w, records)
			}); err != nil {
				return err
			}
			if err := writeFile(contactsOut, func(w io.Writer) error {
				return normalize.WriteContactsJSON(w, records)
			}); err != nil {
				return err
			}

			a.printCleanSummary(records, skipped)
			_, _ = fmt.Fprintf(a.out, "\n%s %s\n", okStyle.Render("✓ vendors:"), out)
			_, _ = fmt.Fprintf(a.out, "%s %s\n", okStyle.Render("✓ contacts:"), contactsOut)
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "CRM export CSV")
	cmd.Flags().StringVar(&out, "out", "vendors-cleaned.csv", "Vendors CSV to write")
	cmd.Flags().StringVar(&contactsOut, "contacts", "vendor-contacts.json", "Contacts JSON to write")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

// readCRM reads and normalizes a CRM export file.
func (a *app) readCRM(path string) ([]normalize.Record, int, error) {
	classifier, err := a.classifier()
	if err != nil {
		return nil, 0, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	rows, err := normalize.ReadCSV(f)
	if err != nil {
		return nil, 0, err
	}

	records, skipped := normalize.NewNormalizer(classifier).Rows(rows)
	a.log.Info("normalized crm export", "file", path, "vendors", len(records), "skipped", skipped)
	return records, skipped, nil
}

func (a *app) printCleanSummary(records []normalize.Record, skipped int) {
	contacts, multi := 0, 0
	for _, r := range records {
		contacts += len(r.Contacts)
		if len(r.Contacts) > 1 {
			multi++
		}
	}

	_, _ = fmt.Fprintln(a.out, titleStyle.Render("CRM export cleaned"))
	_, _ = fmt.Fprintf(a.out, "  vendors %d, skipped rows %d, contacts %d\n\n", len(records), skipped, contacts)
	printZoneCounts(a.out, normalize.ZoneCounts(records))

	if multi == 0 {
		return
	}
	_, _ = fmt.Fprintln(a.out)
	_, _ = fmt.Fprintln(a.out, headerStyle.Render(fmt.Sprintf("Vendors with several contacts (%d)", multi)))
	for _, r := range records {
		if len(r.Contacts) <= 1 {
			continue
		}
		_, _ = fmt.Fprintf(a.out, "  %s: %d contacts\n", r.Vendor.ShopName, len(r.Contacts))
		for _, c := range r.Contacts {
			_, _ = fmt.Fprintf(a.out, "    - %s\n", c.BoardLabel())
		}
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
