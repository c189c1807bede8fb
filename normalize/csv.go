// ABOUTME: CSV reading for CRM exports and writing of cleaned vendor files
// ABOUTME: Produces the board-titled vendor CSV and the contacts JSON export
package normalize

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ProxiMyti/proximyti-monday-integration/models"
	"github.com/ProxiMyti/proximyti-monday-integration/schema"
)

// ReadCSV parses a CSV export with a header row into raw rows.
// Cells are trimmed and blank lines skipped.
func ReadCSV(r io.Reader) ([]models.RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var rows []models.RawRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}
		if isBlank(record) {
			continue
		}

		row := make(models.RawRow, len(header))
		for i, column := range header {
			if i < len(record) {
				row[column] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// WriteVendorsCSV writes records using board column titles as the header.
func WriteVendorsCSV(w io.Writer, records []Record) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(schema.BoardTitles()); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, r := range records {
		line := make([]string, 0, len(schema.Fields))
		for _, f := range schema.Fields {
			line = append(line, f.Value(r.Vendor))
		}
		if err := writer.Write(line); err != nil {
			return fmt.Errorf("failed to write vendor %s: %w", r.Vendor.VendorCode, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// ReadVendorsCSV reads a file written by WriteVendorsCSV back into vendors.
func ReadVendorsCSV(r io.Reader) ([]models.Vendor, error) {
	rows, err := ReadCSV(r)
	if err != nil {
		return nil, err
	}

	titles := schema.BoardTitles()
	vendors := make([]models.Vendor, 0, len(rows))
	for _, row := range rows {
		var v models.Vendor
		for i, f := range schema.Fields {
			f.Set(&v, row.Get(titles[i]))
		}
		if v.ShopName == "" {
			continue
		}
		vendors = append(vendors, v)
	}

	return vendors, nil
}

// WriteContactsJSON writes the per-vendor contact lists.
func WriteContactsJSON(w io.Writer, records []Record) error {
	out := make([]models.VendorContacts, 0, len(records))
	for _, r := range records {
		contacts := r.Contacts
		if contacts == nil {
			contacts = []models.Contact{}
		}
		out = append(out, models.VendorContacts{
			VendorCode: r.Vendor.VendorCode,
			ShopName:   r.Vendor.ShopName,
			Contacts:   contacts,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("failed to encode contacts: %w", err)
	}
	return nil
}

// ReadContactsJSON reads a contacts export keyed by vendor code.
func ReadContactsJSON(r io.Reader) (map[string][]models.Contact, error) {
	var in []models.VendorContacts
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("failed to decode contacts: %w", err)
	}

	byCode := make(map[string][]models.Contact, len(in))
	for _, vc := range in {
		byCode[vc.VendorCode] = vc.Contacts
	}
	return byCode, nil
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
