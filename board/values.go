// ABOUTME: Conversion between vendor records and board column values
// ABOUTME: Formats cells per column type and reads items back into vendors
package board

import (
	"github.com/tidwall/gjson"

	"github.com/ProxiMyti/proximyti-monday-integration/models"
	"github.com/ProxiMyti/proximyti-monday-integration/schema"
	"github.com/ProxiMyti/proximyti-monday-integration/sync"
)

// Column types with structured values.
const (
	TypePhone    = "phone"
	TypeCheckbox = "checkbox"
	TypeLongText = "long_text"
	TypeStatus   = "status"
	TypeEmail    = "email"
)

// FormatValue renders value for a column of colType. Empty values are
// skipped so they never clear an existing cell.
func FormatValue(colType, value string) (any, bool) {
	if value == "" {
		return nil, false
	}

	switch colType {
	case TypePhone:
		return map[string]string{"phone": value, "countryShortName": "US"}, true
	case TypeCheckbox:
		return map[string]bool{"checked": schema.ParseBool(value)}, true
	case TypeLongText:
		return map[string]string{"text": value}, true
	case TypeStatus:
		return map[string]string{"label": value}, true
	case TypeEmail:
		return map[string]string{"email": value, "text": value}, true
	default:
		return value, true
	}
}

// ColumnValues builds the column_values payload for v.
func ColumnValues(m *schema.Mapping, v models.Vendor) map[string]any {
	values := make(map[string]any)
	for _, f := range schema.Fields {
		if f.IsItemName() {
			continue
		}
		col, ok := m.Column(f.Name)
		if !ok {
			continue
		}
		if formatted, ok := FormatValue(col.Type, f.Value(v)); ok {
			values[col.ID] = formatted
		}
	}
	return values
}

// ToVendor reads a board item into a vendor.
func ToVendor(m *schema.Mapping, item Item) models.Vendor {
	v := models.Vendor{ShopName: item.Name}
	for _, cv := range item.Columns {
		f, ok := m.FieldForColumn(cv.ID)
		if !ok {
			continue
		}

		value := cv.Text
		if f.Name == schema.FieldPrimaryPhone && cv.Value != "" {
			if phone := gjson.Get(cv.Value, "phone").String(); phone != "" {
				value = phone
			}
		}
		f.Set(&v, value)
	}
	return v
}

// ToRecords converts board items into records keyed by item id, with
// every subitem as a child contact.
func ToRecords(m *schema.Mapping, items []Item) []sync.Record {
	records := make([]sync.Record, 0, len(items))
	for _, item := range items {
		rec := sync.Record{Key: item.ID, Vendor: ToVendor(m, item)}
		for _, sub := range item.Subitems {
			rec.Contacts = append(rec.Contacts, sync.ChildRecord{
				Key:     sub.ID,
				Contact: models.ParseBoardLabel(sub.Name),
			})
		}
		records = append(records, rec)
	}
	return records
}
