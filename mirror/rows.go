// ABOUTME: Relational row layout of the vendor mirror tables
// ABOUTME: Column lists and DDL shared by the PostgREST and Postgres stores
package mirror

import (
	"errors"
	"strconv"

	"github.com/ProxiMyti/proximyti-monday-integration/models"
	"github.com/ProxiMyti/proximyti-monday-integration/schema"
)

const (
	VendorsTable  = "vendors"
	ContactsTable = "vendor_contacts"

	colID        = "id"
	colItemID    = "monday_item_id"
	colSubitemID = "monday_subitem_id"
	colVendorID  = "vendor_id"
)

// ErrMissingSubitemKey means a contact has no board subitem id to key on.
var ErrMissingSubitemKey = errors.New("contact has no subitem id")

// vendorColumns returns the vendor row for itemID in schema field order,
// starting with the board item id.
func vendorColumns(itemID string, v models.Vendor) ([]string, []any) {
	cols := []string{colItemID}
	vals := []any{itemID}
	for _, f := range schema.Fields {
		cols = append(cols, f.MirrorColumn)
		vals = append(vals, f.Value(v))
	}
	return cols, vals
}

func vendorRow(itemID string, v models.Vendor) map[string]any {
	cols, vals := vendorColumns(itemID, v)
	row := make(map[string]any, len(cols))
	for i, col := range cols {
		row[col] = vals[i]
	}
	return row
}

func contactRow(c models.Contact) map[string]any {
	return map[string]any{
		"name":  c.DisplayName(),
		"email": c.Email,
		"phone": c.Phone,
		"title": c.Title,
	}
}

func parseID(r models.ExternalRef) (int64, error) {
	return strconv.ParseInt(r.ID, 10, 64)
}

func ref(id int64) models.ExternalRef {
	return models.ExternalRef{Store: models.StoreMirror, ID: strconv.FormatInt(id, 10)}
}

// Schema creates the mirror tables when they do not exist.
const Schema = `
CREATE TABLE IF NOT EXISTS vendors (
    id SERIAL PRIMARY KEY,
    monday_item_id TEXT UNIQUE NOT NULL,
    vendor_code TEXT,
    shop_name TEXT NOT NULL,
    address TEXT,
    city TEXT,
    state TEXT,
    zip_code TEXT,
    service_zone TEXT,
    what3words TEXT,
    pickup_door TEXT,
    floor_level TEXT,
    pickup_instructions TEXT,
    access_code TEXT,
    business_hours TEXT,
    primary_contact TEXT,
    primary_phone TEXT,
    active_status TEXT,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS vendor_contacts (
    id SERIAL PRIMARY KEY,
    vendor_id INTEGER REFERENCES vendors(id) ON DELETE CASCADE,
    monday_subitem_id TEXT UNIQUE NOT NULL,
    name TEXT,
    email TEXT,
    phone TEXT,
    title TEXT,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_vendors_service_zone ON vendors(service_zone);
CREATE INDEX IF NOT EXISTS idx_vendor_contacts_vendor_id ON vendor_contacts(vendor_id);
`
