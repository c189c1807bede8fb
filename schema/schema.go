// ABOUTME: Explicit mapping between vendor fields and store columns
// ABOUTME: Resolves board column titles to ids once and fails fast on gaps
package schema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ProxiMyti/proximyti-monday-integration/models"
)

// ErrMissingColumn means a required field has no column on the target board.
var ErrMissingColumn = errors.New("required column missing from board")

// Field names.
const (
	FieldVendorCode         = "vendor_code"
	FieldShopName           = "shop_name"
	FieldAddress            = "address"
	FieldCity               = "city"
	FieldState              = "state"
	FieldZipCode            = "zip_code"
	FieldServiceZone        = "service_zone"
	FieldGeoToken           = "what3words"
	FieldPickupDoor         = "pickup_door"
	FieldFloorLevel         = "floor_level"
	FieldPickupInstructions = "pickup_instructions"
	FieldAccessCode         = "access_code"
	FieldBusinessHours      = "business_hours"
	FieldPrimaryContact     = "primary_contact"
	FieldPrimaryPhone       = "primary_phone"
	FieldActiveStatus       = "active_status"
)

// Field describes one vendor attribute and where each store keeps it.
type Field struct {
	Name string
	// BoardTitle is the board column title; empty means the item name.
	BoardTitle string
	// MirrorColumn is the relational column name.
	MirrorColumn string
	Required     bool
	get          func(models.Vendor) string
	set          func(*models.Vendor, string)
}

// Value reads the field from v.
func (f Field) Value(v models.Vendor) string {
	return f.get(v)
}

// Set writes s into v.
func (f Field) Set(v *models.Vendor, s string) {
	f.set(v, s)
}

// IsItemName reports whether the field is the board item name.
func (f Field) IsItemName() bool {
	return f.BoardTitle == ""
}

// Fields lists every vendor field in board column order.
var Fields = []Field{
	text(FieldVendorCode, "Vendor Code", true, func(v *models.Vendor) *string { return &v.VendorCode }),
	text(FieldShopName, "", true, func(v *models.Vendor) *string { return &v.ShopName }),
	text(FieldAddress, "Address", false, func(v *models.Vendor) *string { return &v.Address }),
	text(FieldCity, "City", true, func(v *models.Vendor) *string { return &v.City }),
	text(FieldState, "State", false, func(v *models.Vendor) *string { return &v.State }),
	text(FieldZipCode, "Zip Code", false, func(v *models.Vendor) *string { return &v.ZipCode }),
	text(FieldServiceZone, "Service Zone", true, func(v *models.Vendor) *string { return &v.ServiceZone }),
	text(FieldGeoToken, "What3Words", false, func(v *models.Vendor) *string { return &v.GeoToken }),
	text(FieldPickupDoor, "Pickup Door", false, func(v *models.Vendor) *string { return &v.PickupDoor }),
	text(FieldFloorLevel, "Floor Level", false, func(v *models.Vendor) *string { return &v.FloorLevel }),
	text(FieldPickupInstructions, "Pickup Instructions", false, func(v *models.Vendor) *string { return &v.PickupInstructions }),
	text(FieldAccessCode, "Access Code", false, func(v *models.Vendor) *string { return &v.AccessCode }),
	text(FieldBusinessHours, "Business Hours", false, func(v *models.Vendor) *string { return &v.BusinessHours }),
	text(FieldPrimaryContact, "Primary Contact", false, func(v *models.Vendor) *string { return &v.PrimaryContactName }),
	text(FieldPrimaryPhone, "Primary Phone", false, func(v *models.Vendor) *string { return &v.PrimaryPhone }),
	{
		Name:         FieldActiveStatus,
		BoardTitle:   "Active Status",
		MirrorColumn: FieldActiveStatus,
		get:          func(v models.Vendor) string { return strconv.FormatBool(v.ActiveStatus) },
		set:          func(v *models.Vendor, s string) { v.ActiveStatus = ParseBool(s) },
	},
}

func text(name, title string, required bool, ptr func(*models.Vendor) *string) Field {
	return Field{
		Name:         name,
		BoardTitle:   title,
		MirrorColumn: name,
		Required:     required,
		get:          func(v models.Vendor) string { return *ptr(&v) },
		set:          func(v *models.Vendor, s string) { *ptr(v) = s },
	}
}

// Lookup returns the field with the given name.
func Lookup(name string) (Field, bool) {
	for _, f := range Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// BoardTitles returns the CSV header used for cleaned vendor exports.
func BoardTitles() []string {
	titles := make([]string, 0, len(Fields))
	for _, f := range Fields {
		if f.IsItemName() {
			titles = append(titles, "Shop Name")
			continue
		}
		titles = append(titles, f.BoardTitle)
	}
	return titles
}

// ParseBool accepts the spellings boards and spreadsheets use for true.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "v", "checked", "active", "done":
		return true
	}
	return false
}

// Column is a board column definition.
type Column struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// Mapping is the resolved field → column table for one board.
type Mapping struct {
	columns map[string]Column
	byID    map[string]Field
	// Missing lists optional fields the board has no column for.
	Missing []string
}

// Resolve binds Fields to the board's columns by title. Every missing
// required field is reported in a single ErrMissingColumn error.
func Resolve(columns []Column) (*Mapping, error) {
	byTitle := make(map[string]Column, len(columns))
	for _, col := range columns {
		byTitle[col.Title] = col
	}

	m := &Mapping{
		columns: make(map[string]Column),
		byID:    make(map[string]Field),
	}

	var missing []string
	for _, f := range Fields {
		if f.IsItemName() {
			continue
		}
		col, ok := byTitle[f.BoardTitle]
		if !ok {
			if f.Required {
				missing = append(missing, f.BoardTitle)
			} else {
				m.Missing = append(m.Missing, f.BoardTitle)
			}
			continue
		}
		m.columns[f.Name] = col
		m.byID[col.ID] = f
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	return m, nil
}

// Column returns the board column bound to field.
func (m *Mapping) Column(field string) (Column, bool) {
	col, ok := m.columns[field]
	return col, ok
}

// FieldForColumn returns the field bound to a board column id.
func (m *Mapping) FieldForColumn(columnID string) (Field, bool) {
	f, ok := m.byID[columnID]
	return f, ok
}
