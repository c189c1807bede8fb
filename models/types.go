// ABOUTME: Data models for vendor board entities
// ABOUTME: Defines Vendor, Contact, ExternalRef, and sync status constants
package models

import "strings"

// RawRow is one CRM export row keyed by column header.
type RawRow map[string]string

// Get returns the value for column, or "" when the column is absent.
func (r RawRow) Get(column string) string {
	return r[column]
}

type Vendor struct {
	VendorCode         string `json:"vendor_code"`
	ShopName           string `json:"shop_name"`
	Address            string `json:"address"`
	City               string `json:"city"`
	State              string `json:"state"`
	ZipCode            string `json:"zip_code"`
	ServiceZone        string `json:"service_zone"`
	GeoToken           string `json:"what3words"`
	PickupDoor         string `json:"pickup_door"`
	FloorLevel         string `json:"floor_level"`
	PickupInstructions string `json:"pickup_instructions"`
	AccessCode         string `json:"access_code"`
	BusinessHours      string `json:"business_hours"`
	PrimaryContactName string `json:"primary_contact"`
	PrimaryPhone       string `json:"primary_phone"`
	ActiveStatus       bool   `json:"active_status"`
}

type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Title string `json:"title"`
}

// DisplayName returns the contact name, falling back to the email.
func (c Contact) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Email
}

const (
	labelSeparator = " | "
	labelEmail     = "📧 "
	labelPhone     = "📞 "
	labelTitle     = "👔 "
)

// BoardLabel renders the contact as a subitem name.
func (c Contact) BoardLabel() string {
	parts := make([]string, 0, 4)
	if name := c.DisplayName(); name != "" {
		parts = append(parts, name)
	}
	if c.Email != "" {
		parts = append(parts, labelEmail+c.Email)
	}
	if c.Phone != "" {
		parts = append(parts, labelPhone+c.Phone)
	}
	if c.Title != "" {
		parts = append(parts, labelTitle+c.Title)
	}
	return strings.Join(parts, labelSeparator)
}

// ParseBoardLabel reverses BoardLabel. Unlabelled labels become the name.
func ParseBoardLabel(label string) Contact {
	parts := strings.Split(label, labelSeparator)
	contact := Contact{Name: parts[0]}
	for _, part := range parts {
		switch {
		case strings.HasPrefix(part, labelEmail):
			contact.Email = strings.TrimPrefix(part, labelEmail)
		case strings.HasPrefix(part, labelPhone):
			contact.Phone = strings.TrimPrefix(part, labelPhone)
		case strings.HasPrefix(part, labelTitle):
			contact.Title = strings.TrimPrefix(part, labelTitle)
		}
	}
	return contact
}

// VendorContacts is the contacts export for one vendor.
type VendorContacts struct {
	VendorCode string    `json:"vendorCode"`
	ShopName   string    `json:"shopName"`
	Contacts   []Contact `json:"contacts"`
}

// Store names tag an ExternalRef with the store that issued it.
const (
	StoreBoard  = "board"
	StoreMirror = "mirror"
)

// ExternalRef is the opaque id a store assigned to a vendor or contact.
type ExternalRef struct {
	Store string `json:"store"`
	ID    string `json:"id"`
	// Board is the board holding the item, set for board subitems.
	Board string `json:"board,omitempty"`
}

func (r ExternalRef) IsZero() bool {
	return r.ID == ""
}

// Vendor sync status constants.
const (
	StatusComplete        = "complete"
	StatusPartialChildren = "partial_children"
	StatusFailed          = "failed"
)

// Sync action constants.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionNone    = "none"
)

// Sync state constants.
const (
	SyncStatusIdle    = "idle"
	SyncStatusSyncing = "syncing"
	SyncStatusError   = "error"
)
