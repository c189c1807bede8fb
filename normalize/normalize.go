// ABOUTME: Turns raw CRM export rows into canonical vendor records
// ABOUTME: Composes the extractor and zone classifier; pure, no I/O
package normalize

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/ProxiMyti/proximyti-monday-integration/extract"
	"github.com/ProxiMyti/proximyti-monday-integration/models"
	"github.com/ProxiMyti/proximyti-monday-integration/zones"
)

// CRM export column names.
const (
	ColumnCompanyName   = "Company name"
	ColumnStreetAddress = "Street Address"
	ColumnShopAddress   = "Shop Address"
	ColumnStreet2       = "Street Address 2"
	ColumnCity          = "City"
	ColumnPickup        = "Pickup Instructions"
	ColumnContacts      = "Contact with Primary Company"
	ColumnHours         = "Hours of Shop"
	ColumnPhone         = "Phone Number"
)

// DefaultState is the state every CRM vendor is in.
const DefaultState = "VT"

const vendorCodeMaxLen = 30

var (
	vendorCodeStrip = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
	vendorCodeAlnum = regexp.MustCompile(`[a-z0-9]`)
)

const vendorCodeFallback = "vendor-"

// VendorCode derives the stable vendor slug from a business name. Names
// with no ASCII letters or digits get a code derived from a hash of the
// name instead, so a non-empty name never yields an empty or bare "-" code.
func VendorCode(name string) string {
	code := vendorCodeStrip.ReplaceAllString(strings.ToLower(name), "")
	if !vendorCodeAlnum.MatchString(code) {
		if strings.TrimSpace(name) == "" {
			return ""
		}
		return vendorCodeFallback + uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()[:8]
	}

	code = whitespaceRun.ReplaceAllString(code, "-")
	if len(code) > vendorCodeMaxLen {
		code = code[:vendorCodeMaxLen]
	}
	return code
}

// Record is one normalized vendor with all of its parsed contacts.
type Record struct {
	Vendor   models.Vendor
	Contacts []models.Contact
}

type Normalizer struct {
	classifier *zones.Classifier
}

func NewNormalizer(classifier *zones.Classifier) *Normalizer {
	return &Normalizer{classifier: classifier}
}

// Row normalizes one CRM row. It returns nil when the row has no business name.
func (n *Normalizer) Row(row models.RawRow) (*models.Vendor, []models.Contact) {
	companyName := row.Get(ColumnCompanyName)
	if companyName == "" {
		return nil, nil
	}

	street := row.Get(ColumnStreetAddress)
	if street == "" {
		street = row.Get(ColumnShopAddress)
	}
	address := joinNonEmpty(", ", street, row.Get(ColumnStreet2))
	if address == "" {
		address = street
	}

	city := row.Get(ColumnCity)
	zip := extract.Zip(address + " " + row.Get(ColumnShopAddress))
	pickup := row.Get(ColumnPickup)
	contacts := extract.Contacts(row.Get(ColumnContacts))

	primary := ""
	if len(contacts) > 0 {
		primary = contacts[0].DisplayName()
	}

	vendor := &models.Vendor{
		VendorCode:         VendorCode(companyName),
		ShopName:           companyName,
		Address:            address,
		City:               city,
		State:              DefaultState,
		ZipCode:            zip,
		ServiceZone:        n.classifier.Classify(city, zip),
		GeoToken:           extract.GeoToken(pickup),
		PickupInstructions: pickup,
		AccessCode:         extract.AccessCode(pickup),
		BusinessHours:      row.Get(ColumnHours),
		PrimaryContactName: primary,
		PrimaryPhone:       extract.Phone(row.Get(ColumnPhone)),
		ActiveStatus:       true,
	}

	return vendor, contacts
}

// Rows normalizes a batch, returning the records and how many rows were skipped.
func (n *Normalizer) Rows(rows []models.RawRow) ([]Record, int) {
	records := make([]Record, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		vendor, contacts := n.Row(row)
		if vendor == nil {
			skipped++
			continue
		}
		records = append(records, Record{Vendor: *vendor, Contacts: contacts})
	}
	return records, skipped
}

// ZoneCounts tallies records per service zone.
func ZoneCounts(records []Record) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.Vendor.ServiceZone]++
	}
	return counts
}

func joinNonEmpty(sep string, values ...string) string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			kept = append(kept, v)
		}
	}
	return strings.Join(kept, sep)
}
