// ABOUTME: Pattern extraction of structured fields from free-text CRM columns
// ABOUTME: Pulls zip codes, geo tokens, access codes, phones, and contact lists
package extract

import (
	"regexp"
	"strings"

	"github.com/ProxiMyti/proximyti-monday-integration/models"
)

var (
	// Vermont zip codes all start with 05.
	zipPattern        = regexp.MustCompile(`\b(05\d{3})\b`)
	geoTokenPattern   = regexp.MustCompile(`(?i)/+([a-z]+\.[a-z]+\.[a-z]+)`)
	accessCodePattern = regexp.MustCompile(`(?i)#?(\d{4,6})\s+is\s+the\s+(?:door\s+)?code`)
	contactPattern    = regexp.MustCompile(`^([^(]+?)(?:\s*\(([^)]+)\))?$`)
	nonDigitPattern   = regexp.MustCompile(`[^0-9]`)
)

// Zip returns the first regional zip code anywhere in text.
func Zip(text string) string {
	return firstGroup(zipPattern, text)
}

// GeoToken returns the first ///word.word.word location token, without slashes.
func GeoToken(text string) string {
	return firstGroup(geoTokenPattern, text)
}

// AccessCode returns the digits of the first "1234 is the code" phrase.
func AccessCode(text string) string {
	return firstGroup(accessCodePattern, text)
}

// Phone strips every non-digit character.
func Phone(text string) string {
	return nonDigitPattern.ReplaceAllString(text, "")
}

// Contacts parses "Name (email); Name; ..." into contacts, in input order.
func Contacts(field string) []models.Contact {
	if strings.TrimSpace(field) == "" {
		return nil
	}

	var contacts []models.Contact
	for _, segment := range strings.Split(field, ";") {
		match := contactPattern.FindStringSubmatch(strings.TrimSpace(segment))
		if match == nil {
			continue
		}

		name := strings.TrimSpace(match[1])
		email := strings.TrimSpace(match[2])
		if name == "" && email == "" {
			continue
		}
		if name == "" {
			name = email
		}

		contacts = append(contacts, models.Contact{Name: name, Email: email})
	}

	return contacts
}

func firstGroup(pattern *regexp.Regexp, text string) string {
	match := pattern.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	return match[1]
}
