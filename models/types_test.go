// ABOUTME: Tests for vendor board data models
// ABOUTME: Validates contact display names and subitem label round-trips
package models

import "testing"

func TestContactDisplayName(t *testing.T) {
	tests := []struct {
		contact  Contact
		expected string
	}{
		{Contact{Name: "Jane Doe", Email: "jane@x.com"}, "Jane Doe"},
		{Contact{Email: "jane@x.com"}, "jane@x.com"},
		{Contact{}, ""},
	}

	for _, tt := range tests {
		if got := tt.contact.DisplayName(); got != tt.expected {
			t.Errorf("DisplayName(%+v) = %q, want %q", tt.contact, got, tt.expected)
		}
	}
}

func TestBoardLabelRoundTrip(t *testing.T) {
	contact := Contact{Name: "Jane Doe", Email: "jane@x.com", Phone: "8025551234", Title: "Owner"}

	label := contact.BoardLabel()
	if label != "Jane Doe | 📧 jane@x.com | 📞 8025551234 | 👔 Owner" {
		t.Errorf("unexpected label %q", label)
	}

	parsed := ParseBoardLabel(label)
	if parsed != contact {
		t.Errorf("ParseBoardLabel(%q) = %+v, want %+v", label, parsed, contact)
	}
}

func TestParseBoardLabelPlainName(t *testing.T) {
	parsed := ParseBoardLabel("Bob Smith")
	if parsed.Name != "Bob Smith" || parsed.Email != "" {
		t.Errorf("expected plain name contact, got %+v", parsed)
	}
}

func TestExternalRefIsZero(t *testing.T) {
	if !(ExternalRef{Store: StoreBoard}).IsZero() {
		t.Error("expected ref without id to be zero")
	}
	if (ExternalRef{Store: StoreBoard, ID: "42"}).IsZero() {
		t.Error("expected ref with id to be non-zero")
	}
}
