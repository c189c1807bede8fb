// ABOUTME: Board implementation of the sync target, keyed by vendor code
// ABOUTME: Vendors become items and extra contacts become labelled subitems
package board

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ProxiMyti/proximyti-monday-integration/models"
	"github.com/ProxiMyti/proximyti-monday-integration/schema"
	"github.com/ProxiMyti/proximyti-monday-integration/sync"
)

// ErrEmptyKey means a vendor has no vendor code to look it up by.
var ErrEmptyKey = errors.New("vendor has no vendor code")

// Target writes vendors onto the board.
type Target struct {
	client  *Client
	mapping *schema.Mapping
	codeCol string

	// subitems caches each parent's subitems for the current run.
	subitems map[string][]Subitem
}

// NewTarget returns a board target. The mapping must bind the vendor code.
func NewTarget(client *Client, mapping *schema.Mapping) (*Target, error) {
	col, ok := mapping.Column(schema.FieldVendorCode)
	if !ok {
		return nil, fmt.Errorf("%w: vendor code", schema.ErrMissingColumn)
	}
	return &Target{
		client:   client,
		mapping:  mapping,
		codeCol:  col.ID,
		subitems: make(map[string][]Subitem),
	}, nil
}

func (t *Target) ref(id string) models.ExternalRef {
	return models.ExternalRef{Store: models.StoreBoard, ID: id, Board: t.client.BoardID()}
}

func (t *Target) FindByExternalKey(ctx context.Context, key string) (models.ExternalRef, bool, error) {
	// A blank key would match every item with an empty Vendor Code cell.
	if strings.TrimSpace(key) == "" {
		return models.ExternalRef{}, false, ErrEmptyKey
	}
	id, found, err := t.client.FindItemID(ctx, t.codeCol, key)
	if err != nil || !found {
		return models.ExternalRef{}, false, err
	}
	return t.ref(id), true, nil
}

func (t *Target) Create(ctx context.Context, rec *sync.Record) (models.ExternalRef, error) {
	id, err := t.client.CreateItem(ctx, rec.Vendor.ShopName, ColumnValues(t.mapping, rec.Vendor))
	if err != nil {
		return models.ExternalRef{}, err
	}
	t.subitems[id] = nil
	return t.ref(id), nil
}

func (t *Target) Update(ctx context.Context, ref models.ExternalRef, rec *sync.Record) error {
	values := ColumnValues(t.mapping, rec.Vendor)
	if rec.Vendor.ShopName != "" {
		values["name"] = rec.Vendor.ShopName
	}
	return t.client.UpdateItem(ctx, ref.ID, values)
}

func (t *Target) CreateChild(ctx context.Context, parent models.ExternalRef, child sync.ChildRecord) (models.ExternalRef, error) {
	sub, err := t.client.CreateSubitem(ctx, parent.ID, child.Contact.BoardLabel())
	if err != nil {
		return models.ExternalRef{}, err
	}
	if cached, ok := t.subitems[parent.ID]; ok {
		t.subitems[parent.ID] = append(cached, sub)
	}
	return models.ExternalRef{Store: models.StoreBoard, ID: sub.ID, Board: sub.BoardID}, nil
}

// FindChild matches an existing subitem by contact display name.
func (t *Target) FindChild(ctx context.Context, parent models.ExternalRef, child sync.ChildRecord) (models.ExternalRef, bool, error) {
	subs, ok := t.subitems[parent.ID]
	if !ok {
		var err error
		subs, err = t.client.Subitems(ctx, parent.ID)
		if err != nil {
			return models.ExternalRef{}, false, fmt.Errorf("failed to list subitems: %w", err)
		}
		t.subitems[parent.ID] = subs
	}

	name := child.Contact.DisplayName()
	for _, sub := range subs {
		if models.ParseBoardLabel(sub.Name).DisplayName() == name {
			return models.ExternalRef{Store: models.StoreBoard, ID: sub.ID, Board: sub.BoardID}, true, nil
		}
	}
	return models.ExternalRef{}, false, nil
}

// UpdateChild rewrites the subitem label.
func (t *Target) UpdateChild(ctx context.Context, ref models.ExternalRef, child sync.ChildRecord) error {
	return t.client.RenameSubitem(ctx, Subitem{ID: ref.ID, BoardID: ref.Board}, child.Contact.BoardLabel())
}
