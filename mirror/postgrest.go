// ABOUTME: Mirror store over the Supabase PostgREST API
// ABOUTME: Looks rows up by board ids and inserts or patches them
package mirror

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/ProxiMyti/proximyti-monday-integration/models"
	"github.com/ProxiMyti/proximyti-monday-integration/sync"
)

// ErrStatus wraps non-2xx PostgREST responses.
var ErrStatus = errors.New("mirror returned error status")

type PostgREST struct {
	http *resty.Client
}

// NewPostgREST returns a store for the project at baseURL, e.g. https://x.supabase.co.
func NewPostgREST(baseURL, key string, timeout time.Duration) *PostgREST {
	http := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")+"/rest/v1").
		SetTimeout(timeout).
		SetHeader("apikey", key).
		SetHeader("Authorization", "Bearer "+key).
		SetHeader("Content-Type", "application/json").
		SetHeader("Prefer", "return=representation").
		SetRetryCount(0)

	return &PostgREST{http: http}
}

func (p *PostgREST) send(req *resty.Request, method, path string) (gjson.Result, error) {
	resp, err := req.Execute(method, path)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to call mirror: %w", err)
	}
	if resp.IsError() {
		return gjson.Result{}, fmt.Errorf("%w: %d %s", ErrStatus, resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return gjson.ParseBytes(resp.Body()), nil
}

func (p *PostgREST) findID(ctx context.Context, table, column, value string) (models.ExternalRef, bool, error) {
	body, err := p.send(p.http.R().
		SetContext(ctx).
		SetQueryParam(column, "eq."+value).
		SetQueryParam("select", colID), resty.MethodGet, "/"+table)
	if err != nil {
		return models.ExternalRef{}, false, err
	}

	id := body.Get("0.id")
	if !id.Exists() {
		return models.ExternalRef{}, false, nil
	}
	return ref(id.Int()), true, nil
}

func (p *PostgREST) insert(ctx context.Context, table string, row map[string]any) (models.ExternalRef, error) {
	body, err := p.send(p.http.R().SetContext(ctx).SetBody(row), resty.MethodPost, "/"+table)
	if err != nil {
		return models.ExternalRef{}, err
	}

	id := body.Get("0.id")
	if !id.Exists() {
		return models.ExternalRef{}, fmt.Errorf("insert into %s returned no id", table)
	}
	return ref(id.Int()), nil
}

func (p *PostgREST) patch(ctx context.Context, table string, r models.ExternalRef, row map[string]any) error {
	_, err := p.send(p.http.R().
		SetContext(ctx).
		SetQueryParam(colID, "eq."+r.ID).
		SetBody(row), resty.MethodPatch, "/"+table)
	return err
}

// FindByExternalKey finds the vendor row for a board item id.
func (p *PostgREST) FindByExternalKey(ctx context.Context, key string) (models.ExternalRef, bool, error) {
	return p.findID(ctx, VendorsTable, colItemID, key)
}

func (p *PostgREST) Create(ctx context.Context, rec *sync.Record) (models.ExternalRef, error) {
	return p.insert(ctx, VendorsTable, vendorRow(rec.Key, rec.Vendor))
}

func (p *PostgREST) Update(ctx context.Context, r models.ExternalRef, rec *sync.Record) error {
	return p.patch(ctx, VendorsTable, r, vendorRow(rec.Key, rec.Vendor))
}

func (p *PostgREST) CreateChild(ctx context.Context, parent models.ExternalRef, child sync.ChildRecord) (models.ExternalRef, error) {
	if child.Key == "" {
		return models.ExternalRef{}, ErrMissingSubitemKey
	}
	vendorID, err := parseID(parent)
	if err != nil {
		return models.ExternalRef{}, fmt.Errorf("invalid vendor id %q: %w", parent.ID, err)
	}

	row := contactRow(child.Contact)
	row[colVendorID] = vendorID
	row[colSubitemID] = child.Key
	return p.insert(ctx, ContactsTable, row)
}

func (p *PostgREST) FindChild(ctx context.Context, _ models.ExternalRef, child sync.ChildRecord) (models.ExternalRef, bool, error) {
	if child.Key == "" {
		return models.ExternalRef{}, false, nil
	}
	return p.findID(ctx, ContactsTable, colSubitemID, child.Key)
}

func (p *PostgREST) UpdateChild(ctx context.Context, r models.ExternalRef, child sync.ChildRecord) error {
	return p.patch(ctx, ContactsTable, r, contactRow(child.Contact))
}

// Ping checks the vendors table is reachable with the configured key.
func (p *PostgREST) Ping(ctx context.Context) error {
	_, err := p.send(p.http.R().
		SetContext(ctx).
		SetQueryParam("select", colID).
		SetQueryParam("limit", "1"), resty.MethodGet, "/"+VendorsTable)
	return err
}
