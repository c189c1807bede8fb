// ABOUTME: Reconciles canonical vendor records against a target store
// ABOUTME: Decides create vs update per vendor and writes contact child records
package sync

import (
	"context"
	"fmt"

	"github.com/ProxiMyti/proximyti-monday-integration/extract"
	"github.com/ProxiMyti/proximyti-monday-integration/logging"
	"github.com/ProxiMyti/proximyti-monday-integration/models"
)

// ChildRecord is one contact to write under a vendor.
type ChildRecord struct {
	// Key is the child's id in the source store, when it has one.
	Key     string
	Contact models.Contact
}

// Record is one vendor to reconcile. Key is the natural key the target
// looks vendors up by: the vendor code on the board, the board item id
// in the mirror.
type Record struct {
	Key      string
	Vendor   models.Vendor
	Contacts []ChildRecord
}

// Target is a store the engine can write vendors into.
type Target interface {
	FindByExternalKey(ctx context.Context, key string) (models.ExternalRef, bool, error)
	Create(ctx context.Context, rec *Record) (models.ExternalRef, error)
	Update(ctx context.Context, ref models.ExternalRef, rec *Record) error
	CreateChild(ctx context.Context, parent models.ExternalRef, child ChildRecord) (models.ExternalRef, error)
}

// ChildTarget is implemented by targets that can find and update
// existing children, so re-runs do not duplicate contacts.
type ChildTarget interface {
	FindChild(ctx context.Context, parent models.ExternalRef, child ChildRecord) (models.ExternalRef, bool, error)
	UpdateChild(ctx context.Context, ref models.ExternalRef, child ChildRecord) error
}

type Engine struct {
	target Target
	pacer  *Pacer
	fold   bool
}

type Option func(*Engine)

// WithPacer throttles every external call through p.
func WithPacer(p *Pacer) Option {
	return func(e *Engine) {
		if p != nil {
			e.pacer = p
		}
	}
}

// WithoutContactFolding writes a lone contact as a child record instead
// of folding it into the vendor's primary contact fields.
func WithoutContactFolding() Option {
	return func(e *Engine) {
		e.fold = false
	}
}

// NewEngine returns an engine writing to target.
func NewEngine(target Target, opts ...Option) *Engine {
	e := &Engine{target: target, pacer: NewPacer(0), fold: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sync reconciles records one at a time. A failing record never stops
// the batch; every record gets exactly one outcome in the report.
func (e *Engine) Sync(ctx context.Context, records []Record) *Report {
	log := logging.FromContext(ctx)
	report := &Report{Outcomes: make([]Outcome, 0, len(records))}

	for i := range records {
		rec := records[i]
		if e.fold {
			rec = foldContact(rec)
		}

		if err := ctx.Err(); err != nil {
			report.add(Outcome{Key: rec.Key, Name: rec.Vendor.ShopName, Status: models.StatusFailed, Action: models.ActionNone, Err: err})
			continue
		}

		outcome := e.syncRecord(ctx, &rec)
		report.add(outcome)

		switch outcome.Status {
		case models.StatusComplete:
			log.Info("vendor synced", "n", fmt.Sprintf("%d/%d", i+1, len(records)), "key", rec.Key, "vendor", rec.Vendor.ShopName, "action", outcome.Action, "children", outcome.ChildrenWritten)
		case models.StatusPartialChildren:
			log.Warn("vendor synced with contact failures", "key", rec.Key, "vendor", rec.Vendor.ShopName, "failed_children", len(outcome.ChildErrors))
		default:
			log.Error("vendor sync failed", "key", rec.Key, "vendor", rec.Vendor.ShopName, "error", outcome.Err)
		}
	}

	return report
}

func (e *Engine) syncRecord(ctx context.Context, rec *Record) Outcome {
	outcome := Outcome{Key: rec.Key, Name: rec.Vendor.ShopName, Action: models.ActionNone}

	fail := func(err error) Outcome {
		outcome.Status = models.StatusFailed
		outcome.Err = err
		return outcome
	}

	if err := e.pacer.Wait(ctx); err != nil {
		return fail(err)
	}
	ref, found, err := e.target.FindByExternalKey(ctx, rec.Key)
	if err != nil {
		return fail(fmt.Errorf("failed to look up %s: %w", rec.Key, err))
	}

	if err := e.pacer.Wait(ctx); err != nil {
		return fail(err)
	}
	if found {
		if err := e.target.Update(ctx, ref, rec); err != nil {
			return fail(fmt.Errorf("failed to update %s: %w", rec.Key, err))
		}
		outcome.Action = models.ActionUpdated
	} else {
		ref, err = e.target.Create(ctx, rec)
		if err != nil {
			return fail(fmt.Errorf("failed to create %s: %w", rec.Key, err))
		}
		outcome.Action = models.ActionCreated
	}
	outcome.Ref = ref

	for _, child := range rec.Contacts {
		if err := e.syncChild(ctx, ref, child); err != nil {
			outcome.ChildErrors = append(outcome.ChildErrors, fmt.Errorf("contact %q: %w", child.Contact.DisplayName(), err))
			continue
		}
		outcome.ChildrenWritten++
	}

	outcome.Status = models.StatusComplete
	if len(outcome.ChildErrors) > 0 {
		outcome.Status = models.StatusPartialChildren
	}
	return outcome
}

func (e *Engine) syncChild(ctx context.Context, parent models.ExternalRef, child ChildRecord) error {
	if ct, ok := e.target.(ChildTarget); ok {
		if err := e.pacer.Wait(ctx); err != nil {
			return err
		}
		ref, found, err := ct.FindChild(ctx, parent, child)
		if err != nil {
			return err
		}
		if found {
			if err := e.pacer.Wait(ctx); err != nil {
				return err
			}
			return ct.UpdateChild(ctx, ref, child)
		}
	}

	if err := e.pacer.Wait(ctx); err != nil {
		return err
	}
	_, err := e.target.CreateChild(ctx, parent, child)
	return err
}

// foldContact moves a lone contact into the vendor's primary fields.
// Child records are then only written for vendors with several contacts.
func foldContact(rec Record) Record {
	if len(rec.Contacts) != 1 {
		return rec
	}

	contact := rec.Contacts[0].Contact
	if name := contact.DisplayName(); name != "" {
		rec.Vendor.PrimaryContactName = name
	}
	if phone := extract.Phone(contact.Phone); phone != "" {
		rec.Vendor.PrimaryPhone = phone
	}
	rec.Contacts = nil
	return rec
}
