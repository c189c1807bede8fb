// ABOUTME: Per-vendor outcomes and aggregate counts for one sync run
// ABOUTME: Distinguishes complete, partially written, and failed vendors
package sync

import (
	"errors"

	"github.com/ProxiMyti/proximyti-monday-integration/models"
)

// Outcome is the result of reconciling one vendor.
type Outcome struct {
	Key             string
	Name            string
	Status          string
	Action          string
	Ref             models.ExternalRef
	Err             error
	ChildErrors     []error
	ChildrenWritten int
}

// Joined returns the vendor error joined with any child errors.
func (o Outcome) Joined() error {
	return errors.Join(append([]error{o.Err}, o.ChildErrors...)...)
}

type Report struct {
	Outcomes []Outcome
}

func (r *Report) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
}

func (r *Report) Total() int {
	return len(r.Outcomes)
}

// Succeeded counts vendors written completely, children included.
func (r *Report) Succeeded() int {
	return r.Count(models.StatusComplete)
}

// Failed counts every vendor that was not written completely.
func (r *Report) Failed() int {
	return r.Total() - r.Succeeded()
}

func (r *Report) Count(status string) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

func (r *Report) Created() int {
	return r.countAction(models.ActionCreated)
}

func (r *Report) Updated() int {
	return r.countAction(models.ActionUpdated)
}

func (r *Report) ChildrenWritten() int {
	n := 0
	for _, o := range r.Outcomes {
		n += o.ChildrenWritten
	}
	return n
}

// Incomplete returns the outcomes a retry pass should pick up.
func (r *Report) Incomplete() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status != models.StatusComplete {
			out = append(out, o)
		}
	}
	return out
}

func (r *Report) countAction(action string) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Action == action {
			n++
		}
	}
	return n
}
