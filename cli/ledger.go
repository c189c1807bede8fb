// ABOUTME: Ledger bookkeeping around sync runs
// ABOUTME: Marks a target syncing, then records outcomes or the fatal error
package cli

import (
	"context"
	"fmt"

	"github.com/ProxiMyti/proximyti-monday-integration/db"
	"github.com/ProxiMyti/proximyti-monday-integration/models"
	"github.com/ProxiMyti/proximyti-monday-integration/sync"
)

// track runs one sync pass against target with ledger bookkeeping. A run
// error leaves the target in error state and records no outcomes.
func (a *app) track(ctx context.Context, target string, run func(context.Context) (*sync.Report, error)) (string, *sync.Report, error) {
	ledger, err := a.openLedger()
	if err != nil {
		return "", nil, err
	}
	defer func() { _ = ledger.Close() }()

	if err := db.UpdateSyncStatus(ledger, target, models.SyncStatusSyncing, nil); err != nil {
		return "", nil, err
	}

	report, err := run(ctx)
	if err != nil {
		msg := err.Error()
		if uerr := db.UpdateSyncStatus(ledger, target, models.SyncStatusError, &msg); uerr != nil {
			a.log.Error("failed to record sync error", "target", target, "error", uerr)
		}
		return "", nil, err
	}

	runID := db.NewRunID()
	if err := db.RecordOutcomes(ledger, runID, target, report); err != nil {
		return "", nil, fmt.Errorf("failed to record %s run: %w", target, err)
	}

	a.log.Info("sync run recorded", "target", target, "run", runID,
		"succeeded", report.Succeeded(), "failed", report.Failed())
	return runID, report, nil
}
