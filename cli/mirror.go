// ABOUTME: mirror command: pull the whole board into the relational mirror
// ABOUTME: Opens the configured mirror driver and runs one tracked pass
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ProxiMyti/proximyti-monday-integration/board"
	"github.com/ProxiMyti/proximyti-monday-integration/config"
	"github.com/ProxiMyti/proximyti-monday-integration/mirror"
	"github.com/ProxiMyti/proximyti-monday-integration/models"
	"github.com/ProxiMyti/proximyti-monday-integration/sync"
)

// mirrorStore is a mirror target that can also be health checked.
type mirrorStore interface {
	sync.Target
	sync.ChildTarget
	Ping(ctx context.Context) error
}

// openMirror returns the configured mirror store and a func releasing it.
func (a *app) openMirror(ctx context.Context) (mirrorStore, func(), error) {
	if err := a.cfg.RequireMirror(); err != nil {
		return nil, nil, err
	}

	if a.cfg.MirrorDriver == config.DriverPostgres {
		pool, err := mirror.Connect(ctx, a.cfg.MirrorDSN)
		if err != nil {
			return nil, nil, err
		}
		return mirror.NewPostgres(pool), pool.Close, nil
	}

	return mirror.NewPostgREST(a.cfg.SupabaseURL, a.cfg.SupabaseKey, a.cfg.HTTPTimeout), func() {}, nil
}

// mirrorPass copies every board item and subitem into the mirror.
func (a *app) mirrorPass(ctx context.Context) (string, *sync.Report, error) {
	return a.track(ctx, models.StoreMirror, func(ctx context.Context) (*sync.Report, error) {
		client, err := a.boardClient()
		if err != nil {
			return nil, err
		}
		mapping, err := a.boardMapping(ctx, client)
		if err != nil {
			return nil, err
		}
		items, err := client.Items(ctx)
		if err != nil {
			return nil, err
		}

		store, release, err := a.openMirror(ctx)
		if err != nil {
			return nil, err
		}
		defer release()

		// Board subitems are already separate rows, even when there is one.
		engine := sync.NewEngine(store, sync.WithoutContactFolding())
		return engine.Sync(ctx, board.ToRecords(mapping, items)), nil
	})
}

func newMirrorCommand(a *app) *cobra.Command {
	var migrate, printSchema bool

	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Copy the board into the vendors mirror database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if printSchema {
				_, _ = fmt.Fprint(a.out, mirror.Schema)
				return nil
			}
			if migrate {
				if err := a.migrateMirror(ctx); err != nil {
					return err
				}
			}

			runID, report, err := a.mirrorPass(ctx)
			if err != nil {
				return err
			}
			printReport(a.out, "Board mirrored", runID, report)
			if report.Failed() > 0 {
				return fmt.Errorf("%d of %d vendors incomplete in mirror", report.Failed(), report.Total())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Create the mirror tables first (postgres driver)")
	cmd.Flags().BoolVar(&printSchema, "schema", false, "Print the mirror table DDL and exit")
	return cmd
}

func (a *app) migrateMirror(ctx context.Context) error {
	if a.cfg.MirrorDriver != config.DriverPostgres {
		return errors.New("--migrate needs MIRROR_DRIVER=postgres; apply the output of --schema in the Supabase SQL editor instead")
	}
	store, release, err := a.openMirror(ctx)
	if err != nil {
		return err
	}
	defer release()

	pg, ok := store.(*mirror.Postgres)
	if !ok {
		return errors.New("mirror store does not support migrations")
	}
	return pg.EnsureSchema(ctx)
}
