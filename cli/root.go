// ABOUTME: Cobra command tree for the vendor board integration
// ABOUTME: Loads configuration once and hands every command a shared app
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ProxiMyti/proximyti-monday-integration/board"
	"github.com/ProxiMyti/proximyti-monday-integration/config"
	"github.com/ProxiMyti/proximyti-monday-integration/db"
	"github.com/ProxiMyti/proximyti-monday-integration/logging"
	"github.com/ProxiMyti/proximyti-monday-integration/schema"
	"github.com/ProxiMyti/proximyti-monday-integration/zones"
)

// Version is printed by --version.
const Version = "0.3.0"

// app is the state shared by every command in one invocation.
type app struct {
	envFile string
	cfg     *config.Config
	log     logging.Logger
	out     io.Writer
}

// Execute runs the command tree against args.
func Execute(ctx context.Context, args []string, out, errOut io.Writer) error {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	return root.ExecuteContext(ctx)
}

// NewRootCommand builds the proximyti command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "proximyti",
		Short:         "Sync vendor CRM exports with the monday.com vendor board",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.envFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.out = cmd.OutOrStdout()

			logger := logging.New(logging.Config{
				Level:  cfg.LogLevel,
				JSON:   cfg.LogJSON,
				Output: cmd.ErrOrStderr(),
			})
			a.log = logger

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(logging.ContextWithLogger(ctx, logger))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Path to a .env file")

	root.AddCommand(
		newCleanCommand(a),
		newImportCommand(a),
		newRetryCommand(a),
		newZonesCommand(a),
		newMirrorCommand(a),
		newServeCommand(a),
		newStatusCommand(a),
		newCheckCommand(a),
	)
	return root
}

func (a *app) classifier() (*zones.Classifier, error) {
	if a.cfg.ZonePolicyFile == "" {
		return zones.NewClassifier(zones.DefaultPolicy()), nil
	}
	policy, err := zones.LoadPolicy(a.cfg.ZonePolicyFile)
	if err != nil {
		return nil, err
	}
	return zones.NewClassifier(policy), nil
}

func (a *app) boardClient() (*board.Client, error) {
	if err := a.cfg.RequireBoard(); err != nil {
		return nil, err
	}
	return board.NewClient(a.cfg.MondayAPIURL, a.cfg.MondayToken, a.cfg.BoardID, a.cfg.HTTPTimeout), nil
}

// boardMapping fetches the board columns and binds them to vendor fields.
func (a *app) boardMapping(ctx context.Context, client *board.Client) (*schema.Mapping, error) {
	columns, err := client.Columns(ctx)
	if err != nil {
		return nil, err
	}
	mapping, err := schema.Resolve(columns)
	if err != nil {
		return nil, err
	}
	for _, title := range mapping.Missing {
		a.log.Debug("board has no column for optional field", "column", title)
	}
	return mapping, nil
}

func (a *app) openLedger() (*sql.DB, error) {
	ledger, err := db.OpenDatabase(a.cfg.LedgerPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	return ledger, nil
}
