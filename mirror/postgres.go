// ABOUTME: Mirror store writing directly to Postgres through pgx
// ABOUTME: Builds its statements with squirrel using dollar placeholders
package mirror

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ProxiMyti/proximyti-monday-integration/models"
	"github.com/ProxiMyti/proximyti-monday-integration/sync"
)

// DBInterface is the part of a pgx pool the store needs.
type DBInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

type Postgres struct {
	db DBInterface
	sb squirrel.StatementBuilderType
}

func NewPostgres(db DBInterface) *Postgres {
	return &Postgres{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Connect opens a pool for dsn and checks it answers.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open mirror pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach mirror: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the mirror tables if needed.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create mirror tables: %w", err)
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

func (p *Postgres) findID(ctx context.Context, table, column, value string) (models.ExternalRef, bool, error) {
	query, args, err := p.sb.Select(colID).From(table).Where(squirrel.Eq{column: value}).ToSql()
	if err != nil {
		return models.ExternalRef{}, false, fmt.Errorf("building select query: %w", err)
	}

	var id int64
	if err := p.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ExternalRef{}, false, nil
		}
		return models.ExternalRef{}, false, fmt.Errorf("querying %s: %w", table, err)
	}
	return ref(id), true, nil
}

func (p *Postgres) insert(ctx context.Context, table string, cols []string, vals []any) (models.ExternalRef, error) {
	query, args, err := p.sb.Insert(table).Columns(cols...).Values(vals...).Suffix("RETURNING id").ToSql()
	if err != nil {
		return models.ExternalRef{}, fmt.Errorf("building insert query: %w", err)
	}

	var id int64
	if err := p.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return models.ExternalRef{}, fmt.Errorf("inserting into %s: %w", table, err)
	}
	return ref(id), nil
}

func (p *Postgres) update(ctx context.Context, table string, r models.ExternalRef, cols []string, vals []any) error {
	id, err := parseID(r)
	if err != nil {
		return fmt.Errorf("invalid %s id %q: %w", table, r.ID, err)
	}

	ub := p.sb.Update(table)
	for i, col := range cols {
		ub = ub.Set(col, vals[i])
	}
	query, args, err := ub.Set("updated_at", squirrel.Expr("NOW()")).Where(squirrel.Eq{colID: id}).ToSql()
	if err != nil {
		return fmt.Errorf("building update query: %w", err)
	}

	tag, err := p.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s row %d not found", table, id)
	}
	return nil
}

// FindByExternalKey finds the vendor row for a board item id.
func (p *Postgres) FindByExternalKey(ctx context.Context, key string) (models.ExternalRef, bool, error) {
	return p.findID(ctx, VendorsTable, colItemID, key)
}

func (p *Postgres) Create(ctx context.Context, rec *sync.Record) (models.ExternalRef, error) {
	cols, vals := vendorColumns(rec.Key, rec.Vendor)
	return p.insert(ctx, VendorsTable, cols, vals)
}

func (p *Postgres) Update(ctx context.Context, r models.ExternalRef, rec *sync.Record) error {
	cols, vals := vendorColumns(rec.Key, rec.Vendor)
	return p.update(ctx, VendorsTable, r, cols, vals)
}

var contactColumns = []string{"name", "email", "phone", "title"}

func contactValues(c models.Contact) []any {
	return []any{c.DisplayName(), c.Email, c.Phone, c.Title}
}

func (p *Postgres) CreateChild(ctx context.Context, parent models.ExternalRef, child sync.ChildRecord) (models.ExternalRef, error) {
	if child.Key == "" {
		return models.ExternalRef{}, ErrMissingSubitemKey
	}
	vendorID, err := parseID(parent)
	if err != nil {
		return models.ExternalRef{}, fmt.Errorf("invalid vendor id %q: %w", parent.ID, err)
	}

	cols := append([]string{colVendorID, colSubitemID}, contactColumns...)
	vals := append([]any{vendorID, child.Key}, contactValues(child.Contact)...)
	return p.insert(ctx, ContactsTable, cols, vals)
}

func (p *Postgres) FindChild(ctx context.Context, _ models.ExternalRef, child sync.ChildRecord) (models.ExternalRef, bool, error) {
	if child.Key == "" {
		return models.ExternalRef{}, false, nil
	}
	return p.findID(ctx, ContactsTable, colSubitemID, child.Key)
}

func (p *Postgres) UpdateChild(ctx context.Context, r models.ExternalRef, child sync.ChildRecord) error {
	return p.update(ctx, ContactsTable, r, contactColumns, contactValues(child.Contact))
}
