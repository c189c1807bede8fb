package mirror

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ProxiMyti/proximyti-monday-integration/models"
	"github.com/ProxiMyti/proximyti-monday-integration/sync"
)

func sampleVendor() models.Vendor {
	return models.Vendor{
		VendorCode:   "phoenix-books",
		ShopName:     "Phoenix Books",
		Address:      "191 Bank St",
		City:         "Burlington",
		State:        "VT",
		ZipCode:      "05401",
		ServiceZone:  "Chittenden Core",
		ActiveStatus: true,
	}
}

// vendorArgs lists the expected statement arguments in column order.
func vendorArgs(itemID string) []any {
	return []any{
		itemID, "phoenix-books", "Phoenix Books", "191 Bank St", "Burlington", "VT", "05401",
		"Chittenden Core", "", "", "", "", "", "", "", "", "true",
	}
}

func TestPostgresFindByExternalKey(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT id FROM vendors WHERE monday_item_id = \$1`).
		WithArgs("1001").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery(`SELECT id FROM vendors WHERE monday_item_id = \$1`).
		WithArgs("1002").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	store := NewPostgres(mock)

	r, found, err := store.FindByExternalKey(context.Background(), "1001")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, models.ExternalRef{Store: models.StoreMirror, ID: "7"}, r)

	_, found, err = store.FindByExternalKey(context.Background(), "1002")
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`INSERT INTO vendors \(monday_item_id,vendor_code,shop_name,.*\) VALUES \(.*\) RETURNING id`).
		WithArgs(vendorArgs("1001")...).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(9)))

	r, err := NewPostgres(mock).Create(context.Background(), &sync.Record{Key: "1001", Vendor: sampleVendor()})
	require.NoError(t, err)
	assert.Equal(t, "9", r.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	args := append(vendorArgs("1001"), int64(9))
	mock.ExpectExec(`UPDATE vendors SET monday_item_id = \$1, .*updated_at = NOW\(\) WHERE id = \$18`).
		WithArgs(args...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = NewPostgres(mock).Update(context.Background(), models.ExternalRef{Store: models.StoreMirror, ID: "9"}, &sync.Record{Key: "1001", Vendor: sampleVendor()})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateMissingRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`UPDATE vendors`).
		WithArgs(append(vendorArgs("1001"), int64(9))...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = NewPostgres(mock).Update(context.Background(), models.ExternalRef{ID: "9"}, &sync.Record{Key: "1001", Vendor: sampleVendor()})
	assert.ErrorContains(t, err, "not found")
}

func TestPostgresChildren(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	child := sync.ChildRecord{Key: "s1", Contact: models.Contact{Name: "Ann", Email: "ann@example.com"}}

	mock.ExpectQuery(`INSERT INTO vendor_contacts \(vendor_id,monday_subitem_id,name,email,phone,title\)`).
		WithArgs(int64(9), "s1", "Ann", "ann@example.com", "", "").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectQuery(`SELECT id FROM vendor_contacts WHERE monday_subitem_id = \$1`).
		WithArgs("s1").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectExec(`UPDATE vendor_contacts SET name = \$1, email = \$2, phone = \$3, title = \$4, updated_at = NOW\(\) WHERE id = \$5`).
		WithArgs("Ann", "ann@example.com", "", "", int64(3)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	store := NewPostgres(mock)
	ctx := context.Background()
	parent := models.ExternalRef{Store: models.StoreMirror, ID: "9"}

	created, err := store.CreateChild(ctx, parent, child)
	require.NoError(t, err)
	assert.Equal(t, "3", created.ID)

	found, ok, err := store.FindChild(ctx, parent, child)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.UpdateChild(ctx, found, child))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresChildWithoutKey(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewPostgres(mock)
	_, err = store.CreateChild(context.Background(), models.ExternalRef{ID: "9"}, sync.ChildRecord{Contact: models.Contact{Name: "Ann"}})
	assert.ErrorIs(t, err, ErrMissingSubitemKey)

	_, found, err := store.FindChild(context.Background(), models.ExternalRef{ID: "9"}, sync.ChildRecord{})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPostgresQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT id FROM vendors`).WithArgs("1001").WillReturnError(errors.New("connection reset"))

	_, _, err = NewPostgres(mock).FindByExternalKey(context.Background(), "1001")
	assert.ErrorContains(t, err, "connection reset")
}

func TestPostgresEnsureSchema(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS vendors`).WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, NewPostgres(mock).EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSyncPass(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT id FROM vendors`).WithArgs("1001").WillReturnRows(pgxmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO vendors`).WithArgs(vendorArgs("1001")...).WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery(`SELECT id FROM vendor_contacts`).WithArgs("s1").WillReturnRows(pgxmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO vendor_contacts`).WithArgs(int64(1), "s1", "Ann", "", "", "").WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(2)))

	rec := sync.Record{
		Key:      "1001",
		Vendor:   sampleVendor(),
		Contacts: []sync.ChildRecord{{Key: "s1", Contact: models.Contact{Name: "Ann"}}},
	}
	report := sync.NewEngine(NewPostgres(mock), sync.WithoutContactFolding()).Sync(context.Background(), []sync.Record{rec})

	assert.Equal(t, 1, report.Succeeded())
	assert.Equal(t, 1, report.ChildrenWritten())
	assert.NoError(t, mock.ExpectationsWereMet())
}
