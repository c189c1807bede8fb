package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	stdsync "sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/ProxiMyti/proximyti-monday-integration/config"
	"github.com/ProxiMyti/proximyti-monday-integration/db"
	"github.com/ProxiMyti/proximyti-monday-integration/models"
	"github.com/ProxiMyti/proximyti-monday-integration/normalize"
	"github.com/ProxiMyti/proximyti-monday-integration/sync"
)

// testEnv isolates a command run from the developer's environment and
// returns the ledger path it will use.
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	ledger := filepath.Join(dir, "ledger.db")

	for key, value := range map[string]string{
		"MONDAY_TOKEN":          "",
		"MONDAY_BOARD_ID":       "",
		"MONDAY_API_URL":        "",
		"MONDAY_WEBHOOK_SECRET": "",
		"MIRROR_DRIVER":         "",
		"SUPABASE_URL":          "",
		"SUPABASE_KEY":          "",
		"MIRROR_DSN":            "",
		"ZONE_POLICY_FILE":      "",
		"SYNC_DELAY":            "0s",
		"LOG_LEVEL":             "error",
		"LEDGER_PATH":           ledger,
	} {
		t.Setenv(key, value)
	}
	return ledger
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	args = append(args, "--env-file", filepath.Join(t.TempDir(), "missing.env"))
	err := Execute(context.Background(), args, &out, &errOut)
	return out.String(), err
}

func writeCRM(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crm.csv")

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.WriteAll([][]string{
		{normalize.ColumnCompanyName, normalize.ColumnStreetAddress, normalize.ColumnCity, normalize.ColumnContacts, normalize.ColumnPhone},
		{"Phoenix Books", "191 Bank St, Burlington VT 05401", "Burlington", "Jane Doe (jane@x.com)", "(802) 555-1234"},
		{"Village Wine", "12 Main St, Stowe VT 05672", "Stowe", "Ann Lee (ann@x.com); Tom Ray (tom@x.com)", ""},
		{"", "no name row", "Burlington", "", ""},
	}))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestCleanWritesVendorsAndContacts(t *testing.T) {
	testEnv(t)
	dir := t.TempDir()
	vendorsPath := filepath.Join(dir, "vendors.csv")
	contactsPath := filepath.Join(dir, "contacts.json")

	out, err := run(t, "clean", "--in", writeCRM(t), "--out", vendorsPath, "--contacts", contactsPath)
	require.NoError(t, err)
	assert.Contains(t, out, "vendors 2, skipped rows 1, contacts 3")
	assert.Contains(t, out, "Village Wine: 2 contacts")
	assert.Contains(t, out, "    - Ann Lee | 📧 ann@x.com")
	assert.Contains(t, out, "    - Tom Ray | 📧 tom@x.com")
	assert.NotContains(t, out, "    - Jane Doe")

	f, err := os.Open(vendorsPath)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	vendors, err := normalize.ReadVendorsCSV(f)
	require.NoError(t, err)
	require.Len(t, vendors, 2)
	assert.Equal(t, "phoenix-books", vendors[0].VendorCode)

	cf, err := os.Open(contactsPath)
	require.NoError(t, err)
	defer func() { _ = cf.Close() }()
	byCode, err := normalize.ReadContactsJSON(cf)
	require.NoError(t, err)
	assert.Len(t, byCode["village-wine"], 2)
}

func TestImportDryRunHonorsOnly(t *testing.T) {
	testEnv(t)

	out, err := run(t, "import", "--in", writeCRM(t), "--only", "village-wine", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Dry run: 1 vendors")
	assert.Contains(t, out, "village-wine")
	assert.NotContains(t, out, "phoenix-books")
}

func TestImportNeedsASource(t *testing.T) {
	testEnv(t)

	_, err := run(t, "import")
	assert.Error(t, err)
}

func TestImportWithoutCredentialsRecordsError(t *testing.T) {
	ledgerPath := testEnv(t)

	_, err := run(t, "import", "--in", writeCRM(t))
	require.ErrorIs(t, err, config.ErrMissing)

	ledger, err := db.OpenDatabase(ledgerPath)
	require.NoError(t, err)
	defer func() { _ = ledger.Close() }()

	state, err := db.GetSyncState(ledger, models.StoreBoard)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.SyncStatusError, state.Status)
	require.NotNil(t, state.ErrorMessage)
	assert.Contains(t, *state.ErrorMessage, "MONDAY_TOKEN")

	out, err := run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "status: error")
	assert.Contains(t, out, "never synced")
}

// boardServer answers the handful of GraphQL operations an import needs.
type boardServer struct {
	mu    stdsync.Mutex
	calls map[string]int
}

var boardResponses = []struct{ op, body string }{
	{"items_page_by_column_values", `{"data":{"items_page_by_column_values":{"items":[]}}}`},
	{"create_subitem", `{"data":{"create_subitem":{"id":"9001","name":"x","board":{"id":"77"}}}}`},
	{"create_item", `{"data":{"create_item":{"id":"501"}}}`},
	{"columns", `{"data":{"boards":[{"columns":[
	  {"id":"name","title":"Name","type":"name"},
	  {"id":"text_code","title":"Vendor Code","type":"text"},
	  {"id":"text_city","title":"City","type":"text"},
	  {"id":"text_zone","title":"Service Zone","type":"text"},
	  {"id":"phone_1","title":"Primary Phone","type":"phone"}
	]}]}}`},
}

func newBoardServer(t *testing.T) *boardServer {
	bs := &boardServer{calls: map[string]int{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		query := gjson.GetBytes(raw, "query").String()
		for _, resp := range boardResponses {
			if strings.Contains(query, resp.op) {
				bs.mu.Lock()
				bs.calls[resp.op]++
				bs.mu.Unlock()
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, resp.body)
				return
			}
		}
		t.Errorf("unhandled query: %s", query)
		http.Error(w, "unhandled", http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)

	t.Setenv("MONDAY_API_URL", srv.URL)
	t.Setenv("MONDAY_TOKEN", "token-123")
	t.Setenv("MONDAY_BOARD_ID", "1001")
	return bs
}

func (bs *boardServer) count(op string) int {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return bs.calls[op]
}

func TestImportPushesToBoardAndRecordsRun(t *testing.T) {
	ledgerPath := testEnv(t)
	bs := newBoardServer(t)

	out, err := run(t, "import", "--in", writeCRM(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Board import")

	assert.Equal(t, 2, bs.count("create_item"))
	// The single-contact vendor is folded into its item.
	assert.Equal(t, 2, bs.count("create_subitem"))

	ledger, err := db.OpenDatabase(ledgerPath)
	require.NoError(t, err)
	defer func() { _ = ledger.Close() }()

	runID, err := db.LatestRunID(ledger, models.StoreBoard)
	require.NoError(t, err)
	require.NotEmpty(t, runID)
	entries, err := db.RunOutcomes(ledger, models.StoreBoard, runID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, models.StatusComplete, e.Status)
		assert.Equal(t, models.ActionCreated, e.Action)
	}

	out, err = run(t, "retry", "--in", writeCRM(t))
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to retry")
}

func seedRun(t *testing.T, ledgerPath string, outcomes ...sync.Outcome) string {
	t.Helper()
	ledger, err := db.OpenDatabase(ledgerPath)
	require.NoError(t, err)
	defer func() { _ = ledger.Close() }()

	runID := db.NewRunID()
	require.NoError(t, db.RecordOutcomes(ledger, runID, models.StoreBoard, &sync.Report{Outcomes: outcomes}))
	return runID
}

func TestRetryWithoutRecordedRun(t *testing.T) {
	testEnv(t)

	_, err := run(t, "retry", "--in", writeCRM(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no board run recorded")
}

func TestRetryPushesOnlyIncompleteVendors(t *testing.T) {
	ledgerPath := testEnv(t)
	runID := seedRun(t, ledgerPath,
		sync.Outcome{Key: "phoenix-books", Name: "Phoenix Books", Status: models.StatusComplete, Action: models.ActionCreated},
		sync.Outcome{Key: "village-wine", Name: "Village Wine", Status: models.StatusFailed, Action: models.ActionNone},
	)
	bs := newBoardServer(t)

	_, err := run(t, "retry", "--in", writeCRM(t), "--run", runID)
	require.NoError(t, err)
	assert.Equal(t, 1, bs.count("create_item"))
	assert.Equal(t, 2, bs.count("create_subitem"))
}

func TestStatusListsIncompleteVendors(t *testing.T) {
	ledgerPath := testEnv(t)
	seedRun(t, ledgerPath,
		sync.Outcome{Key: "phoenix-books", Name: "Phoenix Books", Status: models.StatusComplete, Action: models.ActionUpdated},
		sync.Outcome{Key: "village-wine", Name: "Village Wine", Status: models.StatusPartialChildren, Action: models.ActionCreated},
	)

	out, err := run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "status: idle")
	assert.Contains(t, out, "Village Wine (village-wine)")
	assert.NotContains(t, out, "Phoenix Books (phoenix-books)")

	out, err = run(t, "status", "-v")
	require.NoError(t, err)
	assert.Contains(t, out, "Phoenix Books (phoenix-books)")
}

func TestMirrorPrintsSchema(t *testing.T) {
	testEnv(t)

	out, err := run(t, "mirror", "--schema")
	require.NoError(t, err)
	assert.Contains(t, out, "CREATE TABLE IF NOT EXISTS vendors")
	assert.Contains(t, out, "CREATE TABLE IF NOT EXISTS vendor_contacts")
	assert.False(t, strings.HasSuffix(out, "\n\n"), "schema printed with one trailing newline")
}

func TestMirrorMigrateNeedsPostgres(t *testing.T) {
	testEnv(t)

	_, err := run(t, "mirror", "--migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MIRROR_DRIVER=postgres")
}

func TestCheckNeedsBoardCredentials(t *testing.T) {
	testEnv(t)

	_, err := run(t, "check")
	assert.ErrorIs(t, err, config.ErrMissing)
}

func TestPrintReport(t *testing.T) {
	report := &sync.Report{Outcomes: []sync.Outcome{
		{Key: "a", Name: "A", Status: models.StatusComplete, Action: models.ActionCreated},
		{Key: "b", Name: "B", Status: models.StatusFailed, Action: models.ActionNone, Err: assert.AnError},
	}}

	var buf bytes.Buffer
	printReport(&buf, "Board import", "run-1", report)
	out := buf.String()

	assert.Contains(t, out, "run run-1")
	assert.Contains(t, out, "created 1, updated 0")
	assert.Contains(t, out, "Needs attention")
	assert.Contains(t, out, "B (b)")
	assert.Contains(t, out, assert.AnError.Error())
}

func TestOnlyKeys(t *testing.T) {
	records := []sync.Record{{Key: "a"}, {Key: "b"}, {Key: "c"}}

	got := onlyKeys(records, []string{" c", "a", ""})
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Key)
	assert.Equal(t, "c", got[1].Key)
}
