package keychain

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
)

// setupSQLiteManager creates a named shared in-memory database so each test
// is isolated.
func setupSQLiteManager(t *testing.T) *SQLiteManager {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)", url.PathEscape(t.Name()))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	m, err := NewSQLiteManager(db, testSealer(t))
	if err != nil {
		t.Fatalf("NewSQLiteManager: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func mustAdd(t *testing.T, m Manager, attrs Attributes) {
	t.Helper()
	if status := m.Add(attrs); status != StatusSuccess {
		t.Fatalf("Add: %v", status)
	}
}

func TestSQLiteManagerAddAndCopyMatching(t *testing.T) {
	m := setupSQLiteManager(t)
	mustAdd(t, m, item("svc", "login", `{"user":"alice"}`))

	result, status := m.CopyMatching(dataQuery("svc", "login"))
	if status != StatusSuccess {
		t.Fatalf("CopyMatching: %v", status)
	}
	if string(result.([]byte)) != `{"user":"alice"}` {
		t.Errorf("unexpected payload %q", result)
	}
}

func TestSQLiteManagerPayloadEncryptedAtRest(t *testing.T) {
	m := setupSQLiteManager(t)
	mustAdd(t, m, item("svc", "login", "plain-secret"))

	var payload []byte
	if err := m.db.QueryRow(`SELECT payload FROM secure_items WHERE account = ?`, "login").Scan(&payload); err != nil {
		t.Fatalf("select payload: %v", err)
	}
	if strings.Contains(string(payload), "plain-secret") {
		t.Error("payload stored in plaintext")
	}
}

func TestSQLiteManagerAddDuplicate(t *testing.T) {
	m := setupSQLiteManager(t)
	mustAdd(t, m, item("svc", "dup", "first"))

	if status := m.Add(item("svc", "dup", "second")); status != StatusDuplicateItem {
		t.Errorf("expected duplicate item, got %v", status)
	}
}

func TestSQLiteManagerUpdate(t *testing.T) {
	m := setupSQLiteManager(t)
	mustAdd(t, m, item("svc", "login", "first"))

	status := m.Update(identity("svc", "login"), Attributes{
		AttrValueData:  []byte("second"),
		AttrAccessible: AccessibleAlwaysThisDeviceOnly,
	})
	if status != StatusSuccess {
		t.Fatalf("Update: %v", status)
	}

	q := identity("svc", "login")
	q[AttrReturnData] = true
	q[AttrReturnAttributes] = true
	result, status := m.CopyMatching(q)
	if status != StatusSuccess {
		t.Fatalf("CopyMatching: %v", status)
	}
	rec, ok := result.(Attributes)
	if !ok {
		t.Fatalf("expected Attributes, got %T", result)
	}
	if data, _ := rec.Data(); string(data) != "second" {
		t.Errorf("expected 'second', got %q", data)
	}
	if a, _ := rec.Accessibility(); a != AccessibleAlwaysThisDeviceOnly {
		t.Errorf("expected always-this-device-only, got %q", a)
	}
}

func TestSQLiteManagerUpdateNotFound(t *testing.T) {
	m := setupSQLiteManager(t)

	if status := m.Update(identity("svc", "missing"), Attributes{AttrValueData: []byte("x")}); status != StatusItemNotFound {
		t.Errorf("expected item not found, got %v", status)
	}
}

func TestSQLiteManagerDeleteAndNotFound(t *testing.T) {
	m := setupSQLiteManager(t)
	mustAdd(t, m, item("svc", "gone", "x"))

	if status := m.Delete(identity("svc", "gone")); status != StatusSuccess {
		t.Fatalf("Delete: %v", status)
	}
	if status := m.Delete(identity("svc", "gone")); status != StatusItemNotFound {
		t.Errorf("expected item not found on second delete, got %v", status)
	}
	if _, status := m.CopyMatching(dataQuery("svc", "gone")); status != StatusItemNotFound {
		t.Errorf("expected item not found after delete, got %v", status)
	}
}

func TestSQLiteManagerListAccountsByScope(t *testing.T) {
	m := setupSQLiteManager(t)
	for _, a := range []string{"a1", "a2", "a3"} {
		mustAdd(t, m, item("svc", a, "v"))
	}
	mustAdd(t, m, item("other", "b1", "v"))

	result, status := m.CopyMatching(Attributes{
		AttrClass:            ClassGenericPassword,
		AttrService:          "svc",
		AttrMatchLimit:       MatchLimitAll,
		AttrReturnAttributes: true,
	})
	if status != StatusSuccess {
		t.Fatalf("CopyMatching: %v", status)
	}
	records, ok := result.([]Attributes)
	if !ok {
		t.Fatalf("expected []Attributes, got %T", result)
	}
	if got := accountsOf(records); strings.Join(got, ",") != "a1,a2,a3" {
		t.Errorf("expected a1,a2,a3, got %v", got)
	}
}

func TestSQLiteManagerUngroupedQuerySkipsGroupedItems(t *testing.T) {
	m := setupSQLiteManager(t)
	mustAdd(t, m, item("svc", "plain", "v"))
	grouped := item("svc", "shared", "v")
	grouped[AttrAccessGroup] = "team.shared"
	mustAdd(t, m, grouped)

	result, status := m.CopyMatching(Attributes{
		AttrService:          "svc",
		AttrMatchLimit:       MatchLimitAll,
		AttrReturnAttributes: true,
	})
	if status != StatusSuccess {
		t.Fatalf("CopyMatching: %v", status)
	}
	if got := accountsOf(result.([]Attributes)); strings.Join(got, ",") != "plain" {
		t.Errorf("ungrouped query returned %v, want [plain]", got)
	}

	if status := m.Delete(Attributes{AttrService: "svc", AttrAccount: "shared"}); status != StatusItemNotFound {
		t.Errorf("ungrouped delete reached a grouped item: %v", status)
	}
	if status := m.Add(item("svc", "shared", "other")); status != StatusSuccess {
		t.Errorf("expected ungrouped add beside grouped item to succeed, got %v", status)
	}
}

func TestSQLiteManagerTamperedPayload(t *testing.T) {
	m := setupSQLiteManager(t)
	mustAdd(t, m, item("svc", "a", "alpha"))
	mustAdd(t, m, item("svc", "b", "bravo"))

	// Move b's sealed payload onto a; the identity binding must reject it.
	_, err := m.db.Exec(`UPDATE secure_items SET nonce = (SELECT nonce FROM secure_items WHERE account = 'b'),
		payload = (SELECT payload FROM secure_items WHERE account = 'b') WHERE account = 'a'`)
	if err != nil {
		t.Fatalf("swap payloads: %v", err)
	}

	if _, status := m.CopyMatching(dataQuery("svc", "a")); status != StatusDecode {
		t.Errorf("expected decode error, got %v", status)
	}
}

func TestOpenSQLitePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.db")
	sealer := testSealer(t)

	m1, err := OpenSQLite(path, sealer)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	mustAdd(t, m1, item("svc", "kept", "value"))
	if err := m1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	m2, err := OpenSQLite(path, sealer)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer m2.Close()

	result, status := m2.CopyMatching(dataQuery("svc", "kept"))
	if status != StatusSuccess {
		t.Fatalf("CopyMatching: %v", status)
	}
	if string(result.([]byte)) != "value" {
		t.Errorf("expected 'value', got %q", result)
	}
}

func TestNewSQLiteManagerRequiresSealer(t *testing.T) {
	if _, err := NewSQLiteManager(nil, nil); err == nil {
		t.Error("expected error without a sealer")
	}
}
