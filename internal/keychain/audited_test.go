package keychain

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/benaskins/settingskit/internal/audit"
)

func setupAuditedManager(t *testing.T) (*AuditedManager, string) {
	t.Helper()
	auditPath := filepath.Join(t.TempDir(), "audit.log")

	auditLog, err := audit.NewLogger(auditPath)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	t.Cleanup(func() { auditLog.Close() })

	return NewAuditedManager(NewMemoryManager(), auditLog, "cli"), auditPath
}

func readAuditEntries(t *testing.T, path string) []audit.Entry {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	entries := make([]audit.Entry, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		var e audit.Entry
		json.Unmarshal([]byte(line), &e)
		entries = append(entries, e)
	}
	return entries
}

func TestAuditedManagerAddLogsAdd(t *testing.T) {
	m, auditPath := setupAuditedManager(t)

	m.Add(item("svc", "test/key", "value"))

	entries := readAuditEntries(t, auditPath)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Action != audit.ActionItemAdd {
		t.Errorf("expected item_add, got %v", entries[0].Action)
	}
	if entries[0].Account != "test/key" {
		t.Errorf("expected test/key, got %q", entries[0].Account)
	}
	if entries[0].Actor != "cli" {
		t.Errorf("expected cli, got %q", entries[0].Actor)
	}
	if entries[0].Status != 0 {
		t.Errorf("expected status 0, got %d", entries[0].Status)
	}
}

func TestAuditedManagerQueryLogsQuery(t *testing.T) {
	m, auditPath := setupAuditedManager(t)

	m.Add(item("svc", "test/get", "val"))
	result, status := m.CopyMatching(dataQuery("svc", "test/get"))
	if status != StatusSuccess {
		t.Fatalf("CopyMatching: %v", status)
	}
	if string(result.([]byte)) != "val" {
		t.Errorf("expected val, got %q", result)
	}

	entries := readAuditEntries(t, auditPath)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[1].Action != audit.ActionItemQuery {
		t.Errorf("expected item_query, got %v", entries[1].Action)
	}
}

func TestAuditedManagerRecordsFailures(t *testing.T) {
	m, auditPath := setupAuditedManager(t)

	status := m.Delete(identity("svc", "test/missing"))
	if status != StatusItemNotFound {
		t.Fatalf("expected item not found, got %v", status)
	}

	entries := readAuditEntries(t, auditPath)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Action != audit.ActionItemDelete {
		t.Errorf("expected item_delete, got %v", entries[0].Action)
	}
	if entries[0].Status != int32(StatusItemNotFound) {
		t.Errorf("expected status %d, got %d", StatusItemNotFound, entries[0].Status)
	}
	if entries[0].Error == "" {
		t.Error("expected error in audit entry")
	}
}

func TestAuditedManagerNeverLogsPayload(t *testing.T) {
	m, auditPath := setupAuditedManager(t)

	m.Add(item("svc", "test/secret", "hunter2"))
	m.Update(identity("svc", "test/secret"), Attributes{AttrValueData: []byte("hunter3")})

	data, err := os.ReadFile(auditPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if strings.Contains(string(data), "hunter") {
		t.Error("audit log contains a payload")
	}
}
