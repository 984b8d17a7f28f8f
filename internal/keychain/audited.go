package keychain

import (
	"github.com/benaskins/settingskit/internal/audit"
)

// AuditedManager wraps a Manager and records every primitive to an audit log.
type AuditedManager struct {
	inner Manager
	audit *audit.Logger
	actor string // "cli" or "test"
}

// NewAuditedManager wraps an existing manager with audit logging.
func NewAuditedManager(inner Manager, auditLog *audit.Logger, actor string) *AuditedManager {
	return &AuditedManager{
		inner: inner,
		audit: auditLog,
		actor: actor,
	}
}

func (m *AuditedManager) Add(attrs Attributes) Status {
	status := m.inner.Add(attrs)
	m.log(audit.ActionItemAdd, attrs, status)
	return status
}

func (m *AuditedManager) Update(query, attrs Attributes) Status {
	status := m.inner.Update(query, attrs)
	m.log(audit.ActionItemUpdate, query, status)
	return status
}

func (m *AuditedManager) Delete(query Attributes) Status {
	status := m.inner.Delete(query)
	m.log(audit.ActionItemDelete, query, status)
	return status
}

func (m *AuditedManager) CopyMatching(query Attributes) (any, Status) {
	result, status := m.inner.CopyMatching(query)
	m.log(audit.ActionItemQuery, query, status)
	return result, status
}

// log is best-effort: a failure to write the audit entry never changes the
// status returned to the caller.
func (m *AuditedManager) log(action audit.Action, attrs Attributes, status Status) {
	entry := audit.Entry{
		Action: action,
		Actor:  m.actor,
		Status: int32(status),
	}
	entry.Service, _ = attrs.String(AttrService)
	entry.AccessGroup, _ = attrs.String(AttrAccessGroup)
	entry.Account, _ = attrs.String(AttrAccount)
	if status != StatusSuccess {
		entry.Error = status.String()
	}
	_ = m.audit.Log(entry)
}
