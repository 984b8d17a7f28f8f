// Package credential stores serializable records in a secure item store.
//
// A Repository translates store/retrieve/delete/list/clear onto the four
// keychain primitives. Records are encoded as JSON and saved as a single
// generic-password item per (service, access group, account). The repository
// keeps no state between calls: every operation queries the store afresh.
//
// "Item not found" is not an error on read and delete paths. Retrieve reports
// it as found == false, and Delete of a missing account succeeds.
package credential

import (
	"runtime/debug"

	"github.com/benaskins/settingskit/internal/keychain"
)

// FallbackService is used when the host module cannot be identified.
const FallbackService = "com.settingskit.keychain"

// DefaultService returns the main module path of the running binary, or
// FallbackService when build info is unavailable.
func DefaultService() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Path != "" {
		return info.Main.Path
	}
	return FallbackService
}

// Record is a value that can be persisted by a Repository. It must be
// encodable with encoding/json.
type Record interface {
	Account() string
}

// Policy is implemented by records that choose when they may be read.
// Records without it use keychain.DefaultAccessibility.
type Policy interface {
	Accessibility() keychain.Accessibility
}

func accessibilityOf(rec Record) keychain.Accessibility {
	if p, ok := rec.(Policy); ok {
		if a := p.Accessibility(); a != "" {
			return a
		}
	}
	return keychain.DefaultAccessibility
}

// Scope partitions stored items. An empty AccessGroup means none.
type Scope struct {
	Service     string
	AccessGroup string
}

// Config holds the defaults applied when a call does not name a scope.
type Config struct {
	Service     string
	AccessGroup string
}

// Repository provides CRUD over records held in a keychain.Manager.
type Repository struct {
	items    keychain.Manager
	defaults Scope
}

// New creates a repository over items. An empty cfg.Service is replaced by
// DefaultService().
func New(items keychain.Manager, cfg Config) *Repository {
	if cfg.Service == "" {
		cfg.Service = DefaultService()
	}
	return &Repository{
		items:    items,
		defaults: Scope{Service: cfg.Service, AccessGroup: cfg.AccessGroup},
	}
}

// DefaultScope returns the scope used when a call does not override it.
func (r *Repository) DefaultScope() Scope {
	return r.defaults
}

// Option adjusts a single repository call.
type Option func(*call)

type call struct {
	key   string
	scope Scope
}

// WithKey stores or deletes a record under key instead of its Account().
func WithKey(key string) Option {
	return func(c *call) { c.key = key }
}

// WithService overrides the service for one call.
func WithService(service string) Option {
	return func(c *call) { c.scope.Service = service }
}

// WithAccessGroup overrides the access group for one call. An empty group
// means none, even when the repository default names one.
func WithAccessGroup(group string) Option {
	return func(c *call) { c.scope.AccessGroup = group }
}

// InScope overrides both service and access group.
func InScope(s Scope) Option {
	return func(c *call) { c.scope = s }
}

func (r *Repository) resolve(opts []Option) call {
	c := call{scope: r.defaults}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// query builds the identifying attributes for account in s. An empty
// account selects every item in the scope.
func query(account string, s Scope) keychain.Attributes {
	q := keychain.Attributes{
		keychain.AttrService: s.Service,
		keychain.AttrClass:   keychain.ClassGenericPassword,
	}
	if account != "" {
		q[keychain.AttrAccount] = account
	}
	if s.AccessGroup != "" {
		q[keychain.AttrAccessGroup] = s.AccessGroup
	}
	return q
}
