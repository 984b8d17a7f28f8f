package preference

import (
	"github.com/benaskins/settingskit/internal/credential"
)

// secureItem is the record a SecureSetting stores.
type secureItem[T any] struct {
	Key   string `json:"account"`
	Value T      `json:"value"`
}

func (i secureItem[T]) Account() string { return i.Key }

// SecureSetting keeps a typed value in the credential repository. Unlike
// Setting, failures reading or writing the store are returned; only a
// missing item falls back to the default.
type SecureSetting[T any] struct {
	repo         *credential.Repository
	key          string
	defaultValue T
	opts         []credential.Option
}

// NewSecureSetting binds key in repo to a typed accessor. opts apply to every
// call, e.g. credential.WithService.
func NewSecureSetting[T any](repo *credential.Repository, key string, defaultValue T, opts ...credential.Option) *SecureSetting[T] {
	return &SecureSetting[T]{repo: repo, key: key, defaultValue: defaultValue, opts: opts}
}

// Get returns the stored value, or the default when no item exists.
func (s *SecureSetting[T]) Get() (T, error) {
	item, found, err := credential.Retrieve[secureItem[T]](s.repo, s.key, s.opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	if !found {
		return s.defaultValue, nil
	}
	return item.Value, nil
}

func (s *SecureSetting[T]) Set(value T) error {
	return s.repo.Store(secureItem[T]{Key: s.key, Value: value}, s.opts...)
}

// Delete removes the stored item so Get returns the default again.
func (s *SecureSetting[T]) Delete() error {
	return s.repo.DeleteAccount(s.key, s.opts...)
}
