package credential

import (
	"encoding/json"

	"github.com/samber/oops"

	"github.com/benaskins/settingskit/internal/keychain"
)

func errorsFor(account string, s Scope) oops.OopsErrorBuilder {
	b := oops.In("credential").With("service", s.Service)
	if account != "" {
		b = b.With("account", account)
	}
	if s.AccessGroup != "" {
		b = b.With("access_group", s.AccessGroup)
	}
	return b
}

// Store saves rec under its account, or under the key given with WithKey.
// An existing item is updated in place; otherwise a new item is added.
func (r *Repository) Store(rec Record, opts ...Option) error {
	c := r.resolve(opts)
	key := c.key
	if key == "" {
		key = rec.Account()
	}
	oerr := errorsFor(key, c.scope)
	if key == "" {
		return oerr.Wrap(ErrEmptyAccount)
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return oerr.Wrap(&EncodingError{Account: key, Err: err})
	}

	_, found, err := r.data(key, c.scope)
	if err != nil {
		return oerr.Wrapf(err, "probing existing item")
	}

	attrs := keychain.Attributes{
		keychain.AttrValueData:  payload,
		keychain.AttrAccessible: accessibilityOf(rec),
	}
	q := query(key, c.scope)

	var status keychain.Status
	if found {
		status = r.items.Update(q, attrs)
	} else {
		q.Merge(attrs)
		status = r.items.Add(q)
	}
	return oerr.Wrapf(status.Err(), "storing item")
}

// Retrieve loads and decodes the record stored under account. found is false
// when no item exists. A payload that does not decode into T yields a
// *DecodingError.
func Retrieve[T any](r *Repository, account string, opts ...Option) (value T, found bool, err error) {
	data, found, err := r.RetrieveData(account, opts...)
	if err != nil || !found {
		return value, found, err
	}
	if err := json.Unmarshal(data, &value); err != nil {
		var zero T
		c := r.resolve(opts)
		return zero, false, errorsFor(account, c.scope).Wrap(&DecodingError{Account: account, Err: err})
	}
	return value, true, nil
}

// RetrieveData returns the raw payload stored under account.
func (r *Repository) RetrieveData(account string, opts ...Option) ([]byte, bool, error) {
	c := r.resolve(opts)
	if account == "" {
		return nil, false, errorsFor(account, c.scope).Wrap(ErrEmptyAccount)
	}
	data, found, err := r.data(account, c.scope)
	if err != nil {
		return nil, false, errorsFor(account, c.scope).Wrapf(err, "retrieving item")
	}
	return data, found, nil
}

// RetrieveAccounts lists the account of every item in the scope. An empty
// scope yields an empty slice.
func (r *Repository) RetrieveAccounts(opts ...Option) ([]string, error) {
	c := r.resolve(opts)
	accounts, err := r.accounts(c.scope)
	if err != nil {
		return nil, errorsFor("", c.scope).Wrapf(err, "listing accounts")
	}
	return accounts, nil
}

// Delete removes the item stored for rec. Deleting a missing item succeeds.
func (r *Repository) Delete(rec Record, opts ...Option) error {
	c := r.resolve(opts)
	key := c.key
	if key == "" {
		key = rec.Account()
	}
	return r.deleteAccount(key, c.scope)
}

// DeleteAccount removes the item stored under account. Deleting a missing
// item succeeds.
func (r *Repository) DeleteAccount(account string, opts ...Option) error {
	return r.deleteAccount(account, r.resolve(opts).scope)
}

// ClearAll deletes every item in the scope, one account at a time. A failed
// delete does not stop the others; all failures are reported together in a
// *ClearError.
func (r *Repository) ClearAll(opts ...Option) error {
	c := r.resolve(opts)
	accounts, err := r.accounts(c.scope)
	if err != nil {
		return errorsFor("", c.scope).Wrapf(err, "listing accounts to clear")
	}

	var failed []FailedDelete
	for _, account := range accounts {
		if err := r.deleteAccount(account, c.scope); err != nil {
			failed = append(failed, FailedDelete{Account: account, Err: err})
		}
	}
	if len(failed) > 0 {
		return &ClearError{Failed: failed}
	}
	return nil
}

func (r *Repository) deleteAccount(account string, s Scope) error {
	oerr := errorsFor(account, s)
	if account == "" {
		return oerr.Wrap(ErrEmptyAccount)
	}
	status := r.items.Delete(query(account, s))
	if status == keychain.StatusItemNotFound {
		return nil
	}
	return oerr.Wrapf(status.Err(), "deleting item")
}

// data queries the payload for one account.
func (r *Repository) data(account string, s Scope) ([]byte, bool, error) {
	q := query(account, s)
	q[keychain.AttrMatchLimit] = keychain.MatchLimitOne
	q[keychain.AttrReturnData] = true

	result, status := r.items.CopyMatching(q)
	if status == keychain.StatusItemNotFound {
		return nil, false, nil
	}
	if err := status.Err(); err != nil {
		return nil, false, err
	}
	if result == nil {
		return nil, false, nil
	}
	data, ok := result.([]byte)
	if !ok {
		return nil, false, ErrInvalidQueryResult
	}
	return data, true, nil
}

// accounts queries the attribute records of every item in s.
func (r *Repository) accounts(s Scope) ([]string, error) {
	q := query("", s)
	q[keychain.AttrMatchLimit] = keychain.MatchLimitAll
	q[keychain.AttrReturnAttributes] = true

	result, status := r.items.CopyMatching(q)
	if status == keychain.StatusItemNotFound {
		return []string{}, nil
	}
	if err := status.Err(); err != nil {
		return nil, err
	}
	if result == nil {
		return []string{}, nil
	}
	records, ok := result.([]keychain.Attributes)
	if !ok {
		return nil, ErrInvalidAccountRetrievalResult
	}

	accounts := make([]string, 0, len(records))
	for _, rec := range records {
		if account, ok := rec.String(keychain.AttrAccount); ok {
			accounts = append(accounts, account)
		}
	}
	return accounts, nil
}
