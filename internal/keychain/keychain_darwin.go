//go:build darwin

package keychain

import (
	"errors"
	"fmt"

	gokeychain "github.com/keybase/go-keychain"
)

// SystemManager passes primitives through to the macOS Keychain.
type SystemManager struct{}

// NewSystemManager creates a Keychain-backed manager.
func NewSystemManager() *SystemManager {
	return &SystemManager{}
}

func (m *SystemManager) Add(attrs Attributes) Status {
	item := queryItem(attrs)
	if account, ok := attrs.String(AttrAccount); ok {
		item.SetLabel(fmt.Sprintf("settingskit: %s", account))
	}
	item.SetSynchronizable(gokeychain.SynchronizableNo)
	return statusOf(gokeychain.AddItem(item))
}

func (m *SystemManager) Update(query, attrs Attributes) Status {
	return statusOf(gokeychain.UpdateItem(queryItem(query), updateItem(attrs)))
}

func (m *SystemManager) Delete(query Attributes) Status {
	return statusOf(gokeychain.DeleteItem(queryItem(query)))
}

func (m *SystemManager) CopyMatching(query Attributes) (any, Status) {
	if !query.Bool(AttrReturnAttributes) {
		found, status := m.find(query, "")
		if status != StatusSuccess {
			return nil, status
		}
		return shapeResult(query, found)
	}

	// go-keychain does not report an item's protection class, so attribute
	// queries run once per class and tag what each one returns.
	policies := Accessibilities()
	if a, ok := query.Accessibility(); ok {
		policies = []Accessibility{a}
	}
	var found []Attributes
	for _, a := range policies {
		records, status := m.find(query, a)
		if status != StatusSuccess {
			return nil, status
		}
		found = append(found, records...)
		if len(found) > 0 && query.MatchLimit() != MatchLimitAll {
			break
		}
	}
	return shapeResult(query, found)
}

// find runs one QueryItem call. A non-empty policy restricts the search to
// that class and is recorded on every result.
func (m *SystemManager) find(query Attributes, policy Accessibility) ([]Attributes, Status) {
	item := queryItem(query)
	if policy != "" {
		item.SetAccessible(nativeAccessible(policy))
	}
	switch query.MatchLimit() {
	case MatchLimitAll:
		item.SetMatchLimit(gokeychain.MatchLimitAll)
	default:
		item.SetMatchLimit(gokeychain.MatchLimitOne)
	}
	// go-keychain fills QueryResult fields only when attributes are returned.
	item.SetReturnAttributes(true)
	if query.Bool(AttrReturnData) {
		item.SetReturnData(true)
	}

	// A missing item comes back as no results and no error.
	results, err := gokeychain.QueryItem(item)
	if status := statusOf(err); status != StatusSuccess {
		return nil, status
	}

	found := make([]Attributes, 0, len(results))
	for _, r := range results {
		rec := Attributes{
			AttrClass:   ClassGenericPassword,
			AttrService: r.Service,
			AttrAccount: r.Account,
		}
		if r.AccessGroup != "" {
			rec[AttrAccessGroup] = r.AccessGroup
		}
		if r.Data != nil {
			rec[AttrValueData] = r.Data
		}
		if policy != "" {
			rec[AttrAccessible] = policy
		}
		found = append(found, rec)
	}
	return found, StatusSuccess
}

// queryItem builds a generic-password item carrying the identity and
// payload attributes of attrs.
func queryItem(attrs Attributes) gokeychain.Item {
	item := updateItem(attrs)
	item.SetSecClass(gokeychain.SecClassGenericPassword)
	if v, ok := attrs.String(AttrService); ok {
		item.SetService(v)
	}
	if v, ok := attrs.String(AttrAccount); ok {
		item.SetAccount(v)
	}
	if v, ok := attrs.String(AttrAccessGroup); ok {
		item.SetAccessGroup(v)
	}
	return item
}

// updateItem builds the attributes-to-update dictionary. SecItemUpdate
// rejects class and search keys here.
func updateItem(attrs Attributes) gokeychain.Item {
	item := gokeychain.NewItem()
	if data, ok := attrs.Data(); ok {
		item.SetData(data)
	}
	if a, ok := attrs.Accessibility(); ok {
		item.SetAccessible(nativeAccessible(a))
	}
	return item
}

func nativeAccessible(a Accessibility) gokeychain.Accessible {
	switch a {
	case AccessibleAfterFirstUnlock:
		return gokeychain.AccessibleAfterFirstUnlock
	case AccessibleAlways:
		return gokeychain.AccessibleAlways
	case AccessibleWhenPasscodeSetThisDeviceOnly:
		return gokeychain.AccessibleWhenPasscodeSetThisDeviceOnly
	case AccessibleWhenUnlockedThisDeviceOnly:
		return gokeychain.AccessibleWhenUnlockedThisDeviceOnly
	case AccessibleAfterFirstUnlockThisDeviceOnly:
		return gokeychain.AccessibleAfterFirstUnlockThisDeviceOnly
	case AccessibleAlwaysThisDeviceOnly:
		return gokeychain.AccessibleAccessibleAlwaysThisDeviceOnly
	default:
		return gokeychain.AccessibleWhenUnlocked
	}
}

// statusOf recovers the OSStatus from a go-keychain error.
func statusOf(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	var kerr gokeychain.Error
	if errors.As(err, &kerr) {
		return Status(kerr)
	}
	return StatusParam
}
