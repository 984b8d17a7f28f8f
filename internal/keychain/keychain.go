// Package keychain adapts the native secure item store to a small set of
// primitives over attribute maps.
//
// Items are generic passwords identified by:
//   - Service: the logical partition (defaults to the host's identifier)
//   - Access group: optional sharing group
//   - Account: the item key within the service
//
// Every primitive reports a Status rather than an error so callers can decide
// which codes are failures. The credential package builds its CRUD contract on
// top of a Manager; tests inject MemoryManager in place of the system store.
package keychain

import "fmt"

// Attribute keys. Values match the raw strings of the native constants so an
// Attributes map can be logged or compared against native dumps.
const (
	AttrService          = "svce"
	AttrAccessGroup      = "agrp"
	AttrAccount          = "acct"
	AttrClass            = "class"
	AttrMatchLimit       = "m_Limit"
	AttrReturnData       = "r_Data"
	AttrReturnAttributes = "r_Attributes"
	AttrValueData        = "v_Data"
	AttrAccessible       = "pdmn"
)

// ClassGenericPassword is the only item class this package manages.
const ClassGenericPassword = "genp"

// MatchLimit selects how many items a query returns.
type MatchLimit string

const (
	MatchLimitOne MatchLimit = "m_LimitOne"
	MatchLimitAll MatchLimit = "m_LimitAll"
)

// Accessibility controls when the store permits reading an item.
type Accessibility string

const (
	AccessibleWhenUnlocked                   Accessibility = "ak"
	AccessibleAfterFirstUnlock               Accessibility = "ck"
	AccessibleAlways                         Accessibility = "dk"
	AccessibleWhenPasscodeSetThisDeviceOnly  Accessibility = "akpu"
	AccessibleWhenUnlockedThisDeviceOnly     Accessibility = "aku"
	AccessibleAfterFirstUnlockThisDeviceOnly Accessibility = "cku"
	AccessibleAlwaysThisDeviceOnly           Accessibility = "dku"
)

// DefaultAccessibility is applied to records that do not choose a policy.
const DefaultAccessibility = AccessibleWhenUnlocked

var accessibilityNames = map[string]Accessibility{
	"when-unlocked":                       AccessibleWhenUnlocked,
	"after-first-unlock":                  AccessibleAfterFirstUnlock,
	"always":                              AccessibleAlways,
	"when-passcode-set-this-device-only":  AccessibleWhenPasscodeSetThisDeviceOnly,
	"when-unlocked-this-device-only":      AccessibleWhenUnlockedThisDeviceOnly,
	"after-first-unlock-this-device-only": AccessibleAfterFirstUnlockThisDeviceOnly,
	"always-this-device-only":             AccessibleAlwaysThisDeviceOnly,
}

// Accessibilities returns every policy in declaration order.
func Accessibilities() []Accessibility {
	return []Accessibility{
		AccessibleWhenUnlocked,
		AccessibleAfterFirstUnlock,
		AccessibleAlways,
		AccessibleWhenPasscodeSetThisDeviceOnly,
		AccessibleWhenUnlockedThisDeviceOnly,
		AccessibleAfterFirstUnlockThisDeviceOnly,
		AccessibleAlwaysThisDeviceOnly,
	}
}

// ParseAccessibility accepts either a readable name ("when-unlocked") or a
// raw native value ("ak").
func ParseAccessibility(s string) (Accessibility, error) {
	if a, ok := accessibilityNames[s]; ok {
		return a, nil
	}
	for _, a := range accessibilityNames {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown accessibility %q", s)
}

// Name returns the readable name of the policy.
func (a Accessibility) Name() string {
	for name, v := range accessibilityNames {
		if v == a {
			return name
		}
	}
	return string(a)
}

// Attributes is a query or attribute mapping passed to a Manager.
type Attributes map[string]any

// Clone returns a shallow copy. Byte payloads are copied.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		if b, ok := v.([]byte); ok {
			v = append([]byte(nil), b...)
		}
		out[k] = v
	}
	return out
}

// Merge copies every entry of other into a, overwriting existing keys.
func (a Attributes) Merge(other Attributes) {
	for k, v := range other {
		a[k] = v
	}
}

// String returns the string value stored under key.
func (a Attributes) String(key string) (string, bool) {
	s, ok := a[key].(string)
	return s, ok
}

// Bool reports whether key holds boolean true.
func (a Attributes) Bool(key string) bool {
	b, _ := a[key].(bool)
	return b
}

// Data returns the payload stored under AttrValueData.
func (a Attributes) Data() ([]byte, bool) {
	b, ok := a[AttrValueData].([]byte)
	return b, ok
}

// Accessibility returns the policy stored under AttrAccessible.
func (a Attributes) Accessibility() (Accessibility, bool) {
	switch v := a[AttrAccessible].(type) {
	case Accessibility:
		return v, true
	case string:
		return Accessibility(v), true
	}
	return "", false
}

// MatchLimit returns the requested match limit, MatchLimitOne when unset.
func (a Attributes) MatchLimit() MatchLimit {
	switch v := a[AttrMatchLimit].(type) {
	case MatchLimit:
		return v
	case string:
		return MatchLimit(v)
	}
	return MatchLimitOne
}

// Manager is the primitive surface of a secure item store.
type Manager interface {
	// Add inserts a new item. Fails with StatusDuplicateItem when an item
	// with the same identity exists.
	Add(attrs Attributes) Status
	// Update overwrites attrs on every item matching query.
	Update(query, attrs Attributes) Status
	// Delete removes every item matching query.
	Delete(query Attributes) Status
	// CopyMatching returns payloads or attribute records for matches. The
	// result shape depends on AttrMatchLimit, AttrReturnData and
	// AttrReturnAttributes.
	CopyMatching(query Attributes) (any, Status)
}
