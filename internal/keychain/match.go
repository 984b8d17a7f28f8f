package keychain

// identityKeys are the attributes that select items in a query.
var identityKeys = []string{AttrClass, AttrService, AttrAccessGroup, AttrAccount}

// matches reports whether item satisfies every identity key present in query.
// Class, service and account absent from the query match any value. An
// absent access group matches only items stored without one, so the
// ungrouped scope never reaches into a named group.
func matches(query, item Attributes) bool {
	for _, k := range identityKeys {
		want, ok := query[k]
		if !ok && k != AttrAccessGroup {
			continue
		}
		got, _ := item[k].(string)
		if s, _ := want.(string); s != got {
			return false
		}
	}
	return true
}

// sameIdentity reports whether a and b name the same item.
func sameIdentity(a, b Attributes) bool {
	for _, k := range identityKeys {
		x, _ := a[k].(string)
		y, _ := b[k].(string)
		if x != y {
			return false
		}
	}
	return true
}

// shapeResult builds the CopyMatching result for query from the stored
// attributes of every matching item, in store order.
func shapeResult(query Attributes, found []Attributes) (any, Status) {
	if len(found) == 0 {
		return nil, StatusItemNotFound
	}
	if query.MatchLimit() != MatchLimitAll {
		found = found[:1]
	}

	wantData := query.Bool(AttrReturnData)
	wantAttrs := query.Bool(AttrReturnAttributes)

	switch {
	case wantAttrs:
		records := make([]Attributes, 0, len(found))
		for _, item := range found {
			rec := item.Clone()
			if !wantData {
				delete(rec, AttrValueData)
			}
			records = append(records, rec)
		}
		if query.MatchLimit() == MatchLimitAll {
			return records, StatusSuccess
		}
		return records[0], StatusSuccess
	case wantData:
		payloads := make([][]byte, 0, len(found))
		for _, item := range found {
			data, _ := item.Data()
			payloads = append(payloads, append([]byte(nil), data...))
		}
		if query.MatchLimit() == MatchLimitAll {
			return payloads, StatusSuccess
		}
		return payloads[0], StatusSuccess
	}
	return nil, StatusSuccess
}
