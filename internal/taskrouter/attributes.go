package taskrouter

import (
	"sort"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Worker attributes are stored by the telephony platform as an opaque JSON
// string. These helpers are the only place that shape is known.

// CloseUserID extracts the CRM user id a worker represents, or "" when the
// worker carries no mapping.
func CloseUserID(attributes string) string {
	return gjson.Get(attributes, "close_user_id").String()
}

// GroupIDs extracts the queue-eligibility group set from worker attributes.
func GroupIDs(attributes string) []string {
	res := gjson.Get(attributes, "groups")
	if !res.IsArray() {
		return nil
	}
	arr := res.Array()
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s := v.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// BuildAttributes produces the canonical attributes payload for a worker.
// Groups are sorted so equal sets always serialize identically.
func BuildAttributes(closeUserID string, groups []string) string {
	sorted := append([]string(nil), groups...)
	sort.Strings(sorted)
	if sorted == nil {
		sorted = []string{}
	}

	attrs, _ := sjson.Set("{}", "close_user_id", closeUserID)
	attrs, _ = sjson.Set(attrs, "groups", sorted)
	return attrs
}

// SameGroupSet compares two group lists order-independently.
func SameGroupSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
