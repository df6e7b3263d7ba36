package taskrouter

// Worker is a telephony-side agent. Attributes is the raw JSON metadata
// blob carrying close_user_id and groups; it is the only persisted proxy
// for CRM user identity on the telephony side.
type Worker struct {
	SID          string `json:"sid"`
	FriendlyName string `json:"friendly_name"`
	ActivityName string `json:"activity_name"`
	Attributes   string `json:"attributes"`
}

// Activity is one worker status the workspace knows about.
type Activity struct {
	SID          string `json:"sid"`
	FriendlyName string `json:"friendly_name"`
}

// ActivityMap resolves canonical status names to workspace activity SIDs.
// Fetched once at startup and treated as immutable configuration.
type ActivityMap map[string]string

// SIDFor returns the activity SID for a status name.
func (m ActivityMap) SIDFor(name string) (string, bool) {
	sid, ok := m[name]
	return sid, ok
}
