package presence

// Status is the canonical three-valued availability for a CRM user.
//
// It is derived fresh on every reconciliation pass and is never stored
// authoritatively anywhere; the telephony worker activity is only a
// projection of it.
type Status int

const (
	StatusOffline Status = iota
	StatusOnline
	StatusOnCall
)

func (s Status) String() string {
	switch s {
	case StatusOnline:
		return "online"
	case StatusOnCall:
		return "on_call"
	default:
		return "offline"
	}
}

// ParseActivity maps a telephony activity name to a Status.
// Activity names outside the canonical set compare as offline.
func ParseActivity(name string) Status {
	switch name {
	case "online":
		return StatusOnline
	case "on_call":
		return StatusOnCall
	default:
		return StatusOffline
	}
}

// Derive computes the canonical status from the raw CRM signals.
// Active calls take precedence over the native-app flag.
func Derive(nativeOnline bool, activeCalls int) Status {
	if activeCalls > 0 {
		return StatusOnCall
	}
	if nativeOnline {
		return StatusOnline
	}
	return StatusOffline
}

// EligibleForGroupNumber reports whether a user should participate in a
// virtual group number. Users mid-call are excluded so they do not also
// receive a new ring on the group number.
func EligibleForGroupNumber(s Status) bool {
	return s == StatusOnline
}

// QueuePredicate decides whether a worker's activity makes it reachable
// for queue routing. The default treats on_call workers as reachable;
// operators can flip OnCallBlocks to exclude them.
type QueuePredicate struct {
	OnCallBlocks bool
}

func (p QueuePredicate) Reachable(s Status) bool {
	if s == StatusOffline {
		return false
	}
	if p.OnCallBlocks && s == StatusOnCall {
		return false
	}
	return true
}
