package closecrm

// Membership is one active user membership in the CRM organization.
type Membership struct {
	UserID       string `json:"user_id"`
	UserFullName string `json:"user_full_name"`
}

// User carries the fields needed to name a telephony worker.
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Availability is the raw per-user signal pair the canonical status is
// derived from. ActiveCalls counts live phone legs attributed to the user.
type Availability struct {
	NativeOnline bool
	ActiveCalls  int
}

// PhoneNumber is a CRM-side phone number entity. For virtual group numbers
// the participant list decides which users ring when it is dialed.
type PhoneNumber struct {
	ID           string   `json:"id"`
	Number       string   `json:"number"`
	Participants []string `json:"participants"`
}
