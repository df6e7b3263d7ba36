package presence

import "testing"

func TestDerive_ActiveCallWinsOverNativeFlag(t *testing.T) {
	cases := []struct {
		name        string
		native      bool
		activeCalls int
		want        Status
	}{
		{"offline", false, 0, StatusOffline},
		{"online", true, 0, StatusOnline},
		{"on call while online", true, 1, StatusOnCall},
		{"on call while native offline", false, 2, StatusOnCall},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Derive(tc.native, tc.activeCalls); got != tc.want {
				t.Fatalf("Derive(%v, %d) = %v, want %v", tc.native, tc.activeCalls, got, tc.want)
			}
		})
	}
}

func TestParseActivity_UnknownComparesOffline(t *testing.T) {
	if got := ParseActivity("wrap_up"); got != StatusOffline {
		t.Fatalf("expected unknown activity to compare as offline, got %v", got)
	}
	if got := ParseActivity("on_call"); got != StatusOnCall {
		t.Fatalf("expected on_call, got %v", got)
	}
}

func TestEligibleForGroupNumber_ExcludesOnCall(t *testing.T) {
	if EligibleForGroupNumber(StatusOnCall) {
		t.Fatalf("on_call user must not participate in a group number")
	}
	if !EligibleForGroupNumber(StatusOnline) {
		t.Fatalf("online user must participate in a group number")
	}
}

func TestQueuePredicate(t *testing.T) {
	def := QueuePredicate{}
	if !def.Reachable(StatusOnCall) {
		t.Fatalf("default predicate treats on_call as reachable")
	}
	strict := QueuePredicate{OnCallBlocks: true}
	if strict.Reachable(StatusOnCall) {
		t.Fatalf("strict predicate must exclude on_call")
	}
	if strict.Reachable(StatusOffline) || def.Reachable(StatusOffline) {
		t.Fatalf("offline is never reachable")
	}
}
