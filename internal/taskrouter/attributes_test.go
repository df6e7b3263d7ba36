package taskrouter

import "testing"

func TestBuildAttributes_RoundTrip(t *testing.T) {
	attrs := BuildAttributes("user_a", []string{"grp_b", "grp_a"})

	if got := CloseUserID(attrs); got != "user_a" {
		t.Fatalf("CloseUserID = %q", got)
	}
	groups := GroupIDs(attrs)
	if len(groups) != 2 || groups[0] != "grp_a" || groups[1] != "grp_b" {
		t.Fatalf("expected sorted groups, got %v", groups)
	}
}

func TestBuildAttributes_EmptyGroupsSerializesArray(t *testing.T) {
	attrs := BuildAttributes("user_a", nil)
	if want := `"groups":[]`; !containsStr(attrs, want) {
		t.Fatalf("expected %s in %s", want, attrs)
	}
}

func TestCloseUserID_MissingAttribute(t *testing.T) {
	if got := CloseUserID(`{"skill":"sales"}`); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
	if got := GroupIDs(`{"groups":"grp_a"}`); got != nil {
		t.Fatalf("non-array groups must be ignored, got %v", got)
	}
}

func TestSameGroupSet(t *testing.T) {
	if !SameGroupSet([]string{"a", "b"}, []string{"b", "a"}) {
		t.Fatalf("order must not matter")
	}
	if SameGroupSet([]string{"a"}, []string{"a", "a"}) {
		t.Fatalf("different lengths differ")
	}
	if !SameGroupSet(nil, []string{}) {
		t.Fatalf("nil and empty are the same set")
	}
}

func containsStr(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
