package dispatch_test

import (
	"testing"

	"github.com/jsamuelsen11/relay/internal/dispatch"
)

func TestHeader_AddKeepsDuplicates(t *testing.T) {
	t.Parallel()

	var h dispatch.Header
	h.Add("Set-Cookie", "a=1")
	h.Add("Set-Cookie", "b=2")

	got := h.Values("Set-Cookie")
	want := []string{"a=1", "b=2"}
	if len(got) != len(want) {
		t.Fatalf("Values = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Values[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestHeader_SetReplacesAllValues(t *testing.T) {
	t.Parallel()

	var h dispatch.Header
	h.Add("Accept", "text/html")
	h.Add("Accept", "application/json")
	h.Set("Accept", "application/xml")

	got := h.Values("Accept")
	if len(got) != 1 || got[0] != "application/xml" {
		t.Errorf("Values after Set = %v, want [application/xml]", got)
	}
}

func TestHeader_SetKeepsFirstPosition(t *testing.T) {
	t.Parallel()

	var h dispatch.Header
	h.Add("A", "1")
	h.Add("B", "2")
	h.Add("A", "3")
	h.Add("C", "4")
	h.Set("A", "replaced")

	fields := h.Fields()
	wantNames := []string{"A", "B", "C"}
	if len(fields) != len(wantNames) {
		t.Fatalf("Fields = %v, want names %v", fields, wantNames)
	}
	for i, name := range wantNames {
		if fields[i].Name != name {
			t.Errorf("Fields[%d].Name = %q, want %q", i, fields[i].Name, name)
		}
	}
	if fields[0].Value != "replaced" {
		t.Errorf("Fields[0].Value = %q, want %q", fields[0].Value, "replaced")
	}
}

// Get returns the first value recorded for the name, not the last.
func TestHeader_GetReturnsFirstValue(t *testing.T) {
	t.Parallel()

	var h dispatch.Header
	h.Add("X-Forwarded-For", "10.0.0.1")
	h.Add("X-Forwarded-For", "10.0.0.2")

	if got := h.Get("X-Forwarded-For"); got != "10.0.0.1" {
		t.Errorf("Get = %q, want %q (first value)", got, "10.0.0.1")
	}
}

func TestHeader_CaseInsensitiveMatching(t *testing.T) {
	t.Parallel()

	var h dispatch.Header
	h.Add("Content-Type", "application/json")

	if got := h.Get("content-type"); got != "application/json" {
		t.Errorf("Get(lowercase) = %q, want %q", got, "application/json")
	}
	if !h.Has("CONTENT-TYPE") {
		t.Error("Has(uppercase) = false, want true")
	}

	h.Set("CONTENT-TYPE", "text/plain")
	if h.Len() != 1 {
		t.Errorf("Len after case-insensitive Set = %d, want 1", h.Len())
	}
}

func TestHeader_PreservesInsertionOrderAcrossNames(t *testing.T) {
	t.Parallel()

	var h dispatch.Header
	h.Add("B", "1")
	h.Add("A", "2")
	h.Add("B", "3")

	fields := h.Fields()
	want := []dispatch.Field{{Name: "B", Value: "1"}, {Name: "A", Value: "2"}, {Name: "B", Value: "3"}}
	if len(fields) != len(want) {
		t.Fatalf("Fields = %v, want %v", fields, want)
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("Fields[%d] = %v, want %v", i, fields[i], want[i])
		}
	}
}

func TestHeader_Del(t *testing.T) {
	t.Parallel()

	var h dispatch.Header
	h.Add("X-Trace", "a")
	h.Add("Keep", "b")
	h.Add("x-trace", "c")
	h.Del("X-Trace")

	if h.Has("X-Trace") {
		t.Error("Has after Del = true, want false")
	}
	if got := h.Get("Keep"); got != "b" {
		t.Errorf("Get(\"Keep\") = %q, want %q", got, "b")
	}
	if h.Len() != 1 {
		t.Errorf("Len = %d, want 1", h.Len())
	}
}

func TestHeader_GetMissing(t *testing.T) {
	t.Parallel()

	var h dispatch.Header
	if got := h.Get("Nope"); got != "" {
		t.Errorf("Get on empty header = %q, want \"\"", got)
	}
	if got := h.Values("Nope"); got != nil {
		t.Errorf("Values on empty header = %v, want nil", got)
	}
}

func TestHeader_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	var h dispatch.Header
	h.Add("A", "1")

	clone := h.Clone()
	clone.Set("A", "changed")
	clone.Add("B", "2")

	if got := h.Get("A"); got != "1" {
		t.Errorf("original mutated through clone: Get(\"A\") = %q, want %q", got, "1")
	}
	if h.Has("B") {
		t.Error("original gained field added to clone")
	}
}
