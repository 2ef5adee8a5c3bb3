package model

import (
	"encoding/json"
	"testing"
)

func TestFromJSONRoundTrip(t *testing.T) {
	input := []byte(`{"patient_details":{"name":"John Doe","age":42},"flags":[true,false],"note":null}`)

	v, err := FromJSON(input)
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}

	if got := v.StringAt("patient_details.name"); got != "John Doe" {
		t.Errorf("StringAt(patient_details.name) = %q, want %q", got, "John Doe")
	}
	age, ok := v.NumberAt("patient_details.age")
	if !ok || age != 42 {
		t.Errorf("NumberAt(patient_details.age) = %v, %v, want 42, true", age, ok)
	}
	if !v.At("note").IsNull() {
		t.Error("At(note) should be null")
	}

	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	reparsed, err := FromJSON(out)
	if err != nil {
		t.Fatalf("FromJSON(round trip) error = %v", err)
	}
	if !v.Equal(reparsed) {
		t.Errorf("round trip changed value: %s vs %s", v.Canonical(), reparsed.Canonical())
	}
}

func TestNumberAtCoercesStrings(t *testing.T) {
	v, err := FromJSON([]byte(`{"total":"12,500.50"}`))
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	f, ok := v.NumberAt("total")
	if !ok || f != 12500.50 {
		t.Errorf("NumberAt(total) = %v, %v, want 12500.50, true", f, ok)
	}
}

func TestIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"null", Null(), true},
		{"empty string", String(""), true},
		{"empty mapping", Mapping(nil), true},
		{"empty sequence", Sequence(nil), true},
		{"false bool", Bool(false), false},
		{"zero number", Number(0), false},
		{"nonempty string", String("x"), false},
	}
	for _, tt := range tests {
		if got := tt.v.IsEmpty(); got != tt.want {
			t.Errorf("%s: IsEmpty() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFindSequences(t *testing.T) {
	v, err := FromJSON([]byte(`{
		"financial_summary": {"line_items": [{"item_name": "X-Ray"}]},
		"nested": {"inner": {"line_items": [{"item_name": "CT Scan"}]}}
	}`))
	if err != nil {
		t.Fatalf("FromJSON() error = %v", err)
	}
	found := v.FindSequences("line_items")
	if len(found) != 2 {
		t.Fatalf("FindSequences(line_items) found %d sequences, want 2", len(found))
	}
}

func TestCanonicalStableAcrossKeyOrder(t *testing.T) {
	a, _ := FromJSON([]byte(`{"a":1,"b":2}`))
	b, _ := FromJSON([]byte(`{"b":2,"a":1}`))
	if a.Canonical() != b.Canonical() {
		t.Errorf("canonical encodings differ: %s vs %s", a.Canonical(), b.Canonical())
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig, _ := FromJSON([]byte(`{"outer":{"inner":"before"}}`))
	clone := orig.Clone()

	inner, _ := clone.Get("outer")
	inner.Set("inner", String("after"))

	if got := orig.StringAt("outer.inner"); got != "before" {
		t.Errorf("mutating clone changed original: got %q", got)
	}
}

func TestCollectText(t *testing.T) {
	v, _ := FromJSON([]byte(`{"doc":{"type":"Approval Letter"},"id":7}`))
	text := v.CollectText()
	if text != "approval letter" {
		t.Errorf("CollectText() = %q, want %q", text, "approval letter")
	}
}

func TestLineItemFromValue(t *testing.T) {
	v, _ := FromJSON([]byte(`{
		"item_name": "Chest X-Ray",
		"code": "XR-1",
		"type": "Radiology",
		"date": "2025-03-02",
		"price": 1500,
		"proof_available": true
	}`))
	li, ok := LineItemFromValue(v)
	if !ok {
		t.Fatal("LineItemFromValue() returned !ok")
	}
	if li.ItemName != "Chest X-Ray" || li.ItemCode != "XR-1" || li.Category != "Radiology" {
		t.Errorf("unexpected item: %+v", li)
	}
	if li.DateOfService != "2025-03-02" || li.TotalPrice != 1500 {
		t.Errorf("unexpected date/price: %+v", li)
	}
	if li.ProofIncluded == nil || !*li.ProofIncluded {
		t.Error("ProofIncluded should be true via proof_available alias")
	}
}

func TestLineItemIdentityKeyCaseInsensitive(t *testing.T) {
	a := LineItem{ItemCode: "XR-1", ItemName: "Chest X-Ray", DateOfService: "2025-03-02", TotalPrice: 1500}
	b := LineItem{ItemCode: "xr-1", ItemName: "CHEST X-RAY", DateOfService: "2025-03-02", TotalPrice: 1500}
	if a.IdentityKey() != b.IdentityKey() {
		t.Errorf("identity keys differ: %q vs %q", a.IdentityKey(), b.IdentityKey())
	}
}

func TestClaimTransition(t *testing.T) {
	c := &Claim{Status: StatusProcessing}
	if !c.Transition(StatusCompleted) {
		t.Fatal("Transition(completed) from processing should succeed")
	}
	if c.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}
	if c.Transition(StatusFailed) {
		t.Error("Transition from terminal state should fail")
	}
	if c.Status != StatusCompleted {
		t.Errorf("terminal status overwritten: %s", c.Status)
	}
}
