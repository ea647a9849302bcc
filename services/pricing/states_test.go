package pricing

import "testing"

func TestLookupState(t *testing.T) {
	tests := []struct {
		input string
		want  StateCode
		ok    bool
	}{
		{input: "29", want: "29", ok: true},
		{input: "KA", want: "29", ok: true},
		{input: "  karnataka ", want: "29", ok: true},
		{input: "KARNATAKA", want: "29", ok: true},
		{input: "9", want: "09", ok: true},
		{input: "Jammu & Kashmir", want: "01", ok: true},
		{input: "Orissa", want: "21", ok: true},
		{input: "Tamil  Nadu", want: "33", ok: true},
		{input: "Karnatak", ok: false},
		{input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := LookupState(tt.input)
			if ok != tt.ok {
				t.Fatalf("LookupState(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got.Code != tt.want {
				t.Fatalf("LookupState(%q) = %s, want %s", tt.input, got.Code, tt.want)
			}
		})
	}
}

func TestStateCodeValid(t *testing.T) {
	if !StateCode("29").Valid() {
		t.Fatal("expected 29 to be a valid state code")
	}
	if StateCode("KA").Valid() || StateCode("ka").Valid() || StateCode("karnataka").Valid() {
		t.Fatal("only canonical numeric codes are valid state codes")
	}
	if StateCode("29").Name() != "Karnataka" {
		t.Fatalf("unexpected name %q", StateCode("29").Name())
	}
}
