package models

import "testing"

func TestParseDirection(t *testing.T) {
	cases := []struct {
		raw  string
		want Direction
		ok   bool
	}{
		{"b", DirectionBuy, true},
		{"buy", DirectionBuy, true},
		{"s", DirectionSell, true},
		{"sell", DirectionSell, true},
		{"hold", "", false},
		{"B", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := ParseDirection(c.raw)
		if got != c.want || ok != c.ok {
			t.Errorf("ParseDirection(%q) = %q, %v; want %q, %v", c.raw, got, ok, c.want, c.ok)
		}
	}
}

func TestDecodeOrderStatus(t *testing.T) {
	cases := []struct {
		raw   string
		want  OrderState
		known bool
	}{
		{"new", StatePending, true},
		{"pending_new", StatePending, true},
		{"accepted", StatePending, true},
		{"filled", StateFilled, true},
		{"partially_filled", StateFilled, true},
		{"canceled", StateCancelled, true},
		{"expired", StateCancelled, true},
		{"rejected", StateCancelled, true},
		{"done_for_day", StatePending, false},
		{"", StatePending, false},
	}
	for _, c := range cases {
		got, known := DecodeOrderStatus(c.raw)
		if got != c.want || known != c.known {
			t.Errorf("DecodeOrderStatus(%q) = %s, %v; want %s, %v", c.raw, got, known, c.want, c.known)
		}
	}
}

func TestOrderStateTerminal(t *testing.T) {
	if StatePending.Terminal() {
		t.Errorf("pending must not be terminal")
	}
	if !StateFilled.Terminal() || !StateCancelled.Terminal() {
		t.Errorf("filled and cancelled must be terminal")
	}
}
