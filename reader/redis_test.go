package reader

import (
	"testing"
)

func TestParseSignal(t *testing.T) {
	sig, err := parseSignal(map[string]interface{}{"ticker": "NVDA", "direction": "b"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sig.Ticker != "NVDA" {
		t.Errorf("unexpected ticker: %s", sig.Ticker)
	}
	if sig.Direction != "buy" {
		t.Errorf("unexpected direction: %s", sig.Direction)
	}
}

func TestParseSignalLongForm(t *testing.T) {
	sig, err := parseSignal(map[string]interface{}{"ticker": "AAPL", "direction": "sell"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sig.Direction != "sell" {
		t.Errorf("unexpected direction: %s", sig.Direction)
	}
}

func TestParseSignalErrors(t *testing.T) {
	cases := []struct {
		name   string
		values map[string]interface{}
	}{
		{"missing ticker", map[string]interface{}{"direction": "b"}},
		{"empty ticker", map[string]interface{}{"ticker": "", "direction": "b"}},
		{"missing direction", map[string]interface{}{"ticker": "NVDA"}},
		{"unknown direction", map[string]interface{}{"ticker": "NVDA", "direction": "hold"}},
		{"non-string direction", map[string]interface{}{"ticker": "NVDA", "direction": 1}},
	}
	for _, c := range cases {
		if _, err := parseSignal(c.values); err == nil {
			t.Errorf("%s: expected error", c.name)
		}
	}
}
