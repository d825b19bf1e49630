package server

import (
	"strings"
	"testing"
)

func TestNewBaggageDetails(t *testing.T) {
	for i := 0; i < 20; i++ {
		p := NewBaggageDetails()

		for _, key := range []string{"baggage_id", "flight_number", "destination", "weight", "priority"} {
			if _, ok := p[key]; !ok {
				t.Fatalf("missing %q in %+v", key, p)
			}
		}
		if id := p["baggage_id"].(string); !strings.HasPrefix(id, "BAG-") {
			t.Errorf("baggage_id = %q", id)
		}
		if fl := p["flight_number"].(string); !strings.HasPrefix(fl, "FL-") {
			t.Errorf("flight_number = %q", fl)
		}
		if w := p["weight"].(string); !strings.HasSuffix(w, " kg") {
			t.Errorf("weight = %q", w)
		}
	}
}
