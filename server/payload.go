package server

import (
	"fmt"
	"math/rand/v2"
)

var (
	destinations = []string{"New York", "London", "Tokyo", "Paris", "Sydney"}
	priorities   = []string{"Normal", "Priority", "Fragile"}
)

// NewBaggageDetails builds the randomized descriptive payload attached to
// a task at submission. The tracker treats it as opaque data.
func NewBaggageDetails() map[string]any {
	return map[string]any{
		"baggage_id":    fmt.Sprintf("BAG-%d", 10000+rand.IntN(90000)),
		"flight_number": fmt.Sprintf("FL-%d", 100+rand.IntN(900)),
		"destination":   destinations[rand.IntN(len(destinations))],
		"weight":        fmt.Sprintf("%.1f kg", 10+rand.Float64()*20),
		"priority":      priorities[rand.IntN(len(priorities))],
	}
}
