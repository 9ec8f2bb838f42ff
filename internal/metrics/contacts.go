package metrics

import "github.com/san-kum/rigidsync/internal/sim"

// ContactOnsets counts collision keys that went from clear to set.
type ContactOnsets struct {
	name  string
	count int
}

func NewContactOnsets() *ContactOnsets {
	return &ContactOnsets{name: "contact_onsets"}
}

func (c *ContactOnsets) Name() string {
	return c.name
}

func (c *ContactOnsets) Observe(f sim.Frame) {
	c.count += len(f.Onsets)
}

func (c *ContactOnsets) Value() float64 {
	return float64(c.count)
}

func (c *ContactOnsets) Reset() {
	c.count = 0
}
