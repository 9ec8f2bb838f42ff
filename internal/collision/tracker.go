package collision

import (
	"github.com/charmbracelet/log"
)

// Manifold is a contact manifold resolved to proxy names. An empty name
// marks a body with no named proxy.
type Manifold struct {
	NameA, NameB string
	Distances    []float64
}

// Source reports the manifolds of the last step in discovery order.
type Source interface {
	ContactManifolds() []Manifold
}

type Stats struct {
	Scans     int
	Manifolds int
	Skipped   int
	Touching  int
	Onsets    int
}

type Tracker struct {
	policy   Policy
	fired    map[Key]bool
	known    []Key
	partners map[string]string
	stats    Stats
	logger   *log.Logger
}

type Option func(*Tracker)

func WithPolicy(p Policy) Option {
	return func(t *Tracker) { t.policy = p }
}

func WithLogger(l *log.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		fired:    make(map[Key]bool),
		partners: make(map[string]string),
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) Policy() Policy { return t.policy }

// Scan sets the flag of every named pair with a contact at or below zero
// separation and returns the keys that went from clear to set.
func (t *Tracker) Scan(src Source) []Key {
	t.stats.Scans++
	var onsets []Key
	for _, m := range src.ContactManifolds() {
		t.stats.Manifolds++
		if m.NameA == "" || m.NameB == "" {
			t.stats.Skipped++
			t.logger.Debug("skipping manifold with unnamed body", "a", m.NameA, "b", m.NameB)
			continue
		}
		key := t.policy.MakeKey(m.NameA, m.NameB)
		for _, d := range m.Distances {
			if d > 0 {
				delete(t.partners, m.NameA)
				continue
			}
			t.stats.Touching++
			t.partners[m.NameA] = m.NameB
			fired, seen := t.fired[key]
			if !seen {
				t.known = append(t.known, key)
			}
			if !fired {
				t.fired[key] = true
				t.stats.Onsets++
				onsets = append(onsets, key)
			}
		}
	}
	return onsets
}

// ResolveKey parses "<a>-<b>" and orders it the way this tracker stores
// keys.
func (t *Tracker) ResolveKey(s string) (Key, error) {
	k, err := ParseKey(s)
	if err != nil {
		return Key{}, err
	}
	return t.policy.MakeKey(k.A, k.B), nil
}

func (t *Tracker) Query(k Key) bool {
	return t.fired[k]
}

// QueryNames looks up the flag for names given in the caller's order. With
// the canonical policy the order does not matter.
func (t *Tracker) QueryNames(a, b string) bool {
	return t.Query(t.policy.MakeKey(a, b))
}

// Acknowledge clears the flag. Keys never seen are left absent.
func (t *Tracker) Acknowledge(k Key) {
	if _, ok := t.fired[k]; ok {
		t.fired[k] = false
	}
}

func (t *Tracker) AcknowledgeNames(a, b string) {
	t.Acknowledge(t.policy.MakeKey(a, b))
}

// Fired returns the set flags in first-seen order.
func (t *Tracker) Fired() []Key {
	var out []Key
	for _, k := range t.known {
		if t.fired[k] {
			out = append(out, k)
		}
	}
	return out
}

// Known returns every key that has ever fired, in first-seen order.
func (t *Tracker) Known() []Key {
	return append([]Key(nil), t.known...)
}

// Partner returns the last body seen touching name, when name was the first
// body of the manifold. Any separated contact point of a manifold led by name
// clears the entry, so the last point scanned decides.
func (t *Tracker) Partner(name string) (string, bool) {
	p, ok := t.partners[name]
	return p, ok
}

func (t *Tracker) Stats() Stats { return t.stats }
