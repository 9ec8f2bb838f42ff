package collision

import (
	"fmt"
	"strings"
)

// Key names the pair of proxies in a collision.
type Key struct {
	A, B string
}

func (k Key) String() string {
	return k.A + "-" + k.B
}

// Reversed swaps the two names.
func (k Key) Reversed() Key {
	return Key{A: k.B, B: k.A}
}

// ParseKey splits "a-b" at the first '-'. A key whose first name contains
// '-' does not survive String then ParseKey; the surplus moves into B.
func ParseKey(s string) (Key, error) {
	a, b, ok := strings.Cut(s, "-")
	if !ok || a == "" || b == "" {
		return Key{}, fmt.Errorf("collision: malformed key %q", s)
	}
	return Key{A: a, B: b}, nil
}

type Policy int

const (
	PolicyCanonical Policy = iota
	PolicyDiscovery
)

func (p Policy) String() string {
	switch p {
	case PolicyCanonical:
		return "canonical"
	case PolicyDiscovery:
		return "discovery"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "", "canonical":
		return PolicyCanonical, nil
	case "discovery":
		return PolicyDiscovery, nil
	default:
		return 0, fmt.Errorf("collision: unknown key policy %q", s)
	}
}

// MakeKey builds the key for names reported in discovery order a, b.
func (p Policy) MakeKey(a, b string) Key {
	if p == PolicyCanonical && b < a {
		a, b = b, a
	}
	return Key{A: a, B: b}
}
