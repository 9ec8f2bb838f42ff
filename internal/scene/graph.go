package scene

import "fmt"

// Graph indexes proxies by name in insertion order. Unnamed proxies are
// allowed and never indexed.
type Graph struct {
	proxies []*Proxy
	byName  map[string]*Proxy
}

func NewGraph() *Graph {
	return &Graph{byName: make(map[string]*Proxy)}
}

func (g *Graph) Add(p *Proxy) error {
	if p == nil {
		return ErrNilProxy
	}
	if p.name != "" {
		if _, ok := g.byName[p.name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateName, p.name)
		}
		g.byName[p.name] = p
	}
	g.proxies = append(g.proxies, p)
	return nil
}

// MustAdd is Add for scene builders with hard-coded names.
func (g *Graph) MustAdd(p *Proxy) *Proxy {
	if err := g.Add(p); err != nil {
		panic(err)
	}
	return p
}

func (g *Graph) ObjectByName(name string) (*Proxy, bool) {
	p, ok := g.byName[name]
	return p, ok
}

func (g *Graph) Remove(p *Proxy) {
	for i, o := range g.proxies {
		if o == p {
			g.proxies = append(g.proxies[:i], g.proxies[i+1:]...)
			break
		}
	}
	if p != nil && g.byName[p.name] == p {
		delete(g.byName, p.name)
	}
}

func (g *Graph) Proxies() []*Proxy { return g.proxies }

func (g *Graph) Len() int { return len(g.proxies) }
