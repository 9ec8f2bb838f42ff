package sim

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/rigidsync/internal/physics"
	"github.com/san-kum/rigidsync/internal/scene"
)

// Driver runs the frame loop of a scene: update the world, then hand the
// frame to rules, metrics and observers in that order.
type Driver struct {
	world     *physics.World
	graph     *scene.Graph
	rules     []Rule
	metrics   []Metric
	observers []Observer
	logger    *log.Logger

	frame int
	time  float64
}

type Option func(*Driver)

func WithLogger(l *log.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

func New(w *physics.World, g *scene.Graph, opts ...Option) *Driver {
	d := &Driver{
		world:     w,
		graph:     g,
		rules:     make([]Rule, 0),
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Driver) AddRule(r Rule)         { d.rules = append(d.rules, r) }
func (d *Driver) AddMetric(m Metric)     { d.metrics = append(d.metrics, m) }
func (d *Driver) AddObserver(o Observer) { d.observers = append(d.observers, o) }

func (d *Driver) World() *physics.World { return d.world }
func (d *Driver) Graph() *scene.Graph   { return d.graph }
func (d *Driver) Time() float64         { return d.time }

// Advance runs a single frame of dt seconds.
func (d *Driver) Advance(dt float64) Frame {
	onsets := d.world.Update(dt)
	d.frame++
	d.time += dt

	f := Frame{
		Index:  d.frame,
		Time:   d.time,
		Dt:     dt,
		World:  d.world,
		Graph:  d.graph,
		Onsets: onsets,
	}
	for _, k := range onsets {
		d.logger.Info("collision", "key", k.String(), "frame", f.Index)
	}
	for _, r := range d.rules {
		r.Apply(f)
	}
	for _, m := range d.metrics {
		m.Observe(f)
	}
	for _, obs := range d.observers {
		obs.OnFrame(f)
	}
	return f
}

func (d *Driver) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := d.validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration/cfg.Dt + 1e-9)
	names := d.trackNames(cfg.Track)
	result := &Result{
		Times:   make([]float64, 0, steps+1),
		Tracks:  make([]Track, len(names)),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}
	for i, name := range names {
		result.Tracks[i] = Track{Name: name, Positions: make([]mgl64.Vec3, 0, steps+1)}
	}

	for _, m := range d.metrics {
		m.Reset()
	}

	d.record(result)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		f := d.Advance(cfg.Dt)
		for _, k := range f.Onsets {
			result.Onsets = append(result.Onsets, Onset{Frame: f.Index, Time: f.Time, Key: k})
		}
		result.StepsTaken++
		d.record(result)

		if cfg.ValidateState && !d.valid(result) {
			err := SimError{Time: f.Time, Step: i, Message: "invalid position (NaN/Inf)"}
			d.logger.Warn("stopping run", "err", err)
			result.Errors = append(result.Errors, err)
			break
		}
	}

	for _, m := range d.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (d *Driver) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	if d.world == nil || !d.world.Initialized() {
		return physics.ErrNotInitialized
	}
	for _, name := range cfg.Track {
		if _, ok := d.graph.ObjectByName(name); !ok {
			return fmt.Errorf("unknown proxy %q", name)
		}
	}
	return nil
}

func (d *Driver) trackNames(names []string) []string {
	if len(names) > 0 {
		return names
	}
	out := make([]string, 0)
	for _, p := range d.graph.Proxies() {
		if p.Name() == "" || d.world.HandleFor(p) == nil {
			continue
		}
		out = append(out, p.Name())
	}
	return out
}

func (d *Driver) record(r *Result) {
	r.Times = append(r.Times, d.time)
	for i := range r.Tracks {
		t := &r.Tracks[i]
		p, ok := d.graph.ObjectByName(t.Name)
		switch {
		case ok:
			t.Positions = append(t.Positions, p.Position())
		case len(t.Positions) > 0:
			t.Positions = append(t.Positions, t.Positions[len(t.Positions)-1])
		default:
			t.Positions = append(t.Positions, mgl64.Vec3{})
		}
	}
}

func (d *Driver) valid(r *Result) bool {
	for _, t := range r.Tracks {
		if n := len(t.Positions); n > 0 && !validPosition(t.Positions[n-1]) {
			return false
		}
	}
	return true
}
