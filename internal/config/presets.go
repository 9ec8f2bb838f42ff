package config

import "sort"

var Presets = map[string]map[string]*Config{
	"drop": {
		"pair": preset("drop", func(c *Config) {
			c.Run.Duration = 5
		}),
		"pile": preset("drop", func(c *Config) {
			c.Run.Duration = 8
			c.Run.Seed = 7
		}),
		"moon": preset("drop", func(c *Config) {
			c.Physics.Gravity = [3]float64{0, -1.62, 0}
			c.Run.Duration = 15
		}),
	},
	"hammer": {
		"default": preset("hammer", func(c *Config) {
			c.Physics.KeyPolicy = "discovery"
			c.Run.Duration = 6
		}),
		"slow": preset("hammer", func(c *Config) {
			c.Physics.KeyPolicy = "discovery"
			c.Physics.HingeMotor.TargetVelocity = 0.5
			c.Run.Duration = 12
		}),
	},
	"dominos": {
		"chain": preset("dominos", func(c *Config) {
			c.Run.Duration = 8
		}),
		"fixed": preset("dominos", func(c *Config) {
			c.Physics.FixedTimeStep = 1.0 / 240.0
			c.Physics.SubSteps = 8
			c.Run.Duration = 8
		}),
	},
	"elevator": {
		"default": preset("elevator", func(c *Config) {
			c.Run.Duration = 6
		}),
	},
	"rope": {
		"short": preset("rope", func(c *Config) {
			c.Run.Duration = 5
		}),
		"stiff": preset("rope", func(c *Config) {
			c.Physics.SolverIterations = 30
			c.Run.Duration = 5
		}),
	},
	"arm": {
		"spin": preset("arm", func(c *Config) {
			c.Physics.HingeMotor = MotorConfig{TargetVelocity: 2, MaxImpulse: 50}
			c.Run.Duration = 6
		}),
		"weak": preset("arm", func(c *Config) {
			c.Physics.HingeMotor = MotorConfig{TargetVelocity: 2, MaxImpulse: 0.05}
			c.Run.Duration = 6
		}),
	},
}

func preset(scene string, edit func(*Config)) *Config {
	c := DefaultConfig()
	c.Scene = scene
	edit(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(scene, name string) *Config {
	scenePresets, ok := Presets[scene]
	if !ok {
		return nil
	}
	cfg, ok := scenePresets[name]
	if !ok {
		return nil
	}
	cp := *cfg
	return &cp
}

func ListPresets(scene string) []string {
	scenePresets, ok := Presets[scene]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenePresets))
	for name := range scenePresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
