package config

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/rigidsync/internal/collision"
	"github.com/san-kum/rigidsync/internal/physics"
)

const (
	DefaultScene            = "drop"
	DefaultDt               = 1.0 / 60.0
	DefaultDuration         = 10.0
	DefaultSubSteps         = 10
	DefaultMaxDelta         = 0.1
	DefaultSolverIterations = 10
	DefaultGravity          = -9.82
	DefaultMotorVelocity    = 1.0
	DefaultMotorImpulse     = 50.0
	DefaultLogLevel         = "info"
)

type Config struct {
	Scene   string        `yaml:"scene"`
	Physics PhysicsConfig `yaml:"physics"`
	Run     RunConfig     `yaml:"run"`
	Log     LogConfig     `yaml:"log"`
}

type PhysicsConfig struct {
	Gravity          [3]float64  `yaml:"gravity"`
	SubSteps         int         `yaml:"sub_steps"`
	FixedTimeStep    float64     `yaml:"fixed_time_step"`
	MaxDelta         float64     `yaml:"max_delta"`
	SolverIterations int         `yaml:"solver_iterations"`
	KeyPolicy        string      `yaml:"key_policy"`
	HingeMotor       MotorConfig `yaml:"hinge_motor"`
}

type MotorConfig struct {
	TargetVelocity float64 `yaml:"target_velocity"`
	MaxImpulse     float64 `yaml:"max_impulse"`
}

type RunConfig struct {
	Dt       float64 `yaml:"dt"`
	Duration float64 `yaml:"duration"`
	Seed     int64   `yaml:"seed"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func DefaultConfig() *Config {
	return &Config{
		Scene: DefaultScene,
		Physics: PhysicsConfig{
			Gravity:          [3]float64{0, DefaultGravity, 0},
			SubSteps:         DefaultSubSteps,
			MaxDelta:         DefaultMaxDelta,
			SolverIterations: DefaultSolverIterations,
			KeyPolicy:        collision.PolicyCanonical.String(),
			HingeMotor: MotorConfig{
				TargetVelocity: DefaultMotorVelocity,
				MaxImpulse:     DefaultMotorImpulse,
			},
		},
		Run: RunConfig{
			Dt:       DefaultDt,
			Duration: DefaultDuration,
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

// Load reads a yaml file on top of DefaultConfig, so missing keys keep their
// defaults.
func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads a yaml file on top of a copy of base.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := *base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Run.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", c.Run.Dt)
	}
	if c.Run.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", c.Run.Duration)
	}
	if c.Physics.SubSteps < 1 {
		return fmt.Errorf("sub_steps must be at least 1, got %d", c.Physics.SubSteps)
	}
	if c.Physics.FixedTimeStep < 0 {
		return fmt.Errorf("fixed_time_step must not be negative, got %f", c.Physics.FixedTimeStep)
	}
	if c.Physics.MaxDelta < 0 {
		return fmt.Errorf("max_delta must not be negative, got %f", c.Physics.MaxDelta)
	}
	if c.Physics.HingeMotor.MaxImpulse < 0 {
		return fmt.Errorf("hinge_motor.max_impulse must not be negative, got %f", c.Physics.HingeMotor.MaxImpulse)
	}
	if _, err := collision.ParsePolicy(c.Physics.KeyPolicy); err != nil {
		return err
	}
	if c.Log.Level != "" {
		if _, err := log.ParseLevel(c.Log.Level); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) GravityVec() mgl64.Vec3 {
	return mgl64.Vec3(c.Physics.Gravity)
}

// PhysicsConfig converts the file section into the world configuration.
func (c *Config) PhysicsConfig() (physics.Config, error) {
	policy, err := collision.ParsePolicy(c.Physics.KeyPolicy)
	if err != nil {
		return physics.Config{}, err
	}
	return physics.Config{
		SubSteps:         c.Physics.SubSteps,
		FixedTimeStep:    c.Physics.FixedTimeStep,
		MaxDelta:         c.Physics.MaxDelta,
		SolverIterations: c.Physics.SolverIterations,
		KeyPolicy:        policy,
		HingeMotor: physics.MotorConfig{
			TargetVelocity: c.Physics.HingeMotor.TargetVelocity,
			MaxImpulse:     c.Physics.HingeMotor.MaxImpulse,
		},
	}, nil
}

// LogLevel parses Log.Level, falling back to info when it is empty.
func (c *Config) LogLevel() (log.Level, error) {
	if c.Log.Level == "" {
		return log.InfoLevel, nil
	}
	return log.ParseLevel(c.Log.Level)
}
