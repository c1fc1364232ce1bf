package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPersonCount      = 25
	DefaultObstacleCount    = 6
	DefaultObstacleRadius   = 1.2
	DefaultDestinationCount = 8
	DefaultAgentRadius      = 0.25
	DefaultAgentMaxSpeed    = 1.4
	DefaultDt               = 0.05
	DefaultWidth            = 30.0
	DefaultHeight           = 20.0
	DefaultArrivalTol       = 0.3
)

// Obstacle shape selectors accepted by the generator.
const (
	ShapeRandom    = "random"
	ShapeCircle    = "circle"
	ShapeRectangle = "rectangle"
)

type Config struct {
	PersonCount       int     `yaml:"person_count"`
	ObstacleCount     int     `yaml:"obstacle_count"`
	ObstacleAvgRadius float64 `yaml:"obstacle_avg_radius"`
	ObstacleShape     string  `yaml:"obstacle_shape"`
	DestinationCount  int     `yaml:"destination_count"`
	AgentRadius       float64 `yaml:"agent_radius"`
	AgentMaxSpeed     float64 `yaml:"agent_max_speed"`
	Dt                float64 `yaml:"dt"`
	Width             float64 `yaml:"width"`
	Height            float64 `yaml:"height"`
	ArrivalTolerance  float64 `yaml:"arrival_tolerance"`
	Seed              int64   `yaml:"seed"`
}

func DefaultConfig() Config {
	return Config{
		PersonCount:       DefaultPersonCount,
		ObstacleCount:     DefaultObstacleCount,
		ObstacleAvgRadius: DefaultObstacleRadius,
		ObstacleShape:     ShapeRandom,
		DestinationCount:  DefaultDestinationCount,
		AgentRadius:       DefaultAgentRadius,
		AgentMaxSpeed:     DefaultAgentMaxSpeed,
		Dt:                DefaultDt,
		Width:             DefaultWidth,
		Height:            DefaultHeight,
		ArrivalTolerance:  DefaultArrivalTol,
	}
}

func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clamp replaces every invalid field with the nearest valid value and
// returns the effective config along with a note per adjustment.
// It never fails: a reset must always be able to proceed.
func (c Config) Clamp() (Config, []string) {
	var notes []string

	if c.PersonCount < 0 {
		notes = append(notes, fmt.Sprintf("person_count %d raised to 0", c.PersonCount))
		c.PersonCount = 0
	}
	if c.ObstacleCount < 0 {
		notes = append(notes, fmt.Sprintf("obstacle_count %d raised to 0", c.ObstacleCount))
		c.ObstacleCount = 0
	}
	if c.ObstacleAvgRadius <= 0 {
		notes = append(notes, fmt.Sprintf("obstacle_avg_radius %g raised to %g", c.ObstacleAvgRadius, DefaultObstacleRadius))
		c.ObstacleAvgRadius = DefaultObstacleRadius
	}
	switch c.ObstacleShape {
	case ShapeRandom, ShapeCircle, ShapeRectangle:
	default:
		notes = append(notes, fmt.Sprintf("obstacle_shape %q replaced with %q", c.ObstacleShape, ShapeRandom))
		c.ObstacleShape = ShapeRandom
	}
	if c.DestinationCount < 1 {
		notes = append(notes, fmt.Sprintf("destination_count %d raised to 1", c.DestinationCount))
		c.DestinationCount = 1
	}
	if c.AgentRadius <= 0 {
		notes = append(notes, fmt.Sprintf("agent_radius %g raised to %g", c.AgentRadius, DefaultAgentRadius))
		c.AgentRadius = DefaultAgentRadius
	}
	if c.AgentMaxSpeed <= 0 {
		notes = append(notes, fmt.Sprintf("agent_max_speed %g raised to %g", c.AgentMaxSpeed, DefaultAgentMaxSpeed))
		c.AgentMaxSpeed = DefaultAgentMaxSpeed
	}
	if c.Dt <= 0 {
		notes = append(notes, fmt.Sprintf("dt %g raised to %g", c.Dt, DefaultDt))
		c.Dt = DefaultDt
	}
	if c.Width <= 0 {
		notes = append(notes, fmt.Sprintf("width %g raised to %g", c.Width, DefaultWidth))
		c.Width = DefaultWidth
	}
	if c.Height <= 0 {
		notes = append(notes, fmt.Sprintf("height %g raised to %g", c.Height, DefaultHeight))
		c.Height = DefaultHeight
	}
	if c.ArrivalTolerance <= 0 {
		notes = append(notes, fmt.Sprintf("arrival_tolerance %g raised to %g", c.ArrivalTolerance, DefaultArrivalTol))
		c.ArrivalTolerance = DefaultArrivalTol
	}

	return c, notes
}
