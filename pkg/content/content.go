package content

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"HelmetGuard/internal/entity"

	"gopkg.in/yaml.v3"
)

//go:embed site.yaml
var defaultSite []byte

type Link struct {
	Href  string `yaml:"href"`
	Label string `yaml:"label"`
}

type Block struct {
	Title string `yaml:"title"`
	Text  string `yaml:"text"`
}

type Metric struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

type Site struct {
	Name      string `yaml:"name"`
	Tagline   string `yaml:"tagline"`
	Copyright string `yaml:"copyright"`
}

type Home struct {
	Title         string  `yaml:"title"`
	Lead          string  `yaml:"lead"`
	FeaturesTitle string  `yaml:"features_title"`
	Features      []Block `yaml:"features"`
}

type About struct {
	Title           string   `yaml:"title"`
	Lead            string   `yaml:"lead"`
	MissionTitle    string   `yaml:"mission_title"`
	Mission         []string `yaml:"mission"`
	ProblemTitle    string   `yaml:"problem_title"`
	Problem         string   `yaml:"problem"`
	TechnologyTitle string   `yaml:"technology_title"`
	Technologies    []Block  `yaml:"technologies"`
	MetricsTitle    string   `yaml:"metrics_title"`
	Metrics         []Metric `yaml:"metrics"`
	CTATitle        string   `yaml:"cta_title"`
	CTAText         string   `yaml:"cta_text"`
}

type Range struct {
	Title                   string `yaml:"title"`
	entity.WeeklyStatistics `yaml:",inline"`
}

type Statistics struct {
	Title          string                   `yaml:"title"`
	HelmetSeries   string                   `yaml:"helmet_series"`
	NoHelmetSeries string                   `yaml:"no_helmet_series"`
	Summary        entity.StatisticsSummary `yaml:"summary"`
	Ranges         map[string]Range         `yaml:"ranges"`
}

type Demo struct {
	Title         string `yaml:"title"`
	Lead          string `yaml:"lead"`
	WarningPrefix string `yaml:"warning_prefix"`
	SafePrefix    string `yaml:"safe_prefix"`
}

// Content is the copy and sample data behind the static pages.
type Content struct {
	Site       Site       `yaml:"site"`
	Nav        []Link     `yaml:"nav"`
	Home       Home       `yaml:"home"`
	About      About      `yaml:"about"`
	Statistics Statistics `yaml:"statistics"`
	Demo       Demo       `yaml:"demo"`
}

// Load reads content from path, or the embedded default when path is empty.
func Load(path string) (*Content, error) {
	data := defaultSite
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read content file: %w", err)
		}
		data = b
	}

	return Parse(data)
}

func Parse(data []byte) (*Content, error) {
	var c Content
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse content: %w", err)
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

func (c *Content) validate() error {
	if c.Demo.WarningPrefix == "" {
		return errors.New("content: demo.warning_prefix is required")
	}
	if len(c.Statistics.Ranges) == 0 {
		return errors.New("content: statistics.ranges is empty")
	}
	for name, r := range c.Statistics.Ranges {
		if len(r.Labels) == 0 {
			return fmt.Errorf("content: statistics range %q has no labels", name)
		}
		if len(r.WithHelmet) != len(r.Labels) || len(r.WithoutHelmet) != len(r.Labels) {
			return fmt.Errorf("content: statistics range %q series do not match labels", name)
		}
	}
	return nil
}

// MustDefault returns the embedded content and panics if it is malformed.
func MustDefault() *Content {
	c, err := Parse(defaultSite)
	if err != nil {
		panic(err)
	}
	return c
}
