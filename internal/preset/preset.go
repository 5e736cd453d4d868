// Package preset models named picture presets and expands them into
// concrete, ordered variant requests.
package preset

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var (
	ErrMissingDimensions = errors.New("preset source declares neither width nor height")
	ErrNoDefaultSource   = errors.New("preset must declare exactly one source without a media query")
	ErrUnknownSource     = errors.New("unknown preset source")
)

// Source is one declared output variant inside a preset. Width and Height
// are optional, but at least one must be set. Media is absent only on the
// preset's default (fallback) source.
type Source struct {
	Key    string   `yaml:"-"`
	Width  *float64 `yaml:"width"`
	Height *float64 `yaml:"height"`
	Media  string   `yaml:"media"`
}

// Preset is a named, ordered collection of sources. Declaration order is
// significant: it drives the ordering of the expanded variant list and of
// the emitted markup.
type Preset struct {
	Name    string
	Sources []Source
}

// UnmarshalYAML decodes a preset from a YAML mapping while preserving the
// declared key order, which a plain map would lose.
func (p *Preset) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("preset must be a mapping of source keys to specs")
	}
	p.Sources = p.Sources[:0]
	for i := 0; i+1 < len(node.Content); i += 2 {
		var src Source
		if err := node.Content[i+1].Decode(&src); err != nil {
			return fmt.Errorf("decode source %q: %w", node.Content[i].Value, err)
		}
		src.Key = node.Content[i].Value
		p.Sources = append(p.Sources, src)
	}
	return nil
}

// Validate checks the configuration invariants: every source carries at
// least one dimension, positive where present, and exactly one source (the
// default) has no media query.
func (p *Preset) Validate() error {
	if len(p.Sources) == 0 {
		return fmt.Errorf("preset %q declares no sources", p.Name)
	}

	defaults := 0
	for _, src := range p.Sources {
		if src.Width == nil && src.Height == nil {
			return fmt.Errorf("%w: %s.%s", ErrMissingDimensions, p.Name, src.Key)
		}
		if src.Width != nil && *src.Width <= 0 {
			return fmt.Errorf("preset %s.%s: width must be positive", p.Name, src.Key)
		}
		if src.Height != nil && *src.Height <= 0 {
			return fmt.Errorf("preset %s.%s: height must be positive", p.Name, src.Key)
		}
		if src.Media == "" {
			defaults++
		}
	}
	if defaults != 1 {
		return fmt.Errorf("%w: %s has %d", ErrNoDefaultSource, p.Name, defaults)
	}
	return nil
}

// DefaultKey returns the key of the media-less fallback source. Valid only
// after Validate has passed.
func (p *Preset) DefaultKey() string {
	for _, src := range p.Sources {
		if src.Media == "" {
			return src.Key
		}
	}
	return ""
}

// HasSource reports whether the preset declares a source under key.
func (p *Preset) HasSource(key string) bool {
	return p.source(key) != nil
}

func (p *Preset) source(key string) *Source {
	for i := range p.Sources {
		if p.Sources[i].Key == key {
			return &p.Sources[i]
		}
	}
	return nil
}
