// Package congestion labels sample streams with congestion weights for the
// heatmap.
package congestion

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPolicy wraps every policy validation failure
var ErrInvalidPolicy = errors.New("invalid congestion policy")

// Tier maps a minimum cluster duration to a severity weight
type Tier struct {
	Over   time.Duration `yaml:"over" json:"over"` // applies when duration > Over
	Weight float64       `yaml:"weight" json:"weight"`
}

// Policy holds every tunable of the segmenter
type Policy struct {
	// RPMLow and RPMHigh bound the idling band, both exclusive
	RPMLow  int `yaml:"rpm_low" json:"rpm_low"`
	RPMHigh int `yaml:"rpm_high" json:"rpm_high"`

	// MaxClusterDistanceMeters is the largest step, exclusive, that still
	// counts as standing still
	MaxClusterDistanceMeters float64 `yaml:"max_cluster_distance_meters" json:"max_cluster_distance_meters"`

	// MinCongestionDuration is the duration a cluster must exceed to be congestion
	MinCongestionDuration time.Duration `yaml:"min_congestion_duration" json:"min_congestion_duration"`

	// Tiers in ascending Over order
	Tiers []Tier `yaml:"tiers" json:"tiers"`

	BaseWeight   float64 `yaml:"base_weight" json:"base_weight"`     // samples never in a cluster
	NormalWeight float64 `yaml:"normal_weight" json:"normal_weight"` // members of clusters that were too short
}

// DefaultPolicy returns the standard thresholds: 600 < rpm < 1500, steps
// under 10 m, clusters longer than 30 s.
func DefaultPolicy() Policy {
	return Policy{
		RPMLow:                   600,
		RPMHigh:                  1500,
		MaxClusterDistanceMeters: 10,
		MinCongestionDuration:    30 * time.Second,
		Tiers: []Tier{
			{Over: 30 * time.Second, Weight: 1.5},
			{Over: 2 * time.Minute, Weight: 3},
			{Over: 5 * time.Minute, Weight: 5},
		},
		BaseWeight:   1.0,
		NormalWeight: 1.0,
	}
}

// Validate reports the first inconsistency in p
func (p Policy) Validate() error {
	if p.RPMLow < 0 || p.RPMLow >= p.RPMHigh {
		return fmt.Errorf("%w: rpm band (%d, %d) is empty", ErrInvalidPolicy, p.RPMLow, p.RPMHigh)
	}
	if p.MaxClusterDistanceMeters <= 0 {
		return fmt.Errorf("%w: max cluster distance must be positive", ErrInvalidPolicy)
	}
	if p.MinCongestionDuration < 0 {
		return fmt.Errorf("%w: min congestion duration must not be negative", ErrInvalidPolicy)
	}
	if len(p.Tiers) == 0 {
		return fmt.Errorf("%w: at least one weight tier is required", ErrInvalidPolicy)
	}
	for i, t := range p.Tiers {
		if t.Weight <= 0 {
			return fmt.Errorf("%w: tier %d weight must be positive", ErrInvalidPolicy, i)
		}
		if i > 0 && t.Over <= p.Tiers[i-1].Over {
			return fmt.Errorf("%w: tiers must be in ascending duration order", ErrInvalidPolicy)
		}
	}
	if p.BaseWeight < 0 || p.NormalWeight < 0 {
		return fmt.Errorf("%w: weights must not be negative", ErrInvalidPolicy)
	}
	return nil
}

// inBand reports whether rpm is strictly inside the idling band
func (p Policy) inBand(rpm *int) bool {
	return rpm != nil && *rpm > p.RPMLow && *rpm < p.RPMHigh
}

// tierWeight returns the weight of the highest tier d exceeds. A congested
// cluster below the first tier still gets the first tier's weight.
func (p Policy) tierWeight(d time.Duration) float64 {
	if len(p.Tiers) == 0 {
		return p.NormalWeight
	}
	w := p.Tiers[0].Weight
	for _, t := range p.Tiers {
		if d > t.Over {
			w = t.Weight
		}
	}
	return w
}
