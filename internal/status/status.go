// Package status maps accumulated usage counters to the status label shown on
// the gamification surface.
package status

import "fmt"

// Counter names, in tie-break priority order.
const (
	Kindness  = "kindness"
	Coolness  = "coolness"
	Smartness = "smartness"
	Curiosity = "curiosity"
	// Experience is the experience counter; it is not a trait.
	Experience = "exp"
)

// Neutral is the label used when no trait stands out.
const Neutral = "neutral"

const lastSuffix = "_last"

// Counters holds the four trait counters.
type Counters struct {
	Kindness  int
	Coolness  int
	Smartness int
	Curiosity int
}

// Thresholds tune when a trait dominates and when a label reaches its final stage.
type Thresholds struct {
	Param    int // a trait counts once it reaches this value
	HighLast int // any trait above this jumps straight to the final stage
	ExpLast  int // experience needed for the final stage
}

// Threshold profiles used by debug and release builds.
var (
	DebugThresholds   = Thresholds{Param: 1, HighLast: 2, ExpLast: 5}
	ReleaseThresholds = Thresholds{Param: 15, HighLast: 30, ExpLast: 50}
)

// ThresholdsForProfile returns the named threshold profile.
func ThresholdsForProfile(profile string) (Thresholds, error) {
	switch profile {
	case "debug":
		return DebugThresholds, nil
	case "", "release":
		return ReleaseThresholds, nil
	default:
		return Thresholds{}, fmt.Errorf("unknown status profile %q", profile)
	}
}

// IsCounter reports whether name is one of the trait counters or experience.
func IsCounter(name string) bool {
	switch name {
	case Kindness, Coolness, Smartness, Curiosity, Experience:
		return true
	}
	return false
}

type trait struct {
	name  string
	value int
}

func (c Counters) traits() []trait {
	return []trait{
		{Kindness, c.Kindness},
		{Coolness, c.Coolness},
		{Smartness, c.Smartness},
		{Curiosity, c.Curiosity},
	}
}

// Dominant returns the trait with the highest value; ties go to the earlier
// trait in priority order.
func (c Counters) Dominant() string {
	best := trait{name: Kindness, value: c.Kindness}
	for _, t := range c.traits()[1:] {
		if t.value > best.value {
			best = t
		}
	}
	return best.name
}

// ComputeLabel returns the status label for the given counters. The first
// matching rule wins:
//
//  1. every trait below Param and exp at least ExpLast: "neutral_last"
//  2. any trait above HighLast: "<dominant>_last"
//  3. any trait at least Param and exp at least ExpLast: "<dominant>_last"
//  4. every trait below Param: "neutral"
//  5. otherwise: "<dominant>"
func ComputeLabel(c Counters, exp int, t Thresholds) string {
	allBelow, anyAbove, anyReached := true, false, false
	for _, tr := range c.traits() {
		if tr.value >= t.Param {
			allBelow = false
			anyReached = true
		}
		if tr.value > t.HighLast {
			anyAbove = true
		}
	}
	expDone := exp >= t.ExpLast

	switch {
	case allBelow && expDone:
		return Neutral + lastSuffix
	case anyAbove:
		return c.Dominant() + lastSuffix
	case anyReached && expDone:
		return c.Dominant() + lastSuffix
	case allBelow:
		return Neutral
	default:
		return c.Dominant()
	}
}
