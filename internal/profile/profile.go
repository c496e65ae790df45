package profile

import (
	"encoding/json"
	"fmt"
	"strings"
)

// HealthGoal is one of a closed set of goal tags.
type HealthGoal string

const (
	Longevity         HealthGoal = "Longevity"
	HeartHealth       HealthGoal = "Heart Health"
	WeightLoss        HealthGoal = "Weight Loss"
	MuscleGain        HealthGoal = "Muscle Gain"
	BrainHealth       HealthGoal = "Brain Health"
	BloodSugarControl HealthGoal = "Blood Sugar Control"
)

// HealthGoals lists every valid goal in display order.
var HealthGoals = []HealthGoal{Longevity, HeartHealth, WeightLoss, MuscleGain, BrainHealth, BloodSugarControl}

// ParseHealthGoal matches s case-insensitively against the known goals.
func ParseHealthGoal(s string) (HealthGoal, error) {
	for _, g := range HealthGoals {
		if strings.EqualFold(strings.TrimSpace(s), string(g)) {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown health goal %q", s)
}

// UnmarshalJSON rejects goals outside the closed set.
func (g *HealthGoal) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseHealthGoal(s)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// DefaultMaxCookingMinutes is the cooking time limit of a fresh profile.
const DefaultMaxCookingMinutes = 60

// UserProfile holds the health and cooking preferences of the current user.
type UserProfile struct {
	Name                string       `json:"name"`
	HealthGoals         []HealthGoal `json:"healthGoals"`
	NutritionalFocus    []string     `json:"nutritionalFocus"`
	DietaryRestrictions []string     `json:"dietaryRestrictions"`
	MaxCookingMinutes   *int         `json:"maxCookingMinutes,omitempty"`
	CookingAppliances   []string     `json:"cookingAppliances"`
}

// Default returns the profile a new session starts with.
func Default() UserProfile {
	maxMinutes := DefaultMaxCookingMinutes
	return UserProfile{
		Name:                "Guest User",
		HealthGoals:         []HealthGoal{},
		NutritionalFocus:    []string{},
		DietaryRestrictions: []string{},
		MaxCookingMinutes:   &maxMinutes,
		CookingAppliances:   []string{},
	}
}

// MergeSaved decodes a saved profile on top of the defaults, so fields the
// saved document does not mention keep their default value. Saved goals
// outside the known set are skipped and returned so the caller can report
// them; the rest of the profile is kept.
func MergeSaved(data []byte) (UserProfile, []string, error) {
	p := Default()
	type plain UserProfile
	doc := struct {
		*plain
		HealthGoals *[]string `json:"healthGoals"`
	}{plain: (*plain)(&p)}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Default(), nil, fmt.Errorf("failed to decode saved profile: %w", err)
	}

	var dropped []string
	if doc.HealthGoals != nil {
		p.HealthGoals = make([]HealthGoal, 0, len(*doc.HealthGoals))
		for _, name := range *doc.HealthGoals {
			g, err := ParseHealthGoal(name)
			if err != nil {
				dropped = append(dropped, name)
				continue
			}
			p.HealthGoals = append(p.HealthGoals, g)
		}
	}
	p.normalize()
	return p, dropped, nil
}

// Validate checks the fields a client may set.
func (p UserProfile) Validate() error {
	if p.MaxCookingMinutes != nil && *p.MaxCookingMinutes < 0 {
		return fmt.Errorf("maxCookingMinutes must not be negative")
	}
	return nil
}

// Normalized returns a copy with nil lists replaced by empty ones.
func (p UserProfile) Normalized() UserProfile {
	p.normalize()
	return p
}

func (p *UserProfile) normalize() {
	if p.HealthGoals == nil {
		p.HealthGoals = []HealthGoal{}
	}
	if p.NutritionalFocus == nil {
		p.NutritionalFocus = []string{}
	}
	if p.DietaryRestrictions == nil {
		p.DietaryRestrictions = []string{}
	}
	if p.CookingAppliances == nil {
		p.CookingAppliances = []string{}
	}
}

// Clone returns a deep copy with nil lists normalized.
func (p UserProfile) Clone() UserProfile {
	c := p
	c.HealthGoals = append([]HealthGoal{}, p.HealthGoals...)
	c.NutritionalFocus = append([]string{}, p.NutritionalFocus...)
	c.DietaryRestrictions = append([]string{}, p.DietaryRestrictions...)
	c.CookingAppliances = append([]string{}, p.CookingAppliances...)
	if p.MaxCookingMinutes != nil {
		limit := *p.MaxCookingMinutes
		c.MaxCookingMinutes = &limit
	}
	return c
}
