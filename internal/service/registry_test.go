package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"seed-eval/internal/config"
)

func TestRegistry_Defaults(t *testing.T) {
	r := DefaultRegistry()

	assert.Equal(t, []string{"child_visual", "child_adhd", "adult_dyslexia", "farmer_elderly", "shop_owner_busy"}, r.PersonaKeys())
	assert.Len(t, r.DiversityHints(), 7)

	total := 0.0
	for _, c := range r.Rubric() {
		total += c.Weight
	}
	assert.InDelta(t, 1.0, total, 1e-9)

	p, ok := r.Persona("unknown_key")
	assert.False(t, ok)
	assert.Equal(t, "unknown_key", p.Name)
	assert.Empty(t, p.Description)

	assert.Equal(t, "novel feature", r.FeatureContext("novel"))
	assert.Contains(t, r.FeatureDescription("shipment_parsing"), "shipment")
}

func TestRegistry_Immutable(t *testing.T) {
	r := DefaultRegistry()
	hints := r.DiversityHints()
	hints[0] = "mutated"
	personas := r.Personas()
	personas[0].Name = "mutated"

	assert.NotEqual(t, "mutated", r.DiversityHints()[0])
	assert.NotEqual(t, "mutated", r.Personas()[0].Name)
}

func TestRegistryFromConfig(t *testing.T) {
	r := RegistryFromConfig(config.HarnessConfig{
		DiversityHints: []string{"voice transcript"},
		Personas: []config.PersonaConfig{
			{Key: "night_shift", Name: "Night-shift nurse", InputStyle: "tired, terse"},
		},
	})
	assert.Equal(t, []string{"voice transcript"}, r.DiversityHints())
	assert.Equal(t, []string{"night_shift"}, r.PersonaKeys())
	p, ok := r.Persona("night_shift")
	assert.True(t, ok)
	assert.Equal(t, "tired, terse", p.InputStyle)
}
