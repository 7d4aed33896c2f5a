package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/deckflash/internal/config"
	"github.com/vytor/deckflash/internal/services"
)

func TestSeededRand_Reproducible(t *testing.T) {
	a, b := services.SeededRand(99), services.SeededRand(99)
	for range 3 {
		ra, rb := a(), b()
		assert.Equal(t, ra.Uint64(), rb.Uint64())
	}

	first, second := services.SeededRand(99)(), services.SeededRand(99)
	second()
	assert.NotEqual(t, first.Uint64(), second().Uint64())
}

func TestOptionsFromConfig(t *testing.T) {
	opts := services.OptionsFromConfig(config.Config{
		DefaultQuizSize:    7,
		MaxQuizSize:        70,
		DuplicateThreshold: 0.8,
		DuplicateLimit:     3,
	})
	assert.Equal(t, 7, opts.DefaultQuizSize)
	assert.Equal(t, 70, opts.MaxQuizSize)
	assert.Equal(t, 0.8, opts.DuplicateThreshold)
	assert.Equal(t, 3, opts.DuplicateLimit)
	assert.Nil(t, opts.NewRand)

	seeded := services.OptionsFromConfig(config.Config{RandomSeed: 5})
	assert.NotNil(t, seeded.NewRand)
}
