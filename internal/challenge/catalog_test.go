package challenge

import (
	"testing"

	"TokenArena/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalogFallsBackToDefault(t *testing.T) {
	c := NewCatalog(nil)
	assert.Equal(t, len(Default), c.Len())
}

func TestPickReturnsMemberOfCatalog(t *testing.T) {
	c := NewSeededCatalog(nil, 42)
	for i := 0; i < 200; i++ {
		got := c.Pick()
		assert.Contains(t, Default, got)
	}
}

func TestPickCoversAllChallenges(t *testing.T) {
	c := NewSeededCatalog(nil, 7)
	seen := make(map[string]int)
	for i := 0; i < 2000; i++ {
		seen[c.Pick().Category]++
	}
	require.Len(t, seen, len(Default))
	for cat, n := range seen {
		// uniform expectation is 250 per category
		assert.Greater(t, n, 150, "category %s picked too rarely", cat)
	}
}

func TestPickSingleChallenge(t *testing.T) {
	only := model.Challenge{Category: "lore", Prompt: "Tell the lore."}
	c := NewCatalog([]model.Challenge{only})
	assert.Equal(t, only, c.Pick())
	assert.Equal(t, only, c.Pick())
}

func TestDefaultChallengesAreTagged(t *testing.T) {
	for _, ch := range Default {
		assert.NotEmpty(t, ch.Category)
		assert.NotEmpty(t, ch.Prompt)
	}
}
