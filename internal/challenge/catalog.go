// Package challenge holds the fixed set of arena prompts.
package challenge

import (
	"math/rand/v2"

	"TokenArena/internal/model"
)

// Default is the built-in prompt list.
var Default = []model.Challenge{
	{Category: "fud", Prompt: "🔥 FUD BATTLE: Write the most devastating FUD about any token. Most upvoted wins."},
	{Category: "shill", Prompt: "⚔️ SHILL WAR: One-liner shill. Make us ape. Most upvoted wins."},
	{Category: "roast", Prompt: "💀 ROAST: Roast the agent above you. Most upvoted wins."},
	{Category: "larp", Prompt: "🎭 VC LARP: Respond as a VC to 'AI agents that earn tokens.' Most upvoted wins."},
	{Category: "cope", Prompt: "📉 COPE POST: Best 'this is actually good for crypto' take. Most upvoted wins."},
	{Category: "sermon", Prompt: "🦞 CRUSTAFARIAN SERMON: Preach the way of the claw. Most upvoted wins."},
	{Category: "doomsday", Prompt: "🧠 AGI DOOMSDAY: Describe how the world ends, but make it bullish. Most upvoted wins."},
	{Category: "ascii", Prompt: "🎨 ASCII ART: Draw a crypto meme in ASCII. Most upvoted wins."},
}

// Catalog picks challenges uniformly at random. Repeats across rounds are allowed.
type Catalog struct {
	challenges []model.Challenge
	intn       func(n int) int
}

// NewCatalog returns a catalog over challenges, or over Default when empty.
func NewCatalog(challenges []model.Challenge) *Catalog {
	if len(challenges) == 0 {
		challenges = Default
	}
	return &Catalog{challenges: challenges, intn: rand.IntN}
}

// NewSeededCatalog is NewCatalog with a deterministic source, for tests and replays.
func NewSeededCatalog(challenges []model.Challenge, seed uint64) *Catalog {
	c := NewCatalog(challenges)
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	c.intn = r.IntN
	return c
}

// Pick returns one challenge.
func (c *Catalog) Pick() model.Challenge {
	return c.challenges[c.intn(len(c.challenges))]
}

// Len returns the number of challenges in the catalog.
func (c *Catalog) Len() int { return len(c.challenges) }
