package annotation

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

// IDGenerator hands out box identifiers.
type IDGenerator interface {
	Next() string
}

// NewIDGenerator returns a Counter for seed 0 and a SeededGenerator
// otherwise.
func NewIDGenerator(seed int64) IDGenerator {
	if seed == 0 {
		return &Counter{}
	}
	return NewSeededGenerator(seed)
}

// Counter issues "box-1", "box-2", ...
type Counter struct {
	n uint64
}

func (c *Counter) Next() string {
	c.n++
	return fmt.Sprintf("box-%d", c.n)
}

// SeededGenerator issues random UUIDs drawn from a seeded source, so the
// sequence repeats for the same seed.
type SeededGenerator struct {
	rng *rand.Rand
}

// NewSeededGenerator creates a generator for seed.
func NewSeededGenerator(seed int64) *SeededGenerator {
	return &SeededGenerator{rng: rand.New(rand.NewSource(seed))}
}

func (g *SeededGenerator) Next() string {
	// rand.Rand.Read never fails.
	id, _ := uuid.NewRandomFromReader(g.rng)
	return id.String()
}
