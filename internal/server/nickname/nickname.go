// Package nickname generates human-readable account handles. Uniqueness is
// the caller's responsibility; the service retries on collision.
package nickname

import (
	"fmt"
	"math/rand"
)

var adjectives = []string{
	"clever", "brave", "calm", "eager", "fancy", "gentle", "happy",
	"jolly", "kind", "lively", "merry", "nimble", "proud", "quiet",
	"swift", "witty",
}

var animals = []string{
	"badger", "falcon", "fox", "heron", "lynx", "marten", "otter",
	"owl", "panda", "raven", "seal", "stork", "tiger", "wolf",
}

// Generate returns a random handle such as "swift_otter_482".
func Generate() string {
	adj := adjectives[rand.Intn(len(adjectives))]
	animal := animals[rand.Intn(len(animals))]
	return fmt.Sprintf("%s_%s_%d", adj, animal, rand.Intn(1000))
}
