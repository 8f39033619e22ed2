package pipeline

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
)

// Context carries the run-wide configuration that every stage can consult:
// a base output path, a deterministic seed, and a cache of provisioned
// output folders. It is created once per run and shared read-mostly across
// all stage invocations.
type Context struct {
	outputPath string
	seed       int64

	mu      sync.Mutex
	folders map[string]string
}

// NewContext creates a Context rooted at outputPath. The seed fixes all
// pseudo-randomness consumed through the context: nothing process-global is
// seeded, stages draw from generators derived via Rand instead.
func NewContext(outputPath string, seed int64) *Context {
	return &Context{
		outputPath: outputPath,
		seed:       seed,
		folders:    make(map[string]string),
	}
}

// Seed returns the deterministic seed this context was created with.
func (c *Context) Seed() int64 {
	return c.seed
}

// OutputPath returns the base output path.
func (c *Context) OutputPath() string {
	return c.outputPath
}

// Rand returns a deterministic generator for the given stream. The same
// (seed, stream) pair always yields the same sequence, so per-item streams
// reproduce regardless of how many workers process the batch.
func (c *Context) Rand(stream int64) *rand.Rand {
	return rand.New(rand.NewSource(c.seed + stream))
}

// OutputFolder returns the path of a named output subdirectory, guaranteed
// to exist. Directories are created on first use and cached; repeated calls
// with the same name are idempotent, including concurrent ones.
func (c *Context) OutputFolder(name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if path, ok := c.folders[name]; ok {
		return path, nil
	}

	path := filepath.Join(c.outputPath, name)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("pipeline: creating output folder %q: %w", name, err)
	}
	c.folders[name] = path
	return path, nil
}
