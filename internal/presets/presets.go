package presets

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed questions.toml
var defaultFile string

type file struct {
	Questions []string `toml:"questions"`
}

// Default returns the built-in example questions.
func Default() []string {
	qs, err := parse(defaultFile)
	if err != nil {
		panic(fmt.Sprintf("presets: embedded questions: %v", err))
	}
	return qs
}

// Load reads questions from a TOML file. An empty path or a missing file
// falls back to the defaults, as does a file with no usable questions.
func Load(path string) ([]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("presets: read %s: %w", path, err)
	}
	qs, err := parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("presets: %s: %w", path, err)
	}
	if len(qs) == 0 {
		return Default(), nil
	}
	return qs, nil
}

func parse(data string) ([]string, error) {
	var f file
	if _, err := toml.Decode(data, &f); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(f.Questions))
	out := make([]string, 0, len(f.Questions))
	for _, q := range f.Questions {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}
	return out, nil
}

// Cycle hands out questions round-robin.
type Cycle struct {
	items []string
	next  int
}

func NewCycle(items []string) *Cycle {
	return &Cycle{items: items}
}

// Next returns the next question, or "" when there are none.
func (c *Cycle) Next() string {
	if c == nil || len(c.items) == 0 {
		return ""
	}
	q := c.items[c.next%len(c.items)]
	c.next++
	return q
}

// Peek returns what Next would return without advancing.
func (c *Cycle) Peek() string {
	if c == nil || len(c.items) == 0 {
		return ""
	}
	return c.items[c.next%len(c.items)]
}
