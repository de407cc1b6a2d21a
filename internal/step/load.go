package step

import (
	"encoding/json"
	"strings"
)

// Loaded is the result of ingesting a transported step list: either
// Structured or Opaque. Callers switch on the concrete type.
type Loaded interface {
	loaded()
}

// Structured holds a decoded step sequence.
type Structured struct {
	Steps Sequence
}

// Opaque holds free-text steps from manual or legacy test cases.
type Opaque struct {
	Lines []string
}

func (Structured) loaded() {}
func (Opaque) loaded()     {}

// Load ingests the transport form of a test case's steps. A first line that
// starts with '[' is decoded as a JSON step array; if that fails, or the list
// does not start that way, every line is kept as opaque text.
func Load(lines []string) Loaded {
	if len(lines) > 0 {
		first := strings.TrimSpace(lines[0])
		if strings.HasPrefix(first, "[") {
			var seq Sequence
			if err := json.Unmarshal([]byte(first), &seq); err == nil {
				return Structured{Steps: seq}
			}
		}
	}
	out := make([]string, len(lines))
	copy(out, lines)
	return Opaque{Lines: out}
}

// Encode returns the transport form of seq: a single JSON array line.
func Encode(seq Sequence) ([]string, error) {
	if seq == nil {
		seq = Sequence{}
	}
	data, err := json.Marshal(seq)
	if err != nil {
		return nil, err
	}
	return []string{string(data)}, nil
}
