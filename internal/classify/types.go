// Package classify defines the gateway's contract with the external
// vision models: the input it sends, the normalized record it requires
// back, and the engine interface every provider implements.
package classify

import "context"

// Disposal categories. The model is instructed to pick exactly one.
const (
	CategoryRecycle   = "recycle"
	CategoryCompost   = "compost"
	CategoryTrash     = "trash"
	CategoryHazardous = "hazardous"
)

// ValidCategory reports whether c is one of the closed enumeration.
func ValidCategory(c string) bool {
	switch c {
	case CategoryRecycle, CategoryCompost, CategoryTrash, CategoryHazardous:
		return true
	}
	return false
}

// Input is a validated classification request. ImageURL is either an
// http(s) URL or a data URL; City has already been sanitized and is the
// only request text that reaches the prompt.
type Input struct {
	ImageURL string
	City     string
}

// Result is the normalized classification record. Every field is always
// populated: uncertainty shows up as low Confidence plus an explanatory
// Contamination note, never as a missing field.
type Result struct {
	ItemName      string   `json:"itemName"`
	Category      string   `json:"category"`
	Confidence    int      `json:"confidence"`
	MaterialType  string   `json:"materialType"`
	Contamination string   `json:"contamination"`
	Instructions  []string `json:"instructions"`
	LocalRule     string   `json:"localRule"`
	CO2Saved      string   `json:"co2Saved"`
	ImageURL      string   `json:"imageUrl,omitempty"`
}

// Engine is one upstream vision model. Classify makes exactly one model
// call; retry and backoff are deliberately the caller's problem.
type Engine interface {
	Name() string
	Classify(ctx context.Context, in Input) (Result, error)
}

// Engines holds the configured providers keyed by name.
type Engines struct {
	byName map[string]Engine
}

func NewEngines(engines ...Engine) *Engines {
	m := make(map[string]Engine, len(engines))
	for _, e := range engines {
		if e != nil {
			m[e.Name()] = e
		}
	}
	return &Engines{byName: m}
}

// Get returns the engine registered under name, or ErrNoEngine.
func (e *Engines) Get(name string) (Engine, error) {
	if eng, ok := e.byName[name]; ok {
		return eng, nil
	}
	return nil, ErrNoEngine
}
