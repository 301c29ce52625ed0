package trace

import (
	"encoding/json"
	"fmt"
)

// Counters are cumulative work counters at the moment a step was emitted.
type Counters struct {
	Comparisons int `json:"comparisons"`
	Swaps       int `json:"swaps"`
}

// Step is one immutable record of algorithmic progress.
type Step struct {
	Kind        Kind
	Description string
	Payload     Payload
	Metrics     *Counters
}

type stepWire struct {
	Kind        Kind            `json:"kind"`
	Description string          `json:"description"`
	Shape       Shape           `json:"shape,omitempty"`
	Payload     json.RawMessage `json:"payload"`
	Metrics     *Counters       `json:"metrics,omitempty"`
}

func (s Step) MarshalJSON() ([]byte, error) {
	w := stepWire{
		Kind:        s.Kind,
		Description: s.Description,
		Metrics:     s.Metrics,
		Payload:     json.RawMessage("null"),
	}
	if s.Payload != nil {
		raw, err := json.Marshal(s.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", s.Payload.Shape(), err)
		}
		w.Shape = s.Payload.Shape()
		w.Payload = raw
	}
	return json.Marshal(w)
}

func (s *Step) UnmarshalJSON(b []byte) error {
	var w stepWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	s.Kind = w.Kind
	s.Description = w.Description
	s.Metrics = w.Metrics
	s.Payload = nil

	if w.Shape == "" {
		return nil
	}
	p, err := newPayload(w.Shape)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(w.Payload, p); err != nil {
		return fmt.Errorf("decode %s payload: %w", w.Shape, err)
	}
	s.Payload = p
	return nil
}

// Shape returns the payload discriminator, or "" for a bare step.
func (s Step) Shape() Shape {
	if s.Payload == nil {
		return ""
	}
	return s.Payload.Shape()
}
