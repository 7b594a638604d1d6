// Package causal holds the value types shared by the discovery engine, its adapters
// and its callers: endpoint marks, variables, run parameters, background knowledge
// and the projected PAG.
package causal

import "fmt"

// Endpoint is the mark one side of an edge carries.
type Endpoint uint8

const (
	// EndpointNone marks the absence of an edge.
	EndpointNone Endpoint = iota
	// EndpointCircle is an undetermined mark.
	EndpointCircle
	// EndpointArrow is an arrowhead: the node is not an ancestor of the other end.
	EndpointArrow
	// EndpointTail is a tail: the node is an ancestor of the other end.
	EndpointTail
)

// String returns the mark name
func (e Endpoint) String() string {
	switch e {
	case EndpointNone:
		return "none"
	case EndpointCircle:
		return "circle"
	case EndpointArrow:
		return "arrow"
	case EndpointTail:
		return "tail"
	default:
		return fmt.Sprintf("endpoint(%d)", uint8(e))
	}
}

// MarshalText encodes the mark by name
func (e Endpoint) MarshalText() ([]byte, error) {
	if e > EndpointTail {
		return nil, fmt.Errorf("unknown endpoint %d", uint8(e))
	}
	return []byte(e.String()), nil
}

// UnmarshalText decodes a mark name
func (e *Endpoint) UnmarshalText(text []byte) error {
	switch string(text) {
	case "none":
		*e = EndpointNone
	case "circle":
		*e = EndpointCircle
	case "arrow":
		*e = EndpointArrow
	case "tail":
		*e = EndpointTail
	default:
		return fmt.Errorf("unknown endpoint %q", string(text))
	}
	return nil
}
