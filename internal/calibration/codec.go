package calibration

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// The wire form is nested arrays: [[lat, [[lon, mag], ...]], ...].

// MarshalJSON encodes n as [lon, mag].
func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{n.Longitude, n.Magnitude})
}

// UnmarshalJSON decodes [lon, mag].
func (n *Node) UnmarshalJSON(b []byte) error {
	var v []float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("decode node: %w", err)
	}
	if len(v) != 2 {
		return malformed("node has %d values, want 2", len(v))
	}
	n.Longitude, n.Magnitude = v[0], v[1]
	return nil
}

// MarshalJSON encodes r as [lat, [nodes...]].
func (r Ring) MarshalJSON() ([]byte, error) {
	nodes := r.Nodes
	if nodes == nil {
		nodes = []Node{}
	}
	return json.Marshal([]any{r.Latitude, nodes})
}

// UnmarshalJSON decodes [lat, [nodes...]].
func (r *Ring) UnmarshalJSON(b []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(b, &parts); err != nil {
		return fmt.Errorf("decode ring: %w", err)
	}
	if len(parts) != 2 {
		return malformed("ring has %d elements, want 2", len(parts))
	}
	if err := json.Unmarshal(parts[0], &r.Latitude); err != nil {
		return fmt.Errorf("decode ring latitude: %w", err)
	}
	r.Nodes = nil
	if err := json.Unmarshal(parts[1], &r.Nodes); err != nil {
		return fmt.Errorf("decode ring nodes: %w", err)
	}
	return nil
}

// MarshalJSON encodes t as its ring list.
func (t Table) MarshalJSON() ([]byte, error) {
	rings := t.Rings
	if rings == nil {
		rings = []Ring{}
	}
	return json.Marshal(rings)
}

// UnmarshalJSON decodes a ring list. It does not validate the layout.
func (t *Table) UnmarshalJSON(b []byte) error {
	t.Rings = nil
	if err := json.Unmarshal(b, &t.Rings); err != nil {
		return err
	}
	return nil
}

// Marshal returns the compact wire form of a valid table.
func (t *Table) Marshal() ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(t)
}

// Unmarshal decodes and validates a table in wire form. Surrounding
// whitespace is tolerated; anything after the table is not.
func Unmarshal(b []byte) (*Table, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	var t Table
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("decode calibration table: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, malformed("trailing data after table")
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}
