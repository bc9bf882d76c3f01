package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Diagram Serialization API
// =============================================================================

// MarshalDiagram converts a diagram to indented JSON bytes.
func MarshalDiagram(d *Diagram) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeDiagramTo(d, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalDiagram deserializes JSON bytes to a Diagram.
func UnmarshalDiagram(data []byte) (*Diagram, error) {
	return readDiagramFrom(bytes.NewReader(data))
}

// WriteDiagram writes a diagram as JSON to an io.Writer.
func WriteDiagram(d *Diagram, w io.Writer) error {
	return writeDiagramTo(d, w)
}

// WriteDiagramFile writes a diagram to a JSON file.
// The file is created with 0644 permissions.
func WriteDiagramFile(d *Diagram, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeDiagramTo(d, f)
}

// ReadDiagram decodes a JSON diagram from an io.Reader.
func ReadDiagram(r io.Reader) (*Diagram, error) {
	return readDiagramFrom(r)
}

// ReadDiagramFile reads a JSON file and returns the decoded diagram.
func ReadDiagramFile(path string) (*Diagram, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readDiagramFrom(f)
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeDiagramTo(d *Diagram, w io.Writer) error {
	if d == nil {
		d = &Diagram{}
	}
	out := *d
	if out.Nodes == nil {
		out.Nodes = []Node{}
	}
	if out.Edges == nil {
		out.Edges = []Edge{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readDiagramFrom(r io.Reader) (*Diagram, error) {
	var d Diagram
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	for _, n := range d.Nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("decode: node without id")
		}
	}
	return &d, nil
}
