package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/gpuviz/pkg/core/hierarchy"
)

// WriteJSON encodes c as indented JSON. The output can be read back with
// [ReadJSON].
func WriteJSON(c *hierarchy.Cluster, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// WriteTOML encodes c as TOML. The output can be read back with
// [ReadTOML].
func WriteTOML(c *hierarchy.Cluster, w io.Writer) error {
	enc := toml.NewEncoder(w)
	enc.Indent = "  "
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode toml: %w", err)
	}
	return nil
}

// Write encodes c in the given format.
func Write(c *hierarchy.Cluster, w io.Writer, format string) error {
	switch format {
	case FormatJSON:
		return WriteJSON(c, w)
	case FormatTOML:
		return WriteTOML(c, w)
	default:
		return fmt.Errorf("unknown hierarchy format %q", format)
	}
}

// ExportFile writes c to path, choosing the format from its extension.
func ExportFile(c *hierarchy.Cluster, path string) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(c, f, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
