package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/gpuviz/pkg/core/hierarchy"
	"github.com/matzehuels/gpuviz/pkg/errors"
)

// Supported hierarchy formats.
const (
	FormatJSON = "json"
	FormatTOML = "toml"
)

// FormatOf returns the format implied by path's extension.
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported hierarchy file %q (want .json or .toml)", filepath.Base(path))
	}
}

// ReadJSON decodes a JSON hierarchy from r and validates it.
func ReadJSON(r io.Reader) (*hierarchy.Cluster, error) {
	var c hierarchy.Cluster
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode json")
	}
	return finish(&c)
}

// ReadTOML decodes a TOML hierarchy from r and validates it.
func ReadTOML(r io.Reader) (*hierarchy.Cluster, error) {
	var c hierarchy.Cluster
	if _, err := toml.NewDecoder(r).Decode(&c); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode toml")
	}
	return finish(&c)
}

// Read decodes a hierarchy in the given format.
func Read(r io.Reader, format string) (*hierarchy.Cluster, error) {
	switch format {
	case FormatJSON:
		return ReadJSON(r)
	case FormatTOML:
		return ReadTOML(r)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown hierarchy format %q", format)
	}
}

// ImportFile reads the hierarchy file at path. The format follows the
// file extension.
func ImportFile(path string) (*hierarchy.Cluster, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	c, err := Read(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// finish normalizes nil slices so that exported files and diagrams never
// distinguish between an absent list and an empty one, then validates.
func finish(c *hierarchy.Cluster) (*hierarchy.Cluster, error) {
	if err := hierarchy.Validate(c); err != nil {
		return nil, err
	}
	if c.Organizations == nil {
		c.Organizations = []*hierarchy.Organization{}
	}
	for _, o := range c.Organizations {
		if o.BusinessUnits == nil {
			o.BusinessUnits = []*hierarchy.BusinessUnit{}
		}
		if o.Projects == nil {
			o.Projects = []*hierarchy.Project{}
		}
		for _, bu := range o.BusinessUnits {
			if bu.Projects == nil {
				bu.Projects = []*hierarchy.Project{}
			}
		}
	}
	return c, nil
}
