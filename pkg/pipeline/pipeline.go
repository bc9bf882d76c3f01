// Package pipeline computes GPU allocation diagrams and renders them.
//
// This package wraps the pure engine in pkg/core with the side effects the
// CLI and the HTTP server share: option defaults, caching, logging and
// observability hooks. Both entry points go through a [Runner] so that the
// same hierarchy and collapse state always produce the same output.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Diagram: derive the visible forest, resolve borrowing, aggregate and
//     lay out (assemble.Build), cached by hierarchy content and collapse set
//  2. Render: encode the diagram as JSON or DOT, or draw it as SVG/PNG/PDF,
//     cached per format by diagram hash
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Compute(ctx, cluster, pipeline.Options{
//	    Formats:   []string{"svg"},
//	    Collapsed: []string{"org-prod"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gpuviz/pkg/cache"
	"github.com/matzehuels/gpuviz/pkg/core/hierarchy"
	"github.com/matzehuels/gpuviz/pkg/core/layout"
	"github.com/matzehuels/gpuviz/pkg/errors"
	"github.com/matzehuels/gpuviz/pkg/graph"
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// DefaultFormat is used when no format is requested.
const DefaultFormat = FormatJSON

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// FormatNames lists the supported formats in display order.
var FormatNames = []string{FormatJSON, FormatDOT, FormatSVG, FormatPNG, FormatPDF}

// ContentTypes maps formats to HTTP content types.
var ContentTypes = map[string]string{
	FormatJSON: "application/json",
	FormatDOT:  "text/vnd.graphviz",
	FormatSVG:  "image/svg+xml",
	FormatPNG:  "image/png",
	FormatPDF:  "application/pdf",
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Diagram options
	Collapsed []string      `json:"collapsed,omitempty"`
	Geometry  layout.Config `json:"geometry,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"` // usage and borrowing lines in drawn cards

	Refresh bool `json:"refresh,omitempty"` // bypass cache reads

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Diagram is the positioned node and edge list.
	Diagram *graph.Diagram

	// DiagramHash is the content hash of the serialized diagram.
	DiagramHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount   int
	EdgeCount   int
	Diagnostics int
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	DiagramHit bool // Whether the diagram came from cache
	RenderHit  bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: %s)", format, strings.Join(FormatNames, ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma-separated format list, dropping blanks.
func ParseFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// =============================================================================
// Options Methods
// =============================================================================

// SetDefaults fills unset fields. Collapsed ids are sorted and deduplicated
// so equal collapse sets share cache entries. Calling it twice is harmless.
func (o *Options) SetDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	o.Geometry = layout.Resolve(layout.WithConfig(o.Geometry))
	o.Collapsed = hierarchy.CollapseOf(o.Collapsed...).IDs()
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks formats and collapsed ids. It calls SetDefaults first.
func (o *Options) Validate() error {
	o.SetDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	for _, id := range o.Collapsed {
		if err := errors.ValidateNodeID(id); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "collapsed id")
		}
	}
	return nil
}

// State returns the collapse state described by Collapsed.
func (o *Options) State() hierarchy.Collapse {
	return hierarchy.CollapseOf(o.Collapsed...)
}

// WantsOnlyJSON reports whether the only requested artifact is the diagram
// JSON, which needs no renderer.
func (o *Options) WantsOnlyJSON() bool {
	return len(o.Formats) == 1 && o.Formats[0] == FormatJSON
}

// DiagramKeyOpts returns cache key options for diagram computation.
func (o *Options) DiagramKeyOpts() cache.DiagramKeyOpts {
	return cache.DiagramKeyOpts{
		Collapsed: slices.Clone(o.Collapsed),
		Geometry:  o.Geometry,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	if o.Detailed && format != FormatJSON {
		format += "+detailed"
	}
	return cache.ArtifactKeyOpts{Format: format}
}
