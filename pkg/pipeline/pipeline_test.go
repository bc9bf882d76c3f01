package pipeline

import (
	"context"
	"io"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gpuviz/pkg/cache"
	"github.com/matzehuels/gpuviz/pkg/core/hierarchy"
	"github.com/matzehuels/gpuviz/pkg/core/layout"
	"github.com/matzehuels/gpuviz/pkg/errors"
	"github.com/matzehuels/gpuviz/pkg/graph"
	"github.com/matzehuels/gpuviz/pkg/observability"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"dot", false},
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s, want INVALID_FORMAT", tt.format, errors.GetCode(err))
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}
	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"json", []string{"json"}},
		{"svg, png", []string{"svg", "png"}},
		{"dot,,", []string{"dot"}},
		{"", nil},
	}
	for _, tt := range tests {
		if got := ParseFormats(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseFormats(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetDefaults(t *testing.T) {
	opts := Options{Collapsed: []string{"org-prod", "bu-ml", "org-prod"}}
	opts.SetDefaults()

	if !reflect.DeepEqual(opts.Formats, []string{FormatJSON}) {
		t.Errorf("Formats = %v, want [json]", opts.Formats)
	}
	if opts.Geometry != layout.DefaultConfig() {
		t.Errorf("Geometry = %+v, want defaults", opts.Geometry)
	}
	if !reflect.DeepEqual(opts.Collapsed, []string{"bu-ml", "org-prod"}) {
		t.Errorf("Collapsed = %v, want sorted unique ids", opts.Collapsed)
	}
	if opts.Logger == nil {
		t.Error("Logger should be set")
	}

	// Idempotent.
	before := opts
	opts.SetDefaults()
	if !reflect.DeepEqual(before.Collapsed, opts.Collapsed) || before.Geometry != opts.Geometry {
		t.Error("SetDefaults should be idempotent")
	}
}

func TestSetDefaultsKeepsGeometryOverrides(t *testing.T) {
	opts := Options{Geometry: layout.Config{SpacingX: 300}}
	opts.SetDefaults()
	if opts.Geometry.SpacingX != 300 {
		t.Errorf("SpacingX = %v, want 300", opts.Geometry.SpacingX)
	}
	if opts.Geometry.CardWidth != layout.DefaultConfig().CardWidth {
		t.Errorf("CardWidth = %v, want default", opts.Geometry.CardWidth)
	}
}

func TestValidateRejectsBadCollapsedID(t *testing.T) {
	opts := Options{Collapsed: []string{"ok", "bad id\n"}}
	if err := opts.Validate(); err == nil {
		t.Error("Validate() should reject an id with control characters")
	} else if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Validate() code = %s, want INVALID_INPUT", errors.GetCode(err))
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	opts := Options{Detailed: true}
	if got := opts.ArtifactKeyOpts(FormatSVG).Format; got != "svg+detailed" {
		t.Errorf("detailed svg format key = %q", got)
	}
	if got := opts.ArtifactKeyOpts(FormatJSON).Format; got != "json" {
		t.Errorf("json format key = %q, want json", got)
	}
}

// =============================================================================
// Runner
// =============================================================================

func quietRunner(t *testing.T, c cache.Cache) *Runner {
	t.Helper()
	return NewRunner(c, nil, log.NewWithOptions(io.Discard, log.Options{}))
}

func TestRunnerComputeSample(t *testing.T) {
	r := quietRunner(t, nil)
	res, err := r.Compute(context.Background(), hierarchy.Sample(), Options{})
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}

	// 4 bands, root, 2 orgs, 2 BUs, 6 projects.
	if res.Stats.NodeCount != 15 {
		t.Errorf("NodeCount = %d, want 15", res.Stats.NodeCount)
	}
	if res.DiagramHash == "" {
		t.Error("DiagramHash should be set")
	}
	data, ok := res.Artifacts[FormatJSON]
	if !ok {
		t.Fatal("json artifact missing")
	}
	d, err := graph.UnmarshalDiagram(data)
	if err != nil {
		t.Fatalf("artifact is not a diagram: %v", err)
	}
	if !reflect.DeepEqual(d, res.Diagram) {
		t.Error("json artifact does not match the diagram")
	}
	if res.CacheInfo.DiagramHit || res.CacheInfo.RenderHit {
		t.Error("NullCache should never hit")
	}
}

func TestRunnerComputeCollapsed(t *testing.T) {
	r := quietRunner(t, nil)
	res, err := r.Compute(context.Background(), hierarchy.Sample(), Options{
		Collapsed: []string{"org-prod"},
		Formats:   []string{FormatDOT},
	})
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	if _, ok := res.Diagram.Node("bu-ml"); ok {
		t.Error("bu-ml should be hidden under a collapsed org-prod")
	}
	if !strings.Contains(string(res.Artifacts[FormatDOT]), `"org-prod-bu-group"`) {
		t.Error("dot artifact missing the business unit group")
	}
}

func TestRunnerCachesDiagramAndArtifacts(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := quietRunner(t, fc)
	defer r.Close()

	ctx := context.Background()
	opts := Options{Formats: []string{FormatJSON, FormatDOT}}

	first, err := r.Compute(ctx, hierarchy.Sample(), opts)
	if err != nil {
		t.Fatalf("first Compute() error: %v", err)
	}
	if first.CacheInfo.DiagramHit || first.CacheInfo.RenderHit {
		t.Error("first run should miss")
	}

	second, err := r.Compute(ctx, hierarchy.Sample(), opts)
	if err != nil {
		t.Fatalf("second Compute() error: %v", err)
	}
	if !second.CacheInfo.DiagramHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run CacheInfo = %+v, want hits", second.CacheInfo)
	}
	if first.DiagramHash != second.DiagramHash {
		t.Error("cached diagram hash differs")
	}

	// A different collapse set is a different entry.
	third, err := r.Compute(ctx, hierarchy.Sample(), Options{Collapsed: []string{"org-dev"}})
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.DiagramHit {
		t.Error("different collapse set should miss")
	}

	// Refresh bypasses reads.
	opts.Refresh = true
	fourth, err := r.Compute(ctx, hierarchy.Sample(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if fourth.CacheInfo.DiagramHit || fourth.CacheInfo.RenderHit {
		t.Error("Refresh should bypass the cache")
	}
}

func TestRunnerJSONOnlySkipsArtifactCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := quietRunner(t, fc)
	defer r.Close()

	ctx := context.Background()
	if _, err := r.Compute(ctx, hierarchy.Sample(), Options{}); err != nil {
		t.Fatal(err)
	}
	second, err := r.Compute(ctx, hierarchy.Sample(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.DiagramHit {
		t.Error("diagram should come from cache")
	}
	if second.CacheInfo.RenderHit {
		t.Error("json-only output should not be stored as an artifact")
	}
}

// flakyCache fails the first Get with a retryable error.
type flakyCache struct {
	cache.Cache
	gets  int
	fails int
}

func (f *flakyCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.gets++
	if f.fails > 0 {
		f.fails--
		return nil, false, cache.Retryable(cache.ErrNetwork)
	}
	return f.Cache.Get(ctx, key)
}

func TestRunnerRetriesTransientCacheErrors(t *testing.T) {
	old := cache.BackoffDelay
	cache.BackoffDelay = time.Millisecond
	defer func() { cache.BackoffDelay = old }()

	fc := &flakyCache{Cache: cache.NewNullCache(), fails: 1}
	r := quietRunner(t, fc)
	if _, err := r.Diagram(context.Background(), hierarchy.Sample(), Options{}); err != nil {
		t.Fatal(err)
	}
	if fc.gets != 2 {
		t.Errorf("cache gets = %d, want 2 (one retry)", fc.gets)
	}
}

func TestRunnerRejectsInvalidHierarchy(t *testing.T) {
	r := quietRunner(t, nil)
	_, err := r.Compute(context.Background(), &hierarchy.Cluster{ID: "c", Name: "c"}, Options{})
	if !errors.Is(err, errors.ErrCodeInvalidHierarchy) {
		t.Errorf("Compute() error = %v, want INVALID_HIERARCHY", err)
	}
}

func TestRunnerRejectsInvalidFormat(t *testing.T) {
	r := quietRunner(t, nil)
	_, err := r.Compute(context.Background(), hierarchy.Sample(), Options{Formats: []string{"gif"}})
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Compute() error = %v, want INVALID_FORMAT", err)
	}
}

func TestRunnerCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := quietRunner(t, nil).Compute(ctx, hierarchy.Sample(), Options{}); err == nil {
		t.Error("Compute() should fail on a canceled context")
	}
}

func TestRunnerEmitsHooks(t *testing.T) {
	observability.Reset()
	defer observability.Reset()
	rec := &recordingHooks{}
	observability.SetPipelineHooks(rec)

	if _, err := quietRunner(t, nil).Compute(context.Background(), hierarchy.Sample(), Options{}); err != nil {
		t.Fatal(err)
	}

	want := []string{"layout-start", "layout-complete", "render-start", "render-complete"}
	if !reflect.DeepEqual(rec.events, want) {
		t.Errorf("events = %v, want %v", rec.events, want)
	}
	if rec.nodes != 15 {
		t.Errorf("layout-complete nodes = %d, want 15", rec.nodes)
	}
}

func TestRenderSVG(t *testing.T) {
	d, err := quietRunner(t, nil).Diagram(context.Background(), hierarchy.Sample(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{Formats: []string{FormatSVG, FormatDOT}}
	opts.SetDefaults()
	artifacts, err := Render(context.Background(), d, opts)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(string(artifacts[FormatSVG]), "<svg") {
		t.Error("svg artifact missing <svg> tag")
	}
	if !strings.HasPrefix(string(artifacts[FormatDOT]), "digraph G {") {
		t.Error("dot artifact is not DOT source")
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	mu     sync.Mutex
	events []string
	nodes  int
}

func (h *recordingHooks) record(e string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *recordingHooks) OnLayoutStart(context.Context, string, int) { h.record("layout-start") }

func (h *recordingHooks) OnLayoutComplete(_ context.Context, _ string, nodes, _ int, _ time.Duration, _ error) {
	h.nodes = nodes
	h.record("layout-complete")
}

func (h *recordingHooks) OnRenderStart(context.Context, []string) { h.record("render-start") }

func (h *recordingHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {
	h.record("render-complete")
}
