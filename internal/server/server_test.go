package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gpuviz/pkg/core/hierarchy"
	"github.com/matzehuels/gpuviz/pkg/errors"
	"github.com/matzehuels/gpuviz/pkg/graph"
	"github.com/matzehuels/gpuviz/pkg/pipeline"
	"github.com/matzehuels/gpuviz/pkg/session"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	s := New(Config{}, pipeline.NewRunner(nil, nil, logger), session.NewMemoryStore(), logger)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, r)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp := doJSON(t, http.MethodGet, ts.URL+"/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := decodeBody[map[string]string](t, resp)
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestSample(t *testing.T) {
	ts := newTestServer(t)
	resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/sample", nil)
	c := decodeBody[hierarchy.Cluster](t, resp)
	if c.ID != "root-1" || len(c.Organizations) != 2 {
		t.Errorf("sample = %+v", c)
	}
}

func TestDiagram(t *testing.T) {
	ts := newTestServer(t)
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/diagram", map[string]any{
		"hierarchy": hierarchy.Sample(),
		"collapsed": []string{"org-prod"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	d := decodeBody[graph.Diagram](t, resp)
	if _, ok := d.Node("org-prod-bu-group"); !ok {
		t.Error("collapsed org-prod should show a business unit group")
	}
	if _, ok := d.Node("bu-ml"); ok {
		t.Error("bu-ml should be hidden")
	}
}

func TestDiagramErrors(t *testing.T) {
	ts := newTestServer(t)
	tests := []struct {
		name   string
		body   any
		status int
		code   errors.Code
	}{
		{"missing hierarchy", map[string]any{}, http.StatusBadRequest, errors.ErrCodeInvalidHierarchy},
		{"zero total", map[string]any{"hierarchy": map[string]any{"id": "c", "name": "c"}}, http.StatusBadRequest, errors.ErrCodeInvalidHierarchy},
		{"bad collapsed id", map[string]any{"hierarchy": hierarchy.Sample(), "collapsed": []string{"a b"}}, http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/diagram", tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if body := decodeBody[errorBody](t, resp); body.Code != tt.code {
				t.Errorf("code = %s, want %s", body.Code, tt.code)
			}
		})
	}
}

func TestDiagramMalformedJSON(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/api/v1/diagram", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestRenderDOT(t *testing.T) {
	ts := newTestServer(t)
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/render/dot", map[string]any{"hierarchy": hierarchy.Sample()})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/vnd.graphviz" {
		t.Errorf("Content-Type = %q", ct)
	}
	data, _ := io.ReadAll(resp.Body)
	if !strings.HasPrefix(string(data), "digraph G {") {
		t.Errorf("body is not DOT: %.40q", data)
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	ts := newTestServer(t)
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/render/gif", map[string]any{"hierarchy": hierarchy.Sample()})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/sessions", map[string]any{"hierarchy": hierarchy.Sample()})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	created := decodeBody[sessionResponse](t, resp)
	base := ts.URL + "/api/v1/sessions/" + created.ID

	resp = doJSON(t, http.MethodPost, base+"/toggle/org-prod", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("toggle status = %d", resp.StatusCode)
	}
	toggled := decodeBody[sessionDiagram](t, resp)
	if len(toggled.Session.Collapsed) != 1 || toggled.Session.Collapsed[0] != "org-prod" {
		t.Errorf("Collapsed = %v, want [org-prod]", toggled.Session.Collapsed)
	}
	if _, ok := toggled.Diagram.Node("org-prod-bu-group"); !ok {
		t.Error("toggled diagram should group org-prod's business units")
	}

	resp = doJSON(t, http.MethodGet, base+"/diagram", nil)
	again := decodeBody[sessionDiagram](t, resp)
	if len(again.Diagram.Nodes) != len(toggled.Diagram.Nodes) {
		t.Error("session diagram should reflect the stored collapse state")
	}

	resp = doJSON(t, http.MethodPost, base+"/toggle/proj-a", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("toggle project status = %d, want 404", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodDelete, base, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodGet, base, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", resp.StatusCode)
	}
	if body := decodeBody[errorBody](t, resp); body.Code != errors.ErrCodeSessionNotFound {
		t.Errorf("code = %s, want SESSION_NOT_FOUND", body.Code)
	}
}

func TestConcurrentToggles(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/sessions", map[string]any{"hierarchy": hierarchy.Sample()})
	created := decodeBody[sessionResponse](t, resp)
	base := ts.URL + "/api/v1/sessions/" + created.ID

	ids := []string{"bu-analytics", "bu-ml", "org-dev", "org-prod"}
	var wg sync.WaitGroup
	statuses := make(chan int, len(ids))
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := http.Post(base+"/toggle/"+id, "application/json", nil)
			if err != nil {
				statuses <- 0
				return
			}
			r.Body.Close()
			statuses <- r.StatusCode
		}()
	}
	wg.Wait()
	close(statuses)
	for code := range statuses {
		if code != http.StatusOK {
			t.Errorf("toggle status = %d, want 200", code)
		}
	}

	resp = doJSON(t, http.MethodGet, base, nil)
	got := decodeBody[sessionResponse](t, resp)
	if !reflect.DeepEqual(got.Collapsed, ids) {
		t.Errorf("Collapsed = %v, want every toggle applied %v", got.Collapsed, ids)
	}
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)
	resp := doJSON(t, http.MethodGet, ts.URL+"/nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code errors.Code
		want int
	}{
		{errors.ErrCodeInvalidHierarchy, http.StatusBadRequest},
		{errors.ErrCodeSessionNotFound, http.StatusNotFound},
		{errors.ErrCodeSessionExpired, http.StatusGone},
		{errors.ErrCodeUnsupported, http.StatusNotImplemented},
		{errors.ErrCodeInternal, http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.code); got != tt.want {
			t.Errorf("statusFor(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestWriteErrorHidesUncodedErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, io.ErrUnexpectedEOF)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "EOF") {
		t.Errorf("internal error text leaked: %s", rec.Body.String())
	}
}
