package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/jsonops/pkg/codec"
	"github.com/matzehuels/jsonops/pkg/config"
	"github.com/matzehuels/jsonops/pkg/jsonvalue"
	"github.com/matzehuels/jsonops/pkg/ops"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := log.New(io.Discard)
	cfg := config.Default().Server
	return New(ops.NewRunner(nil, nil, logger), logger, cfg)
}

func do(t *testing.T, s *Server, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("GET /healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestListOperations(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/api", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api = %d", rec.Code)
	}
	v, err := jsonvalue.Parse(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("parse body: %v", err)
	}
	list, _ := v.Property("value")
	if got := len(list.AsArray()); got != len(ops.Names()) {
		t.Fatalf("listed %d operations, want %d", got, len(ops.Names()))
	}
	first, _ := list.Property("0")
	path, _ := first.Property("path")
	if path.AsString() != "/api/compareObjects" {
		t.Errorf("first path = %s", path)
	}
}

func TestRunOperation(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		header     map[string]string
		wantStatus int
		wantBody   string
		wantType   string
	}{
		{
			name:       "compare objects",
			path:       "/api/compareObjects",
			body:       `{"obj1":{"a":1},"obj2":{"a":2}}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"value":[{"property":"a","type":"value difference","value1":1,"value2":2}]}`,
			wantType:   "application/json",
		},
		{
			name:       "diff arrays",
			path:       "/api/diffArrays",
			body:       `{"array1":[1,2,3,4],"array2":[3,4,5,6]}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"value":{"onlyInFirst":[1,2],"onlyInSecond":[5,6]}}`,
			wantType:   "application/json",
		},
		{
			name:       "invalid json is plain text",
			path:       "/api/compareObjects",
			body:       `{nope`,
			wantStatus: http.StatusBadRequest,
			wantBody:   ops.MsgInvalidJSON,
			wantType:   "text/plain; charset=utf-8",
		},
		{
			name:       "diff arrays errors are json",
			path:       "/api/diffArrays",
			body:       `{nope`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Invalid JSON payload."}`,
			wantType:   "application/json",
		},
		{
			name:       "diff arrays validation",
			path:       "/api/diffArrays",
			body:       `{"array1":[]}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Please provide two arrays in the request body using keys 'array1' and 'array2'."}`,
			wantType:   "application/json",
		},
		{
			name:       "sort rejects objects",
			path:       "/api/sortArray",
			body:       `{"array":[{"a":1}]}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   ops.MsgUnsortable,
			wantType:   "text/plain; charset=utf-8",
		},
		{
			name:       "empty zip body",
			path:       "/api/extractFilesFromZip",
			body:       ``,
			wantStatus: http.StatusBadRequest,
			wantBody:   ops.MsgNeedZip,
			wantType:   "text/plain; charset=utf-8",
		},
		{
			name:       "unknown content type falls back to json",
			path:       "/api/flattenArray",
			body:       `{"array":[[1]]}`,
			header:     map[string]string{"Content-Type": "text/plain"},
			wantStatus: http.StatusOK,
			wantBody:   `{"value":[1]}`,
			wantType:   "application/json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestServer(t), http.MethodPost, tt.path, tt.body, tt.header)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Body.String(); got != tt.wantBody {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}
			if got := rec.Header().Get("Content-Type"); got != tt.wantType {
				t.Errorf("Content-Type = %q, want %q", got, tt.wantType)
			}
		})
	}
}

func TestYAMLRequest(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodPost, "/api/flattenArray",
		"array:\n  - 1\n  - [2, 3]\n",
		map[string]string{"Content-Type": "application/yaml", "Accept": "application/yaml"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "application/yaml" {
		t.Errorf("Content-Type = %q", got)
	}
	yc, _ := codec.ByName("yaml")
	v, err := yc.Decode(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if want := jsonvalue.MustParse(`{"value":[1,2,3]}`); !v.Equal(want) {
		t.Errorf("body = %s, want %s", v, want)
	}
}

func TestMsgPackResponse(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodPost, "/api/sortArray",
		`{"array":[3,1,2]}`, map[string]string{"Accept": "application/msgpack"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	mp, _ := codec.ByName("msgpack")
	v, err := mp.Decode(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("decode msgpack: %v", err)
	}
	if want := jsonvalue.MustParse(`{"value":[1,2,3]}`); !v.Equal(want) {
		t.Errorf("body = %s, want %s", v, want)
	}
}

func TestRoutingErrors(t *testing.T) {
	s := newTestServer(t)

	if rec := do(t, s, http.MethodPost, "/api/nope", `{}`, nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown operation status = %d, want 404", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/compareObjects", "", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET operation status = %d, want 405", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/elsewhere", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d, want 404", rec.Code)
	}
}

func TestBodyTooLarge(t *testing.T) {
	logger := log.New(io.Discard)
	cfg := config.Default().Server
	cfg.MaxBodyBytes = 16
	s := New(ops.NewRunner(nil, nil, logger), logger, cfg)

	rec := do(t, s, http.MethodPost, "/api/flattenArray", `{"array":[1,2,3,4,5,6,7,8]}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if rec.Body.String() != ops.MsgBodyUnreadable {
		t.Errorf("body = %q, want %q", rec.Body.String(), ops.MsgBodyUnreadable)
	}
}

func TestDeeplyNestedBody(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		body   string
		header map[string]string
	}{
		{"json arrays", "/api/compareObjects", `{"obj1":` + strings.Repeat("[", 9<<20), nil},
		{"json objects", "/api/flattenArray", strings.Repeat(`{"a":`, jsonvalue.MaxDepth+1), nil},
		{"msgpack arrays", "/api/compareObjects", strings.Repeat("\x91", 1<<20) + "\x01",
			map[string]string{"Content-Type": "application/msgpack"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, tt.path, tt.body, tt.header)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if rec.Body.String() != ops.MsgInvalidJSON {
				t.Errorf("body = %q, want %q", rec.Body.String(), ops.MsgInvalidJSON)
			}
		})
	}

	rec := do(t, s, http.MethodPost, "/api/flattenArray", `{"array":[[1],[2]]}`, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("request after nested bodies: status = %d, want 200", rec.Code)
	}
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/healthz", "", nil)
	if _, err := uuid.Parse(rec.Header().Get(RequestIDHeader)); err != nil {
		t.Errorf("generated request id %q is not a UUID", rec.Header().Get(RequestIDHeader))
	}

	rec = do(t, s, http.MethodGet, "/healthz", "", map[string]string{RequestIDHeader: "abc-123"})
	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want the client's", got)
	}
}

func TestCacheHeader(t *testing.T) {
	s := newTestServer(t)
	s.runner.Cache = newMapCache()

	body := `{"array":[[1],[2]]}`
	if rec := do(t, s, http.MethodPost, "/api/flattenArray", body, nil); rec.Header().Get("X-Cache") != "MISS" {
		t.Errorf("first X-Cache = %q, want MISS", rec.Header().Get("X-Cache"))
	}
	if rec := do(t, s, http.MethodPost, "/api/flattenArray", body, nil); rec.Header().Get("X-Cache") != "HIT" {
		t.Errorf("second X-Cache = %q, want HIT", rec.Header().Get("X-Cache"))
	}
}

func TestServeShutsDown(t *testing.T) {
	s := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() = %v, want nil after shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}

// mapCache is a minimal in-memory cache.
type mapCache struct{ m map[string][]byte }

func newMapCache() *mapCache { return &mapCache{m: map[string][]byte{}} }

func (c *mapCache) Get(_ context.Context, k string) ([]byte, bool, error) {
	d, ok := c.m[k]
	return d, ok, nil
}

func (c *mapCache) Set(_ context.Context, k string, d []byte, _ time.Duration) error {
	c.m[k] = d
	return nil
}

func (c *mapCache) Delete(_ context.Context, k string) error {
	delete(c.m, k)
	return nil
}

func (c *mapCache) Close() error { return nil }
