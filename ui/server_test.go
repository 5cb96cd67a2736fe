package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dhamidi/uniast/engine/treesitter"
	"github.com/dhamidi/uniast/format"
	"github.com/dhamidi/uniast/grammar"
	"github.com/dhamidi/uniast/parser"
	"github.com/dhamidi/uniast/syntax"
)

type countingEngine struct {
	inner *treesitter.Engine
	calls atomic.Int32
}

func (e *countingEngine) Parse(ctx context.Context, code []byte, g *grammar.Grammar) (parser.Tree, error) {
	e.calls.Add(1)
	tree, err := e.inner.Parse(ctx, code, g)
	if err != nil {
		return nil, err
	}
	return tree, nil
}

// blockingEngine never finishes a parse until the test ends.
type blockingEngine struct {
	release chan struct{}
}

func (e *blockingEngine) Parse(ctx context.Context, code []byte, g *grammar.Grammar) (parser.Tree, error) {
	<-e.release
	return nil, errors.New("released")
}

func newBlockingServer(t *testing.T, timeout time.Duration) *Server {
	t.Helper()
	engine := &blockingEngine{release: make(chan struct{})}
	t.Cleanup(func() { close(engine.release) })
	s, err := NewServer(
		WithParser(parser.New(parser.WithEngine(engine))),
		WithParseTimeout(timeout),
	)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *countingEngine) {
	t.Helper()
	engine := &countingEngine{inner: treesitter.New()}
	opts = append([]Option{WithParser(parser.New(parser.WithEngine(engine)))}, opts...)
	s, err := NewServer(opts...)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s, engine
}

func post(t *testing.T, h http.Handler, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPostAST(t *testing.T) {
	s, _ := newTestServer(t)
	rec := post(t, s, "/ast", `{"code":"let a = 1;","languageId":"javascript"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var prog syntax.Program
	if err := json.Unmarshal(rec.Body.Bytes(), &prog); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if prog.HasError || prog.Root.Kind != "program" || prog.Root.Value != "let a = 1;" {
		t.Errorf("program = %+v", prog.Root)
	}
	if problems := syntax.Check("let a = 1;", &prog); len(problems) > 0 {
		t.Errorf("invariant violations: %v", problems)
	}
}

func TestPostASTMsgpack(t *testing.T) {
	s, _ := newTestServer(t)
	rec := post(t, s, "/ast", `{"code":"x = 1","languageId":"python"}`, "Accept", "application/msgpack")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/msgpack" {
		t.Errorf("Content-Type = %q", ct)
	}
	prog, err := format.DecodeMsgpack(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("DecodeMsgpack: %v", err)
	}
	if prog.Root.Kind != "module" {
		t.Errorf("root kind = %q, want module", prog.Root.Kind)
	}
}

func TestPostErrors(t *testing.T) {
	s, _ := newTestServer(t, WithMaxSourceBytes(64))

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"unsupported language", "/ast", `{"code":"x","languageId":"cobol"}`, http.StatusBadRequest, "unsupported language"},
		{"invalid json", "/ast", `{"code":`, http.StatusBadRequest, "invalid JSON"},
		{"too large", "/ast", `{"code":"` + strings.Repeat("a", 100) + `","languageId":"python"}`, http.StatusRequestEntityTooLarge, "exceeds 64 bytes"},
		{"unknown mode", "/playground/mints/tokens", `{"code":"x","languageId":"python"}`, http.StatusNotFound, "unknown mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, s, tt.path, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body)
			}
			var body struct {
				Error string `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if !strings.Contains(body.Error, tt.wantError) {
				t.Errorf("error = %q, want it to contain %q", body.Error, tt.wantError)
			}
		})
	}
}

func TestPostSynopsis(t *testing.T) {
	s, _ := newTestServer(t)
	rec := post(t, s, "/synopsis", `{"code":"def f(:\n","languageId":"py"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var got syntax.Synopsis
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Language != "python" || !got.HasError || got.ErrorCount == 0 {
		t.Errorf("synopsis = %+v", got)
	}
}

func TestPlaygroundMints(t *testing.T) {
	s, _ := newTestServer(t)
	for _, mode := range []string{"ast", "synopsis"} {
		t.Run(mode, func(t *testing.T) {
			rec := post(t, s, "/playground/mints/"+mode, `{"code":"package main","languageId":"go"}`)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
			}
			var body map[string]json.RawMessage
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if _, ok := body[mode]; !ok || len(body) != 1 {
				t.Errorf("body keys = %v, want only %q", body, mode)
			}
		})
	}
}

func TestResponseCache(t *testing.T) {
	s, engine := newTestServer(t, WithCacheEntries(8))
	body := `{"code":"puts 1","languageId":"ruby"}`

	first := post(t, s, "/ast", body)
	second := post(t, s, "/ast", body)
	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("status = %d, %d", first.Code, second.Code)
	}
	if diff := cmp.Diff(first.Body.String(), second.Body.String()); diff != "" {
		t.Errorf("cached body differs (-first +second):\n%s", diff)
	}
	if n := engine.calls.Load(); n != 1 {
		t.Errorf("engine called %d times, want 1", n)
	}

	post(t, s, "/synopsis", body)
	if n := engine.calls.Load(); n != 2 {
		t.Errorf("engine called %d times after synopsis, want 2", n)
	}
}

func TestCacheDisabled(t *testing.T) {
	s, engine := newTestServer(t, WithCacheEntries(0))
	body := `{"code":"puts 1","languageId":"ruby"}`
	post(t, s, "/ast", body)
	post(t, s, "/ast", body)
	if n := engine.calls.Load(); n != 2 {
		t.Errorf("engine called %d times, want 2", n)
	}
}

func TestGetEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		path        string
		wantStatus  int
		wantContent string
	}{
		{"/healthz", http.StatusOK, "ok"},
		{"/languages", http.StatusOK, `"id":"typescriptreact"`},
		{"/", http.StatusOK, `<option value="python">Python</option>`},
		{"/static/app.js", http.StatusOK, "/playground/mints/"},
		{"/nope", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantContent) {
				t.Errorf("body does not contain %q:\n%s", tt.wantContent, rec.Body)
			}
		})
	}
}

func TestConnectParse(t *testing.T) {
	s, _ := newTestServer(t)

	rec := post(t, s, ASTServiceParseProcedure, `{"code":"fn main() {}","languageId":"rust","synopsis":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp ParseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AST == nil || resp.AST.Root.Kind != "source_file" {
		t.Errorf("ast = %+v", resp.AST)
	}
	if resp.Synopsis == nil || resp.Synopsis.Language != "rust" {
		t.Errorf("synopsis = %+v", resp.Synopsis)
	}

	rec = post(t, s, ASTServiceParseProcedure, `{"code":"x","languageId":"cobol"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), `"invalid_argument"`) {
		t.Errorf("body = %s, want invalid_argument code", rec.Body)
	}
}

func TestCORS(t *testing.T) {
	s, _ := newTestServer(t)
	h := CORS(s)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/ast", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("GET through CORS: status %d, headers %v", rec.Code, rec.Header())
	}
}

func TestOversizedResponseNotCached(t *testing.T) {
	s, engine := newTestServer(t, WithCacheEntries(8), WithCacheMaxEntryBytes(512))
	small := `{"code":"a","languageId":"javascript"}`
	large := `{"code":"` + strings.Repeat("a(b,c);", 50) + `","languageId":"javascript"}`

	for range 2 {
		if rec := post(t, s, "/ast", large); rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
		} else if rec.Body.Len() <= 512 {
			t.Fatalf("response is %d bytes, want more than the entry limit", rec.Body.Len())
		}
	}
	if n := engine.calls.Load(); n != 2 {
		t.Errorf("engine called %d times for an oversized response, want 2", n)
	}
	if n := s.cache.Len(); n != 0 {
		t.Errorf("cache holds %d entries, want 0", n)
	}

	post(t, s, "/ast", small)
	post(t, s, "/ast", small)
	if n := engine.calls.Load(); n != 3 {
		t.Errorf("engine called %d times after small requests, want 3", n)
	}
}

func TestCacheKeyDistinguishesFields(t *testing.T) {
	base := newCacheKey("ast", false, contentTypeJSON, "python", "x = 1")
	if base != newCacheKey("ast", false, contentTypeJSON, "python", "x = 1") {
		t.Fatal("equal inputs produced different keys")
	}

	others := []cacheKey{
		newCacheKey("synopsis", false, contentTypeJSON, "python", "x = 1"),
		newCacheKey("ast", true, contentTypeJSON, "python", "x = 1"),
		newCacheKey("ast", false, contentTypeMsgpack, "python", "x = 1"),
		newCacheKey("ast", false, contentTypeJSON, "py", "x = 1"),
		newCacheKey("ast", false, contentTypeJSON, "python", "x = 2"),
		newCacheKey("ast", false, contentTypeJSON, "pythonx", " = 1"),
	}
	for i, k := range others {
		if k == base {
			t.Errorf("key %d collides with the base key", i)
		}
	}
}

func TestParseTimeout(t *testing.T) {
	s := newBlockingServer(t, 20*time.Millisecond)

	rec := post(t, s, "/ast", `{"code":"x = 1","languageId":"python"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503 (body %s)", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "timed out") {
		t.Errorf("body = %s, want a timeout message", rec.Body)
	}

	rec = post(t, s, ASTServiceParseProcedure, `{"code":"x = 1","languageId":"python"}`)
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("rpc status = %d, want 504 (body %s)", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), `"deadline_exceeded"`) {
		t.Errorf("rpc body = %s, want deadline_exceeded code", rec.Body)
	}
}

func TestConnectMatchesASTBytes(t *testing.T) {
	s, _ := newTestServer(t)
	body := `{"code":"a<b && c>d","languageId":"javascript"}`

	ast := post(t, s, "/ast", body)
	rpc := post(t, s, ASTServiceParseProcedure, body)
	if ast.Code != http.StatusOK || rpc.Code != http.StatusOK {
		t.Fatalf("status = %d, %d", ast.Code, rpc.Code)
	}
	if strings.Contains(rpc.Body.String(), `\u003c`) {
		t.Errorf("rpc body escapes HTML: %s", rpc.Body)
	}

	var resp struct {
		AST json.RawMessage `json:"ast"`
	}
	if err := json.Unmarshal(rpc.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := strings.TrimSuffix(ast.Body.String(), "\n")
	if diff := cmp.Diff(want, string(resp.AST)); diff != "" {
		t.Errorf("rpc ast differs from /ast (-ast +rpc):\n%s", diff)
	}
}
