// Package ui serves the normalized trees over HTTP: a JSON API, a Connect
// RPC endpoint, and a small playground page.
package ui

import (
	"crypto/sha256"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/uniast/format"
	"github.com/dhamidi/uniast/grammar"
	"github.com/dhamidi/uniast/parser"
	"github.com/dhamidi/uniast/syntax"
)

//go:embed static templates
var embeddedFS embed.FS

var log = commonlog.GetLogger("uniast.ui")

const (
	modeAST      = "ast"
	modeSynopsis = "synopsis"

	contentTypeJSON    = "application/json"
	contentTypeMsgpack = "application/msgpack"
)

// ParseRequest is the body of every parse endpoint.
type ParseRequest struct {
	Code       string `json:"code"`
	LanguageID string `json:"languageId"`
}

type Option func(*Server)

func WithParser(p *parser.Parser) Option {
	return func(s *Server) {
		s.parser = p
	}
}

// WithMaxSourceBytes limits request bodies. Larger requests get 413.
func WithMaxSourceBytes(n int64) Option {
	return func(s *Server) {
		s.maxBytes = n
	}
}

// WithCacheEntries sets how many encoded responses are kept. Zero disables
// the cache.
func WithCacheEntries(n int) Option {
	return func(s *Server) {
		s.cacheEntries = n
	}
}

// WithCacheMaxEntryBytes keeps responses larger than n out of the cache.
func WithCacheMaxEntryBytes(n int) Option {
	return func(s *Server) {
		s.cacheMaxEntry = n
	}
}

// WithParseTimeout bounds each parse. Requests that run longer get 503, or
// deadline_exceeded over RPC. Zero means no limit.
func WithParseTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.parseTimeout = d
	}
}

// cacheKey is a digest of everything that determines a response, so cached
// entries do not hold on to request sources.
type cacheKey [sha256.Size]byte

func newCacheKey(mode string, wrapped bool, contentType, languageID, code string) cacheKey {
	h := sha256.New()
	for _, field := range []string{mode, contentType, languageID, code} {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(field)))
		h.Write(n[:])
		h.Write([]byte(field))
	}
	if wrapped {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	var key cacheKey
	copy(key[:], h.Sum(nil))
	return key
}

type Server struct {
	parser        *parser.Parser
	maxBytes      int64
	parseTimeout  time.Duration
	cacheEntries  int
	cacheMaxEntry int
	cache         *lru.Cache[cacheKey, []byte]
	templates     *template.Template
	mux           *http.ServeMux
}

func NewServer(opts ...Option) (*Server, error) {
	s := &Server{
		maxBytes:      1 << 20,
		cacheEntries:  256,
		cacheMaxEntry: 256 << 10,
		mux:           http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.parser == nil {
		s.parser = parser.Default()
	}

	if s.cacheEntries > 0 {
		cache, err := lru.New[cacheKey, []byte](s.cacheEntries)
		if err != nil {
			return nil, fmt.Errorf("create cache: %w", err)
		}
		s.cache = cache
	}

	staticFS := overlayFS("ui/static", mustSub(embeddedFS, "static"))
	templateFS := overlayFS("ui/templates", mustSub(embeddedFS, "templates"))

	tmpl, err := template.New("").ParseFS(templateFS, "*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s.templates = tmpl

	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	s.mux.HandleFunc("POST /ast", s.handleParse(modeAST, false))
	s.mux.HandleFunc("POST /synopsis", s.handleParse(modeSynopsis, false))
	s.mux.HandleFunc("POST /playground/mints/{mode}", s.handleMint)
	s.mux.HandleFunc("GET /languages", s.handleLanguages)
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /{$}", s.handleIndex)

	path, handler := NewASTServiceHandler(NewASTService(s.parser, s.parseTimeout), s.maxBytes)
	s.mux.Handle(path, handler)

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	mode := r.PathValue("mode")
	if mode != modeAST && mode != modeSynopsis {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown mode %q", mode))
		return
	}
	s.handleParse(mode, true)(w, r)
}

func (s *Server) handleParse(mode string, wrapped bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ParseRequest
		body := http.MaxBytesReader(w, r.Body, s.maxBytes)
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
				return
			}
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}

		contentType := negotiate(r)
		key := newCacheKey(mode, wrapped, contentType, req.LanguageID, req.Code)
		if data, ok := s.cached(key); ok {
			log.Debugf("%s %s: cache hit", r.Method, r.URL.Path)
			writeBody(w, http.StatusOK, contentType, data)
			return
		}

		result, err := s.build(r, mode, req)
		if err != nil {
			if errors.Is(err, grammar.ErrUnsupportedLanguage) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			if errors.Is(err, parser.ErrTimeout) {
				writeError(w, http.StatusServiceUnavailable, err.Error())
				return
			}
			log.Errorf("%s %s: %s", r.Method, r.URL.Path, err)
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if wrapped {
			result = map[string]any{mode: result}
		}

		data, err := encode(contentType, result)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "encode: "+err.Error())
			return
		}
		if s.cache != nil && len(data) <= s.cacheMaxEntry {
			s.cache.Add(key, data)
		}
		writeBody(w, http.StatusOK, contentType, data)
	}
}

func (s *Server) build(r *http.Request, mode string, req ParseRequest) (any, error) {
	prog, err := s.parser.ParseWithTimeout(r.Context(), req.Code, req.LanguageID, s.parseTimeout)
	if err != nil {
		return nil, err
	}
	if mode == modeSynopsis {
		lang, _ := grammar.Lookup(req.LanguageID)
		return syntax.Summarize(lang.ID, prog), nil
	}
	return prog, nil
}

func (s *Server) cached(key cacheKey) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(key)
}

type languageInfo struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Aliases    []string `json:"aliases"`
	Extensions []string `json:"extensions"`
}

func languageInfos() []languageInfo {
	var result []languageInfo
	for _, l := range grammar.Languages() {
		aliases := l.Aliases
		if aliases == nil {
			aliases = []string{}
		}
		result = append(result, languageInfo{
			ID:         l.ID,
			Name:       l.Name,
			Aliases:    aliases,
			Extensions: l.Extensions,
		})
	}
	return result
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	data, err := format.MarshalJSON(languageInfos(), "")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeBody(w, http.StatusOK, contentTypeJSON, data)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Languages []languageInfo
	}{
		Languages: languageInfos(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		log.Errorf("render index: %s", err)
	}
}

// negotiate picks msgpack when the client asks for it and JSON otherwise.
func negotiate(r *http.Request) string {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, contentTypeMsgpack) || strings.Contains(accept, "application/x-msgpack") {
		return contentTypeMsgpack
	}
	return contentTypeJSON
}

func encode(contentType string, v any) ([]byte, error) {
	if contentType == contentTypeMsgpack {
		return format.MarshalMsgpack(v)
	}
	return format.MarshalJSON(v, "")
}

func writeBody(w http.ResponseWriter, status int, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	data, _ := format.MarshalJSON(map[string]string{"error": message}, "")
	writeBody(w, status, contentTypeJSON, data)
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// overlayFS serves files from primaryPath on disk when present, so the page
// can be edited without rebuilding, and falls back to secondary.
type overlayFSType struct {
	primary   fs.FS
	secondary fs.FS
}

func overlayFS(primaryPath string, secondary fs.FS) fs.FS {
	return &overlayFSType{
		primary:   os.DirFS(primaryPath),
		secondary: secondary,
	}
}

func (o *overlayFSType) Open(name string) (fs.File, error) {
	f, err := o.primary.Open(name)
	if err == nil {
		return f, nil
	}
	return o.secondary.Open(name)
}

func (o *overlayFSType) ReadDir(name string) ([]fs.DirEntry, error) {
	entries := make(map[string]fs.DirEntry)

	if rd, ok := o.secondary.(fs.ReadDirFS); ok {
		if list, err := rd.ReadDir(name); err == nil {
			for _, e := range list {
				entries[e.Name()] = e
			}
		}
	}

	if rd, ok := o.primary.(fs.ReadDirFS); ok {
		if list, err := rd.ReadDir(name); err == nil {
			for _, e := range list {
				entries[e.Name()] = e
			}
		}
	}

	result := make([]fs.DirEntry, 0, len(entries))
	for _, e := range entries {
		result = append(result, e)
	}
	return result, nil
}
