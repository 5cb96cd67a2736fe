// Package workspace keeps the normalized trees of a set of source files up
// to date as the files change.
package workspace

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/uniast/grammar"
	"github.com/dhamidi/uniast/parser"
	"github.com/dhamidi/uniast/syntax"
)

var log = commonlog.GetLogger("uniast.workspace")

// Document is a parsed snapshot of one file. Documents are never modified
// after they are stored; an update replaces the whole Document.
type Document struct {
	Path     string
	Language string
	Content  []byte
	Program  *syntax.Program
	Err      error
}

type Option func(*Workspace)

func WithParser(p *parser.Parser) Option {
	return func(w *Workspace) {
		w.parser = p
	}
}

// WithJobs bounds the number of files parsed at once by ScanAll.
func WithJobs(n int) Option {
	return func(w *Workspace) {
		w.jobs = n
	}
}

// WithTimeout bounds each file parsed by ScanAll.
func WithTimeout(d time.Duration) Option {
	return func(w *Workspace) {
		w.timeout = d
	}
}

type Workspace struct {
	mu      sync.RWMutex
	root    string
	parser  *parser.Parser
	jobs    int
	timeout time.Duration
	docs    map[string]*Document
}

func New(root string, opts ...Option) *Workspace {
	w := &Workspace{
		root: root,
		docs: make(map[string]*Document),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.parser == nil {
		w.parser = parser.Default()
	}
	return w
}

func (w *Workspace) Root() string {
	return w.root
}

// UpdateFile parses content as languageID and stores the result under path.
// An empty languageID is detected from the file extension. Parse failures
// are recorded in Document.Err.
func (w *Workspace) UpdateFile(ctx context.Context, path, languageID string, content []byte) *Document {
	doc := &Document{
		Path:     path,
		Language: languageID,
		Content:  content,
	}
	if doc.Language == "" {
		if lang, ok := grammar.Detect(path); ok {
			doc.Language = lang
		}
	}
	if doc.Language == "" {
		doc.Err = &grammar.UnsupportedLanguageError{Language: filepath.Ext(path)}
	} else {
		doc.Program, doc.Err = w.parser.Parse(ctx, string(content), doc.Language)
	}
	if doc.Err != nil {
		log.Debugf("%s: %s", path, doc.Err)
	}

	w.store(doc)
	return doc
}

func (w *Workspace) store(doc *Document) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.docs[doc.Path] = doc
}

// ScanFile reads path from disk and updates it.
func (w *Workspace) ScanFile(ctx context.Context, path string) (*Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return w.UpdateFile(ctx, path, "", content), nil
}

// ScanAll parses every file under the root whose language can be detected.
// Hidden directories are skipped.
func (w *Workspace) ScanAll(ctx context.Context) error {
	paths, err := sourceFiles(w.root)
	if err != nil {
		return err
	}

	results, err := w.parser.ParseFiles(ctx, paths, parser.FilesOptions{Jobs: w.jobs, Timeout: w.timeout})
	if err != nil {
		return fmt.Errorf("scan %s: %w", w.root, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, r := range results {
		w.docs[r.Path] = &Document{
			Path:     r.Path,
			Language: r.Language,
			Content:  r.Content,
			Program:  r.Program,
			Err:      r.Err,
		}
	}
	log.Infof("scanned %d files under %s", len(results), w.root)
	return nil
}

func (w *Workspace) RemoveFile(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.docs[path]
	delete(w.docs, path)
	return ok
}

func (w *Workspace) GetFile(path string) *Document {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.docs[path]
}

// Files returns all documents sorted by path.
func (w *Workspace) Files() []*Document {
	w.mu.RLock()
	docs := make([]*Document, 0, len(w.docs))
	for _, d := range w.docs {
		docs = append(docs, d)
	}
	w.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Path < docs[j].Path
	})
	return docs
}

// sourceFiles lists the files under root with a known language, in walk
// order.
func sourceFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warningf("walk %s: %s", path, err)
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := grammar.Detect(path); ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return paths, nil
}
