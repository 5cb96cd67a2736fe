package parser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dhamidi/uniast/grammar"
	"github.com/dhamidi/uniast/syntax"
)

// ErrTimeout is reported for a file whose parse did not finish in time.
var ErrTimeout = errors.New("parse timed out")

type FilesOptions struct {
	// Jobs bounds the number of files parsed at once; <= 0 means GOMAXPROCS.
	Jobs int
	// Timeout bounds each file; zero means no limit.
	Timeout time.Duration
	// Language forces a language instead of detecting it per file.
	Language string
}

type FileResult struct {
	Path     string
	Language string
	Content  []byte
	Program  *syntax.Program
	Err      error
	Elapsed  time.Duration
}

// ParseFiles parses every path concurrently and returns one result per path
// in input order. Per-file failures are reported in FileResult.Err; the
// returned error is only set when ctx is done.
func (p *Parser) ParseFiles(ctx context.Context, paths []string, opts FilesOptions) ([]FileResult, error) {
	results := make([]FileResult, len(paths))
	if len(paths) == 0 {
		return results, nil
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))

	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = p.parseFile(gctx, path, opts)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (p *Parser) parseFile(ctx context.Context, path string, opts FilesOptions) (result FileResult) {
	result = FileResult{Path: path, Language: opts.Language}
	began := time.Now()
	defer func() { result.Elapsed = time.Since(began) }()

	if result.Language == "" {
		lang, ok := grammar.Detect(path)
		if !ok {
			result.Err = &grammar.UnsupportedLanguageError{Language: path}
			return result
		}
		result.Language = lang
	}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Err = fmt.Errorf("read %s: %w", path, err)
		return result
	}

	result.Content = data
	result.Program, result.Err = p.ParseWithTimeout(ctx, string(data), result.Language, opts.Timeout)
	return result
}

// ParseWithTimeout runs Parse off the calling goroutine and gives up after
// timeout. The parse itself is not interrupted; its result is discarded.
func (p *Parser) ParseWithTimeout(ctx context.Context, code, languageID string, timeout time.Duration) (*syntax.Program, error) {
	if timeout <= 0 {
		return p.Parse(ctx, code, languageID)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		prog *syntax.Program
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		prog, err := p.Parse(ctx, code, languageID)
		done <- outcome{prog, err}
	}()

	select {
	case out := <-done:
		return out.prog, out.err
	case <-ctx.Done():
		log.Warningf("gave up parsing %d bytes of %s after %s", len(code), languageID, timeout)
		return nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
}
