package icons

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sitewrap/sitewrap/internal/shared/types"
)

// Source values reported in Result
const (
	SourceFallback = "fallback"
)

// Result describes a rendered ladder
type Result struct {
	IconID   string
	Paths    []string
	Source   string
	Fallback bool
}

// Fetcher discovers, downloads and renders site icons
type Fetcher struct {
	client *Client
	sizes  []int
	log    *zap.Logger
}

// NewFetcher creates a fetcher with its own HTTP client
func NewFetcher(opts Options, log *zap.Logger) *Fetcher {
	return NewFetcherWithClient(NewClient(opts), opts, log)
}

// NewFetcherWithClient creates a fetcher around an existing client
func NewFetcherWithClient(client *Client, opts Options, log *zap.Logger) *Fetcher {
	opts = opts.withDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{
		client: client,
		sizes:  opts.Sizes,
		log:    log.Named("icons"),
	}
}

// FetchAndCache renders the icon ladder for startURL into cacheDir.
//
// Page, download and decode failures only move on to the next candidate;
// when every candidate fails a glyph icon is synthesized. Only failures to
// write the ladder are returned.
func (f *Fetcher) FetchAndCache(ctx context.Context, startURL *url.URL, iconID, cacheDir string) (*Result, error) {
	const op = "icons.fetch"

	if startURL == nil || iconID == "" {
		return nil, types.Errorf(types.KindInvalidInput, op, "start URL and icon ID are required")
	}

	candidates := Discover(f.fetchPage(ctx, startURL), startURL)

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			break
		}

		paths, err := f.tryCandidate(ctx, candidate, iconID, cacheDir)
		if err == nil {
			f.log.Debug("Icon rendered",
				zap.String("icon_id", iconID),
				zap.String("source", candidate.String()))
			return &Result{IconID: iconID, Paths: paths, Source: candidate.String()}, nil
		}

		var writeErr *renderError
		if errors.As(err, &writeErr) {
			return nil, types.Wrap(types.KindIO, op, writeErr.err)
		}
		f.log.Debug("Icon candidate failed",
			zap.String("candidate", candidate.String()),
			zap.Error(err))
	}

	img, err := Synthesize(startURL.Hostname())
	if err != nil {
		return nil, types.Wrap(types.KindIcon, op, err)
	}
	paths, err := RenderLadder(img, cacheDir, iconID, f.sizes)
	if err != nil {
		return nil, types.Wrap(types.KindIO, op, err)
	}

	f.log.Info("Using fallback icon",
		zap.String("icon_id", iconID),
		zap.String("host", startURL.Hostname()))
	return &Result{IconID: iconID, Paths: paths, Source: SourceFallback, Fallback: true}, nil
}

// renderError marks a failure after a candidate decoded successfully
type renderError struct {
	err error
}

func (e *renderError) Error() string { return e.err.Error() }
func (e *renderError) Unwrap() error { return e.err }

func (f *Fetcher) fetchPage(ctx context.Context, startURL *url.URL) *goquery.Document {
	resp, err := f.client.Get(ctx, startURL.String())
	if err != nil {
		// Non-success pages are treated as empty
		f.log.Debug("Page fetch failed", zap.String("url", startURL.String()), zap.Error(err))
		return nil
	}
	if len(resp.Body) == 0 {
		return nil
	}

	doc, err := LoadHTML(resp.Body, resp.ContentType)
	if err != nil {
		f.log.Debug("Page parse failed", zap.String("url", startURL.String()), zap.Error(err))
		return nil
	}
	return doc
}

func (f *Fetcher) tryCandidate(ctx context.Context, candidate *url.URL, iconID, cacheDir string) ([]string, error) {
	resp, err := f.client.Get(ctx, candidate.String())
	if err != nil {
		return nil, err
	}

	img, err := Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", candidate, err)
	}

	paths, err := RenderLadder(img, cacheDir, iconID, f.sizes)
	if err != nil {
		return nil, &renderError{err: err}
	}
	return paths, nil
}
