package ytdlp

import (
	"context"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/erni27/imcache"
	"github.com/pkg/errors"

	"github.com/EgorLis/musicbot/internal/music"
)

const (
	defaultExecutable = "yt-dlp"
	defaultTimeout    = 30 * time.Second
	defaultCacheTTL   = 30 * time.Minute
)

var ErrEmptyQuery = errors.New("yt-dlp: empty query")

// Resolver runs yt-dlp for direct URLs and search text. Successful results
// are cached per query; stream URLs expire upstream, so the TTL stays short.
type Resolver struct {
	executable string
	timeout    time.Duration
	ttl        time.Duration
	cache      *imcache.Cache[string, music.Metadata]
	log        *slog.Logger
}

var _ music.Resolver = (*Resolver)(nil)

type Option func(*Resolver)

func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithCacheTTL sets how long a resolution is reused. Zero disables the cache.
func WithCacheTTL(d time.Duration) Option {
	return func(r *Resolver) { r.ttl = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

func NewResolver(executable string, opts ...Option) *Resolver {
	if executable == "" {
		executable = defaultExecutable
	}
	r := &Resolver{
		executable: executable,
		timeout:    defaultTimeout,
		ttl:        defaultCacheTTL,
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(r)
	}
	if r.ttl > 0 {
		r.cache = imcache.New[string, music.Metadata]()
	}
	r.log = r.log.With("component", "yt-dlp")
	return r
}

// Args is the yt-dlp command line for query.
func Args(query string) []string {
	return []string{
		"--dump-single-json",
		"--no-playlist",
		"--quiet",
		"--no-warnings",
		"--format", "bestaudio/best",
		"--default-search", "ytsearch",
		"--source-address", "0.0.0.0",
		"--", query,
	}
}

func (r *Resolver) Resolve(ctx context.Context, query string) (music.Metadata, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return music.Metadata{}, ErrEmptyQuery
	}
	if r.cache != nil {
		if md, ok := r.cache.Get(query); ok {
			r.log.Debug("cache hit", "query", query)
			return md, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	out, err := exec.CommandContext(ctx, r.executable, Args(query)...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return music.Metadata{}, errors.Wrapf(err, "yt-dlp %q: %s", query, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return music.Metadata{}, errors.Wrapf(err, "yt-dlp %q", query)
	}

	md, err := ParseInfo(out)
	if err != nil {
		return music.Metadata{}, errors.Wrapf(err, "query %q", query)
	}
	r.log.Info("resolved", "query", query, "title", md.Title, "took", time.Since(start))

	if r.cache != nil && md.StreamURL != "" {
		r.cache.Set(query, md, imcache.WithExpiration(r.ttl))
	}
	return md, nil
}
