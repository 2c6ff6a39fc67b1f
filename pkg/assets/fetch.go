// fetch.go - Byte sources for poster images: HTTP(S), local files and data URLs.

package assets

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultMaxBytes caps a single image download.
const DefaultMaxBytes = 20 << 20

var (
	// ErrTooLarge is returned when an image exceeds the fetcher's byte limit.
	ErrTooLarge = errors.New("image exceeds size limit")

	// ErrOutsideRoot is returned by a confined FileFetcher for paths that
	// leave its Root.
	ErrOutsideRoot = errors.New("path outside asset root")
)

// Fetcher returns the raw bytes behind an image reference.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, ref string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, ref string) ([]byte, error) { return f(ctx, ref) }

// HTTPFetcher issues a plain GET and requires a 2xx response.
type HTTPFetcher struct {
	Client    *http.Client
	MaxBytes  int64
	UserAgent string
}

func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("get %s: unexpected status %s", ref, resp.Status)
	}
	return readLimited(resp.Body, f.limit())
}

func (f *HTTPFetcher) limit() int64 {
	if f.MaxBytes > 0 {
		return f.MaxBytes
	}
	return DefaultMaxBytes
}

// FileFetcher reads "file://" URLs and bare paths. Relative paths resolve
// against Root, which is how bundled descriptors reference their images.
// A Confined fetcher only opens files below Root (symlinks included) and
// refuses everything when Root is empty.
type FileFetcher struct {
	Root     string
	MaxBytes int64
	Confined bool
}

func (f *FileFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := ref
	if strings.HasPrefix(ref, "file://") {
		u, err := url.Parse(ref)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", ref, err)
		}
		path = u.Path
	}
	if !filepath.IsAbs(path) && f.Root != "" {
		path = filepath.Join(f.Root, path)
	}

	file, err := f.open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	return readLimited(file, limit)
}

func (f *FileFetcher) open(path string) (*os.File, error) {
	if !f.Confined {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		return file, nil
	}

	if f.Root == "" {
		return nil, fmt.Errorf("open %s: %w", path, ErrOutsideRoot)
	}
	root, err := filepath.Abs(f.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || !filepath.IsLocal(rel) {
		return nil, fmt.Errorf("open %s: %w", path, ErrOutsideRoot)
	}

	dir, err := os.OpenRoot(root)
	if err != nil {
		return nil, fmt.Errorf("open root: %w", err)
	}
	defer dir.Close()
	file, err := dir.Open(rel)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return file, nil
}

// DataURLFetcher decodes inline "data:" URLs. Only base64 payloads are accepted.
type DataURLFetcher struct{}

func (DataURLFetcher) Fetch(_ context.Context, ref string) ([]byte, error) {
	rest, ok := strings.CutPrefix(ref, "data:")
	if !ok {
		return nil, fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("malformed data URL: missing comma")
	}
	if !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("data URL is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode data URL: %w", err)
	}
	return data, nil
}

// SchemeFetcher dispatches on the reference scheme.
type SchemeFetcher struct {
	HTTP Fetcher
	File Fetcher
	Data Fetcher
}

// NewSchemeFetcher returns the default fetcher: HTTP with client, files under
// root, and data URLs.
func NewSchemeFetcher(client *http.Client, root string) *SchemeFetcher {
	return &SchemeFetcher{
		HTTP: &HTTPFetcher{Client: client, UserAgent: "gopostr"},
		File: &FileFetcher{Root: root},
		Data: DataURLFetcher{},
	}
}

func (f *SchemeFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	var next Fetcher
	switch scheme := schemeOf(ref); scheme {
	case "http", "https":
		next = f.HTTP
	case "data":
		next = f.Data
	case "file", "":
		next = f.File
	default:
		return nil, fmt.Errorf("unsupported scheme %q", scheme)
	}
	if next == nil {
		return nil, fmt.Errorf("no fetcher configured for %q", ref)
	}
	return next.Fetch(ctx, ref)
}

func schemeOf(ref string) string {
	i := strings.Index(ref, ":")
	if i <= 1 {
		// "" or a Windows drive letter.
		return ""
	}
	scheme := strings.ToLower(ref[:i])
	for _, r := range scheme {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '+' && r != '-' && r != '.' {
			return ""
		}
	}
	return scheme
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}
