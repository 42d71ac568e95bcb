package fileref

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Fetcher resolves a reference to a local filesystem path, performing
// network I/O for remote references.
type Fetcher interface {
	Fetch(ctx context.Context, ref Reference) (string, error)
}

// Resolver is the standard Fetcher: local references resolve to themselves,
// s3:// references download through an object-store client, and http(s)://
// references download over plain HTTP. Downloads land in a cache directory
// and are reused for the resolver's lifetime.
type Resolver struct {
	cacheDir string
	s3       *minio.Client
	httpc    *http.Client

	mu    sync.Mutex
	cache map[Reference]string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithS3 configures the object-store client used for s3:// references.
func WithS3(endpoint, accessKey, secretKey string, useSSL bool) ResolverOption {
	return func(r *Resolver) {
		client, err := minio.New(endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
			Secure: useSSL,
		})
		if err != nil {
			// Leave r.s3 nil; s3 fetches will fail with a FetchError.
			return
		}
		r.s3 = client
	}
}

// WithHTTPClient overrides the HTTP client used for http(s):// references.
func WithHTTPClient(c *http.Client) ResolverOption {
	return func(r *Resolver) {
		r.httpc = c
	}
}

// NewResolver creates a resolver caching remote downloads under cacheDir.
func NewResolver(cacheDir string, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		cacheDir: cacheDir,
		httpc:    http.DefaultClient,
		cache:    make(map[Reference]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fetch resolves ref to a local path. Local references are returned as-is;
// remote references are downloaded at most once per resolver.
func (r *Resolver) Fetch(ctx context.Context, ref Reference) (string, error) {
	if !ref.IsRemote() {
		return string(ref), nil
	}

	r.mu.Lock()
	if path, ok := r.cache[ref]; ok {
		r.mu.Unlock()
		return path, nil
	}
	r.mu.Unlock()

	local, err := r.download(ctx, ref)
	if err != nil {
		return "", &FetchError{URI: string(ref), Err: err}
	}

	r.mu.Lock()
	r.cache[ref] = local
	r.mu.Unlock()
	return local, nil
}

func (r *Resolver) download(ctx context.Context, ref Reference) (string, error) {
	local := filepath.Join(r.cacheDir, ref.Base())
	if err := os.MkdirAll(r.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("creating cache dir: %w", err)
	}

	s := string(ref)
	if strings.HasPrefix(s, "s3://") {
		if r.s3 == nil {
			return "", fmt.Errorf("no object-store client configured for %s", s)
		}
		bucket, key, err := splitS3URI(s)
		if err != nil {
			return "", err
		}
		if err := r.s3.FGetObject(ctx, bucket, key, local, minio.GetObjectOptions{}); err != nil {
			return "", err
		}
		return local, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	f, err := os.Create(local)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", err
	}
	return local, nil
}

// splitS3URI splits s3://bucket/key/parts into bucket and key.
func splitS3URI(s string) (bucket, key string, err error) {
	u, err := url.Parse(s)
	if err != nil {
		return "", "", fmt.Errorf("parsing s3 uri: %w", err)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("malformed s3 uri %q", s)
	}
	return u.Host, key, nil
}
