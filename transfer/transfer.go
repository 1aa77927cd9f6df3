// Package transfer implements the Transferer capability of spec.md §4.9:
// digest lookup, directory walk, download, and upload for "directory
// shaped" remote locations, all cancellable and retried with exponential
// backoff and jitter. Grounded on the teacher's afs.Service usage
// (analyzer/package.go's storage.OnVisit walker, inspector/info/document.go's
// fs.DownloadWithURL) — this package is the generalization of that
// pattern from "walk a local project tree" to "walk/transfer any
// afs-addressable URL", backed by github.com/viant/afs per SPEC_FULL.md's
// domain stack table.
package transfer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"

	"github.com/viant/wdl/digest"
)

// RetryConfig controls the exponential-backoff-with-jitter retry policy
// applied to Walk, Download and Upload (spec.md §4.9); Digest retries
// only through its Walk, not its per-file digest reads.
type RetryConfig struct {
	MaxElapsed time.Duration
	Classify   func(err error) bool // true if err is retriable; nil means "always retriable"
}

// permanentErrorMarkers are well-known substrings in an HTTP response
// body that indicate a non-retriable failure (spec.md §4.9: "any HTTP
// response body containing well-known permanent-error markers downgrades
// to a non-retriable failure").
var permanentErrorMarkers = []string{
	"AccessDenied", "NoSuchBucket", "InvalidAccessKeyId", "403 Forbidden", "404 Not Found",
}

// IsPermanent reports whether body (an HTTP error response body, if any
// was captured alongside err) names a well-known permanent failure.
func IsPermanent(body string) bool {
	for _, marker := range permanentErrorMarkers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return false
}

// Transferer enumerates, downloads, uploads, and digests content at a URL,
// backed by an afs.Service. All methods accept a context used for both
// cancellation and carrying the retry policy's deadline.
type Transferer struct {
	fs      afs.Service
	digests *digest.Table
	retry   RetryConfig
}

// New creates a Transferer over fs (afs.New() in production, an in-memory
// afs mem:// service in tests), memoizing digests in table.
func New(fs afs.Service, table *digest.Table, retry RetryConfig) *Transferer {
	return &Transferer{fs: fs, digests: table, retry: retry}
}

func (t *Transferer) backoffPolicy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if t.retry.MaxElapsed > 0 {
		b.MaxElapsedTime = t.retry.MaxElapsed
	}
	return backoff.WithContext(b, ctx)
}

func (t *Transferer) retriable(err error) bool {
	if t.retry.Classify == nil {
		return true
	}
	return t.retry.Classify(err)
}

func (t *Transferer) withRetry(ctx context.Context, op func() error) error {
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if !t.retriable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, t.backoffPolicy(ctx))
}

// Digest returns uri's content digest: a single HEAD-equivalent digest for
// a file-shaped URL, memoized in the shared digest.Table, or the mixed
// directory digest (spec.md §4.7) computed by walking the remote listing
// for a directory-shaped one — each entry contributes its relative path
// and its own (possibly nested) digest, in the lexicographic order Walk
// already returns.
func (t *Transferer) Digest(ctx context.Context, uri string, isDir bool) (digest.Digest, error) {
	if !isDir {
		return t.digests.Digest(uri, false)
	}
	entries, err := t.Walk(ctx, uri)
	if err != nil {
		return digest.Digest{}, err
	}
	h := digest.NewMixer()
	for _, rel := range entries {
		childURI := url.Join(uri, rel)
		d, err := t.digests.Digest(childURI, false)
		if err != nil {
			return digest.Digest{}, fmt.Errorf("transfer: digest %s: %w", childURI, err)
		}
		h.Add(rel, d)
	}
	return h.Sum(), nil
}

// Walk enumerates uri's entries in lexicographic order, returning their
// relative paths (spec.md §4.9 / §4.7's "walk the remote listing").
func (t *Transferer) Walk(ctx context.Context, uri string) ([]string, error) {
	var entries []string
	var visit storage.OnVisit = func(ctx context.Context, baseURL, parent string, info os.FileInfo, reader io.Reader) (bool, error) {
		if info.IsDir() {
			return true, nil
		}
		rel := parent
		if rel != "" {
			rel = rel + "/" + info.Name()
		} else {
			rel = info.Name()
		}
		entries = append(entries, rel)
		return true, nil
	}
	err := t.withRetry(ctx, func() error { return t.fs.Walk(ctx, uri, visit) })
	if err != nil {
		return nil, fmt.Errorf("transfer: walk %s: %w", uri, err)
	}
	sort.Strings(entries)
	return entries, nil
}

// Download copies uri to the local path, retrying transient failures.
func (t *Transferer) Download(ctx context.Context, uri, localPath string) error {
	var data []byte
	err := t.withRetry(ctx, func() error {
		b, err := t.fs.DownloadWithURL(ctx, uri)
		if err != nil {
			return err
		}
		data = b
		return nil
	})
	if err != nil {
		return fmt.Errorf("transfer: download %s: %w", uri, err)
	}
	return os.WriteFile(localPath, data, 0644)
}

// Upload copies the local path to uri, retrying transient failures.
func (t *Transferer) Upload(ctx context.Context, localPath, uri string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("transfer: read %s: %w", localPath, err)
	}
	err = t.withRetry(ctx, func() error {
		return t.fs.Upload(ctx, uri, 0644, bytes.NewReader(data))
	})
	if err != nil {
		return fmt.Errorf("transfer: upload %s: %w", localPath, err)
	}
	return nil
}

// Join joins a base URL with a relative path the way afs/url.Join does,
// re-exported so backends don't need a second import for one call.
func Join(base, elem string) string { return url.Join(base, elem) }
