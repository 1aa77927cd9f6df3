// Package callcache implements the content-addressed call cache of
// spec.md §3/§4.7/§6: a persistent, on-disk, cache-key-hex-addressed
// store of task outputs plus a manifest recording the input digests used
// to detect staleness, with an in-memory one-shot initialization cell
// guaranteeing at-most-one concurrent build per fingerprint (spec.md §5).
//
// Grounded on digest.Table's singleflight+memo "Table" shape (see
// DESIGN.md's digest package entry) for the in-memory half, and on the
// teacher's yaml-tagged record style (analyzer/linage/identity.go) for
// the on-disk manifest.
package callcache

import (
	"bytes"
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/viant/afs"

	"github.com/viant/wdl/cachekey"
)

// Manifest records what a cache entry was computed from, so a later read
// can detect source-content drift and evict (spec.md §4.7: "Cache reads
// detect source-content change by comparing the recorded digest with a
// freshly computed one; a mismatch downgrades to a miss and the cache
// entry is evicted").
type Manifest struct {
	Key          string            `yaml:"key"`
	InputDigests map[string]string `yaml:"inputDigests"`
}

// Entry is one cached build's outcome: its outputs encoded via
// values.Encode — a self-describing tree (kind tag plus nested data) that
// round-trips the exact runtime value, including compound Array/Map/Pair/
// Object values and File/Directory Path kind, not just their rendered
// text — plus its Manifest. The evaluator's eval.TaskRunner owns decoding
// (values.Decode) on a cache hit.
type Entry struct {
	Outputs  map[string]interface{} `yaml:"outputs"`
	Manifest Manifest          `yaml:"manifest"`
}

// Builder computes a fresh Entry on a cache miss.
type Builder func(ctx context.Context) (Entry, error)

// Cache is the persistent call cache: a content-addressed directory
// (spec.md §6's on-disk layout: top level keyed by cache-key hex, each
// entry storing serialized outputs and a staleness manifest) fronted by
// an in-memory one-shot cell per key so concurrent Build calls for the
// same fingerprint share one builder invocation.
type Cache struct {
	fs    afs.Service
	root  string // base URL entries are stored under, one sub-path per key
	group singleflight.Group
}

// New creates a Cache rooted at root (e.g. "file:///var/cache/wdl/calls"),
// backed by fs.
func New(fs afs.Service, root string) *Cache {
	return &Cache{fs: fs, root: root}
}

func (c *Cache) entryURL(key cachekey.Key) string {
	return c.root + "/" + string(key) + "/entry.yaml"
}

// Get reads a previously stored Entry for key, verifying it is not stale
// by comparing recordedDigests (freshly recomputed by the caller) against
// the manifest's InputDigests; a mismatch is treated as a miss and the
// stale entry is evicted.
func (c *Cache) Get(ctx context.Context, key cachekey.Key, recordedDigests map[string]string) (Entry, bool, error) {
	raw, err := c.fs.DownloadWithURL(ctx, c.entryURL(key))
	if err != nil {
		return Entry{}, false, nil // missing entry is a miss, not an error
	}
	var entry Entry
	if err := yaml.Unmarshal(raw, &entry); err != nil {
		return Entry{}, false, fmt.Errorf("callcache: corrupt entry %s: %w", key, err)
	}
	if !digestsMatch(entry.Manifest.InputDigests, recordedDigests) {
		_ = c.fs.Delete(ctx, c.entryURL(key))
		return Entry{}, false, nil
	}
	return entry, true, nil
}

func digestsMatch(recorded, fresh map[string]string) bool {
	if len(recorded) != len(fresh) {
		return false
	}
	for k, v := range recorded {
		if fresh[k] != v {
			return false
		}
	}
	return true
}

// Put persists entry under key, overwriting any prior value.
func (c *Cache) Put(ctx context.Context, key cachekey.Key, entry Entry) error {
	entry.Manifest.Key = string(key)
	raw, err := yaml.Marshal(entry)
	if err != nil {
		return fmt.Errorf("callcache: marshal entry %s: %w", key, err)
	}
	if err := c.fs.Upload(ctx, c.entryURL(key), 0644, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("callcache: write entry %s: %w", key, err)
	}
	return nil
}

// Build returns the cached Entry for key if one exists and is fresh
// (digestsMatch against recordedDigests), else runs build exactly once
// even under concurrent callers for the same key (spec.md §5's one-shot
// initialization cell pattern applied to the call cache), persisting and
// returning its result. hit reports whether the call avoided invoking
// build (spec.md §8's cache-idempotence property: "the second records no
// backend spawn").
func (c *Cache) Build(ctx context.Context, key cachekey.Key, recordedDigests map[string]string, build Builder) (entry Entry, hit bool, err error) {
	if entry, ok, err := c.Get(ctx, key, recordedDigests); err != nil {
		return Entry{}, false, err
	} else if ok {
		return entry, true, nil
	}

	v, err, _ := c.group.Do(string(key), func() (interface{}, error) {
		// Re-check after acquiring the singleflight slot: another caller
		// may have just finished and persisted while we waited.
		if entry, ok, err := c.Get(ctx, key, recordedDigests); err == nil && ok {
			return entry, nil
		}
		built, err := build(ctx)
		if err != nil {
			return Entry{}, err
		}
		built.Manifest.InputDigests = recordedDigests
		if err := c.Put(ctx, key, built); err != nil {
			return Entry{}, err
		}
		return built, nil
	})
	if err != nil {
		return Entry{}, false, err
	}
	return v.(Entry), false, nil
}
