// Package cachekey implements the call-cache key composition of spec.md
// §3/§4.7: a content digest over a task's canonical body, its input
// values (files/directories hashed by content, primitives by value), the
// requirements subset relevant to caching, and a toolchain semantic
// version that invalidates the cache on breaking semantic changes.
//
// Open Question resolution (spec.md §9): the canonical form used for the
// task body is the formatter's Canonical re-serialization with a pinned
// Config, hashed as bytes — "re-emit the task AST via the formatter with
// a pinned configuration, hash the bytes", exactly as the spec's open
// question suggests. See DESIGN.md.
package cachekey

import (
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/minio/highwayhash"

	"github.com/viant/wdl/digest"
	"github.com/viant/wdl/format"
	"github.com/viant/wdl/syntax"
	"github.com/viant/wdl/values"
)

var hashKey = make([]byte, 32)

// pinned is the fixed formatter configuration the call cache hashes the
// task body under; it must never change without bumping
// versions.ToolchainSemver, since doing so would silently invalidate
// every previously cached outcome without the toolchain-semver guard
// noticing.
var pinned = format.Config{IndentWidth: 2, MaxLineWidth: 80, TrailingCommas: true}

// RequirementsSubset is the part of a task's requirements/runtime that is
// cache-relevant per spec.md §4.7: container, cpu, memory, and GPU kind.
// Other requirements (e.g. disks sizing that doesn't affect output) are
// deliberately excluded so unrelated requirement edits don't invalidate
// the cache.
type RequirementsSubset struct {
	Container string
	CPU       string
	Memory    string
	GPUKind   string
}

// canonicalPairs returns r's fields as key/value pairs in a fixed order
// (container, cpu, memory, gpu_kind), giving a stable iteration order to
// hash.
func (r RequirementsSubset) canonicalPairs() [][2]string {
	return [][2]string{
		{"container", r.Container},
		{"cpu", r.CPU},
		{"memory", r.Memory},
		{"gpu_kind", r.GPUKind},
	}
}

// Key is the hex-encoded fingerprint identifying one (task, inputs,
// requirements, toolchain) combination in the call cache.
type Key string

// Inputs maps a task-local input name to its evaluated runtime value, the
// shape cachekey.Compute hashes alongside the task body.
type Inputs map[string]values.Value

// Compute derives the call-cache Key for taskRoot (a task node's cursor)
// evaluated with inputs under reqs, tagged with the given toolchain
// semantic version (versions.ToolchainSemver). digests resolves
// file/directory inputs to content digests; it is nil-safe only if
// inputs contains no values.Path (a pure-primitive task).
func Compute(taskRoot *syntax.Cursor, inputs Inputs, reqs RequirementsSubset, toolchainSemver int, digests *digest.Table) (Key, error) {
	h, err := highwayhash.New256(hashKey)
	if err != nil {
		return "", fmt.Errorf("cachekey: %w", err)
	}

	body := format.Canonical(taskRoot, pinned)
	h.Write([]byte("body:"))
	h.Write([]byte(body))

	names := make([]string, 0, len(inputs))
	for name := range inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		h.Write([]byte("input:" + name + "="))
		if err := hashValue(h, inputs[name], digests); err != nil {
			return "", fmt.Errorf("cachekey: input %q: %w", name, err)
		}
	}

	for _, kv := range reqs.canonicalPairs() {
		h.Write([]byte("req:" + kv[0] + "=" + kv[1]))
	}

	fmt.Fprintf(h, "toolchain:%d", toolchainSemver)

	return Key(hex.EncodeToString(h.Sum(nil))), nil
}

// hashValue writes v's content into h: primitives by their rendered
// text, files/directories by their content digest via digests, and
// compound values by recursing over their elements in a stable order.
func hashValue(h interface{ Write([]byte) (int, error) }, v values.Value, digests *digest.Table) error {
	switch val := v.(type) {
	case values.Path:
		if digests == nil {
			return fmt.Errorf("no digest table for path input %q", val.Eval)
		}
		d, err := digests.Digest(val.Eval, val.Kind == values.KindDirectory)
		if err != nil {
			return err
		}
		h.Write([]byte(d.String()))
		return nil
	case values.Array:
		for _, e := range val.Vals {
			if err := hashValue(h, e, digests); err != nil {
				return err
			}
			h.Write([]byte(","))
		}
		return nil
	case values.Map:
		for _, idx := range values.SortMapKeys(val) {
			if err := hashValue(h, val.Keys[idx], digests); err != nil {
				return err
			}
			h.Write([]byte(":"))
			if err := hashValue(h, val.Vals[idx], digests); err != nil {
				return err
			}
			h.Write([]byte(","))
		}
		return nil
	case values.Pair:
		if err := hashValue(h, val.Left, digests); err != nil {
			return err
		}
		h.Write([]byte(","))
		return hashValue(h, val.Right, digests)
	case values.Object:
		for _, k := range val.Order {
			h.Write([]byte(k + ":"))
			if err := hashValue(h, val.Members[k], digests); err != nil {
				return err
			}
			h.Write([]byte(","))
		}
		return nil
	default:
		h.Write([]byte(v.String()))
		return nil
	}
}
