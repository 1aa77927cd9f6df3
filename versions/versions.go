// Package versions resolves the WDL version-statement literal to a
// recognized grammar version, and implements the fallback-version
// configuration option of spec.md §4.2.
//
// Open Question resolution (spec.md §9): the version set is CLOSED. A new
// WDL release requires a new SupportedVersion constant and an explicit
// switch arm everywhere the version is consulted (parser gating, type
// checker, evaluator). Go does not check that such switches are
// exhaustive, so a forgotten arm is not a build error (String, for one,
// falls back to "unrecognized" in its default case). See DESIGN.md.
package versions

import "fmt"

// SupportedVersion is the closed set of WDL grammar versions this
// toolchain can parse and evaluate.
type SupportedVersion int

const (
	// Unrecognized marks a version literal outside the closed set.
	Unrecognized SupportedVersion = iota
	Draft3
	V1_0
	V1_1
	V1_2
)

func (v SupportedVersion) String() string {
	switch v {
	case Draft3:
		return "draft-3"
	case V1_0:
		return "1.0"
	case V1_1:
		return "1.1"
	case V1_2:
		return "1.2"
	default:
		return "unrecognized"
	}
}

var literals = map[string]SupportedVersion{
	"draft-3": Draft3,
	"1.0":     V1_0,
	"1.1":     V1_1,
	"1.2":     V1_2,
}

// Parse resolves a raw version-statement literal to a SupportedVersion,
// reporting Unrecognized (not an error) for anything outside the closed
// set — callers decide whether that is fatal via Config.
func Parse(literal string) SupportedVersion {
	if v, ok := literals[literal]; ok {
		return v
	}
	return Unrecognized
}

// AllowsDirectoryCoercion reports whether `String` coerces to `Directory`
// in this version (1.1+, per spec.md §4.4).
func (v SupportedVersion) AllowsDirectoryCoercion() bool { return v >= V1_1 }

// AllowsMapToObjectCoercion reports whether `Map[String, T]` coerces to
// `Object` in this version (1.1+, per spec.md §4.4).
func (v SupportedVersion) AllowsMapToObjectCoercion() bool { return v >= V1_1 }

// Config controls how an unrecognized version statement is handled, per
// spec.md §4.2.
type Config struct {
	// Fallback, when non-nil, names the version to parse as when the
	// source's declared version is unrecognized. When nil (the default),
	// an unrecognized version is a hard error: the parser keeps the rest of
	// the source as a single error node, so the tree still round-trips but
	// holds no declarations.
	Fallback *SupportedVersion
}

// Resolve applies Config to a raw version literal, returning the
// effective version to parse with, whether the version was recognized as
// declared, and an error message if the default (no fallback) policy
// rejects the source.
func (c Config) Resolve(literal string) (effective SupportedVersion, recognized bool, err error) {
	v := Parse(literal)
	if v != Unrecognized {
		return v, true, nil
	}
	if c.Fallback != nil {
		return *c.Fallback, false, nil
	}
	return Unrecognized, false, fmt.Errorf("versions: unrecognized WDL version %q and no fallback configured", literal)
}

// ToolchainSemver is the integer folded into the call-cache key (spec.md
// §4.7) to invalidate cached results across breaking semantic changes in
// this toolchain. Bump it whenever evaluation semantics change in a way
// that could alter previously cached outputs.
const ToolchainSemver = 1
