// Package types provides common type definitions used throughout bustle.
// This package contains shared types to avoid circular dependencies between packages.
package types

import (
	"fmt"
	"strings"
)

// Kind identifies the two asset kinds a bundle can hold.
type Kind string

const (
	KindCSS Kind = "css"
	KindJS  Kind = "js"
)

// Kinds lists every supported kind in a stable order.
var Kinds = []Kind{KindCSS, KindJS}

const (
	// LessExt is the extension of the only derivable source format.
	LessExt = ".less"
	// DerivedExt is appended to a derivable source to name its output.
	DerivedExt = ".css"
	// DefaultBuildID is used whenever no build artifact supplies one.
	DefaultBuildID = "dev"
	// DefaultMedia is the media attribute emitted for stylesheets.
	DefaultMedia = "screen,projection,tv"
)

// ParseKind accepts both the directory names ("css", "js") and the
// descriptive names ("style", "script").
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "css", "style", "styles":
		return KindCSS, nil
	case "js", "script", "scripts":
		return KindJS, nil
	default:
		return "", fmt.Errorf("unknown asset kind %q", s)
	}
}

// String returns the kind name.
func (k Kind) String() string {
	return string(k)
}

// Dir is the directory production artifacts of this kind are written under.
func (k Kind) Dir() string {
	return string(k)
}

// Ext is the file extension of production artifacts of this kind.
func (k Kind) Ext() string {
	return string(k)
}

// Label is the human name of the kind.
func (k Kind) Label() string {
	switch k {
	case KindCSS:
		return "style"
	case KindJS:
		return "script"
	default:
		return string(k)
	}
}

// HashKey returns the "<kind>:<bundle>" key used by the bundle-hash table.
func HashKey(kind Kind, bundle string) string {
	return string(kind) + ":" + bundle
}

// MinifiedPath returns "<dir>/<bundle>-min.<ext>" for a bundle.
func MinifiedPath(kind Kind, bundle string) string {
	return fmt.Sprintf("%s/%s-min.%s", kind.Dir(), bundle, kind.Ext())
}

// IsDerivable reports whether a logical path needs compiling before it
// can be served.
func IsDerivable(logical string) bool {
	return strings.HasSuffix(logical, LessExt)
}

// DerivedPath names the compiled output of a derivable source.
func DerivedPath(p string) string {
	return p + DerivedExt
}
