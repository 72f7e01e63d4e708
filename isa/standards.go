package isa

import (
	"fmt"
	"math/bits"
	"strings"
)

// Version is an architecture version. Versions are ordered: a later
// version implements everything an earlier one does unless an encoding
// says otherwise.
type Version uint8

const (
	V4 Version = iota
	V4T
	V5T
	V5TE
	V6
	V6K
	V6T2
	V7

	numVersions
)

var versionNames = [numVersions]string{
	V4:   "v4",
	V4T:  "v4t",
	V5T:  "v5t",
	V5TE: "v5te",
	V6:   "v6",
	V6K:  "v6k",
	V6T2: "v6t2",
	V7:   "v7",
}

func (v Version) String() string {
	if v >= numVersions {
		return fmt.Sprintf("Version(%d)", uint8(v))
	}
	return versionNames[v]
}

func ParseVersion(s string) (Version, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "arm")
	for v, name := range versionNames {
		if name == s {
			return Version(v), nil
		}
	}
	return 0, fmt.Errorf("unknown architecture version %q", s)
}

// Extension is an optional architecture extension.
type Extension uint8

const (
	ExtDSP     Extension = iota // enhanced DSP (the "E" in v5TE)
	ExtJazelle                  // Jazelle bytecode branch
	ExtIDIV                     // hardware divide

	numExtensions
)

var extensionNames = [numExtensions]string{
	ExtDSP:     "dsp",
	ExtJazelle: "jazelle",
	ExtIDIV:    "idiv",
}

func (e Extension) String() string {
	if e >= numExtensions {
		return fmt.Sprintf("Extension(%d)", uint8(e))
	}
	return extensionNames[e]
}

func ParseExtension(s string) (Extension, error) {
	s = strings.ToLower(s)
	for e, name := range extensionNames {
		if name == s {
			return Extension(e), nil
		}
	}
	return 0, fmt.Errorf("unknown architecture extension %q", s)
}

// VersionSet is a set of versions, one bit per version.
type VersionSet uint16

// AllVersions contains every known version.
const AllVersions = VersionSet(1<<numVersions - 1)

func Versions(vs ...Version) VersionSet {
	var ret VersionSet
	for _, v := range vs {
		ret |= 1 << v
	}
	return ret
}

// VersionsFrom returns the set of v and every later version.
func VersionsFrom(v Version) VersionSet {
	return AllVersions &^ (1<<v - 1)
}

func (s VersionSet) Has(v Version) bool {
	return s&(1<<v) != 0
}

func (s VersionSet) Union(o VersionSet) VersionSet {
	return s | o
}

func (s VersionSet) String() string {
	var names []string
	for v := Version(0); v < numVersions; v++ {
		if s.Has(v) {
			names = append(names, v.String())
		}
	}
	return strings.Join(names, ", ")
}

// ExtensionSet is a set of extensions, one bit per extension.
type ExtensionSet uint8

const AllExtensions = ExtensionSet(1<<numExtensions - 1)

func Extensions(es ...Extension) ExtensionSet {
	var ret ExtensionSet
	for _, e := range es {
		ret |= 1 << e
	}
	return ret
}

func (s ExtensionSet) Has(e Extension) bool {
	return s&(1<<e) != 0
}

// HasAll reports whether every extension in sub is also in s.
func (s ExtensionSet) HasAll(sub ExtensionSet) bool {
	return sub&^s == 0
}

func (s ExtensionSet) Union(o ExtensionSet) ExtensionSet {
	return s | o
}

func (s ExtensionSet) Len() int {
	return bits.OnesCount8(uint8(s))
}

func (s ExtensionSet) String() string {
	var names []string
	for e := Extension(0); e < numExtensions; e++ {
		if s.Has(e) {
			names = append(names, e.String())
		}
	}
	return strings.Join(names, ", ")
}

// Requires is an encoding's applicability predicate. A zero Versions set
// places no constraint on the version.
type Requires struct {
	Versions   VersionSet
	Extensions ExtensionSet
}

// Since returns a predicate satisfied by v and every later version, with
// all of the given extensions present.
func Since(v Version, exts ...Extension) Requires {
	return Requires{
		Versions:   VersionsFrom(v),
		Extensions: Extensions(exts...),
	}
}

func (r Requires) Satisfied(v Version, exts ExtensionSet) bool {
	if r.Versions != 0 && !r.Versions.Has(v) {
		return false
	}
	return exts.HasAll(r.Extensions)
}

func (r Requires) String() string {
	var parts []string
	if r.Versions != 0 {
		parts = append(parts, "versions: "+r.Versions.String())
	}
	if r.Extensions != 0 {
		parts = append(parts, "extensions: "+r.Extensions.String())
	}
	if len(parts) == 0 {
		return "always"
	}
	return strings.Join(parts, "; ")
}
