// Package facts extracts class/method/field facts and dependency edges
// from compiled bytecode inputs, building the immutable fact index the
// rest of the engine queries (spec.md §3, §4.4). Origin discovery — which
// bytecode roots and archives feed the extractor — lives here too, since
// scanning and extraction are one component (spec.md §4.4).
package facts

import "shamash/internal/classfile"

// OriginKind discriminates where a class's bytes came from.
type OriginKind string

const (
	OriginDirectoryClass OriginKind = "directory-class"
	OriginArchiveEntry   OriginKind = "archive-entry"
)

// SourceLocation is always stored normalized (spec.md §3).
type SourceLocation struct {
	OriginKind     OriginKind
	OriginPath     string
	ContainerPath  string // archive path, set only for OriginArchiveEntry
	EntryPath      string // entry inside the archive, set only for OriginArchiveEntry
	SourceFileName string
	Line           int // 0 means unknown
}

// ID is the location's stable identity for FactsError.OriginID: the
// archive-entry pair when present, else the bare origin path.
func (l SourceLocation) ID() string {
	if l.OriginKind == OriginArchiveEntry {
		return l.ContainerPath + "!" + l.EntryPath
	}
	return l.OriginPath
}

// ClassFact is one declared class, interface, enum, or annotation type.
type ClassFact struct {
	Type          classfile.TypeRef
	AccessFlags   int
	Super         *classfile.TypeRef
	Interfaces    []classfile.TypeRef
	Annotations   []string
	HasMainMethod bool
	Location      SourceLocation
	Package       string
	SimpleName    string
}

// MethodFact is one declared method, including synthetic constructors.
type MethodFact struct {
	Owner         classfile.TypeRef
	Name          string
	Descriptor    string
	Signature     string
	AccessFlags   int
	IsConstructor bool
	Return        classfile.TypeRef
	Params        []classfile.TypeRef
	Throws        []classfile.TypeRef
	Annotations   []string
	Visibility    classfile.Visibility
}

// FieldFact is one declared field.
type FieldFact struct {
	Owner       classfile.TypeRef
	Name        string
	Descriptor  string
	Signature   string
	AccessFlags int
	Type        classfile.TypeRef
	Annotations []string
	Visibility  classfile.Visibility
}

// DependencyEdge is one directed reference from a class to a type,
// discriminated by the point in the class file where it was discovered
// (spec.md §4.4). Self-loops and primitive/void targets are excluded by
// the builder, never by downstream consumers (spec.md §3 invariant).
type DependencyEdge struct {
	From     classfile.TypeRef
	To       classfile.TypeRef
	Kind     classfile.DependencyKind
	Detail   string
	Location SourceLocation
}
