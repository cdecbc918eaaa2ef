package classfile

import "strings"

// TypeRef is the canonical JVM type identity shared by every fact and
// dependency edge in the engine (spec.md §3, "Type reference"). Arrays
// normalize to their element type with IsArray set; primitives and void
// are callers' responsibility to filter (spec.md §4.4: "Primitive and
// void types are filtered out").
type TypeRef struct {
	InternalName string // slash-separated, e.g. "java/lang/Object"; empty for primitives
	FQN          string // dot-separated, e.g. "java.lang.Object"; primitive name for primitives
	Package      string // dot-separated; empty for primitives and default-package classes
	SimpleName   string
	IsArray      bool
	IsPrimitive  bool
}

var primitiveNames = map[byte]string{
	'B': "byte", 'C': "char", 'D': "double", 'F': "float",
	'I': "int", 'J': "long", 'S': "short", 'Z': "boolean",
}

// classRefToType converts a resolved internal class name (no leading
// array/descriptor syntax) into a TypeRef.
func classRefToType(internalName string) TypeRef {
	fqn := strings.ReplaceAll(internalName, "/", ".")
	pkg, simple := splitFQN(fqn)
	return TypeRef{
		InternalName: internalName,
		FQN:          fqn,
		Package:      pkg,
		SimpleName:   simple,
	}
}

func splitFQN(fqn string) (pkg, simple string) {
	idx := strings.LastIndex(fqn, ".")
	if idx < 0 {
		return "", fqn
	}
	return fqn[:idx], fqn[idx+1:]
}

// ParseFieldDescriptor parses a single JVM field descriptor (e.g. "I",
// "Ljava/lang/String;", "[[I") into its normalized TypeRef: arrays
// normalize to their element type with IsArray set.
func ParseFieldDescriptor(descriptor string) (TypeRef, error) {
	t, _, err := parseType(descriptor, 0)
	return t, err
}

// ParseMethodDescriptor parses a JVM method descriptor
// ("(ILjava/lang/String;)V") into its ordered parameter types and return
// type.
func ParseMethodDescriptor(descriptor string) (params []TypeRef, ret TypeRef, err error) {
	if len(descriptor) == 0 || descriptor[0] != '(' {
		return nil, TypeRef{}, errInvalidDescriptor(descriptor)
	}
	i := 1
	for i < len(descriptor) && descriptor[i] != ')' {
		var t TypeRef
		t, i, err = parseType(descriptor, i)
		if err != nil {
			return nil, TypeRef{}, err
		}
		params = append(params, t)
	}
	if i >= len(descriptor) {
		return nil, TypeRef{}, errInvalidDescriptor(descriptor)
	}
	ret, _, err = parseType(descriptor, i+1)
	return params, ret, err
}

func errInvalidDescriptor(d string) error {
	return &descriptorError{descriptor: d}
}

type descriptorError struct{ descriptor string }

func (e *descriptorError) Error() string {
	return "classfile: invalid descriptor " + e.descriptor
}

// parseType parses one type (primitive, array, or object) starting at i,
// returning the normalized TypeRef and the index just past it.
func parseType(descriptor string, i int) (TypeRef, int, error) {
	if i >= len(descriptor) {
		return TypeRef{}, i, errInvalidDescriptor(descriptor)
	}
	isArray := false
	start := i
	for i < len(descriptor) && descriptor[i] == '[' {
		isArray = true
		i++
	}
	if i >= len(descriptor) {
		return TypeRef{}, i, errInvalidDescriptor(descriptor)
	}
	switch descriptor[i] {
	case 'L':
		end := strings.IndexByte(descriptor[i:], ';')
		if end < 0 {
			return TypeRef{}, i, errInvalidDescriptor(descriptor)
		}
		internalName := descriptor[i+1 : i+end]
		t := classRefToType(internalName)
		t.IsArray = isArray
		return t, i + end + 1, nil
	case 'V':
		if isArray {
			return TypeRef{}, i, errInvalidDescriptor(descriptor)
		}
		return TypeRef{FQN: "void", SimpleName: "void", IsPrimitive: true}, i + 1, nil
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		name := primitiveNames[descriptor[i]]
		return TypeRef{FQN: name, SimpleName: name, IsPrimitive: true, IsArray: isArray}, i + 1, nil
	default:
		_ = start
		return TypeRef{}, i, errInvalidDescriptor(descriptor)
	}
}
