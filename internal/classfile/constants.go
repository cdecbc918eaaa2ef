// Package classfile streams standard JVM class files (magic CAFEBABE)
// without materializing a full AST: Parse walks the constant pool, fields,
// methods, and attribute sections directly off the byte stream and emits
// typed events to a Visitor (spec.md §9, "Extractor visitor protocol"),
// which internal/facts accumulates into class/method/field facts and
// dependency edges.
package classfile

// Magic is the fixed four-byte class-file signature.
const Magic uint32 = 0xCAFEBABE

// Constant pool entry tags (JVM spec §4.4).
const (
	tagUtf8              = 1
	tagInteger           = 3
	tagFloat             = 4
	tagLong              = 5
	tagDouble            = 6
	tagClass             = 7
	tagString            = 8
	tagFieldref          = 9
	tagMethodref         = 10
	tagInterfaceMethodref = 11
	tagNameAndType       = 12
	tagMethodHandle      = 15
	tagMethodType        = 16
	tagDynamic           = 17
	tagInvokeDynamic     = 18
	tagModule            = 19
	tagPackage           = 20
)

// Access flags (JVM spec §4.1, §4.5, §4.6), the subset the fact extractor
// cares about.
const (
	AccPublic     = 0x0001
	AccPrivate    = 0x0002
	AccProtected  = 0x0004
	AccStatic     = 0x0008
	AccFinal      = 0x0010
	AccSuper      = 0x0020
	AccInterface  = 0x0200
	AccAbstract   = 0x0400
	AccSynthetic  = 0x1000
	AccAnnotation = 0x2000
	AccEnum       = 0x4000
)

// Attribute names the extractor understands; all others are skipped by
// length.
const (
	attrCode                      = "Code"
	attrSignature                 = "Signature"
	attrExceptions                = "Exceptions"
	attrRuntimeVisibleAnnotations = "RuntimeVisibleAnnotations"
)

// Visibility is derived from a member's access flags (spec.md §3, Method
// fact / Field fact).
type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityProtected Visibility = "protected"
	VisibilityPrivate   Visibility = "private"
	VisibilityPackage   Visibility = "package"
)

// VisibilityOf derives a member's Visibility from its raw access flags.
func VisibilityOf(accessFlags int) Visibility {
	switch {
	case accessFlags&AccPublic != 0:
		return VisibilityPublic
	case accessFlags&AccProtected != 0:
		return VisibilityProtected
	case accessFlags&AccPrivate != 0:
		return VisibilityPrivate
	default:
		return VisibilityPackage
	}
}
