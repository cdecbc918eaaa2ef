package classfile

// DependencyKind discriminates a dependency edge by the instruction or
// descriptor position at which the type reference was discovered
// (spec.md §4.4, §9 design note (a)). This is the union of the dependency
// kinds observed across both source lineages.
type DependencyKind string

const (
	KindExtends       DependencyKind = "EXTENDS"
	KindImplements    DependencyKind = "IMPLEMENTS"
	KindFieldType     DependencyKind = "FIELD_TYPE"
	KindMethodCall    DependencyKind = "METHOD_CALL"
	KindParameterType DependencyKind = "PARAMETER_TYPE"
	KindReturnType    DependencyKind = "RETURN_TYPE"
	KindAnnotationType DependencyKind = "ANNOTATION_TYPE"
	KindThrows        DependencyKind = "THROWS"
	KindInstanceof    DependencyKind = "INSTANCEOF"
	KindNew           DependencyKind = "NEW"
)

// ClassStartEvent carries everything known about the class before its
// members are visited.
type ClassStartEvent struct {
	This        TypeRef
	Super       *TypeRef // nil only for java/lang/Object
	Interfaces  []TypeRef
	AccessFlags int
	MinorVersion uint16
	MajorVersion uint16
}

// FieldEvent describes one declared field.
type FieldEvent struct {
	Name        string
	Descriptor  string
	Signature   string
	AccessFlags int
	Type        TypeRef
}

// MethodStartEvent describes one declared method, including constructors
// (both `<init>` and the synthetic `<clinit>` are reported).
type MethodStartEvent struct {
	Name          string
	Descriptor    string
	Signature     string
	AccessFlags   int
	IsConstructor bool
	Params        []TypeRef
	Return        TypeRef
	Throws        []TypeRef
	HasCode       bool
}

// DependencyEvent is one type reference discovered while walking a
// method's instruction stream.
type DependencyEvent struct {
	Kind   DependencyKind
	Target TypeRef
	Detail string // e.g. the called method's name, for METHOD_CALL
	Offset int
}

// Visitor receives the streaming decode events for a single class file.
// Implementations accumulate events into fact records (internal/facts);
// classfile itself holds no domain model beyond TypeRef.
type Visitor interface {
	VisitClassStart(ev ClassStartEvent)
	VisitClassAnnotation(fqn string)
	VisitField(ev FieldEvent)
	VisitFieldAnnotation(fieldName string, fqn string)
	VisitMethodStart(ev MethodStartEvent)
	VisitMethodAnnotation(methodName, descriptor, fqn string)
	VisitInstruction(methodName, descriptor string, ev DependencyEvent)
	VisitMethodEnd(methodName, descriptor string)
	VisitClassEnd()
}
