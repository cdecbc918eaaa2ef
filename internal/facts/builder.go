package facts

import "shamash/internal/classfile"

// classBuilder implements classfile.Visitor, accumulating one class's
// events into fact records. It owns no state across classes.
type classBuilder struct {
	location SourceLocation

	class   ClassFact
	methods []MethodFact
	fields  []FieldFact
	edges   []DependencyEdge

	currentMethod  *MethodFact
	methodsByKey   map[string]*MethodFact // "name\x00descriptor" -> pointer into methods
	mainMethodSeen bool
}

func newClassBuilder(loc SourceLocation) *classBuilder {
	return &classBuilder{location: loc, methodsByKey: make(map[string]*MethodFact)}
}

func (b *classBuilder) VisitClassStart(ev classfile.ClassStartEvent) {
	pkg, simple := splitPackage(ev.This.FQN)
	b.class = ClassFact{
		Type:        ev.This,
		AccessFlags: ev.AccessFlags,
		Super:       ev.Super,
		Interfaces:  ev.Interfaces,
		Location:    b.location,
		Package:     pkg,
		SimpleName:  simple,
	}
	if ev.Super != nil {
		b.addEdge(ev.This, *ev.Super, classfile.KindExtends, "")
	}
	for _, iface := range ev.Interfaces {
		b.addEdge(ev.This, iface, classfile.KindImplements, "")
	}
}

func (b *classBuilder) VisitClassAnnotation(fqn string) {
	b.class.Annotations = append(b.class.Annotations, fqn)
	b.addEdge(b.class.Type, fqnType(fqn), classfile.KindAnnotationType, "")
}

func (b *classBuilder) VisitField(ev classfile.FieldEvent) {
	f := FieldFact{
		Owner: b.class.Type, Name: ev.Name, Descriptor: ev.Descriptor,
		Signature: ev.Signature, AccessFlags: ev.AccessFlags, Type: ev.Type,
		Visibility: classfile.VisibilityOf(ev.AccessFlags),
	}
	b.fields = append(b.fields, f)
	b.addEdge(b.class.Type, ev.Type, classfile.KindFieldType, ev.Name)
}

func (b *classBuilder) VisitFieldAnnotation(fieldName, fqn string) {
	for i := range b.fields {
		if b.fields[i].Name == fieldName {
			b.fields[i].Annotations = append(b.fields[i].Annotations, fqn)
		}
	}
	b.addEdge(b.class.Type, fqnType(fqn), classfile.KindAnnotationType, fieldName)
}

func (b *classBuilder) VisitMethodStart(ev classfile.MethodStartEvent) {
	if classfile.HasMainMethod(ev.AccessFlags, ev.Name, ev.Descriptor) {
		b.mainMethodSeen = true
	}
	m := MethodFact{
		Owner: b.class.Type, Name: ev.Name, Descriptor: ev.Descriptor,
		Signature: ev.Signature, AccessFlags: ev.AccessFlags, IsConstructor: ev.IsConstructor,
		Return: ev.Return, Params: ev.Params, Throws: ev.Throws,
		Visibility: classfile.VisibilityOf(ev.AccessFlags),
	}
	b.methods = append(b.methods, m)
	b.currentMethod = &b.methods[len(b.methods)-1]
	b.methodsByKey[methodKey(ev.Name, ev.Descriptor)] = b.currentMethod

	if !ev.Return.IsPrimitive {
		b.addEdge(b.class.Type, ev.Return, classfile.KindReturnType, ev.Name)
	}
	for _, p := range ev.Params {
		if !p.IsPrimitive {
			b.addEdge(b.class.Type, p, classfile.KindParameterType, ev.Name)
		}
	}
	for _, th := range ev.Throws {
		b.addEdge(b.class.Type, th, classfile.KindThrows, ev.Name)
	}
}

func (b *classBuilder) VisitMethodAnnotation(methodName, descriptor, fqn string) {
	if m, ok := b.methodsByKey[methodKey(methodName, descriptor)]; ok {
		m.Annotations = append(m.Annotations, fqn)
	}
	b.addEdge(b.class.Type, fqnType(fqn), classfile.KindAnnotationType, methodName)
}

func (b *classBuilder) VisitInstruction(_, _ string, ev classfile.DependencyEvent) {
	b.addEdge(b.class.Type, ev.Target, ev.Kind, ev.Detail)
}

func (b *classBuilder) VisitMethodEnd(string, string) { b.currentMethod = nil }

func (b *classBuilder) VisitClassEnd() {
	b.class.HasMainMethod = b.mainMethodSeen
}

// addEdge records a dependency edge, dropping self-loops and
// primitive/void targets per spec.md §3's invariant.
func (b *classBuilder) addEdge(from, to classfile.TypeRef, kind classfile.DependencyKind, detail string) {
	if to.IsPrimitive || to.InternalName == "" {
		return
	}
	if to.InternalName == from.InternalName {
		return
	}
	b.edges = append(b.edges, DependencyEdge{
		From: from, To: to, Kind: kind, Detail: detail, Location: b.location,
	})
}

func methodKey(name, descriptor string) string { return name + "\x00" + descriptor }

func fqnType(fqn string) classfile.TypeRef {
	pkg, simple := splitPackage(fqn)
	return classfile.TypeRef{
		InternalName: internalNameOf(fqn),
		FQN:          fqn,
		Package:      pkg,
		SimpleName:   simple,
	}
}

func internalNameOf(fqn string) string {
	out := make([]byte, len(fqn))
	for i := 0; i < len(fqn); i++ {
		if fqn[i] == '.' {
			out[i] = '/'
		} else {
			out[i] = fqn[i]
		}
	}
	return string(out)
}

func splitPackage(fqn string) (pkg, simple string) {
	idx := -1
	for i := len(fqn) - 1; i >= 0; i-- {
		if fqn[i] == '.' {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", fqn
	}
	return fqn[:idx], fqn[idx+1:]
}
