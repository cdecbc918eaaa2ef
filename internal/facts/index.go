package facts

// Index is the frozen fact index the rest of the engine queries. It is
// built once by Build and never mutated afterward (spec.md §3, §5:
// "the fact index is read-shared after freeze"). Collections are
// insertion-stable; derived maps key by FQN.
type Index struct {
	Classes []ClassFact
	Methods []MethodFact
	Fields  []FieldFact
	Edges   []DependencyEdge

	classByFQN     map[string]*ClassFact
	methodsByOwner map[string][]*MethodFact
	fieldsByOwner  map[string][]*FieldFact
	outgoing       map[string][]*DependencyEdge
	incoming       map[string][]*DependencyEdge
}

// Build freezes a set of per-class extraction results into a queryable
// Index, preserving the order in which classes were extracted.
func Build(classes []ClassResult) *Index {
	idx := &Index{
		classByFQN:     make(map[string]*ClassFact),
		methodsByOwner: make(map[string][]*MethodFact),
		fieldsByOwner:  make(map[string][]*FieldFact),
		outgoing:       make(map[string][]*DependencyEdge),
		incoming:       make(map[string][]*DependencyEdge),
	}
	for _, c := range classes {
		idx.Classes = append(idx.Classes, c.Class)
		idx.Methods = append(idx.Methods, c.Methods...)
		idx.Fields = append(idx.Fields, c.Fields...)
		idx.Edges = append(idx.Edges, c.Edges...)
	}
	for i := range idx.Classes {
		idx.classByFQN[idx.Classes[i].Type.FQN] = &idx.Classes[i]
	}
	for i := range idx.Methods {
		owner := idx.Methods[i].Owner.FQN
		idx.methodsByOwner[owner] = append(idx.methodsByOwner[owner], &idx.Methods[i])
	}
	for i := range idx.Fields {
		owner := idx.Fields[i].Owner.FQN
		idx.fieldsByOwner[owner] = append(idx.fieldsByOwner[owner], &idx.Fields[i])
	}
	for i := range idx.Edges {
		e := &idx.Edges[i]
		idx.outgoing[e.From.FQN] = append(idx.outgoing[e.From.FQN], e)
		idx.incoming[e.To.FQN] = append(idx.incoming[e.To.FQN], e)
	}
	return idx
}

// ClassByFQN looks up a declared class by fully-qualified name. Returns
// false for references to classes outside the scanned set (e.g. JDK or
// third-party library types) — those appear only as edge targets.
func (idx *Index) ClassByFQN(fqn string) (ClassFact, bool) {
	c, ok := idx.classByFQN[fqn]
	if !ok {
		return ClassFact{}, false
	}
	return *c, true
}

// MethodsOf returns the declared methods of a class, in declaration order.
func (idx *Index) MethodsOf(ownerFQN string) []MethodFact {
	ptrs := idx.methodsByOwner[ownerFQN]
	out := make([]MethodFact, len(ptrs))
	for i, p := range ptrs {
		out[i] = *p
	}
	return out
}

// FieldsOf returns the declared fields of a class, in declaration order.
func (idx *Index) FieldsOf(ownerFQN string) []FieldFact {
	ptrs := idx.fieldsByOwner[ownerFQN]
	out := make([]FieldFact, len(ptrs))
	for i, p := range ptrs {
		out[i] = *p
	}
	return out
}

// OutgoingEdges returns every dependency edge originating at fromFQN.
func (idx *Index) OutgoingEdges(fromFQN string) []DependencyEdge {
	return derefEdges(idx.outgoing[fromFQN])
}

// IncomingEdges returns every dependency edge targeting toFQN. Classes
// outside the scanned set accumulate incoming edges but never appear in
// Classes/ClassByFQN.
func (idx *Index) IncomingEdges(toFQN string) []DependencyEdge {
	return derefEdges(idx.incoming[toFQN])
}

// IsScanned reports whether fqn was itself extracted (as opposed to only
// appearing as an edge target, e.g. a JDK or third-party class).
func (idx *Index) IsScanned(fqn string) bool {
	_, ok := idx.classByFQN[fqn]
	return ok
}

func derefEdges(ptrs []*DependencyEdge) []DependencyEdge {
	out := make([]DependencyEdge, len(ptrs))
	for i, p := range ptrs {
		out[i] = *p
	}
	return out
}
