package classfile

import (
	"errors"
	"fmt"
	"io"
)

// ErrBadMagic is returned when the input does not begin with the class
// file magic number.
var ErrBadMagic = errors.New("classfile: bad magic number")

// Parse streams r as a single class file and replays its structure onto
// v. It never materializes a full AST: the constant pool is held in full,
// since every later reference indexes into it, and each attribute body is
// buffered only while that one attribute is decoded.
func Parse(r io.Reader, v Visitor) error {
	br := newByteReader(r)

	magic, err := br.u4()
	if err != nil {
		return err
	}
	if magic != Magic {
		return ErrBadMagic
	}

	minor, err := br.u2()
	if err != nil {
		return err
	}
	major, err := br.u2()
	if err != nil {
		return err
	}

	pool, err := readConstantPool(br)
	if err != nil {
		return err
	}

	accessFlags, err := br.u2()
	if err != nil {
		return err
	}
	thisIdx, err := br.u2()
	if err != nil {
		return err
	}
	superIdx, err := br.u2()
	if err != nil {
		return err
	}

	thisName, err := pool.ClassInternalName(thisIdx)
	if err != nil {
		return fmt.Errorf("this_class: %w", err)
	}
	var super *TypeRef
	if superIdx != 0 {
		superName, err := pool.ClassInternalName(superIdx)
		if err != nil {
			return fmt.Errorf("super_class: %w", err)
		}
		t := classRefToType(superName)
		super = &t
	}

	interfacesCount, err := br.u2()
	if err != nil {
		return err
	}
	interfaces := make([]TypeRef, 0, interfacesCount)
	for i := 0; i < int(interfacesCount); i++ {
		idx, err := br.u2()
		if err != nil {
			return err
		}
		name, err := pool.ClassInternalName(idx)
		if err != nil {
			return fmt.Errorf("interfaces[%d]: %w", i, err)
		}
		interfaces = append(interfaces, classRefToType(name))
	}

	v.VisitClassStart(ClassStartEvent{
		This:         classRefToType(thisName),
		Super:        super,
		Interfaces:   interfaces,
		AccessFlags:  int(accessFlags),
		MinorVersion: minor,
		MajorVersion: major,
	})

	fieldsCount, err := br.u2()
	if err != nil {
		return err
	}
	for i := 0; i < int(fieldsCount); i++ {
		if err := readField(br, pool, v); err != nil {
			return fmt.Errorf("fields[%d]: %w", i, err)
		}
	}

	methodsCount, err := br.u2()
	if err != nil {
		return err
	}
	for i := 0; i < int(methodsCount); i++ {
		if err := readMethod(br, pool, v); err != nil {
			return fmt.Errorf("methods[%d]: %w", i, err)
		}
	}

	if err := readClassAttributes(br, pool, v); err != nil {
		return fmt.Errorf("class attributes: %w", err)
	}

	v.VisitClassEnd()
	return nil
}

func readConstantPool(br *byteReader) (*ConstantPool, error) {
	count, err := br.u2()
	if err != nil {
		return nil, err
	}
	pool := newConstantPool(int(count))

	for i := 1; i < int(count); i++ {
		tag, err := br.u1()
		if err != nil {
			return nil, fmt.Errorf("constant_pool[%d] tag: %w", i, err)
		}
		switch tag {
		case tagUtf8:
			length, err := br.u2()
			if err != nil {
				return nil, err
			}
			raw, err := br.bytes(int(length))
			if err != nil {
				return nil, err
			}
			pool.set(i, cpEntry{tag: tag, utf8: string(raw)})
		case tagInteger, tagFloat:
			if err := br.skip(4); err != nil {
				return nil, err
			}
			pool.set(i, cpEntry{tag: tag})
		case tagLong, tagDouble:
			if err := br.skip(8); err != nil {
				return nil, err
			}
			pool.set(i, cpEntry{tag: tag})
			i++ // occupies two slots
		case tagClass, tagMethodType, tagModule, tagPackage:
			idx, err := br.u2()
			if err != nil {
				return nil, err
			}
			pool.set(i, cpEntry{tag: tag, nameIdx: idx})
		case tagString:
			if err := br.skip(2); err != nil {
				return nil, err
			}
			pool.set(i, cpEntry{tag: tag})
		case tagFieldref, tagMethodref, tagInterfaceMethodref:
			classIdx, err := br.u2()
			if err != nil {
				return nil, err
			}
			natIdx, err := br.u2()
			if err != nil {
				return nil, err
			}
			pool.set(i, cpEntry{tag: tag, classIdx: classIdx, natIdx: natIdx})
		case tagNameAndType:
			nameIdx, err := br.u2()
			if err != nil {
				return nil, err
			}
			descIdx, err := br.u2()
			if err != nil {
				return nil, err
			}
			pool.set(i, cpEntry{tag: tag, natNameIdx: nameIdx, natDescIdx: descIdx})
		case tagMethodHandle:
			if err := br.skip(3); err != nil {
				return nil, err
			}
			pool.set(i, cpEntry{tag: tag})
		case tagDynamic, tagInvokeDynamic:
			if err := br.skip(4); err != nil {
				return nil, err
			}
			pool.set(i, cpEntry{tag: tag})
		default:
			return nil, fmt.Errorf("constant_pool[%d]: unknown tag %d", i, tag)
		}
	}
	return pool, nil
}

func readField(br *byteReader, pool *ConstantPool, v Visitor) error {
	accessFlags, err := br.u2()
	if err != nil {
		return err
	}
	nameIdx, err := br.u2()
	if err != nil {
		return err
	}
	descIdx, err := br.u2()
	if err != nil {
		return err
	}
	name, err := pool.Utf8(nameIdx)
	if err != nil {
		return err
	}
	descriptor, err := pool.Utf8(descIdx)
	if err != nil {
		return err
	}

	var signature string
	var annotations []string
	if err := readAttributes(br, pool, func(attrName string, data []byte) error {
		switch attrName {
		case attrSignature:
			s, err := attributeUtf8(pool, data)
			if err != nil {
				return err
			}
			signature = s
		case attrRuntimeVisibleAnnotations:
			fqns, err := parseAnnotations(pool, data)
			if err != nil {
				return err
			}
			annotations = fqns
		}
		return nil
	}); err != nil {
		return err
	}

	fieldType, err := ParseFieldDescriptor(descriptor)
	if err != nil {
		return fmt.Errorf("field %s descriptor: %w", name, err)
	}

	v.VisitField(FieldEvent{
		Name: name, Descriptor: descriptor, Signature: signature,
		AccessFlags: int(accessFlags), Type: fieldType,
	})
	for _, fqn := range annotations {
		v.VisitFieldAnnotation(name, fqn)
	}
	return nil
}

func readMethod(br *byteReader, pool *ConstantPool, v Visitor) error {
	accessFlags, err := br.u2()
	if err != nil {
		return err
	}
	nameIdx, err := br.u2()
	if err != nil {
		return err
	}
	descIdx, err := br.u2()
	if err != nil {
		return err
	}
	name, err := pool.Utf8(nameIdx)
	if err != nil {
		return err
	}
	descriptor, err := pool.Utf8(descIdx)
	if err != nil {
		return err
	}

	params, ret, err := ParseMethodDescriptor(descriptor)
	if err != nil {
		return fmt.Errorf("method %s descriptor: %w", name, err)
	}

	var signature string
	var throws []TypeRef
	var annotations []string
	var code []byte
	hasCode := false

	if err := readAttributes(br, pool, func(attrName string, data []byte) error {
		switch attrName {
		case attrSignature:
			s, err := attributeUtf8(pool, data)
			if err != nil {
				return err
			}
			signature = s
		case attrRuntimeVisibleAnnotations:
			fqns, err := parseAnnotations(pool, data)
			if err != nil {
				return err
			}
			annotations = fqns
		case attrExceptions:
			ts, err := parseExceptions(pool, data)
			if err != nil {
				return err
			}
			throws = ts
		case attrCode:
			hasCode = true
			code, err = extractCodeBytes(data)
			if err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}

	v.VisitMethodStart(MethodStartEvent{
		Name: name, Descriptor: descriptor, Signature: signature,
		AccessFlags: int(accessFlags), IsConstructor: name == "<init>" || name == "<clinit>",
		Params: params, Return: ret, Throws: throws, HasCode: hasCode,
	})
	for _, fqn := range annotations {
		v.VisitMethodAnnotation(name, descriptor, fqn)
	}
	if hasCode {
		walkInstructions(code, pool, func(ev DependencyEvent) {
			v.VisitInstruction(name, descriptor, ev)
		})
	}
	v.VisitMethodEnd(name, descriptor)
	return nil
}

func readClassAttributes(br *byteReader, pool *ConstantPool, v Visitor) error {
	return readAttributes(br, pool, func(attrName string, data []byte) error {
		switch attrName {
		case attrRuntimeVisibleAnnotations:
			fqns, err := parseAnnotations(pool, data)
			if err != nil {
				return err
			}
			for _, fqn := range fqns {
				v.VisitClassAnnotation(fqn)
			}
		}
		return nil
	})
}

// readAttributes reads an attributes_count + attribute[] section, invoking
// handle for every attribute with its fully-buffered info bytes.
func readAttributes(br *byteReader, pool *ConstantPool, handle func(name string, data []byte) error) error {
	count, err := br.u2()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		nameIdx, err := br.u2()
		if err != nil {
			return err
		}
		length, err := br.u4()
		if err != nil {
			return err
		}
		data, err := br.bytes(int(length))
		if err != nil {
			return err
		}
		name, err := pool.Utf8(nameIdx)
		if err != nil {
			return err
		}
		if err := handle(name, data); err != nil {
			return fmt.Errorf("attribute %s: %w", name, err)
		}
	}
	return nil
}

func attributeUtf8(pool *ConstantPool, data []byte) (string, error) {
	if len(data) < 2 {
		return "", fmt.Errorf("truncated attribute")
	}
	idx := be16(data)
	return pool.Utf8(idx)
}

func parseExceptions(pool *ConstantPool, data []byte) ([]TypeRef, error) {
	if len(data) < 2 {
		return nil, nil
	}
	n := int(be16(data))
	out := make([]TypeRef, 0, n)
	for i := 0; i < n; i++ {
		off := 2 + i*2
		if off+2 > len(data) {
			break
		}
		idx := be16(data[off : off+2])
		name, err := pool.ClassInternalName(idx)
		if err != nil {
			return nil, err
		}
		out = append(out, classRefToType(name))
	}
	return out, nil
}

// parseAnnotations parses a RuntimeVisibleAnnotations attribute body down
// to the FQN of each annotation type; it does not resolve element values,
// since the engine only ever matches by annotation FQN/prefix.
func parseAnnotations(pool *ConstantPool, data []byte) ([]string, error) {
	pos := 0
	readU2 := func() (uint16, bool) {
		if pos+2 > len(data) {
			return 0, false
		}
		v := be16(data[pos : pos+2])
		pos += 2
		return v, true
	}
	n, ok := readU2()
	if !ok {
		return nil, nil
	}
	out := make([]string, 0, n)
	for i := 0; i < int(n); i++ {
		typeIdx, ok := readU2()
		if !ok {
			break
		}
		descriptor, err := pool.Utf8(typeIdx)
		if err != nil {
			return nil, err
		}
		t, err := ParseFieldDescriptor(descriptor)
		if err != nil {
			return nil, err
		}
		out = append(out, t.FQN)

		numPairs, ok := readU2()
		if !ok {
			break
		}
		for p := 0; p < int(numPairs); p++ {
			if _, ok := readU2(); !ok { // element_name_index
				break
			}
			var err error
			pos, err = skipElementValue(data, pos)
			if err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// skipElementValue advances past one annotation element_value, per JVM
// spec §4.7.16.1. Nested annotations and arrays recurse.
func skipElementValue(data []byte, pos int) (int, error) {
	if pos >= len(data) {
		return pos, fmt.Errorf("truncated element_value")
	}
	tag := data[pos]
	pos++
	switch tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 's', 'c':
		return pos + 2, nil
	case 'e':
		return pos + 4, nil
	case '@':
		if pos+2 > len(data) {
			return pos, fmt.Errorf("truncated nested annotation")
		}
		pos += 2 // type_index
		numPairs := int(be16(data[pos : pos+2]))
		pos += 2
		for i := 0; i < numPairs; i++ {
			pos += 2 // element_name_index
			var err error
			pos, err = skipElementValue(data, pos)
			if err != nil {
				return pos, err
			}
		}
		return pos, nil
	case '[':
		if pos+2 > len(data) {
			return pos, fmt.Errorf("truncated array element_value")
		}
		count := int(be16(data[pos : pos+2]))
		pos += 2
		for i := 0; i < count; i++ {
			var err error
			pos, err = skipElementValue(data, pos)
			if err != nil {
				return pos, err
			}
		}
		return pos, nil
	default:
		return pos, fmt.Errorf("unknown element_value tag %q", tag)
	}
}

// extractCodeBytes pulls the raw bytecode slice out of a Code attribute's
// buffered body (max_stack, max_locals, code_length, code[]...).
func extractCodeBytes(data []byte) ([]byte, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("truncated Code attribute")
	}
	codeLength := int(be32(data[4:8]))
	if 8+codeLength > len(data) {
		return nil, fmt.Errorf("Code attribute code_length overruns attribute body")
	}
	return data[8 : 8+codeLength], nil
}

// HasMainMethod reports whether a public static method named "main" with
// descriptor "([Ljava/lang/String;)V" was visited (spec.md §3, Class fact
// "has-main-method flag").
func HasMainMethod(accessFlags int, name, descriptor string) bool {
	const required = AccPublic | AccStatic
	return accessFlags&required == required && name == "main" && descriptor == "([Ljava/lang/String;)V"
}

// walkInstructions decodes code's instruction stream, emitting a
// DependencyEvent for every opcode that references a type through the
// constant pool. Two resolution shapes exist: "new"/"anewarray"/
// "instanceof" reference a bare CONSTANT_Class entry directly; field and
// method instructions reference a Fieldref/Methodref/InterfaceMethodref
// entry, whose owning class is the dependency target.
func walkInstructions(code []byte, pool *ConstantPool, emit func(DependencyEvent)) {
	for pos := 0; pos < len(code); {
		opcode := code[pos]
		opStart := pos
		pos++

		operandLen := instructionLength(opcode, opStart, code, pos)
		if operandLen < 0 {
			operandLen = 0
		}

		if ev, ok := dependencyAt(opcode, code, pos, pool, opStart); ok {
			emit(ev)
		}

		pos += operandLen
	}
}

// dependencyAt resolves the dependency (if any) carried by opcode's
// operand, which begins at pos (just past the opcode byte).
func dependencyAt(opcode byte, code []byte, pos int, pool *ConstantPool, opStart int) (DependencyEvent, bool) {
	idx := cpIndexForOpcode(opcode, code, pos)
	if idx == 0 {
		return DependencyEvent{}, false
	}

	switch opcode {
	case opNew, opAnewarray, opInstanceof:
		name, err := pool.ClassRefAt(idx)
		if err != nil || name == "" {
			return DependencyEvent{}, false
		}
		kind := KindInstanceof
		if opcode != opInstanceof {
			kind = KindNew
		}
		return DependencyEvent{Kind: kind, Target: classRefToType(name), Offset: opStart}, true

	case opInvokevirtual, opInvokespecial, opInvokestatic, opInvokeinterface:
		owner, name, _, err := pool.MemberRef(idx)
		if err != nil || owner == "" {
			return DependencyEvent{}, false
		}
		return DependencyEvent{Kind: KindMethodCall, Target: classRefToType(owner), Detail: name, Offset: opStart}, true

	case opGetfield, opPutfield, opGetstatic, opPutstatic:
		owner, name, _, err := pool.MemberRef(idx)
		if err != nil || owner == "" {
			return DependencyEvent{}, false
		}
		return DependencyEvent{Kind: KindFieldType, Target: classRefToType(owner), Detail: name, Offset: opStart}, true

	default:
		// checkcast and invokedynamic deliberately carry no dependency edge:
		// checkcast is a narrowing cast already implied by assignment context,
		// and invokedynamic's call site target is resolved by a bootstrap
		// method this extractor does not evaluate.
		return DependencyEvent{}, false
	}
}
