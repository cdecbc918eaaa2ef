package classfile

import "fmt"

// cpEntry is one raw constant-pool slot. Only the fields relevant to a
// given tag are populated.
type cpEntry struct {
	tag        uint8
	utf8       string
	nameIdx    uint16 // Class, MethodType, Module, Package
	classIdx   uint16 // Fieldref/Methodref/InterfaceMethodref
	natIdx     uint16 // Fieldref/Methodref/InterfaceMethodref -> NameAndType
	natNameIdx uint16 // NameAndType -> name
	natDescIdx uint16 // NameAndType -> descriptor
}

// ConstantPool resolves indices into the class file's constant pool into
// usable strings. Index 0 is unused, per the JVM spec; Long/Double entries
// occupy two consecutive slots, the second left as a tombstone.
type ConstantPool struct {
	entries []cpEntry // 1-based; entries[0] is the unused slot
}

func newConstantPool(size int) *ConstantPool {
	return &ConstantPool{entries: make([]cpEntry, size)}
}

func (p *ConstantPool) set(i int, e cpEntry) {
	if i >= 0 && i < len(p.entries) {
		p.entries[i] = e
	}
}

func (p *ConstantPool) entry(i uint16) (cpEntry, bool) {
	if int(i) >= len(p.entries) {
		return cpEntry{}, false
	}
	return p.entries[i], true
}

// Utf8 resolves a CONSTANT_Utf8 entry to its string value.
func (p *ConstantPool) Utf8(i uint16) (string, error) {
	e, ok := p.entry(i)
	if !ok || e.tag != tagUtf8 {
		return "", fmt.Errorf("constant pool index %d is not Utf8", i)
	}
	return e.utf8, nil
}

// ClassInternalName resolves a CONSTANT_Class entry to its internal name
// (e.g. "java/lang/Object").
func (p *ConstantPool) ClassInternalName(i uint16) (string, error) {
	if i == 0 {
		return "", nil
	}
	e, ok := p.entry(i)
	if !ok || e.tag != tagClass {
		return "", fmt.Errorf("constant pool index %d is not Class", i)
	}
	return p.Utf8(e.nameIdx)
}

// NameAndType resolves a CONSTANT_NameAndType entry to its (name,
// descriptor) pair.
func (p *ConstantPool) NameAndType(i uint16) (name, descriptor string, err error) {
	e, ok := p.entry(i)
	if !ok || e.tag != tagNameAndType {
		return "", "", fmt.Errorf("constant pool index %d is not NameAndType", i)
	}
	name, err = p.Utf8(e.natNameIdx)
	if err != nil {
		return "", "", err
	}
	descriptor, err = p.Utf8(e.natDescIdx)
	return name, descriptor, err
}

// MemberRef resolves a Fieldref/Methodref/InterfaceMethodref entry to the
// owning class's internal name plus the member's (name, descriptor).
func (p *ConstantPool) MemberRef(i uint16) (owner, name, descriptor string, err error) {
	e, ok := p.entry(i)
	if !ok || (e.tag != tagFieldref && e.tag != tagMethodref && e.tag != tagInterfaceMethodref) {
		return "", "", "", fmt.Errorf("constant pool index %d is not a member reference", i)
	}
	owner, err = p.ClassInternalName(e.classIdx)
	if err != nil {
		return "", "", "", err
	}
	name, descriptor, err = p.NameAndType(e.natIdx)
	return owner, name, descriptor, err
}

// ClassRefAt resolves any constant-pool index that may denote a
// CONSTANT_Class (used directly by new/checkcast/instanceof/anewarray
// operands). Returns ("", nil) if the slot is not a Class entry.
func (p *ConstantPool) ClassRefAt(i uint16) (string, error) {
	e, ok := p.entry(i)
	if !ok {
		return "", fmt.Errorf("constant pool index %d out of range", i)
	}
	if e.tag != tagClass {
		return "", nil
	}
	return p.Utf8(e.nameIdx)
}
