package classfile

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// cpBuilder accumulates constant-pool entries in the wire format and
// returns the assembled bytes; used only by tests to hand-build minimal,
// deterministic class files without depending on any Java toolchain.
type cpBuilder struct {
	buf   bytes.Buffer
	count uint16 // next free index; index 0 is unused
}

func newCPBuilder() *cpBuilder {
	return &cpBuilder{count: 1}
}

func (c *cpBuilder) u1(v uint8)  { c.buf.WriteByte(v) }
func (c *cpBuilder) u2(v uint16) { binary.Write(&c.buf, binary.BigEndian, v) }
func (c *cpBuilder) u4(v uint32) { binary.Write(&c.buf, binary.BigEndian, v) }

func (c *cpBuilder) utf8(s string) uint16 {
	idx := c.count
	c.u1(tagUtf8)
	c.u2(uint16(len(s)))
	c.buf.WriteString(s)
	c.count++
	return idx
}

func (c *cpBuilder) class(nameIdx uint16) uint16 {
	idx := c.count
	c.u1(tagClass)
	c.u2(nameIdx)
	c.count++
	return idx
}

func (c *cpBuilder) nameAndType(nameIdx, descIdx uint16) uint16 {
	idx := c.count
	c.u1(tagNameAndType)
	c.u2(nameIdx)
	c.u2(descIdx)
	c.count++
	return idx
}

func (c *cpBuilder) methodref(classIdx, natIdx uint16) uint16 {
	idx := c.count
	c.u1(tagMethodref)
	c.u2(classIdx)
	c.u2(natIdx)
	c.count++
	return idx
}

// classBuilder assembles a complete minimal class file around a
// cpBuilder's output.
type classBuilder struct {
	cp          *cpBuilder
	thisClass   uint16
	superClass  uint16
	accessFlags uint16
	methods     []methodBuilder
}

type methodBuilder struct {
	accessFlags uint16
	nameIdx     uint16
	descIdx     uint16
	code        []byte // nil means no Code attribute
	codeUtf8    uint16
}

func (b *classBuilder) bytes() []byte {
	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, Magic)
	binary.Write(&out, binary.BigEndian, uint16(0))  // minor
	binary.Write(&out, binary.BigEndian, uint16(52)) // major

	binary.Write(&out, binary.BigEndian, b.cp.count)
	out.Write(b.cp.buf.Bytes())

	binary.Write(&out, binary.BigEndian, b.accessFlags)
	binary.Write(&out, binary.BigEndian, b.thisClass)
	binary.Write(&out, binary.BigEndian, b.superClass)

	binary.Write(&out, binary.BigEndian, uint16(0)) // interfaces_count

	binary.Write(&out, binary.BigEndian, uint16(0)) // fields_count

	binary.Write(&out, binary.BigEndian, uint16(len(b.methods)))
	for _, m := range b.methods {
		binary.Write(&out, binary.BigEndian, m.accessFlags)
		binary.Write(&out, binary.BigEndian, m.nameIdx)
		binary.Write(&out, binary.BigEndian, m.descIdx)
		if m.code == nil {
			binary.Write(&out, binary.BigEndian, uint16(0)) // attributes_count
			continue
		}
		binary.Write(&out, binary.BigEndian, uint16(1)) // attributes_count
		binary.Write(&out, binary.BigEndian, m.codeUtf8)

		var codeAttr bytes.Buffer
		binary.Write(&codeAttr, binary.BigEndian, uint16(4)) // max_stack
		binary.Write(&codeAttr, binary.BigEndian, uint16(4)) // max_locals
		binary.Write(&codeAttr, binary.BigEndian, uint32(len(m.code)))
		codeAttr.Write(m.code)
		binary.Write(&codeAttr, binary.BigEndian, uint16(0)) // exception_table_length
		binary.Write(&codeAttr, binary.BigEndian, uint16(0)) // code attributes_count

		binary.Write(&out, binary.BigEndian, uint32(codeAttr.Len()))
		out.Write(codeAttr.Bytes())
	}
	binary.Write(&out, binary.BigEndian, uint16(0)) // class attributes_count
	return out.Bytes()
}

// recorder is a Visitor that accumulates every event for assertions.
type recorder struct {
	classStart  ClassStartEvent
	fields      []FieldEvent
	methods     []MethodStartEvent
	deps        []DependencyEvent
	classEnded  bool
}

func (r *recorder) VisitClassStart(ev ClassStartEvent)            { r.classStart = ev }
func (r *recorder) VisitClassAnnotation(string)                   {}
func (r *recorder) VisitField(ev FieldEvent)                      { r.fields = append(r.fields, ev) }
func (r *recorder) VisitFieldAnnotation(string, string)           {}
func (r *recorder) VisitMethodStart(ev MethodStartEvent)          { r.methods = append(r.methods, ev) }
func (r *recorder) VisitMethodAnnotation(string, string, string)  {}
func (r *recorder) VisitInstruction(_, _ string, ev DependencyEvent) {
	r.deps = append(r.deps, ev)
}
func (r *recorder) VisitMethodEnd(string, string) {}
func (r *recorder) VisitClassEnd()                { r.classEnded = true }

func buildMinimalClass(t *testing.T) ([]byte, *cpBuilder, map[string]uint16) {
	t.Helper()
	cp := newCPBuilder()
	ids := map[string]uint16{}

	ids["objectName"] = cp.utf8("java/lang/Object")
	ids["objectClass"] = cp.class(ids["objectName"])
	ids["thisName"] = cp.utf8("com/acme/Foo")
	ids["thisClass"] = cp.class(ids["thisName"])
	ids["initName"] = cp.utf8("<init>")
	ids["voidDesc"] = cp.utf8("()V")
	ids["codeAttr"] = cp.utf8("Code")
	ids["initNAT"] = cp.nameAndType(ids["initName"], ids["voidDesc"])
	ids["objectInit"] = cp.methodref(ids["objectClass"], ids["initNAT"])

	ids["listName"] = cp.utf8("java/util/ArrayList")
	ids["listClass"] = cp.class(ids["listName"])
	ids["listInit"] = cp.methodref(ids["listClass"], ids["initNAT"])
	ids["makeListName"] = cp.utf8("makeList")
	ids["makeListDesc"] = cp.utf8("()Ljava/util/ArrayList;")

	// <init>: aload_0, invokespecial Object.<init>, return
	ctorCode := []byte{
		0x2a,             // aload_0
		0xb7, byte(ids["objectInit"] >> 8), byte(ids["objectInit"]), // invokespecial
		0xb1, // return
	}
	// makeList: new ArrayList, dup, invokespecial ArrayList.<init>, areturn
	listCode := []byte{
		0xbb, byte(ids["listClass"] >> 8), byte(ids["listClass"]), // new
		0x59, // dup
		0xb7, byte(ids["listInit"] >> 8), byte(ids["listInit"]), // invokespecial
		0xb0, // areturn
	}

	b := &classBuilder{
		cp:          cp,
		thisClass:   ids["thisClass"],
		superClass:  ids["objectClass"],
		accessFlags: AccPublic | AccSuper,
		methods: []methodBuilder{
			{accessFlags: AccPublic, nameIdx: ids["initName"], descIdx: ids["voidDesc"], code: ctorCode, codeUtf8: ids["codeAttr"]},
			{accessFlags: AccPublic, nameIdx: ids["makeListName"], descIdx: ids["makeListDesc"], code: listCode, codeUtf8: ids["codeAttr"]},
		},
	}
	return b.bytes(), cp, ids
}

func TestParseClassStart(t *testing.T) {
	data, _, _ := buildMinimalClass(t)
	rec := &recorder{}
	if err := Parse(bytes.NewReader(data), rec); err != nil {
		t.Fatal(err)
	}
	if rec.classStart.This.InternalName != "com/acme/Foo" {
		t.Fatalf("got this class %q", rec.classStart.This.InternalName)
	}
	if rec.classStart.Super == nil || rec.classStart.Super.InternalName != "java/lang/Object" {
		t.Fatalf("got super %+v", rec.classStart.Super)
	}
	if !rec.classEnded {
		t.Fatal("expected VisitClassEnd to be called")
	}
}

func TestParseMethods(t *testing.T) {
	data, _, _ := buildMinimalClass(t)
	rec := &recorder{}
	if err := Parse(bytes.NewReader(data), rec); err != nil {
		t.Fatal(err)
	}
	if len(rec.methods) != 2 {
		t.Fatalf("expected 2 methods, got %d", len(rec.methods))
	}
	if rec.methods[0].Name != "<init>" || !rec.methods[0].IsConstructor {
		t.Fatalf("got %+v", rec.methods[0])
	}
	if rec.methods[1].Name != "makeList" || rec.methods[1].Return.InternalName != "java/util/ArrayList" {
		t.Fatalf("got %+v", rec.methods[1])
	}
}

func TestParseInstructionDependencies(t *testing.T) {
	data, _, _ := buildMinimalClass(t)
	rec := &recorder{}
	if err := Parse(bytes.NewReader(data), rec); err != nil {
		t.Fatal(err)
	}
	var sawNew, sawCall bool
	for _, d := range rec.deps {
		if d.Kind == KindNew && d.Target.InternalName == "java/util/ArrayList" {
			sawNew = true
		}
		if d.Kind == KindMethodCall && d.Target.InternalName == "java/lang/Object" && d.Detail == "<init>" {
			sawCall = true
		}
	}
	if !sawNew {
		t.Errorf("expected a NEW dependency on java/util/ArrayList, got %+v", rec.deps)
	}
	if !sawCall {
		t.Errorf("expected a METHOD_CALL dependency on java/lang/Object.<init>, got %+v", rec.deps)
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	data := []byte{0, 0, 0, 0}
	if err := Parse(bytes.NewReader(data), &recorder{}); err != ErrBadMagic {
		t.Fatalf("expected ErrBadMagic, got %v", err)
	}
}

func TestHasMainMethod(t *testing.T) {
	if !HasMainMethod(AccPublic|AccStatic, "main", "([Ljava/lang/String;)V") {
		t.Error("expected true for standard main signature")
	}
	if HasMainMethod(AccPublic, "main", "([Ljava/lang/String;)V") {
		t.Error("expected false for non-static main")
	}
	if HasMainMethod(AccPublic|AccStatic, "run", "([Ljava/lang/String;)V") {
		t.Error("expected false for wrong name")
	}
}
