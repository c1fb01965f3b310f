package wazero

import "bytes"

// Function types available to test modules.
const (
	typeI32ToI32 = iota
	typeI32I32ToI32
	typeToI32
	typeVoid
	typeI32ToVoid
	typeI32I32ToVoid
	typeI64ToI64
)

var funcTypes = [][2][]byte{
	typeI32ToI32:     {{0x7f}, {0x7f}},
	typeI32I32ToI32:  {{0x7f, 0x7f}, {0x7f}},
	typeToI32:        {nil, {0x7f}},
	typeVoid:         {nil, nil},
	typeI32ToVoid:    {{0x7f}, nil},
	typeI32I32ToVoid: {{0x7f, 0x7f}, nil},
	typeI64ToI64:     {{0x7e}, {0x7e}},
}

type wasmImport struct {
	module string
	name   string
	typ    int
}

type wasmFunc struct {
	name string
	typ  int
	body []byte
}

type wasmData struct {
	offset uint32
	bytes  []byte
}

// wasmModule assembles a minimal WebAssembly binary with one exported memory
// page and exported functions.
type wasmModule struct {
	imports  []wasmImport
	funcs    []wasmFunc
	data     []wasmData
	noMemory bool
}

func uleb(v uint64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func sleb(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func wasmName(s string) []byte {
	return append(uleb(uint64(len(s))), s...)
}

func section(id byte, count int, entries ...[]byte) []byte {
	content := uleb(uint64(count))
	for _, e := range entries {
		content = append(content, e...)
	}
	out := append([]byte{id}, uleb(uint64(len(content)))...)
	return append(out, content...)
}

func (m *wasmModule) importIndex(name string) uint64 {
	for i, imp := range m.imports {
		if imp.name == name {
			return uint64(i)
		}
	}
	panic("unknown import " + name)
}

func (m *wasmModule) bytes() []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00})

	types := make([][]byte, 0, len(funcTypes))
	for _, ft := range funcTypes {
		e := []byte{0x60}
		e = append(e, uleb(uint64(len(ft[0])))...)
		e = append(e, ft[0]...)
		e = append(e, uleb(uint64(len(ft[1])))...)
		e = append(e, ft[1]...)
		types = append(types, e)
	}
	buf.Write(section(0x01, len(types), types...))

	if len(m.imports) > 0 {
		imports := make([][]byte, 0, len(m.imports))
		for _, imp := range m.imports {
			e := append(wasmName(imp.module), wasmName(imp.name)...)
			e = append(e, 0x00)
			e = append(e, uleb(uint64(imp.typ))...)
			imports = append(imports, e)
		}
		buf.Write(section(0x02, len(imports), imports...))
	}

	decls := make([][]byte, 0, len(m.funcs))
	for _, f := range m.funcs {
		decls = append(decls, uleb(uint64(f.typ)))
	}
	buf.Write(section(0x03, len(decls), decls...))

	if !m.noMemory {
		buf.Write(section(0x05, 1, []byte{0x00, 0x01}))
	}

	var exports [][]byte
	if !m.noMemory {
		exports = append(exports, append(wasmName(memoryExport), 0x02, 0x00))
	}
	for i, f := range m.funcs {
		e := append(wasmName(f.name), 0x00)
		exports = append(exports, append(e, uleb(uint64(len(m.imports)+i))...))
	}
	buf.Write(section(0x07, len(exports), exports...))

	bodies := make([][]byte, 0, len(m.funcs))
	for _, f := range m.funcs {
		body := append([]byte{0x00}, f.body...)
		body = append(body, 0x0b)
		bodies = append(bodies, append(uleb(uint64(len(body))), body...))
	}
	buf.Write(section(0x0a, len(bodies), bodies...))

	if len(m.data) > 0 {
		segments := make([][]byte, 0, len(m.data))
		for _, d := range m.data {
			e := []byte{0x00, 0x41}
			e = append(e, sleb(int64(d.offset))...)
			e = append(e, 0x0b)
			e = append(e, uleb(uint64(len(d.bytes)))...)
			segments = append(segments, append(e, d.bytes...))
		}
		buf.Write(section(0x0b, len(segments), segments...))
	}

	return buf.Bytes()
}

// Instruction helpers.

func i32Const(v int32) []byte { return append([]byte{0x41}, sleb(int64(v))...) }
func i64Const(v int64) []byte { return append([]byte{0x42}, sleb(v)...) }
func call(idx uint64) []byte { return append([]byte{0x10}, uleb(idx)...) }

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

const (
	opUnreachable = 0x00
	opDrop        = 0x1a
	opI64Ne       = 0x52
)

// allocBase is where the test allocator places every allocation.
const allocBase = 1024

// deallocCounter increments the i32 at address 0 on every deallocate call.
var deallocCounter = concat(
	i32Const(0),
	i32Const(0),
	[]byte{0x28, 0x02, 0x00}, // i32.load
	i32Const(1),
	[]byte{0x6a},             // i32.add
	[]byte{0x36, 0x02, 0x00}, // i32.store
)

// operatorModule returns a module exporting allocate, deallocate and an
// on_event with the given body.
func operatorModule(onEvent []byte) *wasmModule {
	return &wasmModule{
		funcs: []wasmFunc{
			{name: allocateExport, typ: typeI32ToI32, body: i32Const(allocBase)},
			{name: deallocateExport, typ: typeI32I32ToVoid, body: deallocCounter},
			{name: onEventExport, typ: typeI32I32ToI32, body: onEvent},
		},
	}
}
