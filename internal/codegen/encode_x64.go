package codegen

// A handful of real x86-64 instruction encodings, used to build the
// minimal demo function body this package's ELF writer ships, and
// round-tripped through golang.org/x/arch/x86/x86asm in tests as a
// self-check that what gets written is genuinely decodable machine code.
// Full instruction selection from IR belongs to a real backend; this
// package only needs enough bytes to exercise the ELF64 writer end to end.

// EncodeMovEAXImm32 encodes "mov eax, imm32" (B8 id).
func EncodeMovEAXImm32(imm32 uint32) []byte {
	return []byte{0xB8, byte(imm32), byte(imm32 >> 8), byte(imm32 >> 16), byte(imm32 >> 24)}
}

// EncodeAddEAXEBX encodes "add eax, ebx" (01 D8).
func EncodeAddEAXEBX() []byte {
	return []byte{0x01, 0xD8}
}

// EncodeRet encodes "ret" (C3).
func EncodeRet() []byte {
	return []byte{0xC3}
}

// EncodeNop encodes "nop" (90).
func EncodeNop() []byte {
	return []byte{0x90}
}

// DemoFunctionBody returns a tiny, self-contained x86-64 function body:
// load an immediate into eax and return it. Used as the .text payload for
// a minimal end-to-end object-emission smoke test.
func DemoFunctionBody(result uint32) []byte {
	var out []byte
	out = append(out, EncodeMovEAXImm32(result)...)
	out = append(out, EncodeRet()...)
	return out
}
