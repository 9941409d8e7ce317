package rv32asm

import "encoding/binary"

// ROM accumulates encoded instructions (and raw data) into a flat
// little-endian byte image suitable for VM.Load.
type ROM struct {
	bytes []byte
}

// Emit appends one or more encoded instruction words.
func (r *ROM) Emit(words ...uint32) *ROM {
	for _, w := range words {
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], w)
		r.bytes = append(r.bytes, buf[:]...)
	}
	return r
}

// Pad appends raw zero bytes, useful for reserving space (e.g. for a
// stack canary guard region) before the next Emit call.
func (r *ROM) Pad(n int) *ROM {
	r.bytes = append(r.bytes, make([]byte, n)...)
	return r
}

// EmitBytes appends raw data, such as a NUL-terminated guest string
// constant, verbatim.
func (r *ROM) EmitBytes(b []byte) *ROM {
	r.bytes = append(r.bytes, b...)
	return r
}

// Bytes returns the accumulated image.
func (r *ROM) Bytes() []byte {
	return r.bytes
}

// Len reports the number of bytes emitted so far, i.e. the byte
// offset the next Emit call will land at.
func (r *ROM) Len() int {
	return len(r.bytes)
}
