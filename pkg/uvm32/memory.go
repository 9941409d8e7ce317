package uvm32

import "encoding/binary"

// Address map constants, per the guest-visible layout.
const (
	// Base is the guest address at which main RAM begins.
	Base uint32 = 0x80000000

	// ExtRAMBase is the guest address at which host-provided
	// external RAM begins when attached.
	ExtRAMBase uint32 = 0x10000000
)

// addressSpace owns the VM's main RAM and borrows the host's optional
// external RAM. It enforces that the two regions never overlap and
// that every access is bounds-checked before it touches either one.
//
// The decoder reaches memory exclusively through addressSpace's
// load/store methods; it never indexes a byte slice directly.
// addressSpace is the single capability a decoder step is
// parameterized over.
type addressSpace struct {
	mem    []byte // main RAM, length is the VM's configured M
	extram []byte // borrowed external RAM; nil when not attached
	dirty  bool   // true once the guest has stored into extram
}

func newAddressSpace(size uint32) *addressSpace {
	return &addressSpace{mem: make([]byte, size)}
}

// mmioRange reports whether addr targets the external RAM region.
func (as *addressSpace) mmioRange(addr uint32) bool {
	if as.extram == nil {
		return false
	}
	end := uint64(ExtRAMBase) + uint64(len(as.extram))
	a := uint64(addr)
	return a >= uint64(ExtRAMBase) && a < end
}

func (as *addressSpace) attachExtRAM(buf []byte) {
	as.extram = buf
	as.dirty = false
}

func (as *addressSpace) clearDirty() { as.dirty = false }
func (as *addressSpace) isDirty() bool { return as.dirty }

// getSlice validates that [addr, addr+length) lies entirely within
// one region and returns a slice aliasing that region's backing
// array. Addition is carried out in 64 bits so that addr+length can
// never silently wrap back into range.
func (as *addressSpace) getSlice(addr, length uint32) ([]byte, bool) {
	end := uint64(addr) + uint64(length)
	if as.mmioRange(addr) {
		if end > uint64(ExtRAMBase)+uint64(len(as.extram)) {
			return nil, false
		}
		off := addr - ExtRAMBase
		return as.extram[off : off+length], true
	}
	if uint64(addr) < uint64(Base) {
		return nil, false
	}
	off := uint64(addr) - uint64(Base)
	if off+uint64(length) > uint64(len(as.mem)) {
		return nil, false
	}
	return as.mem[off : off+uint64(length)], true
}

// getSliceFixed has the identical contract as getSlice. It exists as
// a distinct name only to document, at call sites, that length came
// from the host rather than being read out of guest memory.
func (as *addressSpace) getSliceFixed(addr, length uint32) ([]byte, bool) {
	return as.getSlice(addr, length)
}

// getCStr scans forward from addr for the first zero byte, bounded by
// the end of whichever region addr falls in. It returns false if addr
// is outside every region or no terminator is found before the region
// ends.
func (as *addressSpace) getCStr(addr uint32) ([]byte, bool) {
	var base uint32
	var buf []byte
	switch {
	case as.mmioRange(addr):
		base, buf = ExtRAMBase, as.extram
	case addr >= Base && uint64(addr)-uint64(Base) <= uint64(len(as.mem)):
		base, buf = Base, as.mem
	default:
		return nil, false
	}
	off := addr - base
	if uint64(off) > uint64(len(buf)) {
		return nil, false
	}
	for i := uint64(off); i < uint64(len(buf)); i++ {
		if buf[i] == 0 {
			return buf[off:i], true
		}
	}
	return nil, false
}

func (as *addressSpace) loadByte(addr uint32, signed bool) (uint32, bool) {
	s, ok := as.getSlice(addr, 1)
	if !ok {
		return 0, false
	}
	if signed {
		return uint32(int32(int8(s[0]))), true
	}
	return uint32(s[0]), true
}

func (as *addressSpace) loadHalf(addr uint32, signed bool) (uint32, bool) {
	s, ok := as.getSlice(addr, 2)
	if !ok {
		return 0, false
	}
	v := binary.LittleEndian.Uint16(s)
	if signed {
		return uint32(int32(int16(v))), true
	}
	return uint32(v), true
}

func (as *addressSpace) loadWord(addr uint32) (uint32, bool) {
	s, ok := as.getSlice(addr, 4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(s), true
}

func (as *addressSpace) storeByte(addr, v uint32) bool {
	s, ok := as.getSlice(addr, 1)
	if !ok {
		return false
	}
	s[0] = byte(v)
	if as.mmioRange(addr) {
		as.dirty = true
	}
	return true
}

func (as *addressSpace) storeHalf(addr, v uint32) bool {
	s, ok := as.getSlice(addr, 2)
	if !ok {
		return false
	}
	binary.LittleEndian.PutUint16(s, uint16(v))
	if as.mmioRange(addr) {
		as.dirty = true
	}
	return true
}

func (as *addressSpace) storeWord(addr, v uint32) bool {
	s, ok := as.getSlice(addr, 4)
	if !ok {
		return false
	}
	binary.LittleEndian.PutUint32(s, v)
	if as.mmioRange(addr) {
		as.dirty = true
	}
	return true
}

// GetSlice is the host-facing, length-bounded (ptr+len) read. It is a
// pure query: unlike the Arg-marshaling helpers in syscall.go, it
// never marks the VM in error on failure, since the host (not the
// guest) supplied both the address and the length here.
func (vm *VM) GetSlice(addr, length uint32) ([]byte, bool) {
	return vm.mem.getSlice(addr, length)
}

// GetSliceFixed is identical to GetSlice; see addressSpace.getSliceFixed.
func (vm *VM) GetSliceFixed(addr, length uint32) ([]byte, bool) {
	return vm.mem.getSliceFixed(addr, length)
}

// GetCStr scans guest memory at addr for a NUL-terminated string,
// bounded by the owning region's end.
func (vm *VM) GetCStr(addr uint32) ([]byte, bool) {
	return vm.mem.getCStr(addr)
}
