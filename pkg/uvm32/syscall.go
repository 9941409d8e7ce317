package uvm32

import "fmt"

// Reserved syscall codes. The VM handles HALT and STACKPROTECT itself
// and never surfaces them to the host; YIELD is deliberately surfaced
// like any ordinary code instead of being special-cased. Any other
// code in the reserved range is ErrBadSyscall.
const (
	SyscallHalt         uint32 = 0x1000000
	SyscallYield        uint32 = 0x1000001
	SyscallStackProtect uint32 = 0x1000002

	reservedRangeLo uint32 = 0x1000000
	reservedRangeHi uint32 = 0x10FFFFF
)

// Arg names one of the three registers an ecall event exposes: the
// two argument registers (a0, a1) and the return-value register (a2).
// Arg is a handle, not a value -- see Event's documentation on the
// lifetime of the handles it implies.
type Arg int

const (
	ARG0 Arg = iota
	ARG1
	RET
)

// argRegister maps an Arg to its RISC-V integer register number
// under the standard calling convention (a0=x10, a1=x11, a2=x12).
func argRegister(a Arg) (uint32, bool) {
	switch a {
	case ARG0:
		return 10, true
	case ARG1:
		return 11, true
	case RET:
		return 12, true
	default:
		return 0, false
	}
}

// validArg reports whether evt is still the VM's current event (its
// generation matches) and arg names one of the three known handles.
func (vm *VM) validArg(evt *Event, arg Arg) (uint32, bool) {
	reg, ok := argRegister(arg)
	if !ok || evt == nil || evt.generation != vm.generation {
		vm.setError(ErrArgs, "invalid or stale syscall argument handle")
		return 0, false
	}
	return reg, true
}

// GetArgVal reads the current value of the register an Arg names.
// On an invalid or stale handle it raises ErrArgs and returns 0.
func (vm *VM) GetArgVal(evt *Event, arg Arg) uint32 {
	reg, ok := vm.validArg(evt, arg)
	if !ok {
		return 0
	}
	return vm.reg(reg)
}

// SetArgVal writes v into the register an Arg names. Hosts typically
// call this with RET before letting the guest resume, to hand back a
// syscall's result.
func (vm *VM) SetArgVal(evt *Event, arg Arg, v uint32) {
	reg, ok := vm.validArg(evt, arg)
	if !ok {
		return
	}
	vm.setReg(reg, v)
}

// GetArgCStr reads the register an Arg names as a guest pointer and
// returns the NUL-terminated string found there, not including the
// terminator. On any failure (bad handle, pointer out of every
// region, or no terminator before the region ends) it raises ErrMemRd
// (or ErrArgs for a bad handle) and returns a length-zero slice
// backed by a shared, per-VM zero byte -- never nil, so naive
// dereference by the host stays memory-safe.
func (vm *VM) GetArgCStr(evt *Event, arg Arg) []byte {
	reg, ok := vm.validArg(evt, arg)
	if !ok {
		return vm.zero[:0]
	}
	ptr := vm.reg(reg)
	s, ok := vm.mem.getCStr(ptr)
	if !ok {
		vm.setError(ErrMemRd, fmt.Sprintf("no nul terminator reachable from 0x%08x", ptr))
		return vm.zero[:0]
	}
	return s
}

// GetArgSlice reads ptrArg and lenArg as a guest pointer and a
// guest-supplied length, and returns the corresponding host-side
// slice. On failure it raises ErrMemRd (or ErrArgs) and returns an
// empty, non-nil slice.
func (vm *VM) GetArgSlice(evt *Event, ptrArg, lenArg Arg) []byte {
	ptrReg, ok := vm.validArg(evt, ptrArg)
	if !ok {
		return vm.zero[:0]
	}
	lenReg, ok := vm.validArg(evt, lenArg)
	if !ok {
		return vm.zero[:0]
	}
	ptr, length := vm.reg(ptrReg), vm.reg(lenReg)
	s, ok := vm.mem.getSlice(ptr, length)
	if !ok {
		vm.setError(ErrMemRd, fmt.Sprintf("slice [0x%08x, +%d) out of bounds", ptr, length))
		return vm.zero[:0]
	}
	return s
}

// GetArgSliceFixed is like GetArgSlice except the length is supplied
// by the host rather than read out of a guest register.
func (vm *VM) GetArgSliceFixed(evt *Event, ptrArg Arg, fixedLen uint32) []byte {
	ptrReg, ok := vm.validArg(evt, ptrArg)
	if !ok {
		return vm.zero[:0]
	}
	ptr := vm.reg(ptrReg)
	s, ok := vm.mem.getSliceFixed(ptr, fixedLen)
	if !ok {
		vm.setError(ErrMemRd, fmt.Sprintf("slice [0x%08x, +%d) out of bounds", ptr, fixedLen))
		return vm.zero[:0]
	}
	return s
}

// onEcall runs once the decoder reports stepEcall. PC is advanced by
// 4 here regardless of what kind of ecall this turns out to be; the
// decoder itself left PC unadvanced.
func (vm *VM) onEcall() {
	vm.PC += 4
	code := vm.GPR[17] // a7

	if code >= reservedRangeLo && code <= reservedRangeHi {
		switch code {
		case SyscallHalt:
			vm.setStatus(StatusEnded)
		case SyscallYield:
			vm.surfaceSyscall(code)
		case SyscallStackProtect:
			vm.handleStackProtect()
		default:
			vm.setError(ErrBadSyscall, fmt.Sprintf("unknown reserved syscall code 0x%x", code))
		}
		return
	}
	vm.surfaceSyscall(code)
}

func (vm *VM) surfaceSyscall(code uint32) {
	vm.evt = Event{Type: EventSyscall, Code: code, generation: vm.generation}
	vm.setStatus(StatusPaused)
}

// handleStackProtect installs a one-shot stack canary. Subsequent
// calls are silently ignored.
func (vm *VM) handleStackProtect() {
	if vm.stackProtectUsed {
		return
	}
	a := vm.reg(10) // a0
	memOffset := ((a - Base) &^ 0xF) + 64
	if uint64(memOffset) >= uint64(len(vm.mem.mem)) {
		vm.setError(ErrInternalCore, "stackprotect address outside main RAM")
		return
	}
	vm.mem.mem[memOffset] = StackCanaryValue
	vm.canaryAddr = Base + memOffset
	vm.canarySet = true
	vm.stackProtectUsed = true
}
