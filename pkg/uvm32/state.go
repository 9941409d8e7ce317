package uvm32

import "fmt"

const (
	// DefaultMemSize is the main RAM size used by New when the
	// caller does not request a specific one.
	DefaultMemSize uint32 = 1 << 20 // 1 MiB

	// StackCanaryValue is the byte STACKPROTECT writes, and the
	// value Run expects to still find there on every entry once a
	// canary has been installed.
	StackCanaryValue byte = 0x42

	// NumRegisters is the size of the RV32 integer register file.
	// x0 is hardwired to zero; GPR[0] is never written.
	NumRegisters = 32
)

// VM is a single RV32IMA machine-mode virtual machine instance. A VM
// is not goroutine safe; a host that wants to run several guests
// concurrently should create one VM per hart and interleave calls to
// Run itself.
type VM struct {
	// GPR holds the 32 integer registers. GPR[0] always reads zero.
	GPR [NumRegisters]uint32
	// PC is the program counter, always expressed as a guest
	// address in [Base, Base+M) while status is not StatusError.
	PC uint32

	hartID  uint32
	cycles  uint64
	instret uint64

	mem *addressSpace

	status Status
	err    ErrKind
	errMsg string

	// generation increments on every call to Run. An Event stamped
	// with a stale generation can no longer be used to marshal
	// syscall arguments; see event.go and syscall.go.
	generation uint32

	evt Event // the event under construction while status is Paused

	canarySet        bool
	canaryAddr       uint32
	stackProtectUsed bool

	reservationValid bool
	reservationAddr  uint32

	zero [1]byte // shared fallback for failed marshaling reads
}

// New constructs a VM with the given main RAM size in bytes. A
// memSize of zero selects DefaultMemSize. The VM starts Init'd.
func New(memSize uint32) *VM {
	if memSize == 0 {
		memSize = DefaultMemSize
	}
	vm := &VM{mem: newAddressSpace(memSize)}
	vm.Init()
	return vm
}

// Init (re)initializes the VM: zeroes registers and memory, detaches
// any external RAM, resets the stack pointer to the aligned top of
// RAM, clears every sticky error, and sets status to Paused.
func (vm *VM) Init() {
	vm.GPR = [NumRegisters]uint32{}
	for i := range vm.mem.mem {
		vm.mem.mem[i] = 0
	}
	vm.mem.extram = nil
	vm.mem.dirty = false

	vm.PC = Base
	top := (Base + uint32(len(vm.mem.mem))) &^ 0xF
	vm.GPR[2] = top - 16 // x2 = sp

	vm.hartID = 0
	vm.cycles = 0
	vm.instret = 0

	vm.status = StatusPaused
	vm.err = ErrNone
	vm.errMsg = ""
	vm.generation = 0
	vm.evt = Event{}

	vm.canarySet = false
	vm.canaryAddr = 0
	vm.stackProtectUsed = false

	vm.reservationValid = false
	vm.reservationAddr = 0
}

// Load copies rom into main RAM starting at offset 0. It returns
// false, leaving the VM untouched, iff len(rom) exceeds the VM's
// configured memory size.
func (vm *VM) Load(rom []byte) bool {
	if uint64(len(rom)) > uint64(len(vm.mem.mem)) {
		return false
	}
	copy(vm.mem.mem, rom)
	return true
}

// AttachExtRAM registers buf as the VM's external RAM, borrowing it.
// The caller retains ownership and must keep buf alive, and free of
// concurrent mutation from another goroutine, for as long as it stays
// attached. Attaching resets the dirty flag. Passing nil detaches.
func (vm *VM) AttachExtRAM(buf []byte) {
	vm.mem.attachExtRAM(buf)
}

// ExtRAMDirty reports whether the guest executed at least one store
// into external RAM during the most recent Run call.
func (vm *VM) ExtRAMDirty() bool {
	return vm.mem.isDirty()
}

// HasEnded reports whether the guest has executed HALT.
func (vm *VM) HasEnded() bool {
	return vm.status == StatusEnded
}

// ClearError moves the VM from StatusError back to StatusPaused and
// forgets the recorded error. It is a no-op outside StatusError.
func (vm *VM) ClearError() {
	if vm.status != StatusError {
		return
	}
	vm.status = StatusPaused
	vm.err = ErrNone
	vm.errMsg = ""
}

// Err returns the first sticky error recorded since Init or the last
// ClearError, or ErrNone if the VM has not faulted.
func (vm *VM) Err() ErrKind {
	return vm.err
}

// ErrMsg returns the human-readable message accompanying Err(), or
// the empty string when Err() is ErrNone.
func (vm *VM) ErrMsg() string {
	return vm.errMsg
}

// Status returns the VM's current run state.
func (vm *VM) Status() Status {
	return vm.status
}

// PCValue is a debug-only accessor for the program counter.
func (vm *VM) PCValue() uint32 {
	return vm.PC
}

// Memory is a debug-only accessor for the VM's main RAM. Callers must
// not retain or mutate the returned slice past the VM's lifetime;
// mutating it bypasses every bounds check this package provides.
func (vm *VM) Memory() []byte {
	return vm.mem.mem
}

// String renders a human-readable snapshot of the VM: enough to
// eyeball in a debug log, not a stable or parseable format.
func (vm *VM) String() string {
	return fmt.Sprintf("{PC:0x%08x GPR:%v status:%s err:%s}", vm.PC, vm.GPR, vm.status, vm.err)
}
