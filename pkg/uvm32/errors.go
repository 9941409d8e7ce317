package uvm32

// ErrKind is the closed taxonomy of errors a VM can report. Once a VM
// transitions to StatusError, Err() returns the ErrKind of the first
// fault observed; it does not change until ClearError or Init.
type ErrKind int

const (
	// ErrNone means no error has occurred.
	ErrNone ErrKind = iota

	// ErrNotReady means Run was called while the VM was not Paused,
	// or another host-API call expected a state the VM was not in.
	ErrNotReady

	// ErrMemRd means a guest or host load fell outside every
	// attached region, or a guest C-string had no terminator before
	// its region ended.
	ErrMemRd

	// ErrMemWr means a guest store fell outside every attached
	// region.
	ErrMemWr

	// ErrBadSyscall means the guest executed a VM-reserved ecall
	// code the VM does not recognize.
	ErrBadSyscall

	// ErrHung means the guest executed its entire instruction
	// budget without reaching a suspension point.
	ErrHung

	// ErrInternalCore means the decoder reported a fault other than
	// a load or store fault (an illegal instruction, a misaligned or
	// out-of-bounds program counter), Run found the stack canary
	// corrupted on entry, or STACKPROTECT named an address outside
	// main RAM.
	ErrInternalCore

	// ErrInternalState means the run loop exited in a state the
	// state machine does not define; this indicates a bug in the
	// VM itself rather than in the guest or the host.
	ErrInternalState

	// ErrArgs means the host passed an invalid Arg handle, or a
	// handle from an Event that is no longer the VM's current one,
	// to one of the marshaling helpers.
	ErrArgs
)

// String renders the error kind the way the VM's opcode and status
// tables render themselves: a short, stable, lower_snake_case name
// suitable for logs and Event.ErrMsg prefixes.
func (k ErrKind) String() string {
	switch k {
	case ErrNone:
		return "none"
	case ErrNotReady:
		return "not_ready"
	case ErrMemRd:
		return "mem_rd"
	case ErrMemWr:
		return "mem_wr"
	case ErrBadSyscall:
		return "bad_syscall"
	case ErrHung:
		return "hung"
	case ErrInternalCore:
		return "internal_core"
	case ErrInternalState:
		return "internal_state"
	case ErrArgs:
		return "args"
	default:
		return "unknown"
	}
}

// Status is one of the four VM run states.
type Status int

const (
	StatusPaused Status = iota
	StatusRunning
	StatusError
	StatusEnded
)

func (s Status) String() string {
	switch s {
	case StatusPaused:
		return "paused"
	case StatusRunning:
		return "running"
	case StatusError:
		return "error"
	case StatusEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// setStatus is the writer of vm.status for every transition out of
// StatusRunning; Init, ClearError and Run's entry into StatusRunning
// assign vm.status directly. Once the VM is in StatusError the status
// is frozen; every other setStatus call becomes a no-op until
// ClearError or Init runs.
func (vm *VM) setStatus(s Status) {
	if vm.status == StatusError {
		return
	}
	vm.status = s
}

// setError is the single "transition to error" primitive. The first
// caller wins: once vm.err is non-zero it is never overwritten, only
// cleared by ClearError or Init. Every fault site in the VM funnels
// through this function instead of writing vm.err/vm.status directly.
func (vm *VM) setError(kind ErrKind, msg string) {
	if vm.err == ErrNone {
		vm.err = kind
		vm.errMsg = msg
	}
	vm.setStatus(StatusError)
}
