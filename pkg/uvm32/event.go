package uvm32

// EventType is the tag of the Event union Run hands back to the host.
type EventType int

const (
	// EventNone is the zero value; a freshly constructed Event never
	// observed by a host.
	EventNone EventType = iota

	// EventErr means the VM is now in StatusError.
	EventErr

	// EventSyscall means the guest executed an ecall the VM does not
	// reserve for itself; the host should read ARG0/ARG1 and, if it
	// wants to produce a value, call SetArgVal(RET, ...).
	EventSyscall

	// EventEnd means the guest executed HALT.
	EventEnd
)

func (t EventType) String() string {
	switch t {
	case EventErr:
		return "err"
	case EventSyscall:
		return "syscall"
	case EventEnd:
		return "end"
	default:
		return "none"
	}
}

// Event is a snapshot copy of why Run returned control to the host.
// The Arg handles implied by a EventSyscall event (ARG0, ARG1, RET)
// remain valid only until the next call to Run: every marshaling
// helper checks the Event's generation against the VM's current one
// and fails closed (ErrArgs) if the host kept an Event past its call
// to Run.
type Event struct {
	Type EventType

	// Code is the ecall syscall code (a7) when Type is EventSyscall.
	Code uint32

	// ErrKind and ErrMsg are populated when Type is EventErr.
	ErrKind ErrKind
	ErrMsg  string

	generation uint32
}
