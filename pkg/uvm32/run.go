package uvm32

// Run is the metered step loop. On a Paused VM whose stack canary (if
// any) is intact, it executes between 1 and budget guest instructions
// -- budgets below 1 are clamped up to 1 so that a budget of 0 cannot
// starve forward progress; otherwise it executes none and returns 0.
// It returns the number of instructions actually executed. *out is
// overwritten with why the VM stopped.
//
// Run never panics on guest misbehaviour: every fault, including a
// corrupted stack canary or an exhausted budget, is reported through
// *out and the sticky error state.
func (vm *VM) Run(out *Event, budget int) int {
	vm.mem.clearDirty()

	if budget < 1 {
		budget = 1
	}
	original := budget

	if vm.canarySet {
		b, ok := vm.mem.getSlice(vm.canaryAddr, 1)
		if !ok || b[0] != StackCanaryValue {
			vm.setError(ErrInternalCore, "stack canary corrupted")
			vm.packageEvent(out)
			return 0
		}
	}

	if vm.status != StatusPaused {
		vm.setError(ErrNotReady, "Run called while the VM was not paused")
		vm.packageEvent(out)
		return 0
	}

	vm.generation++
	vm.status = StatusRunning

	for vm.status == StatusRunning && budget > 0 {
		outcome := vm.step()
		budget--
		vm.cycles++
		vm.instret++

		switch outcome {
		case stepNormal:
			// continue
		case stepEcall:
			vm.onEcall()
		case stepLoadFault:
			vm.setError(ErrMemRd, "load fault")
		case stepStoreFault:
			vm.setError(ErrMemWr, "store fault")
		case stepOtherFault:
			vm.setError(ErrInternalCore, "illegal instruction or corrupted program counter")
		}

		if vm.status == StatusRunning && budget == 0 {
			vm.setError(ErrHung, "instruction budget exhausted without reaching a suspension point")
		}
	}

	vm.packageEvent(out)
	return original - budget
}

// packageEvent fills *out from the VM's final status.
func (vm *VM) packageEvent(out *Event) {
	switch vm.status {
	case StatusEnded:
		*out = Event{Type: EventEnd}
	case StatusPaused:
		*out = vm.evt
	case StatusError:
		*out = Event{Type: EventErr, ErrKind: vm.err, ErrMsg: vm.errMsg}
	default:
		vm.setError(ErrInternalState, "run loop exited in an undefined state")
		*out = Event{Type: EventErr, ErrKind: vm.err, ErrMsg: vm.errMsg}
	}
}
