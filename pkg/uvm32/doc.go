// Package uvm32 implements an embeddable 32-bit RISC-V (RV32IMA,
// machine-mode only) virtual machine for running untrusted guest
// programs against a host-defined syscall interface.
//
// A host drives the VM cooperatively. Each call to Run executes at
// most a host-supplied number of guest instructions ("the budget")
// and returns control to the host when the guest requests a service
// via ecall, halts, exhausts its budget, or faults.
//
// Guest ABI
//
// The guest is a flat RV32IMA binary image loaded at address Base. A
// guest issues a host service request with the standard RISC-V ecall
// calling convention: a7 carries the syscall code, a0 and a1 carry up
// to two arguments, and a2 carries the return value. Three syscall
// codes in the range 0x1000000-0x10FFFFF are reserved by the VM;
// HALT and STACKPROTECT are handled by the VM itself and never
// surfaced to the host:
//
//	HALT         0x1000000   stop the processor
//	YIELD        0x1000001   surfaced to the host like any other ecall
//	STACKPROTECT 0x1000002   one-shot stack canary installation
//
// Any other reserved-range code that the VM does not recognize yields
// ErrBadSyscall rather than being surfaced, so that future reserved
// codes can be added without silently being treated as ordinary
// syscalls by old hosts.
//
// Address space
//
// Main RAM occupies [Base, Base+M) where M is chosen when the VM is
// constructed. An optional host-provided external RAM buffer can be
// attached at ExtRAMBase; it is borrowed, not owned, and the host must
// keep it alive and free of concurrent mutation for the duration of
// every Run call.
//
// State machine
//
// The VM is always in one of four states: Paused, Running, Error, or
// Ended. Run transitions Paused -> Running -> {Paused, Error, Ended}.
// Once in Error the status and the recorded error are frozen until
// ClearError (or Init) is called; this "sticky error" behaviour means
// a host that keeps driving a VM after an error sees a stable, non-
// crashing result instead of undefined behaviour.
package uvm32
