package uvm32

import (
	"testing"

	"github.com/yuhanglee/uvm32/pkg/uvm32/rv32asm"
)

func newTestVM(t *testing.T, rom []byte) *VM {
	t.Helper()
	vm := New(4096)
	if !vm.Load(rom) {
		t.Fatalf("ROM of %d bytes did not fit", len(rom))
	}
	return vm
}

func TestStepArithmetic(t *testing.T) {
	r := new(rv32asm.ROM)
	r.Emit(rv32asm.ADDI(5, 0, 7))  // x5 = 7
	r.Emit(rv32asm.ADDI(6, 0, 35)) // x6 = 35
	r.Emit(rv32asm.ADD(7, 5, 6))   // x7 = 42
	vm := newTestVM(t, r.Bytes())

	for i := 0; i < 3; i++ {
		if vm.step() != stepNormal {
			t.Fatalf("step %d: expected stepNormal", i)
		}
	}
	if vm.GPR[7] != 42 {
		t.Fatalf("x7 = %d, want 42", vm.GPR[7])
	}
	if vm.PC != Base+12 {
		t.Fatalf("PC = %#x, want %#x", vm.PC, Base+12)
	}
}

func TestStepX0AlwaysZero(t *testing.T) {
	r := new(rv32asm.ROM)
	r.Emit(rv32asm.ADDI(0, 0, 123))
	vm := newTestVM(t, r.Bytes())
	vm.step()
	if vm.GPR[0] != 0 {
		t.Fatalf("x0 = %d, want 0", vm.GPR[0])
	}
}

func TestStepBranchTaken(t *testing.T) {
	r := new(rv32asm.ROM)
	r.Emit(rv32asm.ADDI(1, 0, 5))
	r.Emit(rv32asm.ADDI(2, 0, 5))
	r.Emit(rv32asm.BEQ(1, 2, 8)) // skip the next instruction
	r.Emit(rv32asm.ADDI(3, 0, 999))
	r.Emit(rv32asm.ADDI(3, 0, 111))
	vm := newTestVM(t, r.Bytes())
	for i := 0; i < 4; i++ {
		if vm.step() != stepNormal {
			t.Fatalf("step %d: unexpected fault", i)
		}
	}
	if vm.GPR[3] != 111 {
		t.Fatalf("x3 = %d, want 111 (branch should have skipped x3=999)", vm.GPR[3])
	}
}

func TestStepLoadStoreRoundTrip(t *testing.T) {
	r := new(rv32asm.ROM)
	li := rv32asm.Li(1, 0x1234)
	r.Emit(li[:]...)
	r.Emit(rv32asm.SW(2, 1, 64))  // mem[x2+64] = x1, x2 is set to Base below
	r.Emit(rv32asm.LW(3, 2, 64)) // x3 = mem[x2+64]
	vm := newTestVM(t, r.Bytes())
	vm.GPR[2] = Base // base pointer for the store/load pair
	for i := 0; i < 4; i++ {
		if out := vm.step(); out != stepNormal {
			t.Fatalf("step %d: outcome=%v", i, out)
		}
	}
	if vm.GPR[3] != 0x1234 {
		t.Fatalf("x3 = %#x, want 0x1234", vm.GPR[3])
	}
}

func TestStepLoadFault(t *testing.T) {
	r := new(rv32asm.ROM)
	r.Emit(rv32asm.LW(1, 0, 0)) // load from address 0: below Base
	vm := newTestVM(t, r.Bytes())
	if out := vm.step(); out != stepLoadFault {
		t.Fatalf("outcome = %v, want stepLoadFault", out)
	}
	if vm.PC != Base {
		t.Fatalf("PC advanced past a fault: %#x", vm.PC)
	}
}

func TestStepStoreFault(t *testing.T) {
	r := new(rv32asm.ROM)
	r.Emit(rv32asm.SW(0, 1, 0)) // store to address 0: below Base
	vm := newTestVM(t, r.Bytes())
	if out := vm.step(); out != stepStoreFault {
		t.Fatalf("outcome = %v, want stepStoreFault", out)
	}
	if vm.PC != Base {
		t.Fatalf("PC advanced past a fault: %#x", vm.PC)
	}
}

func TestStepMisalignedPC(t *testing.T) {
	vm := New(4096)
	vm.Load([]byte{0, 0, 0, 0})
	vm.PC = Base + 1
	if out := vm.step(); out != stepOtherFault {
		t.Fatalf("outcome = %v, want stepOtherFault", out)
	}
}

func TestStepEcallLeavesPCUnadvanced(t *testing.T) {
	r := new(rv32asm.ROM)
	r.Emit(rv32asm.ECALL())
	vm := newTestVM(t, r.Bytes())
	if out := vm.step(); out != stepEcall {
		t.Fatalf("outcome = %v, want stepEcall", out)
	}
	if vm.PC != Base {
		t.Fatalf("decoder must not advance PC on ecall, got %#x", vm.PC)
	}
}

func TestStepMulDiv(t *testing.T) {
	r := new(rv32asm.ROM)
	r.Emit(rv32asm.ADDI(1, 0, 6))
	r.Emit(rv32asm.ADDI(2, 0, 7))
	r.Emit(rv32asm.MUL(3, 1, 2))
	r.Emit(rv32asm.DIV(4, 3, 1))
	r.Emit(rv32asm.REM(5, 3, 2))
	vm := newTestVM(t, r.Bytes())
	for i := 0; i < 5; i++ {
		vm.step()
	}
	if vm.GPR[3] != 42 {
		t.Fatalf("x3 = %d, want 42", vm.GPR[3])
	}
	if vm.GPR[4] != 7 {
		t.Fatalf("x4 = %d, want 7", vm.GPR[4])
	}
	if vm.GPR[5] != 0 {
		t.Fatalf("x5 = %d, want 0", vm.GPR[5])
	}
}

func TestStepDivByZero(t *testing.T) {
	r := new(rv32asm.ROM)
	r.Emit(rv32asm.ADDI(1, 0, 9))
	r.Emit(rv32asm.DIV(2, 1, 0)) // x0 is always zero
	vm := newTestVM(t, r.Bytes())
	vm.step()
	vm.step()
	if vm.GPR[2] != 0xFFFFFFFF {
		t.Fatalf("x2 = %#x, want 0xffffffff (RISC-V div-by-zero contract)", vm.GPR[2])
	}
}

func TestStepAtomics(t *testing.T) {
	r := new(rv32asm.ROM)
	li5 := rv32asm.Li(1, 5)
	r.Emit(li5[:]...)
	r.Emit(rv32asm.SW(2, 1, 0)) // mem[sp] = 5
	r.Emit(rv32asm.LR_W(3, 2))  // x3 = mem[sp], reserve
	li9 := rv32asm.Li(4, 9)
	r.Emit(li9[:]...)
	r.Emit(rv32asm.SC_W(5, 2, 4)) // conditional store succeeds: x5 = 0
	r.Emit(rv32asm.LW(6, 2, 0))   // x6 = mem[sp] = 9
	vm := newTestVM(t, r.Bytes())
	for i := 0; i < 8; i++ {
		if out := vm.step(); out != stepNormal {
			t.Fatalf("step %d: outcome=%v", i, out)
		}
	}
	if vm.GPR[3] != 5 {
		t.Fatalf("x3 (LR.W result) = %d, want 5", vm.GPR[3])
	}
	if vm.GPR[5] != 0 {
		t.Fatalf("x5 (SC.W result) = %d, want 0 (success)", vm.GPR[5])
	}
	if vm.GPR[6] != 9 {
		t.Fatalf("x6 = %d, want 9", vm.GPR[6])
	}
}
