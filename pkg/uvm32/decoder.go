package uvm32

import (
	"fmt"
	"math"
)

// This file is the "core decoder": a single-step RV32IMA interpreter,
// split from the rest of the VM the way a decode/execute stage is
// split from its surrounding machine.
//
// A step never indexes memory directly: every load, store, fetch and
// atomic goes through vm.mem, the address-space capability described
// in memory.go.

// stepOutcome is the decoder's per-step result: normal completion, an
// ecall, a load fault, a store fault, or any other fault (illegal
// instruction, misaligned or out-of-bounds program counter). Store faults get their own outcome, distinct from
// the generic "other fault", so the run loop can map them to ErrMemWr
// instead of the coarser ErrInternalCore.
type stepOutcome int

const (
	stepNormal stepOutcome = iota
	stepEcall
	stepLoadFault
	stepStoreFault
	stepOtherFault
)

// RV32 opcode field values (instruction bits 6:0).
const (
	opLoad   = 0b0000011
	opFence  = 0b0001111
	opImm    = 0b0010011
	opAUIPC  = 0b0010111
	opStore  = 0b0100011
	opAmo    = 0b0101111
	opOp     = 0b0110011
	opLUI    = 0b0110111
	opBranch = 0b1100011
	opJALR   = 0b1100111
	opJAL    = 0b1101111
	opSystem = 0b1110011
)

// A handful of CSRs are implemented read-only, enough for a guest to
// read its hart ID and a coarse elapsed-time counter. Every other CSR
// address faults.
const (
	csrCycle     = 0xC00
	csrTime      = 0xC01
	csrInstret   = 0xC02
	csrCycleH    = 0xC80
	csrTimeH     = 0xC81
	csrInstretH  = 0xC82
	csrMHartID   = 0xF14
)

// RV32A funct5 values (instruction bits 31:27).
const (
	amoAdd   = 0b00000
	amoSwap  = 0b00001
	amoLR    = 0b00010
	amoSC    = 0b00011
	amoXor   = 0b00100
	amoOr    = 0b01000
	amoAnd   = 0b01100
	amoMin   = 0b10000
	amoMax   = 0b10100
	amoMinu  = 0b11000
	amoMaxu  = 0b11100
)

func bitfield(v uint32, hi, lo uint) uint32 {
	return (v >> lo) & ((1 << (hi - lo + 1)) - 1)
}

func signExtend(v uint32, bits uint) uint32 {
	shift := 32 - bits
	return uint32(int32(v<<shift) >> shift)
}

// reg reads an integer register; x0 always reads zero.
func (vm *VM) reg(i uint32) uint32 {
	if i == 0 {
		return 0
	}
	return vm.GPR[i]
}

// setReg writes an integer register; writes to x0 are discarded.
func (vm *VM) setReg(i, v uint32) {
	if i != 0 {
		vm.GPR[i] = v
	}
}

// step executes exactly one guest instruction. On stepLoadFault,
// stepStoreFault or stepOtherFault, vm.PC is left pointing at the
// faulting instruction: the fault wins and PC is not advanced. On
// stepEcall, vm.PC is also left unadvanced -- advancing it by 4 is the
// run loop's job, done once, in onEcall, regardless of whether the
// ecall turns out to be VM-reserved or user-surfaced.
func (vm *VM) step() stepOutcome {
	if vm.PC < Base || uint64(vm.PC)+4 > uint64(Base)+uint64(len(vm.mem.mem)) || vm.PC%4 != 0 {
		return stepOtherFault
	}
	inst, ok := vm.mem.loadWord(vm.PC)
	if !ok {
		return stepOtherFault
	}

	opcode := bitfield(inst, 6, 0)
	rd := bitfield(inst, 11, 7)
	funct3 := bitfield(inst, 14, 12)
	rs1 := bitfield(inst, 19, 15)
	rs2 := bitfield(inst, 24, 20)
	funct7 := bitfield(inst, 31, 25)

	newPC := vm.PC + 4

	switch opcode {
	case opLUI:
		vm.setReg(rd, inst&^0xFFF)

	case opAUIPC:
		vm.setReg(rd, vm.PC+(inst&^0xFFF))

	case opJAL:
		imm := signExtend(
			(bitfield(inst, 31, 31)<<20)|(bitfield(inst, 19, 12)<<12)|
				(bitfield(inst, 20, 20)<<11)|(bitfield(inst, 30, 21)<<1), 21)
		vm.setReg(rd, vm.PC+4)
		newPC = vm.PC + imm
		if newPC%4 != 0 {
			return stepOtherFault
		}

	case opJALR:
		imm := signExtend(bitfield(inst, 31, 20), 12)
		target := (vm.reg(rs1) + imm) &^ 1
		vm.setReg(rd, vm.PC+4)
		newPC = target
		if newPC%4 != 0 {
			return stepOtherFault
		}

	case opBranch:
		imm := signExtend(
			(bitfield(inst, 31, 31)<<12)|(bitfield(inst, 7, 7)<<11)|
				(bitfield(inst, 30, 25)<<5)|(bitfield(inst, 11, 8)<<1), 13)
		a, b := vm.reg(rs1), vm.reg(rs2)
		var taken bool
		switch funct3 {
		case 0b000:
			taken = a == b // BEQ
		case 0b001:
			taken = a != b // BNE
		case 0b100:
			taken = int32(a) < int32(b) // BLT
		case 0b101:
			taken = int32(a) >= int32(b) // BGE
		case 0b110:
			taken = a < b // BLTU
		case 0b111:
			taken = a >= b // BGEU
		default:
			return stepOtherFault
		}
		if taken {
			newPC = vm.PC + imm
			if newPC%4 != 0 {
				return stepOtherFault
			}
		}

	case opLoad:
		imm := signExtend(bitfield(inst, 31, 20), 12)
		addr := vm.reg(rs1) + imm
		var v uint32
		var ok bool
		switch funct3 {
		case 0b000:
			v, ok = vm.mem.loadByte(addr, true) // LB
		case 0b001:
			v, ok = vm.mem.loadHalf(addr, true) // LH
		case 0b010:
			v, ok = vm.mem.loadWord(addr) // LW
		case 0b100:
			v, ok = vm.mem.loadByte(addr, false) // LBU
		case 0b101:
			v, ok = vm.mem.loadHalf(addr, false) // LHU
		default:
			return stepOtherFault
		}
		if !ok {
			return stepLoadFault
		}
		vm.setReg(rd, v)

	case opStore:
		imm := signExtend((bitfield(inst, 31, 25)<<5)|bitfield(inst, 11, 7), 12)
		addr := vm.reg(rs1) + imm
		val := vm.reg(rs2)
		var ok bool
		switch funct3 {
		case 0b000:
			ok = vm.mem.storeByte(addr, val) // SB
		case 0b001:
			ok = vm.mem.storeHalf(addr, val) // SH
		case 0b010:
			ok = vm.mem.storeWord(addr, val) // SW
		default:
			return stepOtherFault
		}
		if !ok {
			return stepStoreFault
		}
		if vm.reservationValid && addr == vm.reservationAddr {
			vm.reservationValid = false
		}

	case opImm:
		imm := signExtend(bitfield(inst, 31, 20), 12)
		a := vm.reg(rs1)
		var v uint32
		switch funct3 {
		case 0b000:
			v = a + imm // ADDI
		case 0b010:
			v = 0
			if int32(a) < int32(imm) {
				v = 1
			} // SLTI
		case 0b011:
			v = 0
			if a < imm {
				v = 1
			} // SLTIU
		case 0b100:
			v = a ^ imm // XORI
		case 0b110:
			v = a | imm // ORI
		case 0b111:
			v = a & imm // ANDI
		case 0b001:
			v = a << bitfield(inst, 24, 20) // SLLI
		case 0b101:
			shamt := bitfield(inst, 24, 20)
			if funct7 == 0b0100000 {
				v = uint32(int32(a) >> shamt) // SRAI
			} else {
				v = a >> shamt // SRLI
			}
		default:
			return stepOtherFault
		}
		vm.setReg(rd, v)

	case opOp:
		a, b := vm.reg(rs1), vm.reg(rs2)
		var v uint32
		if funct7 == 0b0000001 {
			switch funct3 {
			case 0b000:
				v = a * b // MUL
			case 0b001:
				v = uint32((int64(int32(a)) * int64(int32(b))) >> 32) // MULH
			case 0b010:
				v = uint32((int64(int32(a)) * int64(uint64(b))) >> 32) // MULHSU
			case 0b011:
				v = uint32((uint64(a) * uint64(b)) >> 32) // MULHU
			case 0b100: // DIV
				switch {
				case b == 0:
					v = 0xFFFFFFFF
				case int32(a) == math.MinInt32 && int32(b) == -1:
					v = a
				default:
					v = uint32(int32(a) / int32(b))
				}
			case 0b101: // DIVU
				if b == 0 {
					v = 0xFFFFFFFF
				} else {
					v = a / b
				}
			case 0b110: // REM
				switch {
				case b == 0:
					v = a
				case int32(a) == math.MinInt32 && int32(b) == -1:
					v = 0
				default:
					v = uint32(int32(a) % int32(b))
				}
			case 0b111: // REMU
				if b == 0 {
					v = a
				} else {
					v = a % b
				}
			default:
				return stepOtherFault
			}
		} else {
			switch funct3 {
			case 0b000:
				if funct7 == 0b0100000 {
					v = a - b // SUB
				} else {
					v = a + b // ADD
				}
			case 0b001:
				v = a << (b & 0x1F) // SLL
			case 0b010:
				v = 0
				if int32(a) < int32(b) {
					v = 1
				} // SLT
			case 0b011:
				v = 0
				if a < b {
					v = 1
				} // SLTU
			case 0b100:
				v = a ^ b // XOR
			case 0b101:
				if funct7 == 0b0100000 {
					v = uint32(int32(a) >> (b & 0x1F)) // SRA
				} else {
					v = a >> (b & 0x1F) // SRL
				}
			case 0b110:
				v = a | b // OR
			case 0b111:
				v = a & b // AND
			default:
				return stepOtherFault
			}
		}
		vm.setReg(rd, v)

	case opFence:
		// FENCE / FENCE.I: single-hart, no-op.

	case opSystem:
		switch funct3 {
		case 0b000:
			switch bitfield(inst, 31, 20) {
			case 0x000:
				return stepEcall // ECALL
			default:
				return stepOtherFault // EBREAK and anything else
			}
		default:
			csr := bitfield(inst, 31, 20)
			var old uint32
			switch csr {
			case csrMHartID:
				old = vm.hartID
			case csrCycle, csrCycleH:
				old = uint32(vm.cycles)
			case csrTime, csrTimeH:
				old = uint32(vm.instret) // coarse: time tracks instret, no real clock source
			case csrInstret, csrInstretH:
				old = uint32(vm.instret)
			default:
				return stepOtherFault
			}
			// All implemented CSRs are read-only counters or
			// identifiers; writes are accepted and discarded.
			vm.setReg(rd, old)
		}

	case opAmo:
		if funct3 != 0b010 {
			return stepOtherFault
		}
		addr := vm.reg(rs1)
		funct5 := bitfield(inst, 31, 27)
		switch funct5 {
		case amoLR:
			v, ok := vm.mem.loadWord(addr)
			if !ok {
				return stepLoadFault
			}
			vm.reservationValid = true
			vm.reservationAddr = addr
			vm.setReg(rd, v)
		case amoSC:
			result := uint32(1)
			if vm.reservationValid && vm.reservationAddr == addr {
				if !vm.mem.storeWord(addr, vm.reg(rs2)) {
					return stepStoreFault
				}
				result = 0
			}
			vm.reservationValid = false
			vm.setReg(rd, result)
		default:
			old, ok := vm.mem.loadWord(addr)
			if !ok {
				return stepLoadFault
			}
			rs2v := vm.reg(rs2)
			var nv uint32
			switch funct5 {
			case amoSwap:
				nv = rs2v
			case amoAdd:
				nv = old + rs2v
			case amoXor:
				nv = old ^ rs2v
			case amoAnd:
				nv = old & rs2v
			case amoOr:
				nv = old | rs2v
			case amoMin:
				if int32(old) < int32(rs2v) {
					nv = old
				} else {
					nv = rs2v
				}
			case amoMax:
				if int32(old) > int32(rs2v) {
					nv = old
				} else {
					nv = rs2v
				}
			case amoMinu:
				if old < rs2v {
					nv = old
				} else {
					nv = rs2v
				}
			case amoMaxu:
				if old > rs2v {
					nv = old
				} else {
					nv = rs2v
				}
			default:
				return stepOtherFault
			}
			if !vm.mem.storeWord(addr, nv) {
				return stepStoreFault
			}
			vm.setReg(rd, old)
			vm.reservationValid = false
		}

	default:
		return stepOtherFault
	}

	vm.PC = newPC
	return stepNormal
}

// Disassemble renders a best-effort single-instruction mnemonic for
// debug tooling. It is not part of the host-facing API, and neither
// the run loop nor cmd/uvm32run calls it.
func Disassemble(inst uint32) string {
	opcode := bitfield(inst, 6, 0)
	rd := bitfield(inst, 11, 7)
	funct3 := bitfield(inst, 14, 12)
	rs1 := bitfield(inst, 19, 15)
	rs2 := bitfield(inst, 24, 20)

	switch opcode {
	case opLUI:
		return fmt.Sprintf("lui x%d, 0x%x", rd, inst>>12)
	case opAUIPC:
		return fmt.Sprintf("auipc x%d, 0x%x", rd, inst>>12)
	case opJAL:
		return fmt.Sprintf("jal x%d", rd)
	case opJALR:
		return fmt.Sprintf("jalr x%d, x%d", rd, rs1)
	case opBranch:
		return fmt.Sprintf("b<%d> x%d, x%d", funct3, rs1, rs2)
	case opLoad:
		return fmt.Sprintf("l<%d> x%d, x%d", funct3, rd, rs1)
	case opStore:
		return fmt.Sprintf("s<%d> x%d, x%d", funct3, rs2, rs1)
	case opImm:
		return fmt.Sprintf("op-imm<%d> x%d, x%d", funct3, rd, rs1)
	case opOp:
		return fmt.Sprintf("op<%d> x%d, x%d, x%d", funct3, rd, rs1, rs2)
	case opSystem:
		if funct3 == 0 && bitfield(inst, 31, 20) == 0 {
			return "ecall"
		}
		return "system"
	case opAmo:
		return "amo"
	case opFence:
		return "fence"
	default:
		return fmt.Sprintf("<unknown 0x%x>", inst)
	}
}
