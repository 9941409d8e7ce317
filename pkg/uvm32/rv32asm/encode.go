// Package rv32asm encodes RV32IMA instructions into their 32-bit
// machine-code words.
//
// Guest ROMs are supplied as opaque byte images rather than authored
// as assembly text, so this package has no lexer or parser -- just a
// small Encode-style function per instruction format (R/I/S/B/U/J)
// returning a machine word, used by the tests to build in-memory ROM
// images without depending on an external toolchain.
package rv32asm

// Opcode field values (instruction bits 6:0).
const (
	OpLoad   = 0b0000011
	OpImm    = 0b0010011
	OpAUIPC  = 0b0010111
	OpStore  = 0b0100011
	OpOp     = 0b0110011
	OpLUI    = 0b0110111
	OpBranch = 0b1100011
	OpJALR   = 0b1100111
	OpJAL    = 0b1101111
	OpSystem = 0b1110011
	OpAmo    = 0b0101111
)

func r(opcode, rd, funct3, rs1, rs2, funct7 uint32) uint32 {
	return (funct7 << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode
}

func i(opcode, rd, funct3, rs1 uint32, imm int32) uint32 {
	return (uint32(imm)<<20)&0xFFF00000 | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode
}

func s(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	return ((u>>5)&0x7F)<<25 | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | ((u & 0x1F) << 7) | opcode
}

func b(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	return ((u>>12)&1)<<31 | ((u>>5)&0x3F)<<25 | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) |
		((u>>11)&1)<<7 | ((u>>1)&0xF)<<8 | opcode
}

func u(opcode, rd uint32, imm uint32) uint32 {
	return (imm &^ 0xFFF) | (rd << 7) | opcode
}

func j(opcode, rd uint32, imm int32) uint32 {
	uimm := uint32(imm)
	return ((uimm>>20)&1)<<31 | ((uimm>>1)&0x3FF)<<21 | ((uimm>>11)&1)<<20 |
		((uimm>>12)&0xFF)<<12 | (rd << 7) | opcode
}

// R-type (register, register, register) instructions.
func ADD(rd, rs1, rs2 uint32) uint32  { return r(OpOp, rd, 0b000, rs1, rs2, 0) }
func SUB(rd, rs1, rs2 uint32) uint32  { return r(OpOp, rd, 0b000, rs1, rs2, 0b0100000) }
func SLL(rd, rs1, rs2 uint32) uint32  { return r(OpOp, rd, 0b001, rs1, rs2, 0) }
func SLT(rd, rs1, rs2 uint32) uint32  { return r(OpOp, rd, 0b010, rs1, rs2, 0) }
func SLTU(rd, rs1, rs2 uint32) uint32 { return r(OpOp, rd, 0b011, rs1, rs2, 0) }
func XOR(rd, rs1, rs2 uint32) uint32  { return r(OpOp, rd, 0b100, rs1, rs2, 0) }
func SRL(rd, rs1, rs2 uint32) uint32  { return r(OpOp, rd, 0b101, rs1, rs2, 0) }
func SRA(rd, rs1, rs2 uint32) uint32  { return r(OpOp, rd, 0b101, rs1, rs2, 0b0100000) }
func OR(rd, rs1, rs2 uint32) uint32   { return r(OpOp, rd, 0b110, rs1, rs2, 0) }
func AND(rd, rs1, rs2 uint32) uint32  { return r(OpOp, rd, 0b111, rs1, rs2, 0) }

// RV32M extension.
func MUL(rd, rs1, rs2 uint32) uint32    { return r(OpOp, rd, 0b000, rs1, rs2, 0b0000001) }
func MULH(rd, rs1, rs2 uint32) uint32   { return r(OpOp, rd, 0b001, rs1, rs2, 0b0000001) }
func MULHSU(rd, rs1, rs2 uint32) uint32 { return r(OpOp, rd, 0b010, rs1, rs2, 0b0000001) }
func MULHU(rd, rs1, rs2 uint32) uint32  { return r(OpOp, rd, 0b011, rs1, rs2, 0b0000001) }
func DIV(rd, rs1, rs2 uint32) uint32    { return r(OpOp, rd, 0b100, rs1, rs2, 0b0000001) }
func DIVU(rd, rs1, rs2 uint32) uint32   { return r(OpOp, rd, 0b101, rs1, rs2, 0b0000001) }
func REM(rd, rs1, rs2 uint32) uint32    { return r(OpOp, rd, 0b110, rs1, rs2, 0b0000001) }
func REMU(rd, rs1, rs2 uint32) uint32   { return r(OpOp, rd, 0b111, rs1, rs2, 0b0000001) }

// RV32A extension. aq/rl ordering bits are always zero: this module
// targets a single hart with no concurrent-access ordering to model.
func amo(funct5, rd, rs1, rs2 uint32) uint32 {
	return r(OpAmo, rd, 0b010, rs1, rs2, funct5<<2)
}
func LR_W(rd, rs1 uint32) uint32       { return amo(0b00010, rd, rs1, 0) }
func SC_W(rd, rs1, rs2 uint32) uint32  { return amo(0b00011, rd, rs1, rs2) }
func AMOSWAP_W(rd, rs1, rs2 uint32) uint32 { return amo(0b00001, rd, rs1, rs2) }
func AMOADD_W(rd, rs1, rs2 uint32) uint32  { return amo(0b00000, rd, rs1, rs2) }

// I-type (register, register, immediate) instructions.
func ADDI(rd, rs1 uint32, imm int32) uint32  { return i(OpImm, rd, 0b000, rs1, imm) }
func SLTI(rd, rs1 uint32, imm int32) uint32  { return i(OpImm, rd, 0b010, rs1, imm) }
func SLTIU(rd, rs1 uint32, imm int32) uint32 { return i(OpImm, rd, 0b011, rs1, imm) }
func XORI(rd, rs1 uint32, imm int32) uint32  { return i(OpImm, rd, 0b100, rs1, imm) }
func ORI(rd, rs1 uint32, imm int32) uint32   { return i(OpImm, rd, 0b110, rs1, imm) }
func ANDI(rd, rs1 uint32, imm int32) uint32  { return i(OpImm, rd, 0b111, rs1, imm) }
func SLLI(rd, rs1, shamt uint32) uint32      { return i(OpImm, rd, 0b001, rs1, int32(shamt&0x1F)) }
func SRLI(rd, rs1, shamt uint32) uint32      { return i(OpImm, rd, 0b101, rs1, int32(shamt&0x1F)) }
func SRAI(rd, rs1, shamt uint32) uint32 {
	return i(OpImm, rd, 0b101, rs1, int32(shamt&0x1F)|(0b0100000<<5))
}

func LB(rd, rs1 uint32, imm int32) uint32  { return i(OpLoad, rd, 0b000, rs1, imm) }
func LH(rd, rs1 uint32, imm int32) uint32  { return i(OpLoad, rd, 0b001, rs1, imm) }
func LW(rd, rs1 uint32, imm int32) uint32  { return i(OpLoad, rd, 0b010, rs1, imm) }
func LBU(rd, rs1 uint32, imm int32) uint32 { return i(OpLoad, rd, 0b100, rs1, imm) }
func LHU(rd, rs1 uint32, imm int32) uint32 { return i(OpLoad, rd, 0b101, rs1, imm) }

func JALR(rd, rs1 uint32, imm int32) uint32 { return i(OpJALR, rd, 0b000, rs1, imm) }

// ECALL: SYSTEM opcode, funct3=0, imm12=0, rd=rs1=0.
func ECALL() uint32 { return i(OpSystem, 0, 0b000, 0, 0) }

// S-type (store) instructions.
func SB(rs1, rs2 uint32, imm int32) uint32 { return s(OpStore, 0b000, rs1, rs2, imm) }
func SH(rs1, rs2 uint32, imm int32) uint32 { return s(OpStore, 0b001, rs1, rs2, imm) }
func SW(rs1, rs2 uint32, imm int32) uint32 { return s(OpStore, 0b010, rs1, rs2, imm) }

// B-type (branch) instructions. imm is the byte offset from the
// branch instruction to its target; it must be a multiple of 2.
func BEQ(rs1, rs2 uint32, imm int32) uint32  { return b(OpBranch, 0b000, rs1, rs2, imm) }
func BNE(rs1, rs2 uint32, imm int32) uint32  { return b(OpBranch, 0b001, rs1, rs2, imm) }
func BLT(rs1, rs2 uint32, imm int32) uint32  { return b(OpBranch, 0b100, rs1, rs2, imm) }
func BGE(rs1, rs2 uint32, imm int32) uint32  { return b(OpBranch, 0b101, rs1, rs2, imm) }
func BLTU(rs1, rs2 uint32, imm int32) uint32 { return b(OpBranch, 0b110, rs1, rs2, imm) }
func BGEU(rs1, rs2 uint32, imm int32) uint32 { return b(OpBranch, 0b111, rs1, rs2, imm) }

// U-type instructions. imm is the full 32-bit value; only its upper
// 20 bits are encoded.
func LUI(rd uint32, imm uint32) uint32   { return u(OpLUI, rd, imm) }
func AUIPC(rd uint32, imm uint32) uint32 { return u(OpAUIPC, rd, imm) }

// J-type instruction. imm is the byte offset from JAL to its target.
func JAL(rd uint32, imm int32) uint32 { return j(OpJAL, rd, imm) }

// Li synthesizes a 32-bit register load from LUI+ADDI, the standard
// RISC-V two-instruction idiom, returning both encoded words.
func Li(rd uint32, value int32) [2]uint32 {
	upper := uint32(value) + 0x800 // round for ADDI's sign extension
	lower := value - int32(upper&0xFFFFF000)
	return [2]uint32{LUI(rd, upper), ADDI(rd, rd, lower)}
}
