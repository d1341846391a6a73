package process

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrBadInstruction is returned for lines that are not valid instructions.
var ErrBadInstruction = errors.New("bad instruction")

// An Opcode names an instruction.
type Opcode int

// Opcodes.
const (
	OpCalc Opcode = iota
	OpAlloc
	OpMalloc
	OpFree
	OpRead
	OpWrite
)

var opcodeNames = map[Opcode]string{
	OpCalc:   "calc",
	OpAlloc:  "alloc",
	OpMalloc: "malloc",
	OpFree:   "free",
	OpRead:   "read",
	OpWrite:  "write",
}

var opcodeArgs = map[Opcode]int{
	OpCalc:   0,
	OpAlloc:  2,
	OpMalloc: 2,
	OpFree:   1,
	OpRead:   3,
	OpWrite:  3,
}

func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}

	return fmt.Sprintf("Opcode(%d)", int(o))
}

// An Instruction is one line of a program.
//
//	calc
//	alloc  <size> <reg>           data segment, allocation id = reg
//	malloc <size> <reg>           heap segment, allocation id = reg
//	free   <reg>
//	read   <reg> <offset> <dst>   regs[dst] = byte at offset of allocation reg
//	write  <value> <reg> <offset>
//
// Allocation instructions store the start address in regs[reg].
type Instruction struct {
	Op   Opcode
	Args [3]uint64
}

func (i Instruction) String() string {
	parts := []string{i.Op.String()}
	for a := 0; a < opcodeArgs[i.Op]; a++ {
		parts = append(parts, fmt.Sprintf("%d", i.Args[a]))
	}

	return strings.Join(parts, " ")
}

// ParseInstruction parses one program line.
func ParseInstruction(line string) (Instruction, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Instruction{}, errors.Wrap(ErrBadInstruction, "empty line")
	}

	inst := Instruction{Op: -1}
	for op, name := range opcodeNames {
		if name == fields[0] {
			inst.Op = op
		}
	}

	if inst.Op < 0 {
		return Instruction{}, errors.Wrapf(ErrBadInstruction,
			"unknown opcode %q", fields[0])
	}

	want := opcodeArgs[inst.Op]
	if len(fields)-1 != want {
		return Instruction{}, errors.Wrapf(ErrBadInstruction,
			"%s takes %d arguments, got %d", fields[0], want, len(fields)-1)
	}

	for a := 0; a < want; a++ {
		_, err := fmt.Sscan(fields[a+1], &inst.Args[a])
		if err != nil {
			return Instruction{}, errors.Wrapf(ErrBadInstruction,
				"argument %q of %s", fields[a+1], fields[0])
		}
	}

	if err := inst.registersMustExist(); err != nil {
		return Instruction{}, err
	}

	return inst, nil
}

func (i Instruction) registersMustExist() error {
	var regs []uint64

	switch i.Op {
	case OpAlloc, OpMalloc:
		regs = []uint64{i.Args[1]}
	case OpFree:
		regs = []uint64{i.Args[0]}
	case OpRead:
		regs = []uint64{i.Args[0], i.Args[2]}
	case OpWrite:
		regs = []uint64{i.Args[1]}
		if i.Args[0] > 0xff {
			return errors.Wrapf(ErrBadInstruction,
				"value %d does not fit in a byte", i.Args[0])
		}
	}

	for _, r := range regs {
		if r >= NumRegisters {
			return errors.Wrapf(ErrBadInstruction,
				"register %d, only %d exist", r, NumRegisters)
		}
	}

	return nil
}
