// Package process runs simulated programs against their address spaces.
package process

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sarchlab/pagesim/mem/vm/addrspace"
)

// NumRegisters is the number of registers of a process.
const NumRegisters = 10

// A Process is a program, its execution state, and its memory.
type Process struct {
	PID      int
	Name     string
	Priority int
	Code     []Instruction
	PC       int
	Regs     [NumRegisters]uint64
	Mem      *addrspace.AddressSpace
}

// Finished tells if every instruction has been executed.
func (p *Process) Finished() bool {
	return p.PC >= len(p.Code)
}

// Step executes the next instruction. The program counter advances even if
// the instruction fails.
func (p *Process) Step() error {
	if p.Finished() {
		return nil
	}

	inst := p.Code[p.PC]
	p.PC++

	err := p.execute(inst)
	if err != nil {
		return errors.Wrapf(err, "pid %d pc %d %s", p.PID, p.PC-1, inst)
	}

	return nil
}

func (p *Process) execute(inst Instruction) error {
	a := inst.Args

	switch inst.Op {
	case OpCalc:
		return nil
	case OpAlloc, OpMalloc:
		seg := addrspace.DataSegment
		if inst.Op == OpMalloc {
			seg = addrspace.HeapSegment
		}

		addr, err := p.Mem.Allocate(seg, a[0], int(a[1]))
		if err != nil {
			return err
		}

		p.Regs[a[1]] = addr

		return nil
	case OpFree:
		return p.Mem.Free(int(a[0]))
	case OpRead:
		value, err := p.Mem.Read(int(a[0]), a[1])
		if err != nil {
			return err
		}

		p.Regs[a[2]] = uint64(value)

		return nil
	case OpWrite:
		return p.Mem.Write(int(a[1]), a[2], byte(a[0]))
	default:
		return errors.Wrapf(ErrBadInstruction, "opcode %d", int(inst.Op))
	}
}

// ParseProgram reads a program. The first line is "<priority> <count>",
// followed by count instructions, one per line. Blank lines and lines
// starting with '#' are skipped.
func ParseProgram(r io.Reader) (priority int, code []Instruction, err error) {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	count := -1

	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if count < 0 {
			priority, count, err = parseHeader(line)
			if err != nil {
				return 0, nil, errors.Wrapf(err, "line %d", lineNo)
			}

			continue
		}

		inst, err := ParseInstruction(line)
		if err != nil {
			return 0, nil, errors.Wrapf(err, "line %d", lineNo)
		}

		code = append(code, inst)
	}

	if err = scanner.Err(); err != nil {
		return 0, nil, errors.Wrap(err, "reading program")
	}

	if count < 0 {
		return 0, nil, errors.Wrap(ErrBadInstruction, "missing header")
	}

	if len(code) != count {
		return 0, nil, errors.Wrapf(ErrBadInstruction,
			"header announces %d instructions, found %d", count, len(code))
	}

	return priority, code, nil
}

func parseHeader(line string) (priority, count int, err error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, 0, errors.Wrapf(ErrBadInstruction, "header %q", line)
	}

	priority, err = strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, errors.Wrapf(ErrBadInstruction, "priority %q", fields[0])
	}

	count, err = strconv.Atoi(fields[1])
	if err != nil || count < 0 {
		return 0, 0, errors.Wrapf(ErrBadInstruction, "count %q", fields[1])
	}

	return priority, count, nil
}
