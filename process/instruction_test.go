package process

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
)

var _ = Describe("Instruction", func() {
	DescribeTable("parsing valid lines",
		func(line string, want Instruction) {
			inst, err := ParseInstruction(line)

			Expect(err).ToNot(HaveOccurred())
			Expect(inst).To(Equal(want))
			Expect(inst.String()).To(Equal(strings.Join(strings.Fields(line), " ")))
		},
		Entry("calc", "calc", Instruction{Op: OpCalc}),
		Entry("alloc", "alloc 10 3", Instruction{Op: OpAlloc, Args: [3]uint64{10, 3}}),
		Entry("malloc", "malloc  6   1", Instruction{Op: OpMalloc, Args: [3]uint64{6, 1}}),
		Entry("free", "free 2", Instruction{Op: OpFree, Args: [3]uint64{2}}),
		Entry("read", "read 0 4 9", Instruction{Op: OpRead, Args: [3]uint64{0, 4, 9}}),
		Entry("write", "write 255 1 0", Instruction{Op: OpWrite, Args: [3]uint64{255, 1, 0}}),
	)

	DescribeTable("rejecting invalid lines",
		func(line string) {
			_, err := ParseInstruction(line)

			Expect(errors.Is(err, ErrBadInstruction)).To(BeTrue())
		},
		Entry("empty", "   "),
		Entry("unknown opcode", "jump 3"),
		Entry("too few arguments", "alloc 10"),
		Entry("too many arguments", "calc 1"),
		Entry("not a number", "free x"),
		Entry("negative", "free -1"),
		Entry("register out of range", "alloc 4 10"),
		Entry("read destination out of range", "read 0 0 12"),
		Entry("value beyond a byte", "write 256 0 0"),
	)

	It("should name unknown opcodes", func() {
		Expect(Opcode(42).String()).To(Equal("Opcode(42)"))
	})
})
