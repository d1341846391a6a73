package process

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
)

var _ = Describe("ReadyQueue", func() {
	var q *ReadyQueue

	BeforeEach(func() {
		q = NewReadyQueue(3)
	})

	It("should return nil when empty", func() {
		Expect(q.Empty()).To(BeTrue())
		Expect(q.Dequeue()).To(BeNil())
	})

	It("should dequeue by priority, then by arrival", func() {
		a := &Process{PID: 0, Priority: 1}
		b := &Process{PID: 1, Priority: 3}
		c := &Process{PID: 2, Priority: 1}

		Expect(q.Enqueue(a)).To(Succeed())
		Expect(q.Enqueue(b)).To(Succeed())
		Expect(q.Enqueue(c)).To(Succeed())

		Expect(q.Dequeue()).To(BeIdenticalTo(b))
		Expect(q.Dequeue()).To(BeIdenticalTo(a))
		Expect(q.Dequeue()).To(BeIdenticalTo(c))
		Expect(q.Empty()).To(BeTrue())
	})

	It("should reject processes when full", func() {
		for i := 0; i < 3; i++ {
			Expect(q.Enqueue(&Process{PID: i})).To(Succeed())
		}

		err := q.Enqueue(&Process{PID: 3})

		Expect(errors.Is(err, ErrQueueFull)).To(BeTrue())
		Expect(q.Len()).To(Equal(3))
	})
})
