package hooking

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type namedHookable struct {
	HookableBase
}

func (n *namedHookable) Name() string {
	return "Domain"
}

type countingHook struct {
	name  string
	order *[]string
	ctxs  []HookCtx
}

func (c *countingHook) Func(ctx HookCtx) {
	if c.order != nil {
		*c.order = append(*c.order, c.name)
	}
	c.ctxs = append(c.ctxs, ctx)
}

var _ = Describe("HookableBase", func() {
	var domain *namedHookable

	BeforeEach(func() {
		domain = &namedHookable{}
	})

	It("should invoke hooks in registration order", func() {
		var order []string
		domain.AcceptHook(&countingHook{name: "a", order: &order})
		domain.AcceptHook(&countingHook{name: "b", order: &order})

		domain.InvokeHook(HookCtx{Domain: domain, Pos: HookPosPageFault})

		Expect(domain.NumHooks()).To(Equal(2))
		Expect(order).To(Equal([]string{"a", "b"}))
	})

	It("should pass the context through", func() {
		hook := &countingHook{}
		domain.AcceptHook(hook)

		item := PageEvent{Page: 3, Frame: 1}
		domain.InvokeHook(HookCtx{
			Domain: domain,
			Pos:    HookPosPageEvict,
			Item:   item,
		})

		Expect(hook.ctxs).To(HaveLen(1))
		Expect(hook.ctxs[0].Pos).To(BeIdenticalTo(HookPosPageEvict))
		Expect(hook.ctxs[0].Item).To(Equal(item))
		Expect(hook.ctxs[0].Domain.Name()).To(Equal("Domain"))
	})

	It("should panic on duplicated hook", func() {
		hook := &countingHook{}
		domain.AcceptHook(hook)

		Expect(func() { domain.AcceptHook(hook) }).To(Panic())
		Expect(domain.Hooks()).To(HaveLen(1))
	})
})
