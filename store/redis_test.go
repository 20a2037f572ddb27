package store

import (
	"context"
	"errors"
	"time"

	"github.com/alicebob/miniredis/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Redis", func() {
	var (
		ctx context.Context
		mr  *miniredis.Miniredis
		r   *Redis
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()

		mr, err = miniredis.Run()
		Expect(err).ShouldNot(HaveOccurred())

		r, err = NewRedis(ctx, mr.Addr())
		Expect(err).ShouldNot(HaveOccurred())
	})

	AfterEach(func() {
		_ = r.Close()
		mr.Close()
	})

	It("Gets, sets, counts and deletes hash fields", func() {
		_, err := r.HGet(ctx, "nockpoint", "GET:/foo")
		Expect(err).To(MatchError(ErrMissing))

		Expect(r.HSet(ctx, "nockpoint", "GET:/foo", `{"response":"bar"}`)).To(Succeed())
		Expect(mr.HGet("nockpoint", "GET:/foo")).To(Equal(`{"response":"bar"}`))

		value, err := r.HGet(ctx, "nockpoint", "GET:/foo")
		Expect(err).ShouldNot(HaveOccurred())
		Expect(value).To(Equal(`{"response":"bar"}`))

		n, err := r.HLen(ctx, "nockpoint")
		Expect(err).ShouldNot(HaveOccurred())
		Expect(n).To(BeEquivalentTo(1))

		Expect(r.HDel(ctx, "nockpoint", "GET:/foo")).To(Succeed())
		Expect(r.HDel(ctx, "nockpoint", "GET:/foo")).To(Succeed())

		n, err = r.HLen(ctx, "nockpoint")
		Expect(err).ShouldNot(HaveOccurred())
		Expect(n).To(BeZero())
	})

	It("Reports operations after the server stops as unavailable", func() {
		mr.Close()

		_, err := r.HLen(ctx, "nockpoint")

		var unavailableErr *UnavailableError
		Expect(errors.As(err, &unavailableErr)).To(BeTrue())
	})

	It("Fails to connect without a server", func() {
		addr := mr.Addr()
		mr.Close()

		_, err := NewRedis(ctx, addr)

		var unavailableErr *UnavailableError
		Expect(errors.As(err, &unavailableErr)).To(BeTrue())
		Expect(unavailableErr.Op).To(Equal("ping"))
	})

	Context("Monitor", func() {
		It("Reports the first failed ping", func() {
			monitorCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			errc := Monitor(monitorCtx, r, 10*time.Millisecond)
			Consistently(errc, 50*time.Millisecond).ShouldNot(Receive())

			mr.Close()

			Eventually(errc, 5*time.Second).Should(Receive(HaveOccurred()))
		})
	})
})
