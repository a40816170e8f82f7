package verify_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/regbench/kernel"
	"github.com/sarchlab/regbench/verify"
)

var _ = Describe("Scoreboard", func() {
	var sb *verify.Scoreboard

	BeforeEach(func() {
		sb = verify.NewScoreboard("SB")
	})

	It("should match results in order", func() {
		sb.Push(0)
		sb.Push(1)

		Expect(sb.Pending()).To(Equal(2))
		Expect(sb.Check(0)).To(Succeed())
		Expect(sb.Check(1)).To(Succeed())
		Expect(sb.Drained()).To(BeTrue())
		Expect(sb.Checked()).To(Equal(2))
		Expect(sb.Pushed()).To(Equal(2))
	})

	It("should report a mismatch with its index", func() {
		sb.Push(0)
		sb.Push(1)
		Expect(sb.Check(0)).To(Succeed())

		err := sb.Check(0)

		var mm *verify.MismatchError
		Expect(errors.As(err, &mm)).To(BeTrue())
		Expect(mm.Index).To(Equal(1))
		Expect(mm.Expected).To(Equal(uint64(1)))
		Expect(mm.Actual).To(Equal(uint64(0)))
		Expect(err.Error()).To(Equal("result 1: expected 1, got 0"))
	})

	It("should reject output with nothing expected", func() {
		Expect(sb.Check(1)).To(MatchError(verify.ErrUnexpectedOutput))
	})

	It("should check values from a mailbox until killed", func() {
		k := kernel.Builder{}.Build("Kernel")
		box := kernel.NewMailbox[uint64](k)
		sb.Push(1)
		sb.Push(0)

		err := k.Run(context.Background(), "root", func(t *kernel.Task) error {
			checker := k.Spawn("checker", func(t *kernel.Task) error {
				return sb.Run(t, box)
			})

			box.Put(1)
			box.Put(0)

			if err := t.Await(kernel.Timer(kernel.NS)); err != nil {
				return err
			}

			k.Kill(checker)

			return nil
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(sb.Drained()).To(BeTrue())
		Expect(sb.Checked()).To(Equal(2))
	})

	It("should fail the run on an unexpected value", func() {
		k := kernel.Builder{}.Build("Kernel")
		box := kernel.NewMailbox[uint64](k)

		err := k.Run(context.Background(), "root", func(t *kernel.Task) error {
			k.Spawn("checker", func(t *kernel.Task) error {
				return sb.Run(t, box)
			})

			box.Put(1)

			return t.Await(kernel.Timer(kernel.NS))
		})

		Expect(err).To(MatchError(verify.ErrUnexpectedOutput))
	})
})
