package systems_test

import (
	"github.com/san-kum/qomsim/internal/dynamo"
	"github.com/san-kum/qomsim/internal/systems"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Registry", func() {
	It("lists every model", func() {
		Expect(systems.Codes()).To(ConsistOf("osc", "om_00", "prl_00", "njp_00", "mod_00", "oem_20"))
	})

	DescribeTable("default mode counts",
		func(code string, modes int) {
			m, err := systems.New(code, systems.Params{})
			Expect(err).NotTo(HaveOccurred())
			Expect(m.NumModes()).To(Equal(modes))
		},
		Entry("oscillators", "osc", 1),
		Entry("optomechanics", "om_00", 2),
		Entry("gently modulated", "prl_00", 2),
		Entry("static OEM", "njp_00", 3),
		Entry("modulated OEM", "mod_00", 3),
		Entry("multi-modulated OEM", "oem_20", 3),
	)

	It("does not let callers mutate the defaults", func() {
		p, err := systems.Defaults("mod_00")
		Expect(err).NotTo(HaveOccurred())
		Expect(p.SetIndexed("gs", 0, 1)).To(Succeed())

		again, _ := systems.Defaults("mod_00")
		Expect(again.Values["gs"][0]).To(BeNumerically("==", 5e-3))
	})

	Context("selectors", func() {
		It("parses the known envelopes", func() {
			m, err := systems.ParseModulation("sin")
			Expect(err).NotTo(HaveOccurred())
			Expect(m).To(Equal(systems.ModSin))
			Expect(m.Eval(0)).To(BeZero())
		})

		It("rejects anything else", func() {
			_, err := systems.ParseMembrane("side")
			Expect(err).To(MatchError(dynamo.ErrConfiguration))
		})
	})
})
