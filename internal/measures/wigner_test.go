package measures_test

import (
	"math"

	"github.com/san-kum/qomsim/internal/dynamo"
	"github.com/san-kum/qomsim/internal/measures"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Wigner", func() {
	var (
		Vm   *mat.SymDense
		mean [2]float64
	)

	BeforeEach(func() {
		Vm = mat.NewSymDense(2, []float64{1.2, 0.3, 0.3, 0.8})
		mean = [2]float64{0.5, -0.3}
	})

	It("integrates to one", func() {
		q := floats.Span(make([]float64, 401), -8, 8)
		p := floats.Span(make([]float64, 401), -8, 8)
		s, err := measures.Wigner(Vm, mean, q, p)
		Expect(err).NotTo(HaveOccurred())

		dq, dp := q[1]-q[0], p[1]-p[0]
		total := 0.0
		for _, row := range s.W {
			total += floats.Sum(row)
		}
		Expect(total * dq * dp).To(BeNumerically("~", 1, 1e-6))
	})

	It("peaks at the mean quadratures", func() {
		w, err := measures.WignerAt(Vm, mean, mean[0], mean[1])
		Expect(err).NotTo(HaveOccurred())
		det := 1.2*0.8 - 0.3*0.3
		Expect(w).To(BeNumerically("~", 1/(2*math.Pi*math.Sqrt(det)), 1e-14))

		off, _ := measures.WignerAt(Vm, mean, mean[0]+0.1, mean[1])
		Expect(off).To(BeNumerically("<", w))
	})

	It("lays the surface out for plotting", func() {
		s, err := measures.Wigner(Vm, mean, []float64{-1, 0, 1}, []float64{2, 3})
		Expect(err).NotTo(HaveOccurred())
		c, r := s.Dims()
		Expect(c).To(Equal(3))
		Expect(r).To(Equal(2))
		Expect(s.X(2)).To(Equal(1.0))
		Expect(s.Y(1)).To(Equal(3.0))
		want, _ := measures.WignerAt(Vm, mean, 1, 3)
		Expect(s.Z(2, 1)).To(BeNumerically("~", want, 1e-15))
	})

	DescribeTable("rejects covariances that cannot be inverted",
		func(entries []float64) {
			_, err := measures.Wigner(mat.NewSymDense(2, entries), mean, []float64{0}, []float64{0})
			var singular *dynamo.SingularCovarianceError
			Expect(err).To(BeAssignableToTypeOf(singular))
			Expect(err).To(MatchError(dynamo.ErrSingularCovariance))
		},
		Entry("rank one", []float64{1, 1, 1, 1}),
		Entry("negative definite", []float64{-1, 0, 0, -1}),
		Entry("zero", []float64{0, 0, 0, 0}),
		Entry("NaN", []float64{math.NaN(), 0, 0, 1}),
	)

	Context("two modes", func() {
		It("factorises for product states", func() {
			V := mat.NewSymDense(4, nil)
			V.SetSym(0, 0, 1.2)
			V.SetSym(0, 1, 0.3)
			V.SetSym(1, 1, 0.8)
			V.SetSym(2, 2, 0.5)
			V.SetSym(3, 3, 0.5)

			pts := [][4]float64{{0, 0, 0, 0}, {0.3, -1, 0.2, 0.4}, {1, 1, -1, 2}}
			ws, err := measures.Wigner2(V, [4]float64{}, pts)
			Expect(err).NotTo(HaveOccurred())

			vac := mat.NewSymDense(2, []float64{0.5, 0, 0, 0.5})
			for k, pt := range pts {
				a, _ := measures.WignerAt(Vm, [2]float64{}, pt[0], pt[1])
				b, _ := measures.WignerAt(vac, [2]float64{}, pt[2], pt[3])
				Expect(ws[k]).To(BeNumerically("~", a*b, 1e-14))
			}
		})

		It("rejects singular blocks", func() {
			_, err := measures.Wigner2(mat.NewSymDense(4, nil), [4]float64{}, [][4]float64{{}})
			Expect(err).To(MatchError(dynamo.ErrSingularCovariance))
		})
	})
})
