package engine_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/exp/rand"

	"github.com/san-kum/encounter/internal/classify"
	"github.com/san-kum/encounter/internal/engine"
	"github.com/san-kum/encounter/internal/hierarchy"
	"github.com/san-kum/encounter/internal/scenario"
	"github.com/san-kum/encounter/internal/units"
)

// bulkyRadius is about 0.3 AU for a solar mass, in Schwarzschild radii.
const bulkyRadius = 1.5e7

func coplanarTriple(aOut float64) (*hierarchy.Hierarchy, units.Units) {
	return coplanarTripleRadius(aOut, 3)
}

func coplanarTripleRadius(aOut, radius float64) (*hierarchy.Hierarchy, units.Units) {
	h, u, err := scenario.Triple(scenario.Params{
		Masses: []float64{1, 1, 1},
		Radii:  []float64{radius, radius, radius},
		A:      []float64{1, aOut},
		E:      []float64{0, 0},
		Inc:    0,
		Peri:   []float64{0, 0},
	}, rand.NewSource(2024), nil)
	Expect(err).NotTo(HaveOccurred())
	return h, u
}

var _ = Describe("Hierarchical triples", func() {
	var cfg engine.Config

	BeforeEach(func() {
		cfg = engine.DefaultConfig()
	})

	DescribeTable("a wide coplanar triple resolves unchanged",
		func(regularize bool) {
			h, u := coplanarTriple(10)
			cfg.Regularize = regularize
			cfg.TStop = 100 * 2 * math.Pi

			var t float64
			res, err := engine.Run(context.Background(), cfg, u, h, &t, rand.NewSource(1))
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Code).To(Equal(engine.Resolved))
			Expect(res.Topology).To(Equal("[[0 1] 2]"))
			Expect(res.Levels[2]).To(Equal(classify.Stable))
			Expect(res.Levels[3]).To(Equal(classify.Stable))
			Expect(res.Collisions).To(BeEmpty())
			Expect(math.Abs(res.DeltaEFrac)).To(BeNumerically("<", 1e-6))
			Expect(t).To(BeNumerically("<", cfg.TStop))
			Expect(h.Check()).To(Succeed())
		},
		Entry("direct", false),
		Entry("regularized", true),
	)

	Context("when the tertiary sits inside the stability boundary", func() {
		var h *hierarchy.Hierarchy

		BeforeEach(func() {
			h, _ = coplanarTriple(2.5)
		})

		It("is classified unstable at the start", func() {
			c := classify.New(h, classify.Options{TidalTol: cfg.TidalTol, SpeedTol: cfg.SpeedTol})
			rep, err := c.Classify(h, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Resolved).To(BeFalse())
			Expect(rep.Levels[3]).To(Equal(classify.Unstable))
			Expect(h.String()).To(Equal("[[0 1] 2]"), "classification leaves the input alone")
		})

		It("breaks up, exchanges or merges once the tertiary is pushed further in", func() {
			hc, uc := coplanarTripleRadius(1.5, bulkyRadius)
			Expect(hc.Node(0).R).To(BeNumerically("~", 0.3, 0.01))
			cfg.Regularize = true
			cfg.TStop = 1e4

			var t float64
			res, err := engine.Run(context.Background(), cfg, uc, hc, &t, rand.NewSource(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Code).To(Equal(engine.Resolved))
			if len(res.Collisions) == 0 {
				Expect(res.Topology).NotTo(Equal("[[0 1] 2]"))
			}
			Expect(math.Abs(res.DeltaEFrac)).To(BeNumerically("<", 1e-4))
			Expect(res.Rmin).To(BeNumerically(">", 0))
			Expect(hc.Check()).To(Succeed())
		})
	})
})
