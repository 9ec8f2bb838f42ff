package collision_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rigidsync/internal/collision"
)

type frames struct {
	manifolds []collision.Manifold
}

func (f *frames) ContactManifolds() []collision.Manifold { return f.manifolds }

func touching(a, b string, d ...float64) collision.Manifold {
	return collision.Manifold{NameA: a, NameB: b, Distances: d}
}

var _ = Describe("Key", func() {
	It("formats as a-b", func() {
		Expect(collision.Key{A: "hammer", B: "laserButton"}.String()).To(Equal("hammer-laserButton"))
	})

	It("parses at the first dash", func() {
		k, err := collision.ParseKey("domino0-domino1")
		Expect(err).NotTo(HaveOccurred())
		Expect(k).To(Equal(collision.Key{A: "domino0", B: "domino1"}))

		k, err = collision.ParseKey("a-b-c")
		Expect(err).NotTo(HaveOccurred())
		Expect(k.B).To(Equal("b-c"))
	})

	It("rejects keys without two names", func() {
		for _, s := range []string{"", "abc", "-b", "a-"} {
			_, err := collision.ParseKey(s)
			Expect(err).To(HaveOccurred(), s)
		}
	})

	It("parses policies", func() {
		p, err := collision.ParsePolicy("discovery")
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal(collision.PolicyDiscovery))
		p, err = collision.ParsePolicy("")
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal(collision.PolicyCanonical))
		_, err = collision.ParsePolicy("sorted")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Tracker", func() {
	var (
		src     *frames
		tracker *collision.Tracker
		key     collision.Key
	)

	BeforeEach(func() {
		src = &frames{}
		tracker = collision.NewTracker(collision.WithPolicy(collision.PolicyDiscovery))
		key = collision.Key{A: "hammer", B: "laserButton"}
	})

	It("stays clear while bodies only approach", func() {
		src.manifolds = []collision.Manifold{touching("hammer", "laserButton", 0.01)}
		Expect(tracker.Scan(src)).To(BeEmpty())
		Expect(tracker.Query(key)).To(BeFalse())
	})

	It("fires on the first non-positive contact", func() {
		src.manifolds = []collision.Manifold{touching("hammer", "laserButton", 0.01, 0)}
		Expect(tracker.Scan(src)).To(ConsistOf(key))
		Expect(tracker.Query(key)).To(BeTrue())
		Expect(tracker.Stats().Onsets).To(Equal(1))
	})

	It("reports an onset once while the flag stays set", func() {
		src.manifolds = []collision.Manifold{touching("hammer", "laserButton", -0.01, -0.02)}
		Expect(tracker.Scan(src)).To(HaveLen(1))
		Expect(tracker.Scan(src)).To(BeEmpty())
		Expect(tracker.Query(key)).To(BeTrue())
	})

	It("re-arms on the next scan when acknowledged while touching", func() {
		src.manifolds = []collision.Manifold{touching("hammer", "laserButton", -0.01)}
		tracker.Scan(src)
		tracker.Acknowledge(key)
		Expect(tracker.Query(key)).To(BeFalse())

		Expect(tracker.Scan(src)).To(ConsistOf(key))
		Expect(tracker.Query(key)).To(BeTrue())
	})

	It("stays clear after acknowledging once the bodies separate", func() {
		src.manifolds = []collision.Manifold{touching("hammer", "laserButton", -0.01)}
		tracker.Scan(src)
		tracker.Acknowledge(key)

		src.manifolds = []collision.Manifold{touching("hammer", "laserButton", 0.015)}
		tracker.Scan(src)
		Expect(tracker.Query(key)).To(BeFalse())
		Expect(tracker.Known()).To(ConsistOf(key))
	})

	It("skips manifolds with an unnamed body", func() {
		src.manifolds = []collision.Manifold{
			touching("", "laserButton", -1),
			touching("hammer", "", -1),
		}
		Expect(tracker.Scan(src)).To(BeEmpty())
		Expect(tracker.Known()).To(BeEmpty())
		Expect(tracker.Stats().Skipped).To(Equal(2))
	})

	It("never clears flags by itself", func() {
		src.manifolds = []collision.Manifold{touching("hammer", "laserButton", -0.01)}
		tracker.Scan(src)
		src.manifolds = nil
		for i := 0; i < 5; i++ {
			tracker.Scan(src)
		}
		Expect(tracker.Query(key)).To(BeTrue())
	})

	It("ignores acknowledgements for unknown keys", func() {
		tracker.Acknowledge(collision.Key{A: "x", B: "y"})
		Expect(tracker.Known()).To(BeEmpty())
		Expect(tracker.Fired()).To(BeEmpty())
	})

	It("lists fired keys in first-seen order", func() {
		src.manifolds = []collision.Manifold{
			touching("domino1", "domino2", -0.01),
			touching("domino0", "domino1", -0.01),
		}
		tracker.Scan(src)
		Expect(tracker.Fired()).To(Equal([]collision.Key{
			{A: "domino1", B: "domino2"},
			{A: "domino0", B: "domino1"},
		}))
		tracker.AcknowledgeNames("domino1", "domino2")
		Expect(tracker.Fired()).To(Equal([]collision.Key{{A: "domino0", B: "domino1"}}))
	})

	Describe("partners", func() {
		It("tracks the last touching partner of the first body", func() {
			src.manifolds = []collision.Manifold{touching("ball", "floor", -0.001)}
			tracker.Scan(src)
			p, ok := tracker.Partner("ball")
			Expect(ok).To(BeTrue())
			Expect(p).To(Equal("floor"))

			src.manifolds = []collision.Manifold{touching("ball", "floor", 0.01)}
			tracker.Scan(src)
			_, ok = tracker.Partner("ball")
			Expect(ok).To(BeFalse())
		})

		It("is cleared by any separated point, whoever the partner was", func() {
			src.manifolds = []collision.Manifold{touching("ball", "floor", -0.001)}
			tracker.Scan(src)

			src.manifolds = []collision.Manifold{touching("ball", "crate", 0.02)}
			tracker.Scan(src)
			_, ok := tracker.Partner("ball")
			Expect(ok).To(BeFalse())
		})

		It("lets the last point of a manifold decide", func() {
			src.manifolds = []collision.Manifold{touching("ball", "floor", -0.001, 0.01)}
			tracker.Scan(src)
			_, ok := tracker.Partner("ball")
			Expect(ok).To(BeFalse())
			Expect(tracker.QueryNames("ball", "floor")).To(BeTrue())

			src.manifolds = []collision.Manifold{touching("ball", "floor", 0.01, -0.001)}
			tracker.Scan(src)
			p, ok := tracker.Partner("ball")
			Expect(ok).To(BeTrue())
			Expect(p).To(Equal("floor"))
		})
	})

	Describe("string keys", func() {
		It("resolves in discovery order as written", func() {
			k, err := tracker.ResolveKey("laserButton-hammer")
			Expect(err).NotTo(HaveOccurred())
			Expect(k).To(Equal(key.Reversed()))
		})

		It("resolves to the stored order under the canonical policy", func() {
			canonical := collision.NewTracker()
			src.manifolds = []collision.Manifold{touching("laserButton", "hammer", -0.01)}
			canonical.Scan(src)

			k, err := canonical.ResolveKey("laserButton-hammer")
			Expect(err).NotTo(HaveOccurred())
			Expect(k).To(Equal(key))
			Expect(canonical.Query(k)).To(BeTrue())
		})

		It("rejects malformed keys", func() {
			_, err := tracker.ResolveKey("hammer")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("key order", func() {
		It("keeps reversed keys independent under discovery order", func() {
			src.manifolds = []collision.Manifold{touching("laserButton", "hammer", -0.01)}
			tracker.Scan(src)
			Expect(tracker.Query(key)).To(BeFalse())
			Expect(tracker.Query(key.Reversed())).To(BeTrue())
			Expect(tracker.QueryNames("hammer", "laserButton")).To(BeFalse())
		})

		It("merges reversed keys under canonical order", func() {
			canonical := collision.NewTracker()
			Expect(canonical.Policy()).To(Equal(collision.PolicyCanonical))
			src.manifolds = []collision.Manifold{touching("laserButton", "hammer", -0.01)}
			canonical.Scan(src)
			Expect(canonical.QueryNames("hammer", "laserButton")).To(BeTrue())
			Expect(canonical.QueryNames("laserButton", "hammer")).To(BeTrue())
			Expect(canonical.Query(key)).To(BeTrue())

			canonical.AcknowledgeNames("laserButton", "hammer")
			Expect(canonical.Query(key)).To(BeFalse())
		})
	})
})
