package harness_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/ndisim/internal/codec"
	"github.com/san-kum/ndisim/internal/config"
	"github.com/san-kum/ndisim/internal/harness"
	"github.com/san-kum/ndisim/internal/reader"
	"github.com/san-kum/ndisim/internal/store"
)

var _ = Describe("Preset scenarios", func() {
	var opts harness.Options

	BeforeEach(func() {
		dir, err := os.MkdirTemp("", "ndisim-harness")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)

		opts = harness.DefaultOptions()
		opts.Quiet = true
		opts.ExportPath = filepath.Join(dir, "Coordinates.txt")
	})

	DescribeTable("runs to export with every scheduled record",
		func(preset string, records, spheres int) {
			s := config.GetPreset(preset)
			h, err := harness.New(s, opts)
			Expect(err).NotTo(HaveOccurred())

			rep, err := h.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Exported).To(BeTrue())
			Expect(rep.Records).To(Equal(records))
			Expect(rep.FinalTick).To(Equal(s.LastTick()))
			Expect(rep.Pending).To(BeEmpty())
			Expect(rep.FramesDiscarded).To(BeZero())

			for _, sample := range rep.Samples {
				Expect(sample.Spheres).To(HaveLen(spheres))
			}

			f, err := os.Open(rep.ExportPath)
			Expect(err).NotTo(HaveOccurred())
			defer f.Close()
			Expect(store.CountRecords(f)).To(Equal(records))
		},
		Entry("basic test", "basic_test", 2, 3),
		Entry("circular motion", "circular_motion", 3, 3),
		Entry("spiral motion", "spiral_motion", 3, 3),
		Entry("mixed motion", "mixed_motion", 3, 3),
		Entry("stress test", "stress_test", 10, 5),
	)

	It("fires events in tick order with each tick firing once", func() {
		h, err := harness.New(config.GetPreset("stress_test"), opts)
		Expect(err).NotTo(HaveOccurred())

		rep, err := h.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		Expect(rep.Events).To(HaveLen(11))
		seen := map[int]bool{}
		for i, ev := range rep.Events {
			Expect(seen[ev.Tick]).To(BeFalse())
			seen[ev.Tick] = true
			if i > 0 {
				Expect(ev.Tick).To(BeNumerically(">", rep.Events[i-1].Tick))
			}
		}
		Expect(rep.Events[10].Key).To(Equal("e"))
	})

	It("keeps a record key on every tick of a back-to-back run", func() {
		s := config.GetPreset("basic_test")
		s.KeyboardSchedule = map[int]string{}
		for tick := 10; tick < 20; tick++ {
			s.KeyboardSchedule[tick] = "c"
		}
		s.KeyboardSchedule[20] = "e"

		h, err := harness.New(s, opts)
		Expect(err).NotTo(HaveOccurred())
		rep, err := h.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		Expect(rep.Records).To(Equal(10))
		Expect(rep.Pending).To(BeEmpty())
		for i, sample := range rep.Samples {
			Expect(sample.Tick).To(Equal(10 + i))
		}
	})

	It("repeats a run exactly for the same seed", func() {
		run := func() [][3]string {
			h, err := harness.New(config.GetPreset("circular_motion"), opts)
			Expect(err).NotTo(HaveOccurred())
			rep, err := h.Run(context.Background())
			Expect(err).NotTo(HaveOccurred())
			return rep.Samples[2].Spheres
		}
		Expect(run()).To(Equal(run()))
	})

	It("keeps circling spheres within amplitude plus noise of their center", func() {
		s := config.GetPreset("circular_motion")
		h, err := harness.New(s, opts)
		Expect(err).NotTo(HaveOccurred())

		var frames []reader.Frame
		h.AddObserver(harness.ObserverFunc(func(f reader.Frame) { frames = append(frames, f) }))

		_, err = h.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(frames).NotTo(BeEmpty())

		limit := s.Spheres[0].Amplitude + s.Spheres[0].NoiseLevel + 1
		for _, f := range frames {
			Expect(f.Status).To(Equal(codec.StatusOK))
			for _, p := range f.Points {
				for _, v := range []int{p.X, p.Y, p.Z} {
					Expect(float64(v)).To(BeNumerically("<=", limit))
					Expect(float64(v)).To(BeNumerically(">=", -limit))
				}
			}
		}
	})
})
