package mirror_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/repomirror/internal/mirror"
	"github.com/skaphos/repomirror/internal/model"
)

var _ = Describe("Tracker", func() {
	It("counts outstanding work", func() {
		var t mirror.Tracker
		t.Begin()
		t.Begin()
		Expect(t.Outstanding()).To(Equal(int64(2)))
		t.Done()
		t.Done()
		Expect(t.Outstanding()).To(BeZero())
		Expect(t.Settled()).To(BeFalse())
	})

	It("panics on unbalanced Done", func() {
		var t mirror.Tracker
		Expect(t.Done).To(Panic())
	})
})

var _ = Describe("Jobs", func() {
	It("allows one active job per repository", func() {
		jobs := mirror.NewJobs()
		job, err := jobs.Start("Widget")
		Expect(err).NotTo(HaveOccurred())
		Expect(job.ID).NotTo(BeEmpty())
		Expect(job.Repository).To(Equal("widget"))
		Expect(jobs.Status("widget")).To(Equal(model.StatusDiscovering))

		_, err = jobs.Start("widget")
		Expect(errors.Is(err, mirror.ErrJobActive)).To(BeTrue())

		_, err = jobs.Start("gadget")
		Expect(err).NotTo(HaveOccurred())
		active := jobs.Active()
		Expect(active).To(HaveLen(2))
		Expect(active[0].Repository).To(Equal("gadget"))
	})

	It("clears the status on cancel", func() {
		jobs := mirror.NewJobs()
		job, err := jobs.Start("widget")
		Expect(err).NotTo(HaveOccurred())
		Expect(jobs.Cancel("widget")).To(BeTrue())
		Expect(job.Cancelled()).To(BeTrue())
		Expect(jobs.Status("widget")).To(Equal(model.StatusIdle))
		Expect(jobs.Cancel("widget")).To(BeFalse())
		Expect(jobs.Cancel("missing")).To(BeFalse())

		_, err = jobs.Start("widget")
		Expect(err).NotTo(HaveOccurred())
	})

	It("cancels every active job", func() {
		jobs := mirror.NewJobs()
		_, _ = jobs.Start("a")
		_, _ = jobs.Start("b")
		Expect(jobs.CancelAll()).To(Equal(2))
		Expect(jobs.Active()).To(BeEmpty())
	})

	It("reports idle for unknown repositories", func() {
		Expect(mirror.NewJobs().Status("none")).To(Equal(model.StatusIdle))
	})
})

var _ = Describe("ResolveTarget", func() {
	repo := model.Repository{Name: "widget", DefaultBranch: "main"}
	targets := []model.Target{
		model.NewTarget("v2", model.TargetRelease),
		model.NewTarget("v1", model.TargetRelease),
		model.NewTarget("main", model.TargetBranch),
	}

	DescribeTable("chooses a target",
		func(requested string, preferUnstable bool, expected string) {
			got, err := mirror.ResolveTarget(repo, requested, targets, preferUnstable)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(expected))
		},
		Entry("first target by default", "", false, "v2"),
		Entry("default branch when unstable is preferred", "", true, "main"),
		Entry("requested name wins", "v1", true, "v1"),
	)

	It("matches names exactly", func() {
		_, err := mirror.ResolveTarget(repo, "V1", targets, false)
		Expect(errors.Is(err, mirror.ErrTargetNotFound)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring(`"V1"`))
	})

	It("fails on an empty target list", func() {
		_, err := mirror.ResolveTarget(repo, "", nil, false)
		var notFound *mirror.TargetNotFoundError
		Expect(errors.As(err, &notFound)).To(BeTrue())
		Expect(notFound.Name).To(BeEmpty())
	})

	It("fails when the default branch is not discovered", func() {
		_, err := mirror.ResolveTarget(model.Repository{Name: "x", DefaultBranch: "trunk"}, "", targets, true)
		Expect(errors.Is(err, mirror.ErrTargetNotFound)).To(BeTrue())
	})
})
