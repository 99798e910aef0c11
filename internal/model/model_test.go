package model_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/repomirror/internal/model"
)

var _ = Describe("Model", func() {
	It("builds targets with placeholder metadata", func() {
		t := model.NewTarget("v1.2.0", model.TargetRelease)
		Expect(t.Date).To(Equal(model.Placeholder))
		Expect(t.Commit).To(Equal(model.Placeholder))
		Expect(t.Kind).To(Equal(model.TargetRelease))
	})

	It("reports active job statuses", func() {
		Expect(model.StatusIdle.IsActive()).To(BeFalse())
		Expect(model.StatusDiscovering.IsActive()).To(BeTrue())
		Expect(model.StatusResolving.IsActive()).To(BeTrue())
		Expect(model.StatusCrawling.IsActive()).To(BeTrue())
	})

	It("counts settled fetches in a summary", func() {
		s := model.Summary{Directories: 2, Files: 3, Failed: 1}
		Expect(s.Fetches()).To(Equal(6))
	})

	It("omits empty optional repository fields in JSON", func() {
		data, err := json.Marshal(model.Repository{Name: "demo", LastTarget: model.UnknownTarget})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).NotTo(ContainSubstring("subdir"))
		Expect(string(data)).To(ContainSubstring(`"last_target":"unknown"`))
	})
})
