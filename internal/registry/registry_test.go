package registry_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/repomirror/internal/model"
	"github.com/skaphos/repomirror/internal/registry"
)

var _ = Describe("Registry", func() {
	DescribeTable("saves and loads registry",
		func(filename string) {
			dir := GinkgoT().TempDir()
			path := filepath.Join(dir, filename)
			reg := &registry.Registry{
				UpdatedAt: time.Now(),
				Repositories: []model.Repository{
					{Name: "widget", Owner: "acme", Project: "widget", DefaultBranch: "main", LastTarget: "v1.0.0", Exclude: []string{"docs/**"}},
				},
			}
			Expect(registry.Save(reg, path)).To(Succeed())
			loaded, err := registry.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Repositories).To(HaveLen(1))
			Expect(loaded.Repositories[0].LastTarget).To(Equal("v1.0.0"))
			Expect(loaded.Repositories[0].Exclude).To(Equal([]string{"docs/**"}))
		},
		Entry("json", "repositories.json"),
		Entry("yaml", "repositories.yaml"),
	)

	It("writes json for non-yaml extensions", func() {
		path := filepath.Join(GinkgoT().TempDir(), "repositories.json")
		Expect(registry.Save(&registry.Registry{Repositories: []model.Repository{{Name: "a"}}}, path)).To(Succeed())
		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(HavePrefix("{"))
	})

	It("upserts repositories by normalized name", func() {
		reg := &registry.Registry{}
		added := time.Now().Add(-time.Hour)
		reg.Upsert(model.Repository{Name: "Widget", Owner: "a", AddedAt: added})
		reg.Upsert(model.Repository{Name: "widget", Owner: "b"})
		Expect(reg.Repositories).To(HaveLen(1))
		Expect(reg.Repositories[0].Owner).To(Equal("b"))
		Expect(reg.Repositories[0].AddedAt).To(BeTemporally("==", added))
	})

	It("finds and removes repositories", func() {
		reg := &registry.Registry{Repositories: []model.Repository{{Name: "one"}, {Name: "two"}}}
		Expect(reg.Find("TWO")).NotTo(BeNil())
		Expect(reg.Remove("one")).To(BeTrue())
		Expect(reg.Remove("one")).To(BeFalse())
		Expect(reg.Repositories).To(HaveLen(1))
	})
})

var _ = Describe("FileStore", func() {
	It("starts empty when the file is missing and persists on save", func() {
		path := filepath.Join(GinkgoT().TempDir(), "nested", "repositories.json")
		store, err := registry.Open(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(store.List()).To(BeEmpty())

		Expect(store.Put(model.Repository{Name: "zeta", LastTarget: model.UnknownTarget})).To(Succeed())
		Expect(store.Put(model.Repository{Name: "alpha", LastTarget: model.UnknownTarget})).To(Succeed())
		Expect(store.Save()).To(Succeed())

		reopened, err := registry.Open(path)
		Expect(err).NotTo(HaveOccurred())
		list := reopened.List()
		Expect(list).To(HaveLen(2))
		Expect(list[0].Name).To(Equal("alpha"))
		repo, ok := reopened.Get("ZETA")
		Expect(ok).To(BeTrue())
		Expect(repo.UpdatedAt).NotTo(BeZero())
	})

	It("rejects empty names", func() {
		store := registry.NewMemoryStore()
		Expect(store.Put(model.Repository{Name: "  "})).To(MatchError(registry.ErrInvalidName))
	})

	It("fails on a corrupt file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "repositories.json")
		Expect(os.WriteFile(path, []byte("{not json"), 0o644)).To(Succeed())
		_, err := registry.Open(path)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("MemoryStore", func() {
	It("returns copies and counts saves", func() {
		store := registry.NewMemoryStore(model.Repository{Name: "widget", Exclude: []string{"a"}})
		repo, ok := store.Get("widget")
		Expect(ok).To(BeTrue())
		repo.Exclude[0] = "changed"
		again, _ := store.Get("widget")
		Expect(again.Exclude[0]).To(Equal("a"))

		Expect(store.Save()).To(Succeed())
		Expect(store.Save()).To(Succeed())
		Expect(store.Saves()).To(Equal(2))
		Expect(store.Delete("widget")).To(BeTrue())
		Expect(store.List()).To(BeEmpty())
	})
})
