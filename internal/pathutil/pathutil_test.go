// SPDX-License-Identifier: MIT
package pathutil_test

import (
	"fmt"
	"regexp"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/repomirror/internal/pathutil"
)

var refPattern = regexp.MustCompile(`&#[0-9]+;|&#[xX][0-9a-fA-F]+;`)

var _ = Describe("UnescapeEntities", func() {
	It("replaces every numeric reference", func() {
		for n := 1; n <= 20; n++ {
			in := strings.Repeat("a&#47;b&#x41;", n)
			out := pathutil.UnescapeEntities(in)
			Expect(refPattern.MatchString(out)).To(BeFalse())
			Expect(out).To(Equal(strings.Repeat("a/bA", n)))
		}
	})

	It("is a no-op on text without references", func() {
		for _, in := range []string{"", "plain", "a & b", "&amp;", "&#;", "src/main.go"} {
			Expect(pathutil.UnescapeEntities(in)).To(Equal(in))
		}
	})

	It("leaves no reference behind when a decoded reference spells another", func() {
		for _, in := range []string{"&#38;#65;", "&#x26;#x41;", "&#38;#38;#65;"} {
			out := pathutil.UnescapeEntities(in)
			Expect(refPattern.MatchString(out)).To(BeFalse(), in)
			Expect(out).To(Equal("A"), in)
		}
	})

	It("replaces invalid code points with the replacement rune", func() {
		Expect(pathutil.UnescapeEntities("x&#99999999;y")).To(Equal("x�y"))
	})
})

var _ = Describe("NormalizeLocalPath", func() {
	It("keeps allow-listed extensions", func() {
		for ext := range pathutil.SafeExtensions {
			p := fmt.Sprintf("dir/file.%s", ext)
			Expect(pathutil.NormalizeLocalPath(p)).To(Equal(p), ext)
		}
	})

	It("matches allow-listed extensions case-insensitively", func() {
		Expect(pathutil.NormalizeLocalPath("img/Logo.PNG")).To(Equal("img/Logo.PNG"))
	})

	DescribeTable("appends .txt to everything else",
		func(in string) {
			Expect(pathutil.NormalizeLocalPath(in)).To(Equal(in + ".txt"))
		},
		Entry("no extension", "b/c"),
		Entry("executable", "bin/run.exe"),
		Entry("shell script", "install.sh"),
		Entry("dot in directory only", "v1.2/README"),
		Entry("extension outside the window", "notes.markdown"),
		Entry("dotfile", ".gitignore"),
	)

	It("is not idempotent for unsafe extensions", func() {
		once := pathutil.NormalizeLocalPath("Makefile")
		Expect(pathutil.NormalizeLocalPath(once)).To(Equal("Makefile.txt"))
		Expect(pathutil.NormalizeLocalPath("run.bat")).To(Equal("run.bat.txt"))
	})
})

var _ = Describe("RawContentURL", func() {
	hosts := pathutil.DefaultHosts()

	It("rewrites host and drops the blob segment", func() {
		got := pathutil.RawContentURL("https://github.com/acme/widget/blob/v1.0/src/main.go", hosts)
		Expect(got).To(Equal("https://raw.githubusercontent.com/acme/widget/v1.0/src/main.go"))
	})

	It("keeps owners named like the blob segment", func() {
		got := pathutil.RawContentURL("https://github.com/blob/widget/blob/main/a.txt", hosts)
		Expect(got).To(Equal("https://raw.githubusercontent.com/blob/widget/main/a.txt"))
	})

	It("unescapes entities, decodes ampersands and encodes spaces", func() {
		got := pathutil.RawContentURL("https://github.com/acme/widget/blob/main/docs/Q&amp;A &#40;draft&#41;.md", hosts)
		Expect(got).To(Equal("https://raw.githubusercontent.com/acme/widget/main/docs/Q&A%20(draft).md"))
	})
})

var _ = Describe("JoinRelative", func() {
	It("prefixes the subdirectory", func() {
		Expect(pathutil.JoinRelative("mirrors/widget", "src/a.go")).To(Equal("mirrors/widget/src/a.go"))
		Expect(pathutil.JoinRelative("", "src/a.go")).To(Equal("src/a.go"))
		Expect(pathutil.JoinRelative("/widget/", "")).To(Equal("widget"))
	})

	It("rejects escaping paths", func() {
		_, err := pathutil.JoinRelative("", "../etc/passwd")
		Expect(err).To(MatchError(pathutil.ErrUnsafePath))
		_, err = pathutil.JoinRelative("", "")
		Expect(err).To(MatchError(pathutil.ErrUnsafePath))
	})
})
