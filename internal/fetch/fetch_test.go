package fetch_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/klauspost/compress/gzhttp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/skaphos/repomirror/internal/fetch"
)

var _ = Describe("Client", func() {
	var server *httptest.Server
	big := strings.Repeat("listing row\n", 1000)

	BeforeEach(func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Agent", r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte("hello"))
		})
		mux.Handle("/big", gzhttp.GzipHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(big))
		})))
		mux.HandleFunc("/missing", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "not here", http.StatusNotFound)
		})
		mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		})
		server = httptest.NewServer(mux)
	})

	AfterEach(func() {
		server.Close()
	})

	It("returns body and status on success", func() {
		client := fetch.NewClient(fetch.Options{UserAgent: "test-agent"})
		res := client.Fetch(context.Background(), server.URL+"/ok")
		Expect(res.OK()).To(BeTrue())
		Expect(string(res.Body)).To(Equal("hello"))
		Expect(res.Header.Get("X-Agent")).To(Equal("test-agent"))
		Expect(res.AsError()).To(Succeed())
	})

	It("decodes compressed responses", func() {
		client := fetch.NewClient(fetch.Options{})
		res := client.Fetch(context.Background(), server.URL+"/big")
		Expect(res.OK()).To(BeTrue())
		Expect(string(res.Body)).To(Equal(big))
	})

	It("keeps the body of non-200 responses and reports an HTTPError", func() {
		client := fetch.NewClient(fetch.Options{})
		res := client.Fetch(context.Background(), server.URL+"/missing")
		Expect(res.OK()).To(BeFalse())
		Expect(res.Err).NotTo(HaveOccurred())
		Expect(string(res.Body)).To(ContainSubstring("not here"))

		var httpErr *fetch.HTTPError
		Expect(errors.As(res.AsError(), &httpErr)).To(BeTrue())
		Expect(httpErr.Status).To(Equal(http.StatusNotFound))
		Expect(httpErr.URL).To(HaveSuffix("/missing"))
		Expect(fetch.ClassifyError(httpErr)).To(Equal("not_found"))
	})

	It("reports transport failures with status zero", func() {
		client := fetch.NewClient(fetch.Options{Timeout: 50 * time.Millisecond})
		res := client.Fetch(context.Background(), server.URL+"/slow")
		Expect(res.Err).To(HaveOccurred())
		Expect(res.Status).To(BeZero())
		Expect(fetch.ClassifyError(res.AsError())).To(Equal("timeout"))
	})

	It("enforces the body limit", func() {
		client := fetch.NewClient(fetch.Options{MaxBodyBytes: 16})
		res := client.Fetch(context.Background(), server.URL+"/big")
		Expect(res.Err).To(MatchError(fetch.ErrBodyTooLarge))
	})

	It("delivers results asynchronously", func() {
		client := fetch.NewClient(fetch.Options{})
		ch := fetch.Go(context.Background(), client, server.URL+"/ok")
		var res fetch.Result
		Eventually(ch).Should(Receive(&res))
		Expect(res.OK()).To(BeTrue())
	})
})
