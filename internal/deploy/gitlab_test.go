package deploy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"crosswalk.app/api/core/config"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("GitLab pipelines", func() {
	var (
		ctx       context.Context
		server    *httptest.Server
		pipelines []map[string]any
		lastRef   string
		provider  *GitLabPipelines
	)

	BeforeEach(func() {
		ctx = context.Background()
		pipelines = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/v4/projects/42/pipelines" {
				http.NotFound(w, r)
				return
			}
			lastRef = r.URL.Query().Get("ref")
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(pipelines)
		}))
		DeferCleanup(server.Close)

		var err error
		provider, err = NewGitLabPipelines(config.SCMConfig{
			Provider: "gitlab",
			Token:    "glpat-test",
			BaseURL:  server.URL,
			Project:  "42",
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("reports NOT_FOUND without pipelines", func() {
		got, err := provider.Status(ctx, "vibe/alice-k2j")

		Expect(err).NotTo(HaveOccurred())
		Expect(got.State).To(Equal(StateNotFound))
		Expect(lastRef).To(Equal("vibe/alice-k2j"))
	})

	It("maps a successful pipeline to READY with its URL", func() {
		pipelines = []map[string]any{
			{"id": 7, "status": "success", "ref": "vibe/alice-k2j", "web_url": "https://gitlab.example.com/p/-/pipelines/7"},
		}

		got, err := provider.Status(ctx, "vibe/alice-k2j")

		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(Status{State: StateReady, URL: "https://gitlab.example.com/p/-/pipelines/7"}))
	})

	DescribeTable("status mapping",
		func(in string, want State) {
			Expect(mapPipelineStatus(in)).To(Equal(want))
		},
		Entry("pending", "pending", StateQueued),
		Entry("created", "created", StateQueued),
		Entry("running", "running", StateBuilding),
		Entry("success", "success", StateReady),
		Entry("failed", "failed", StateError),
		Entry("canceled", "canceled", StateError),
		Entry("unknown", "bogus", StateNotFound),
	)
})
