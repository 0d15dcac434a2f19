package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"crosswalk.app/api/internal/metrics"
	"crosswalk.app/api/internal/vibe"
)

var _ vibe.Recorder = (*metrics.Collector)(nil)

var _ = Describe("Collector", func() {
	var c *metrics.Collector

	BeforeEach(func() {
		c = metrics.NewCollector()
	})

	It("builds independent registries", func() {
		other := metrics.NewCollector()
		c.DropCreated()
		c.HighfiveGiven()

		Expect(scrape(c)).To(ContainSubstring("crosswalk_drops_created_total 1"))
		Expect(scrape(c)).To(ContainSubstring("crosswalk_highfives_total 1"))
		Expect(scrape(other)).To(ContainSubstring("crosswalk_drops_created_total 0"))
	})

	It("exposes agent and http series", func() {
		c.ObserveVibeTurn("repaired")
		c.ObserveToolCall("write_file", "ok")
		c.ObserveDeploymentState("READY")
		c.ObserveHTTP(http.MethodGet, "/drops", 200, 15*time.Millisecond)
		c.ObserveHTTP(http.MethodGet, "", 404, time.Millisecond)

		text := scrape(c)
		Expect(text).To(ContainSubstring(`crosswalk_vibe_turns_total{outcome="repaired"} 1`))
		Expect(text).To(ContainSubstring(`crosswalk_vibe_tool_calls_total{result="ok",tool="write_file"} 1`))
		Expect(text).To(ContainSubstring(`crosswalk_vibe_deployment_states_total{state="READY"} 1`))
		Expect(text).To(ContainSubstring(`crosswalk_http_requests_total{method="GET",route="/drops",status="200"} 1`))
		Expect(text).To(ContainSubstring(`route="unmatched",status="404"`))

		n, err := testutil.GatherAndCount(c.Registry(), "crosswalk_http_request_duration_seconds")
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(2))
	})

	It("tracks open streams", func() {
		done := c.StreamOpened()
		c.StreamOpened()
		done()

		Expect(scrape(c)).To(ContainSubstring("crosswalk_sse_streams_active 1"))
	})
})

// --- test fixtures ---

func scrape(c *metrics.Collector) string {
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	Expect(err).NotTo(HaveOccurred())
	return string(body)
}
