package middleware_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"crosswalk.app/api/common/logger"
	"crosswalk.app/api/internal/http/middleware"
)

var _ = Describe("RequireAuth", func() {
	var r *gin.Engine

	BeforeEach(func() {
		r = gin.New()
		r.Use(middleware.RequireAuth(staticAuth{"good": 42}))
		r.GET("/whoami", func(c *gin.Context) {
			ctx := c.Request.Context()
			fields := logger.GetLogFields(ctx)
			Expect(fields.UserID).NotTo(BeNil())
			c.JSON(http.StatusOK, gin.H{"user_id": middleware.UserID(ctx)})
		})
	})

	DescribeTable("rejects requests without a valid session",
		func(header string) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
			Expect(w.Body.String()).To(MatchJSON(`{"error":"unauthorized"}`))
		},
		Entry("no header", ""),
		Entry("wrong scheme", "Basic good"),
		Entry("unknown token", "Bearer nope"),
		Entry("empty bearer", "Bearer "),
	)

	It("accepts a bearer token", func() {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "bearer good")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"user_id":42}`))
	})

	It("accepts a token query parameter", func() {
		req := httptest.NewRequest(http.MethodGet, "/whoami?token=good", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("reports no user outside the middleware", func() {
		Expect(middleware.UserID(context.Background())).To(BeZero())
	})
})

var _ = Describe("RequestID", func() {
	var (
		r    *gin.Engine
		seen string
	)

	BeforeEach(func() {
		seen = ""
		r = gin.New()
		r.Use(middleware.RequestID())
		r.GET("/", func(c *gin.Context) {
			if id := logger.GetLogFields(c.Request.Context()).RequestID; id != nil {
				seen = *id
			}
			c.Status(http.StatusNoContent)
		})
	})

	It("echoes the caller's id", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-Id", "abc-123")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		Expect(w.Header().Get("X-Request-Id")).To(Equal("abc-123"))
		Expect(seen).To(Equal("abc-123"))
	})

	It("mints an id when missing or oversized", func() {
		for _, incoming := range []string{"", strings.Repeat("x", 129)} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if incoming != "" {
				req.Header.Set("X-Request-Id", incoming)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			Expect(w.Header().Get("X-Request-Id")).To(HaveLen(36))
			Expect(seen).To(Equal(w.Header().Get("X-Request-Id")))
		}
	})
})

var _ = Describe("Metrics", func() {
	It("labels by route template", func() {
		rec := &recordingHTTP{}
		r := gin.New()
		r.Use(middleware.Metrics(rec))
		r.GET("/drops/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/drops/991", nil))

		Expect(rec.routes).To(Equal([]string{"GET /drops/:id 418"}))
	})
})

var _ = Describe("Recovery", func() {
	It("turns a panic into a 500", func() {
		r := gin.New()
		r.Use(middleware.Recovery())
		r.GET("/boom", func(*gin.Context) { panic(errors.New("boom")) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

		Expect(w.Code).To(Equal(http.StatusInternalServerError))
	})
})

var _ = DescribeTable("AllowedOrigin",
	func(origin string, want bool) {
		allowed := []string{"http://localhost:5173", "capacitor://localhost"}
		Expect(middleware.AllowedOrigin(allowed, origin)).To(Equal(want))
	},
	Entry("listed origin", "http://localhost:5173", true),
	Entry("native shell", "capacitor://localhost", true),
	Entry("preview deployment", "https://crswlk-git-vibe-7-abc.vercel.app", true),
	Entry("named preview", "https://crosswalk-pr-12.vercel.app", true),
	Entry("unrelated vercel app", "https://someone-else.vercel.app", false),
	Entry("plain http preview", "http://crswlk-git-x.vercel.app", false),
	Entry("lookalike suffix", "https://crswlk.vercel.app.evil.com", false),
	Entry("unlisted port", "http://localhost:3000", false),
)

// --- test fixtures ---

type staticAuth map[string]int64

func (s staticAuth) Authenticate(_ context.Context, token string) (int64, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return 0, errors.New("invalid session")
}

type recordingHTTP struct {
	routes []string
}

func (r *recordingHTTP) ObserveHTTP(method, route string, status int, _ time.Duration) {
	r.routes = append(r.routes, fmt.Sprintf("%s %s %d", method, route, status))
}
