package handler_test

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"crosswalk.app/api/internal/http/handler"
	"crosswalk.app/api/internal/http/router"
	"crosswalk.app/api/internal/service"
)

var _ = Describe("NotificationHandler", func() {
	var (
		r   *gin.Engine
		svc *mockNotificationService
	)

	BeforeEach(func() {
		r = newRouter()
		svc = &mockNotificationService{}
		router.NotificationRouter(r.Group("/notifications"), handler.NewNotificationHandler(svc))
	})

	It("lists an empty inbox as an array", func() {
		w := doRequest(r, http.MethodGet, "/notifications", nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`[]`))
	})

	It("counts unread notifications", func() {
		svc.unread = 3

		w := doRequest(r, http.MethodGet, "/notifications/unread-count", nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"count":3}`))
	})

	It("answers 404 for someone else's notification", func() {
		svc.markReadFn = func(context.Context, int64, int64) error {
			return &service.Error{Kind: service.ErrNotFound, Message: "Notification not found"}
		}

		w := doRequest(r, http.MethodPost, "/notifications/5/read", nil)

		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(errorBody(w)).To(Equal("Notification not found"))
	})

	It("marks everything read", func() {
		w := doRequest(r, http.MethodPost, "/notifications/read-all", nil)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"success":true}`))
	})
})
