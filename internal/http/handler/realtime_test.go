package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"crosswalk.app/api/internal/http/handler"
	"crosswalk.app/api/internal/http/router"
	"crosswalk.app/api/internal/realtime"
)

var _ = Describe("RealtimeHandler", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
		DeferCleanup(cancel)
	})

	stream := func(sub handler.Subscriber, query string) *httptest.ResponseRecorder {
		r := newRouter()
		router.RealtimeRouter(r.Group("/realtime"), handler.NewRealtimeHandler(sub, nil))
		req := httptest.NewRequest(http.MethodGet, "/realtime/stream"+query, nil).WithContext(ctx)
		return serve(r, req)
	}

	It("returns 503 without a subscriber", func() {
		w := stream(nil, "?token=7")

		Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
	})

	It("accepts the session token as a query parameter", func() {
		sub := &fakeSubscriber{cancel: cancel}

		w := stream(sub, "?token=7")

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(HavePrefix("event: ping\ndata: ready\n\n"))
	})

	It("sends named events with resumable cursor ids", func() {
		sub := &fakeSubscriber{
			cancel: cancel,
			batches: [][]realtime.Message{
				{{ID: "1-0", Channel: realtime.ChannelDrops, Event: realtime.EventNewDrop, Data: json.RawMessage(`{"id":"9"}`)}},
				{},
				{{ID: "2-0", Channel: realtime.UserChannel(7), Event: realtime.EventHighfive, Data: json.RawMessage(`{"drop_id":"9"}`)}},
			},
		}

		w := stream(sub, "?token=7")

		body := w.Body.String()
		Expect(body).To(ContainSubstring("event: " + realtime.EventNewDrop + "\nid: drops@1-0\ndata: {\"id\":\"9\"}\n\n"))
		Expect(body).To(ContainSubstring(": ping\n\n"))
		Expect(body).To(ContainSubstring("event: " + realtime.EventHighfive + "\nid: drops@1-0,user-7@2-0\n"))
	})

	It("resumes from last_id", func() {
		sub := &fakeSubscriber{cancel: cancel}

		stream(sub, "?token=7&last_id=drops@5-0,user-7@6-0,user-8@1-0")

		Expect(sub.cursors).To(ConsistOf("drops@5-0,user-7@6-0"))
	})
})
