package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"crosswalk.app/api/common/id"
	"crosswalk.app/api/internal/geo"
	"crosswalk.app/api/internal/model"
	"crosswalk.app/api/internal/realtime"
	"crosswalk.app/api/internal/service"
	"crosswalk.app/api/internal/store"
)

var _ = Describe("DropService", func() {
	const (
		authorID = int64(100)
		viewerID = int64(200)
	)

	var (
		svc           service.DropService
		drops         *mockDropStore
		users         *mockUserStore
		highfives     *mockHighfiveStore
		notifications *mockNotificationStore
		txRunner      *mockTxRunner
		publisher     *mockPublisher
		counter       *countingDrops
		ctx           context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		drops = &mockDropStore{}
		users = &mockUserStore{
			getByIDFn: func(_ context.Context, id int64) (*model.User, error) {
				switch id {
				case authorID:
					return &model.User{ID: id, Name: ptr("author")}, nil
				case viewerID:
					return &model.User{ID: id, Name: ptr("viewer")}, nil
				}
				return nil, store.ErrNotFound
			},
		}
		highfives = &mockHighfiveStore{}
		notifications = &mockNotificationStore{}
		txRunner = &mockTxRunner{highfives: highfives, notifications: notifications}
		publisher = &mockPublisher{}
		counter = &countingDrops{}

		err := id.Init(1)
		Expect(err).NotTo(HaveOccurred())

		svc = service.NewDropService(drops, users, highfives, txRunner, publisher, counter)
	})

	Describe("Create", func() {
		var input service.CreateDropInput

		BeforeEach(func() {
			input = service.CreateDropInput{
				Message:   "  meet me at the fountain  ",
				Latitude:  ptr(40.7128),
				Longitude: ptr(-74.0060),
			}
		})

		It("should store the drop with defaults and announce it", func() {
			var stored *model.Drop
			drops.createFn = func(_ context.Context, d *model.Drop) error {
				stored = d
				return nil
			}

			view, err := svc.Create(ctx, authorID, input)

			Expect(err).NotTo(HaveOccurred())
			Expect(stored.ID).NotTo(BeZero())
			Expect(stored.Message).To(Equal("meet me at the fountain"))
			Expect(stored.Range).To(Equal(model.RangeClose))
			Expect(stored.Effect).To(Equal(model.EffectNone))
			Expect(stored.UserName).To(Equal("author"))
			Expect(view.Readable).To(BeTrue())
			Expect(counter.drops).To(Equal(1))

			Expect(publisher.events).To(HaveLen(1))
			Expect(publisher.events[0].channel).To(Equal(realtime.ChannelDrops))
			Expect(publisher.events[0].event).To(Equal(realtime.EventNewDrop))
		})

		It("should broadcast the drop without a viewer-relative annotation", func() {
			view, err := svc.Create(ctx, authorID, input)
			Expect(err).NotTo(HaveOccurred())

			Expect(publisher.events).To(HaveLen(1))
			raw, err := json.Marshal(publisher.events[0].payload)
			Expect(err).NotTo(HaveOccurred())

			var payload map[string]any
			Expect(json.Unmarshal(raw, &payload)).To(Succeed())
			Expect(payload).To(HaveKeyWithValue("type", realtime.EventNewDrop))
			drop, ok := payload["drop"].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(drop).NotTo(HaveKey("readable"))
			Expect(drop).NotTo(HaveKey("display_message"))
			Expect(drop).NotTo(HaveKey("distance_meters"))
			Expect(drop).To(HaveKeyWithValue("message", view.Message))
		})

		It("should fall back to Anonymous when the author cannot be loaded", func() {
			view, err := svc.Create(ctx, 999, input)

			Expect(err).NotTo(HaveOccurred())
			Expect(view.UserName).To(Equal("Anonymous"))
		})

		DescribeTable("rejects invalid input",
			func(mutate func(in *service.CreateDropInput), message string) {
				mutate(&input)

				_, err := svc.Create(ctx, authorID, input)

				Expect(errors.Is(err, service.ErrValidation)).To(BeTrue())
				Expect(service.Message(err, "")).To(Equal(message))
				Expect(publisher.events).To(BeEmpty())
			},
			Entry("blank message", func(in *service.CreateDropInput) { in.Message = "   " }, "Invalid message"),
			Entry("message over 280 characters", func(in *service.CreateDropInput) { in.Message = strings.Repeat("x", 281) }, "Invalid message"),
			Entry("missing latitude", func(in *service.CreateDropInput) { in.Latitude = nil }, "Invalid coordinates"),
			Entry("latitude out of bounds", func(in *service.CreateDropInput) { in.Latitude = ptr(91.0) }, "Invalid coordinates"),
			Entry("longitude out of bounds", func(in *service.CreateDropInput) { in.Longitude = ptr(-180.5) }, "Invalid coordinates"),
			Entry("unknown range", func(in *service.CreateDropInput) { in.Range = "nearby" }, "Invalid range"),
			Entry("unknown effect", func(in *service.CreateDropInput) { in.Effect = "sparkles" }, "Invalid effect"),
		)

		It("should accept a 280 character message", func() {
			input.Message = strings.Repeat("é", 280)

			_, err := svc.Create(ctx, authorID, input)

			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("List", func() {
		It("should list everywhere without a viewer location", func() {
			drops.listActiveFn = func(_ context.Context, limit int32) ([]model.Drop, error) {
				Expect(limit).To(Equal(int32(100)))
				return []model.Drop{{ID: 1, UserID: authorID, Message: "hi", Range: model.RangeClose}}, nil
			}
			drops.listActiveInBoxFn = func(context.Context, geo.Box, int32) ([]model.Drop, error) {
				Fail("box query should not run")
				return nil, nil
			}

			views, err := svc.List(ctx, viewerID, service.DropQuery{})

			Expect(err).NotTo(HaveOccurred())
			Expect(views).To(HaveLen(1))
			Expect(views[0].DistanceMeters).To(BeNil())
			Expect(views[0].Readable).To(BeFalse())
			Expect(views[0].DisplayMessage).To(Equal(geo.HiddenMessagePlaceholder))
			Expect(views[0].Message).To(Equal("hi"))
		})

		It("should prefilter by bounding box around the viewer", func() {
			var box geo.Box
			drops.listActiveInBoxFn = func(_ context.Context, b geo.Box, _ int32) ([]model.Drop, error) {
				box = b
				return []model.Drop{{ID: 1, UserID: authorID, Message: "hi", Range: model.RangeFar, Latitude: 40.7128, Longitude: -74.0060}}, nil
			}

			views, err := svc.List(ctx, viewerID, service.DropQuery{
				Viewer: &geo.Point{Lat: 40.7128, Lng: -74.0060},
				Radius: 500,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(box.MinLat).To(BeNumerically("<", 40.7128))
			Expect(box.MaxLat).To(BeNumerically(">", 40.7128))
			Expect(views[0].Readable).To(BeTrue())
			Expect(*views[0].DistanceMeters).To(BeNumerically("~", 0, 0.001))
		})

		It("should switch to the global listing for very large radii", func() {
			listed := false
			drops.listActiveFn = func(context.Context, int32) ([]model.Drop, error) {
				listed = true
				return nil, nil
			}

			views, err := svc.List(ctx, viewerID, service.DropQuery{
				Viewer: &geo.Point{Lat: 1, Lng: 1},
				Radius: service.GlobalDropRadius + 1,
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(listed).To(BeTrue())
			Expect(views).To(BeEmpty())
		})
	})

	Describe("Get", func() {
		It("should hide expired drops", func() {
			past := time.Now().Add(-time.Minute)
			drops.getByIDFn = func(context.Context, int64) (*model.Drop, error) {
				return &model.Drop{ID: 1, UserID: authorID, ExpiresAt: &past}, nil
			}

			_, err := svc.Get(ctx, viewerID, 1, nil)

			Expect(errors.Is(err, service.ErrNotFound)).To(BeTrue())
		})
	})

	Describe("Delete", func() {
		It("should let the author delete within the window", func() {
			deleted := int64(0)
			drops.getByIDFn = func(context.Context, int64) (*model.Drop, error) {
				return &model.Drop{ID: 1, UserID: authorID, CreatedAt: time.Now().Add(-5 * time.Minute)}, nil
			}
			drops.deleteFn = func(_ context.Context, id int64) error {
				deleted = id
				return nil
			}

			err := svc.Delete(ctx, authorID, 1)

			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(Equal(int64(1)))
			Expect(publisher.events).To(HaveLen(1))
			Expect(publisher.events[0].event).To(Equal(realtime.EventDeleteDrop))
		})

		It("should forbid other users", func() {
			drops.getByIDFn = func(context.Context, int64) (*model.Drop, error) {
				return &model.Drop{ID: 1, UserID: authorID, CreatedAt: time.Now()}, nil
			}

			err := svc.Delete(ctx, viewerID, 1)

			Expect(errors.Is(err, service.ErrForbidden)).To(BeTrue())
			Expect(service.Message(err, "")).To(Equal("Not authorized"))
		})

		It("should forbid deletes after the window", func() {
			drops.getByIDFn = func(context.Context, int64) (*model.Drop, error) {
				return &model.Drop{ID: 1, UserID: authorID, CreatedAt: time.Now().Add(-16 * time.Minute)}, nil
			}

			err := svc.Delete(ctx, authorID, 1)

			Expect(errors.Is(err, service.ErrForbidden)).To(BeTrue())
			Expect(service.Message(err, "")).To(Equal("Delete window expired (15 minutes)"))
			Expect(publisher.events).To(BeEmpty())
		})

		It("should report a missing drop", func() {
			err := svc.Delete(ctx, authorID, 404)

			Expect(errors.Is(err, service.ErrNotFound)).To(BeTrue())
		})
	})

	Describe("Highfive", func() {
		BeforeEach(func() {
			drops.getByIDFn = func(_ context.Context, id int64) (*model.Drop, error) {
				return &model.Drop{ID: id, UserID: authorID, CreatedAt: time.Now()}, nil
			}
		})

		It("should notify the author in the same transaction", func() {
			status, err := svc.Highfive(ctx, viewerID, 1)

			Expect(err).NotTo(HaveOccurred())
			Expect(status.HasHighfived).To(BeTrue())
			Expect(status.HighfiveCount).To(Equal(int64(1)))
			Expect(txRunner.calls).To(Equal(1))
			Expect(counter.highfives).To(Equal(1))

			Expect(notifications.created).To(HaveLen(1))
			n := notifications.created[0]
			Expect(n.UserID).To(Equal(authorID))
			Expect(n.Type).To(Equal(model.NotificationTypeHighfive))
			Expect(*n.FromUserID).To(Equal(viewerID))

			Expect(publisher.events).To(HaveLen(1))
			Expect(publisher.events[0].channel).To(Equal(realtime.UserChannel(authorID)))
			Expect(publisher.events[0].event).To(Equal(realtime.EventHighfive))
		})

		It("should not notify authors high-fiving their own drop", func() {
			_, err := svc.Highfive(ctx, authorID, 1)

			Expect(err).NotTo(HaveOccurred())
			Expect(notifications.created).To(BeEmpty())
			Expect(publisher.events).To(BeEmpty())
		})

		It("should reject a second high-five", func() {
			highfives.createFn = func(context.Context, *model.Highfive) error {
				return store.ErrDuplicate
			}

			_, err := svc.Highfive(ctx, viewerID, 1)

			Expect(errors.Is(err, service.ErrValidation)).To(BeTrue())
			Expect(service.Message(err, "")).To(Equal("Already high-fived"))
			Expect(publisher.events).To(BeEmpty())
		})

		It("should not publish when the notification write fails", func() {
			notifications.createFn = func(context.Context, *model.Notification) error {
				return errors.New("connection reset")
			}

			_, err := svc.Highfive(ctx, viewerID, 1)

			Expect(err).To(HaveOccurred())
			Expect(publisher.events).To(BeEmpty())
			Expect(counter.highfives).To(BeZero())
		})
	})

	Describe("RemoveHighfive", func() {
		It("should succeed when there was nothing to remove", func() {
			highfives.deleteFn = func(context.Context, int64, int64) error {
				return store.ErrNotFound
			}

			status, err := svc.RemoveHighfive(ctx, viewerID, 1)

			Expect(err).NotTo(HaveOccurred())
			Expect(status.HasHighfived).To(BeFalse())
		})
	})
})

var _ = Describe("NotificationService", func() {
	var (
		svc           service.NotificationService
		notifications *mockNotificationStore
		ctx           context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		notifications = &mockNotificationStore{}
		svc = service.NewNotificationService(notifications)
	})

	It("should scope MarkRead to the owner", func() {
		notifications.markReadFn = func(_ context.Context, id, userID int64) error {
			Expect(id).To(Equal(int64(9)))
			Expect(userID).To(Equal(int64(3)))
			return store.ErrNotFound
		}

		err := svc.MarkRead(ctx, 3, 9)

		Expect(errors.Is(err, service.ErrNotFound)).To(BeTrue())
		Expect(service.Message(err, "")).To(Equal("Notification not found"))
	})
})
