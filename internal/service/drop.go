package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"crosswalk.app/api/common/id"
	"crosswalk.app/api/common/logger"
	"crosswalk.app/api/internal/geo"
	"crosswalk.app/api/internal/model"
	"crosswalk.app/api/internal/realtime"
	"crosswalk.app/api/internal/store"
)

const (
	DefaultDropRadius = 1000.0
	// Radii above this list drops everywhere instead of around the viewer.
	GlobalDropRadius = 100000.0
	dropListLimit    = 100
)

// DropView is a drop plus what the requesting viewer is shown of it.
// The full message is always included; Readable drives client-side masking.
type DropView struct {
	model.Drop
	DistanceMeters *float64 `json:"distance_meters,omitempty"`
	Readable       bool     `json:"readable"`
	DisplayMessage string   `json:"display_message"`
}

type DropQuery struct {
	Viewer *geo.Point
	Radius float64
}

type CreateDropInput struct {
	Message   string
	Latitude  *float64
	Longitude *float64
	Range     model.RangeClass
	Effect    model.Effect
	ExpiresAt *time.Time
}

type HighfiveStatus struct {
	HasHighfived  bool  `json:"has_highfived"`
	HighfiveCount int64 `json:"highfive_count"`
}

// DropCounter receives drop activity for metrics.
type DropCounter interface {
	DropCreated()
	HighfiveGiven()
}

type DropService interface {
	List(ctx context.Context, viewerID int64, q DropQuery) ([]DropView, error)
	Get(ctx context.Context, viewerID, dropID int64, viewer *geo.Point) (*DropView, error)
	Create(ctx context.Context, userID int64, in CreateDropInput) (*DropView, error)
	Delete(ctx context.Context, userID, dropID int64) error
	Highfive(ctx context.Context, userID, dropID int64) (*HighfiveStatus, error)
	RemoveHighfive(ctx context.Context, userID, dropID int64) (*HighfiveStatus, error)
	HighfiveStatus(ctx context.Context, userID, dropID int64) (*HighfiveStatus, error)
}

type nopDropCounter struct{}

func (nopDropCounter) DropCreated()   {}
func (nopDropCounter) HighfiveGiven() {}

type dropService struct {
	drops     store.DropStore
	users     store.UserStore
	highfives store.HighfiveStore
	txRunner  TxRunner
	publisher realtime.Publisher
	counter   DropCounter
	now       func() time.Time
}

func NewDropService(
	drops store.DropStore,
	users store.UserStore,
	highfives store.HighfiveStore,
	txRunner TxRunner,
	publisher realtime.Publisher,
	counter DropCounter,
) DropService {
	if counter == nil {
		counter = nopDropCounter{}
	}
	return &dropService{
		drops:     drops,
		users:     users,
		highfives: highfives,
		txRunner:  txRunner,
		publisher: publisher,
		counter:   counter,
		now:       time.Now,
	}
}

func (s *dropService) List(ctx context.Context, viewerID int64, q DropQuery) ([]DropView, error) {
	radius := q.Radius
	if radius <= 0 || math.IsNaN(radius) {
		radius = DefaultDropRadius
	}

	var (
		drops []model.Drop
		err   error
	)
	if q.Viewer == nil || radius > GlobalDropRadius {
		drops, err = s.drops.ListActive(ctx, dropListLimit)
	} else {
		drops, err = s.drops.ListActiveInBox(ctx, geo.BoundingBox(*q.Viewer, radius), dropListLimit)
	}
	if err != nil {
		return nil, fmt.Errorf("listing drops: %w", err)
	}

	views := make([]DropView, 0, len(drops))
	for i := range drops {
		views = append(views, annotate(q.Viewer, viewerID, &drops[i]))
	}
	return views, nil
}

func (s *dropService) Get(ctx context.Context, viewerID, dropID int64, viewer *geo.Point) (*DropView, error) {
	drop, err := s.drops.GetByID(ctx, dropID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("Drop not found")
		}
		return nil, fmt.Errorf("getting drop: %w", err)
	}
	if drop.Expired(s.now()) {
		return nil, notFound("Drop not found")
	}
	view := annotate(viewer, viewerID, drop)
	return &view, nil
}

func (s *dropService) Create(ctx context.Context, userID int64, in CreateDropInput) (*DropView, error) {
	drop, err := s.validate(userID, in)
	if err != nil {
		return nil, err
	}

	drop.UserName = s.displayName(ctx, userID)

	if err := s.drops.Create(ctx, drop); err != nil {
		slog.ErrorContext(ctx, "failed to create drop", "error", err, "user_id", userID)
		return nil, fmt.Errorf("creating drop: %w", err)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{DropID: logger.Ptr(drop.ID)})
	slog.InfoContext(ctx, "drop created", "range", drop.Range, "effect", drop.Effect)
	s.counter.DropCreated()

	// Subscribers are at different positions, so the broadcast carries the
	// raw drop and each client decides readability for itself.
	s.publisher.Publish(ctx, realtime.ChannelDrops, realtime.EventNewDrop, newDropEvent{
		Type: realtime.EventNewDrop,
		Drop: *drop,
	})

	view := annotate(&geo.Point{Lat: drop.Latitude, Lng: drop.Longitude}, userID, drop)
	return &view, nil
}

func (s *dropService) validate(userID int64, in CreateDropInput) (*model.Drop, error) {
	message := strings.TrimSpace(in.Message)
	if !model.ValidDropMessage(message) {
		return nil, validation("Invalid message")
	}
	if in.Latitude == nil || in.Longitude == nil ||
		math.Abs(*in.Latitude) > 90 || math.Abs(*in.Longitude) > 180 {
		return nil, validation("Invalid coordinates")
	}

	rangeClass := in.Range
	if rangeClass == "" {
		rangeClass = model.RangeClose
	}
	if !rangeClass.Valid() {
		return nil, validation("Invalid range")
	}

	effect := in.Effect
	if effect == "" {
		effect = model.EffectNone
	}
	if !effect.Valid() {
		return nil, validation("Invalid effect")
	}

	return &model.Drop{
		ID:        id.New(),
		UserID:    userID,
		Message:   message,
		Latitude:  *in.Latitude,
		Longitude: *in.Longitude,
		Range:     rangeClass,
		Effect:    effect,
		ExpiresAt: in.ExpiresAt,
		CreatedAt: s.now(),
	}, nil
}

func (s *dropService) Delete(ctx context.Context, userID, dropID int64) error {
	drop, err := s.drops.GetByID(ctx, dropID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound("Drop not found")
		}
		return fmt.Errorf("getting drop: %w", err)
	}
	if drop.UserID != userID {
		return forbidden("Not authorized")
	}
	if !drop.Deletable(userID, s.now()) {
		return forbidden("Delete window expired (15 minutes)")
	}

	if err := s.drops.Delete(ctx, dropID); err != nil {
		return fmt.Errorf("deleting drop: %w", err)
	}

	slog.InfoContext(ctx, "drop deleted", "drop_id", dropID)
	s.publisher.Publish(ctx, realtime.ChannelDrops, realtime.EventDeleteDrop, deleteDropEvent{
		Type:   realtime.EventDeleteDrop,
		DropID: dropID,
	})
	return nil
}

func (s *dropService) Highfive(ctx context.Context, userID, dropID int64) (*HighfiveStatus, error) {
	drop, err := s.drops.GetByID(ctx, dropID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("Drop not found")
		}
		return nil, fmt.Errorf("getting drop: %w", err)
	}

	var notification *model.Notification
	err = s.txRunner.WithTx(ctx, func(stores StoreProvider) error {
		hf := &model.Highfive{ID: id.New(), DropID: dropID, UserID: userID}
		if err := stores.Highfives().Create(ctx, hf); err != nil {
			return err
		}
		if drop.UserID == userID {
			return nil
		}
		notification = &model.Notification{
			ID:         id.New(),
			UserID:     drop.UserID,
			Type:       model.NotificationTypeHighfive,
			DropID:     &dropID,
			FromUserID: &userID,
		}
		return stores.Notifications().Create(ctx, notification)
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, validation("Already high-fived")
		}
		slog.ErrorContext(ctx, "failed to record highfive", "error", err, "drop_id", dropID)
		return nil, fmt.Errorf("recording highfive: %w", err)
	}
	s.counter.HighfiveGiven()

	if notification != nil {
		s.publishHighfive(ctx, userID, drop, notification)
	}
	return s.status(ctx, dropID, true)
}

func (s *dropService) publishHighfive(ctx context.Context, fromUserID int64, drop *model.Drop, n *model.Notification) {
	s.publisher.Publish(ctx, realtime.UserChannel(drop.UserID), realtime.EventHighfive, highfiveEvent{
		Type:           realtime.EventHighfive,
		DropID:         drop.ID,
		ToUserID:       drop.UserID,
		FromUserID:     fromUserID,
		FromUserName:   s.displayName(ctx, fromUserID),
		NotificationID: n.ID,
	})
}

// RemoveHighfive is idempotent: removing an absent high-five still reports the count.
func (s *dropService) RemoveHighfive(ctx context.Context, userID, dropID int64) (*HighfiveStatus, error) {
	if err := s.highfives.Delete(ctx, dropID, userID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("removing highfive: %w", err)
	}
	return s.status(ctx, dropID, false)
}

func (s *dropService) HighfiveStatus(ctx context.Context, userID, dropID int64) (*HighfiveStatus, error) {
	has, err := s.highfives.Exists(ctx, dropID, userID)
	if err != nil {
		return nil, fmt.Errorf("checking highfive: %w", err)
	}
	return s.status(ctx, dropID, has)
}

func (s *dropService) status(ctx context.Context, dropID int64, has bool) (*HighfiveStatus, error) {
	count, err := s.highfives.Count(ctx, dropID)
	if err != nil {
		return nil, fmt.Errorf("counting highfives: %w", err)
	}
	return &HighfiveStatus{HasHighfived: has, HighfiveCount: count}, nil
}

// displayName falls back to the anonymous name when the user cannot be loaded.
func (s *dropService) displayName(ctx context.Context, userID int64) string {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		slog.WarnContext(ctx, "failed to load user name", "error", err, "user_id", userID)
		return (*model.User)(nil).DisplayName()
	}
	return user.DisplayName()
}

func annotate(viewer *geo.Point, viewerID int64, drop *model.Drop) DropView {
	v := geo.Annotate(viewer, viewerID, drop)
	return DropView{
		Drop:           *drop,
		DistanceMeters: v.DistanceMeters,
		Readable:       v.Readable,
		DisplayMessage: v.DisplayMessage,
	}
}

type newDropEvent struct {
	Type string     `json:"type"`
	Drop model.Drop `json:"drop"`
}

type deleteDropEvent struct {
	Type   string `json:"type"`
	DropID int64  `json:"drop_id,string"`
}

type highfiveEvent struct {
	Type           string `json:"type"`
	DropID         int64  `json:"drop_id,string"`
	ToUserID       int64  `json:"to_user_id,string"`
	FromUserID     int64  `json:"from_user_id,string"`
	FromUserName   string `json:"from_user_name"`
	NotificationID int64  `json:"notification_id,string"`
}
