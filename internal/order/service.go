package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"ms-venue-booking/internal/apperr"
	"ms-venue-booking/internal/auth"
	"ms-venue-booking/internal/booking"
	"ms-venue-booking/internal/logger"
	"ms-venue-booking/internal/models"
	"ms-venue-booking/internal/order/db"
	orderredis "ms-venue-booking/internal/order/redis"
	"ms-venue-booking/internal/schedule"
	"ms-venue-booking/internal/storage"
)

// ErrBookingBusy is returned when another request held the venue locks too long.
var ErrBookingBusy = apperr.Business("another booking for these venues is in progress, please retry")

type DBLayer interface {
	booking.IntervalSource
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx *db.DB) error) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	ListOrders(ctx context.Context, f db.ListFilter) ([]models.Order, error)
	DeleteOrder(ctx context.Context, id string) error
	CustomerExists(ctx context.Context, id string) (bool, error)
	VenuesByIDs(ctx context.Context, ids []string) ([]models.Venue, error)
	CreateAttachment(ctx context.Context, a *models.OrderAttachment) error
	GetAttachment(ctx context.Context, orderID, id string) (*models.OrderAttachment, error)
	SoftDeleteAttachment(ctx context.Context, id string) error
}

// VenueLock serialises bookings per venue.
type VenueLock interface {
	Acquire(ctx context.Context, venueIDs []string, token string) error
	Release(ctx context.Context, venueIDs []string, token string) error
}

type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, ev models.OrderEvent) error
}

type OrderService struct {
	DB     DBLayer
	Lock   VenueLock
	Events EventPublisher
	Blobs  storage.Blobs
	Logger *logger.Logger
}

func NewOrderService(db DBLayer, lock VenueLock, events EventPublisher, blobs storage.Blobs, log *logger.Logger) *OrderService {
	return &OrderService{DB: db, Lock: lock, Events: events, Blobs: blobs, Logger: log}
}

// ---------------- ORDERS ----------------

// Create books the venues for the order's dates. The conflict check is repeated
// under the venue locks inside the insert transaction, so it is authoritative.
func (s *OrderService) Create(ctx context.Context, actor *auth.Principal, req CreateOrderRequest) (*models.Order, error) {
	if err := apperr.Validate(req); err != nil {
		return nil, err
	}
	iv, err := booking.ParseInterval(req.StartDate, req.EndDate)
	if err != nil {
		return nil, apperr.Field("end_date", "must be on or after start_date")
	}
	venueIDs := dedupe(req.VenueIDs)
	venues, err := s.checkReferences(ctx, req.CustomerID, venueIDs)
	if err != nil {
		return nil, err
	}

	o := &models.Order{
		ID:         uuid.NewString(),
		CustomerID: req.CustomerID,
		EventName:  strings.TrimSpace(req.EventName),
		StartDate:  iv.Start,
		EndDate:    iv.End,
		Status:     models.OrderStatusNewInquiry,
		StatusBeo:  models.BeoStatusPlanning,
		Notes:      req.Notes,
		CreatedBy:  actor.ID(),
	}

	var rows []models.Schedule
	if len(req.Schedules) > 0 {
		rows, err = schedule.BuildRows(*o, schedule.BulkRequest{Schedules: req.Schedules})
		if err != nil {
			return nil, err
		}
	}

	err = s.withVenueLock(ctx, venueIDs, o.ID, func() error {
		return s.DB.RunInTx(ctx, func(ctx context.Context, tx *db.DB) error {
			if err := s.ensureFree(ctx, tx, iv, venueIDs, ""); err != nil {
				return err
			}
			if err := tx.CreateOrder(ctx, o, venueIDs); err != nil {
				return err
			}
			return tx.InsertSchedules(ctx, rows)
		})
	})
	if err != nil {
		return nil, err
	}

	o.Venues = venues
	o.Schedules = rows
	s.Logger.LogOrder("CREATE", o.ID, fmt.Sprintf("%s %s on %d venue(s)", o.EventName, iv, len(venueIDs)))
	s.publish(ctx, models.OrderEventCreated, *o, actor.ID())
	return o, nil
}

// Update edits an order and re-runs the conflict check against every other order.
func (s *OrderService) Update(ctx context.Context, actor *auth.Principal, id string, req UpdateOrderRequest) (*models.Order, error) {
	if err := apperr.Validate(req); err != nil {
		return nil, err
	}
	iv, err := booking.ParseInterval(req.StartDate, req.EndDate)
	if err != nil {
		return nil, apperr.Field("end_date", "must be on or after start_date")
	}
	venueIDs := dedupe(req.VenueIDs)
	if _, err := s.checkReferences(ctx, req.CustomerID, venueIDs); err != nil {
		return nil, err
	}

	err = s.withVenueLock(ctx, venueIDs, id, func() error {
		return s.DB.RunInTx(ctx, func(ctx context.Context, tx *db.DB) error {
			cur, err := tx.GetOrderByID(ctx, id)
			if err != nil {
				return err
			}
			if cur.Status == models.OrderStatusCompleted {
				return apperr.Business("a completed order cannot be edited")
			}
			for _, sc := range cur.Schedules {
				if !iv.Contains(sc.StartDate) || !iv.Contains(sc.EndDate) {
					return apperr.Field("start_date", "existing schedules fall outside the new dates")
				}
			}
			if err := s.ensureFree(ctx, tx, iv, venueIDs, id); err != nil {
				return err
			}

			cur.CustomerID = req.CustomerID
			cur.EventName = strings.TrimSpace(req.EventName)
			cur.StartDate = iv.Start
			cur.EndDate = iv.End
			cur.Notes = req.Notes
			if err := tx.UpdateOrder(ctx, cur); err != nil {
				return err
			}
			return tx.ReplaceVenues(ctx, id, venueIDs)
		})
	})
	if err != nil {
		return nil, err
	}

	o, err := s.DB.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Logger.LogOrder("UPDATE", id, fmt.Sprintf("%s %s", o.EventName, iv))
	s.publish(ctx, models.OrderEventUpdated, *o, actor.ID())
	return o, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*models.Order, error) {
	o, err := s.DB.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	for i := range o.Attachments {
		o.Attachments[i].URL = s.Blobs.URLFor(storage.BucketAttachments, o.Attachments[i].FileName)
	}
	return o, nil
}

func (s *OrderService) List(ctx context.Context, f db.ListFilter) ([]models.Order, error) {
	return s.DB.ListOrders(ctx, f)
}

// Delete detaches the venues and soft-deletes the order, freeing its dates.
func (s *OrderService) Delete(ctx context.Context, actor *auth.Principal, id string) error {
	o, err := s.DB.GetOrderByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.DB.DeleteOrder(ctx, id); err != nil {
		return err
	}
	s.Logger.LogOrder("DELETE", id, o.EventName)
	s.publish(ctx, models.OrderEventDeleted, *o, actor.ID())
	return nil
}

// Availability runs the conflict check without booking. It is advisory only.
func (s *OrderService) Availability(ctx context.Context, start, end string, venueIDs []string, excludeOrderID string) (booking.Result, error) {
	iv, err := booking.ParseInterval(start, end)
	if errors.Is(err, booking.ErrInvertedInterval) {
		return booking.Result{}, apperr.Field("end", "must be on or after start")
	}
	if err != nil {
		return booking.Result{}, apperr.Field("start", "dates must be YYYY-MM-DD")
	}
	if len(venueIDs) == 0 {
		return booking.Result{}, apperr.Field("venue_ids", "is required")
	}
	return booking.NewChecker(s.DB).Check(ctx, iv, dedupe(venueIDs), excludeOrderID)
}

func (s *OrderService) checkReferences(ctx context.Context, customerID string, venueIDs []string) ([]models.Venue, error) {
	ok, err := s.DB.CustomerExists(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("check customer: %w", err)
	}
	if !ok {
		return nil, apperr.Field("customer_id", "does not exist")
	}
	venues, err := s.DB.VenuesByIDs(ctx, venueIDs)
	if err != nil {
		return nil, err
	}
	if len(venues) != len(venueIDs) {
		return nil, apperr.Field("venue_ids", "contains an unknown venue")
	}
	return venues, nil
}

func (s *OrderService) ensureFree(ctx context.Context, src booking.IntervalSource, iv booking.Interval, venueIDs []string, excludeOrderID string) error {
	res, err := booking.NewChecker(src).Check(ctx, iv, venueIDs, excludeOrderID)
	if err != nil {
		return err
	}
	if res.Conflict {
		s.Logger.LogBooking("CONFLICT", strings.Join(res.ConflictingVenueNames, ","), iv.String())
		return &apperr.ConflictError{VenueNames: res.ConflictingVenueNames}
	}
	return nil
}

func (s *OrderService) withVenueLock(ctx context.Context, venueIDs []string, token string, fn func() error) error {
	if err := s.Lock.Acquire(ctx, venueIDs, token); err != nil {
		if errors.Is(err, orderredis.ErrVenueBusy) {
			return ErrBookingBusy
		}
		return err
	}
	defer s.Lock.Release(context.WithoutCancel(ctx), venueIDs, token)
	return fn()
}

// publish is best effort. A lost event only delays calendar refreshes.
func (s *OrderService) publish(ctx context.Context, eventType string, o models.Order, actorID string) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishOrderEvent(ctx, models.NewOrderEvent(eventType, o, actorID)); err != nil {
		s.Logger.Error("ORDER", fmt.Sprintf("Failed to publish %s for %s: %v", eventType, o.ID, err))
	}
}

// ---------------- ATTACHMENTS ----------------

func (s *OrderService) AddAttachment(ctx context.Context, orderID, originalName string, r io.Reader) (*models.OrderAttachment, error) {
	if _, err := s.DB.GetOrderByID(ctx, orderID); err != nil {
		return nil, err
	}
	name, err := s.Blobs.Store(ctx, storage.BucketAttachments, originalName, r)
	if err != nil {
		return nil, fmt.Errorf("store attachment: %w", err)
	}
	a := &models.OrderAttachment{
		ID:           uuid.NewString(),
		OrderID:      orderID,
		FileName:     name,
		OriginalName: originalName,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.DB.CreateAttachment(ctx, a); err != nil {
		if derr := s.Blobs.Delete(context.WithoutCancel(ctx), storage.BucketAttachments, name); derr != nil {
			s.Logger.Warn("ORDER", fmt.Sprintf("Failed to remove orphaned attachment file %s: %v", name, derr))
		}
		return nil, fmt.Errorf("save attachment: %w", err)
	}
	a.URL = s.Blobs.URLFor(storage.BucketAttachments, name)
	s.Logger.LogOrder("ATTACH", orderID, name)
	return a, nil
}

// DeleteAttachment tombstones the row and removes the file for good.
func (s *OrderService) DeleteAttachment(ctx context.Context, orderID, attachmentID string) error {
	a, err := s.DB.GetAttachment(ctx, orderID, attachmentID)
	if err != nil {
		return err
	}
	if err := s.DB.SoftDeleteAttachment(ctx, a.ID); err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	if err := s.Blobs.Delete(ctx, storage.BucketAttachments, a.FileName); err != nil {
		return fmt.Errorf("delete attachment file: %w", err)
	}
	s.Logger.LogOrder("DETACH", orderID, a.FileName)
	return nil
}
