package beo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ms-venue-booking/internal/apperr"
	"ms-venue-booking/internal/auth"
	"ms-venue-booking/internal/beo/db"
	"ms-venue-booking/internal/beo/sheet"
	"ms-venue-booking/internal/logger"
	"ms-venue-booking/internal/models"
	"ms-venue-booking/internal/storage"
	"ms-venue-booking/internal/workflow"
)

type DBLayer interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx *db.DB) error) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	GetOrderDetail(ctx context.Context, id string) (*models.Order, error)
	ListByOrder(ctx context.Context, orderID string) ([]models.Beo, error)
	ListForUser(ctx context.Context, userID string) ([]models.Beo, error)
	GetBeo(ctx context.Context, orderID, id string) (*models.Beo, error)
}

type EventPublisher interface {
	PublishBeoEvent(ctx context.Context, ev models.BeoEvent) error
}

type Service struct {
	DB     DBLayer
	Blobs  storage.Blobs
	Events EventPublisher
	Sheets *sheet.Renderer
	Logger *logger.Logger
}

func NewService(db DBLayer, blobs storage.Blobs, events EventPublisher, sheets *sheet.Renderer, log *logger.Logger) *Service {
	return &Service{DB: db, Blobs: blobs, Events: events, Sheets: sheets, Logger: log}
}

// change collects the side effects of one mutation so blobs and events are
// only acted on once the transaction outcome is known.
type change struct {
	stored   []string
	removed  []string
	events   []pendingEvent
	advanced bool
}

type pendingEvent struct {
	typ string
	beo models.Beo
}

func (c *change) emit(typ string, b models.Beo) {
	c.events = append(c.events, pendingEvent{typ: typ, beo: b})
}

// mutate runs fn in a transaction and then applies the BEO side effect on the
// order's approval track. Files stored by a failed mutation are removed again;
// files detached by a successful one are deleted after commit.
func (s *Service) mutate(ctx context.Context, actor *auth.Principal, orderID string, fn func(ctx context.Context, tx *db.DB, c *change) error) error {
	c := &change{}
	var status models.BeoStatus
	err := s.DB.RunInTx(ctx, func(ctx context.Context, tx *db.DB) error {
		o, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if err := fn(ctx, tx, c); err != nil {
			return err
		}
		if workflow.OnBeoMutated(o) {
			if err := tx.SetOrderBeoStatus(ctx, o); err != nil {
				return err
			}
			c.advanced = true
		}
		status = o.StatusBeo
		return nil
	})

	cleanup := context.WithoutCancel(ctx)
	if err != nil {
		for _, name := range c.stored {
			_ = s.Blobs.Delete(cleanup, storage.BucketBeoAttachments, name)
		}
		return err
	}
	for _, name := range c.removed {
		if err := s.Blobs.Delete(cleanup, storage.BucketBeoAttachments, name); err != nil {
			s.Logger.Warn("BEO", fmt.Sprintf("Failed to delete attachment file %s: %v", name, err))
		}
	}
	if c.advanced {
		s.Logger.LogBeo("IN_PROGRESS", orderID, "department activity after approval")
	}
	for _, ev := range c.events {
		s.publish(ctx, models.NewBeoEvent(ev.typ, ev.beo, status, actor.ID()))
	}
	return nil
}

func (s *Service) publish(ctx context.Context, ev models.BeoEvent) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishBeoEvent(ctx, ev); err != nil {
		s.Logger.Error("BEO", fmt.Sprintf("Failed to publish %s for %s: %v", ev.Type, ev.BeoID, err))
	}
}

func (s *Service) withURLs(beos []models.Beo) []models.Beo {
	for i := range beos {
		for j := range beos[i].Attachments {
			a := &beos[i].Attachments[j]
			a.URL = s.Blobs.URLFor(storage.BucketBeoAttachments, a.FileName)
		}
	}
	return beos
}

// ---------------- READS ----------------

func (s *Service) List(ctx context.Context, orderID string) ([]models.Beo, error) {
	if _, err := s.DB.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	beos, err := s.DB.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.withURLs(beos), nil
}

// ListForPIC returns the BEOs assigned to the calling person in charge.
func (s *Service) ListForPIC(ctx context.Context, actor *auth.Principal) ([]models.Beo, error) {
	if actor == nil {
		return nil, apperr.Business("no authenticated user")
	}
	beos, err := s.DB.ListForUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	live := beos[:0]
	for _, b := range beos {
		if b.Order != nil {
			live = append(live, b)
		}
	}
	return s.withURLs(live), nil
}

// ---------------- WRITES ----------------

func (s *Service) Create(ctx context.Context, actor *auth.Principal, orderID string, in Input, files []Upload) (*models.Beo, error) {
	if err := apperr.Validate(in); err != nil {
		return nil, err
	}
	b := &models.Beo{ID: uuid.NewString(), OrderID: orderID}
	err := s.mutate(ctx, actor, orderID, func(ctx context.Context, tx *db.DB, c *change) error {
		if err := s.apply(ctx, tx, b, in, ""); err != nil {
			return err
		}
		if err := tx.InsertBeo(ctx, b); err != nil {
			return fmt.Errorf("insert beo: %w", err)
		}
		if err := s.upload(ctx, tx, c, b.ID, files); err != nil {
			return err
		}
		c.emit(models.BeoEventCreated, *b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Logger.LogBeo("CREATE", orderID, fmt.Sprintf("beo %s for department %s", b.ID, b.DepartmentID))
	return s.get(ctx, orderID, b.ID)
}

func (s *Service) Update(ctx context.Context, actor *auth.Principal, orderID, beoID string, in Input, files []Upload) (*models.Beo, error) {
	if err := apperr.Validate(in); err != nil {
		return nil, err
	}
	err := s.mutate(ctx, actor, orderID, func(ctx context.Context, tx *db.DB, c *change) error {
		b, err := tx.GetBeo(ctx, orderID, beoID)
		if err != nil {
			return err
		}
		if err := s.apply(ctx, tx, b, in, ""); err != nil {
			return err
		}
		if err := tx.UpdateBeo(ctx, b); err != nil {
			return fmt.Errorf("update beo: %w", err)
		}
		if err := s.upload(ctx, tx, c, b.ID, files); err != nil {
			return err
		}
		c.emit(models.BeoEventUpdated, *b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Logger.LogBeo("UPDATE", orderID, beoID)
	return s.get(ctx, orderID, beoID)
}

// Delete soft-deletes the BEO and removes its attachment files.
func (s *Service) Delete(ctx context.Context, actor *auth.Principal, orderID, beoID string) error {
	err := s.mutate(ctx, actor, orderID, func(ctx context.Context, tx *db.DB, c *change) error {
		b, err := tx.GetBeo(ctx, orderID, beoID)
		if err != nil {
			return err
		}
		for _, a := range b.Attachments {
			if err := tx.DeleteAttachment(ctx, a.ID); err != nil {
				return fmt.Errorf("delete beo attachment: %w", err)
			}
			c.removed = append(c.removed, a.FileName)
		}
		if err := tx.DeleteBeo(ctx, b.ID); err != nil {
			return fmt.Errorf("delete beo: %w", err)
		}
		c.emit(models.BeoEventDeleted, *b)
		return nil
	})
	if err != nil {
		return err
	}
	s.Logger.LogBeo("DELETE", orderID, beoID)
	return nil
}

// BulkUpsert applies a whole BEO form in one call. Marked attachments are
// removed first, then rows are created or updated, then new files stored.
func (s *Service) BulkUpsert(ctx context.Context, actor *auth.Principal, orderID string, req BulkRequest) ([]models.Beo, error) {
	if err := apperr.Validate(req); err != nil {
		return nil, err
	}
	err := s.mutate(ctx, actor, orderID, func(ctx context.Context, tx *db.DB, c *change) error {
		for i, row := range req.Beos {
			if len(row.RemoveAttachmentIDs) == 0 {
				continue
			}
			if row.ID == "" {
				return apperr.Field(fmt.Sprintf("beos[%d].remove_attachment_ids", i), "a new BEO has no attachments")
			}
			for _, attID := range row.RemoveAttachmentIDs {
				a, err := tx.GetAttachment(ctx, row.ID, attID)
				if err != nil {
					return err
				}
				if err := tx.DeleteAttachment(ctx, a.ID); err != nil {
					return fmt.Errorf("delete beo attachment: %w", err)
				}
				c.removed = append(c.removed, a.FileName)
			}
		}

		ids := make([]string, len(req.Beos))
		for i, row := range req.Beos {
			prefix := fmt.Sprintf("beos[%d].", i)
			if row.ID == "" {
				b := &models.Beo{ID: uuid.NewString(), OrderID: orderID}
				if err := s.apply(ctx, tx, b, row.input(), prefix); err != nil {
					return err
				}
				if err := tx.InsertBeo(ctx, b); err != nil {
					return fmt.Errorf("insert beo: %w", err)
				}
				ids[i] = b.ID
				c.emit(models.BeoEventCreated, *b)
				continue
			}
			b, err := tx.GetBeo(ctx, orderID, row.ID)
			if err != nil {
				return err
			}
			if err := s.apply(ctx, tx, b, row.input(), prefix); err != nil {
				return err
			}
			if err := tx.UpdateBeo(ctx, b); err != nil {
				return fmt.Errorf("update beo: %w", err)
			}
			ids[i] = b.ID
			c.emit(models.BeoEventUpdated, *b)
		}

		for i, row := range req.Beos {
			if err := s.upload(ctx, tx, c, ids[i], row.Files); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Logger.LogBeo("BULK_UPSERT", orderID, fmt.Sprintf("%d row(s)", len(req.Beos)))
	return s.List(ctx, orderID)
}

func (s *Service) DeleteAttachment(ctx context.Context, actor *auth.Principal, orderID, beoID, attachmentID string) error {
	return s.mutate(ctx, actor, orderID, func(ctx context.Context, tx *db.DB, c *change) error {
		b, err := tx.GetBeo(ctx, orderID, beoID)
		if err != nil {
			return err
		}
		a, err := tx.GetAttachment(ctx, b.ID, attachmentID)
		if err != nil {
			return err
		}
		if err := tx.DeleteAttachment(ctx, a.ID); err != nil {
			return fmt.Errorf("delete beo attachment: %w", err)
		}
		c.removed = append(c.removed, a.FileName)
		c.emit(models.BeoEventUpdated, *b)
		return nil
	})
}

// Sheet renders the printable BEO sheet of an order.
func (s *Service) Sheet(ctx context.Context, orderID string) ([]byte, error) {
	o, err := s.DB.GetOrderDetail(ctx, orderID)
	if err != nil {
		return nil, err
	}
	beos, err := s.DB.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.Sheets.Render(o, beos)
}

func (s *Service) get(ctx context.Context, orderID, beoID string) (*models.Beo, error) {
	b, err := s.DB.GetBeo(ctx, orderID, beoID)
	if err != nil {
		return nil, err
	}
	for j := range b.Attachments {
		b.Attachments[j].URL = s.Blobs.URLFor(storage.BucketBeoAttachments, b.Attachments[j].FileName)
	}
	return b, nil
}

// apply checks the references of in and copies it onto b. prefix scopes the
// field names of bulk rows.
func (s *Service) apply(ctx context.Context, tx *db.DB, b *models.Beo, in Input, prefix string) error {
	ok, err := tx.DepartmentExists(ctx, in.DepartmentID)
	if err != nil {
		return fmt.Errorf("check department: %w", err)
	}
	if !ok {
		return apperr.Field(prefix+"department_id", "does not exist")
	}

	pkg := optional(in.PackageID)
	if pkg != nil {
		dept, err := tx.PackageDepartment(ctx, *pkg)
		if apperr.IsNotFound(err) {
			return apperr.Field(prefix+"package_id", "does not exist")
		}
		if err != nil {
			return err
		}
		if dept != in.DepartmentID {
			return apperr.Field(prefix+"package_id", "belongs to another department")
		}
	}

	user := optional(in.UserID)
	if user != nil {
		ok, err := tx.UserExists(ctx, *user)
		if err != nil {
			return fmt.Errorf("check user: %w", err)
		}
		if !ok {
			return apperr.Field(prefix+"user_id", "does not exist")
		}
	}

	b.DepartmentID = in.DepartmentID
	b.PackageID = pkg
	b.UserID = user
	b.Notes = in.Notes
	return nil
}

func (s *Service) upload(ctx context.Context, tx *db.DB, c *change, beoID string, files []Upload) error {
	for _, f := range files {
		name, err := s.Blobs.Store(ctx, storage.BucketBeoAttachments, f.Name, f.Body)
		if err != nil {
			return fmt.Errorf("store beo attachment: %w", err)
		}
		c.stored = append(c.stored, name)
		a := &models.BeoAttachment{
			ID:           uuid.NewString(),
			BeoID:        beoID,
			FileName:     name,
			OriginalName: f.Name,
			CreatedAt:    time.Now().UTC(),
		}
		if err := tx.InsertAttachment(ctx, a); err != nil {
			return fmt.Errorf("save beo attachment: %w", err)
		}
	}
	return nil
}
