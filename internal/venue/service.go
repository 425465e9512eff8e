package venue

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"ms-venue-booking/internal/apperr"
	"ms-venue-booking/internal/logger"
	"ms-venue-booking/internal/models"
	"ms-venue-booking/internal/storage"
)

type Input struct {
	Name              string  `json:"name" validate:"required,max=255"`
	ShortCode         string  `json:"short_code" validate:"required,max=20"`
	Length            float64 `json:"length" validate:"gte=0"`
	Width             float64 `json:"width" validate:"gte=0"`
	Height            float64 `json:"height" validate:"gte=0"`
	CapacityBanquet   int     `json:"capacity_banquet" validate:"gte=0"`
	CapacityClassroom int     `json:"capacity_classroom" validate:"gte=0"`
	CapacityTheater   int     `json:"capacity_theater" validate:"gte=0"`
	CapacityReception int     `json:"capacity_reception" validate:"gte=0"`
}

type DBLayer interface {
	ListVenues(ctx context.Context) ([]models.Venue, error)
	Get(ctx context.Context, id string) (*models.Venue, error)
	ShortCodeTaken(ctx context.Context, code, excludeID string) (bool, error)
	Insert(ctx context.Context, v *models.Venue) error
	Update(ctx context.Context, v *models.Venue) error
	SetFile(ctx context.Context, id, column, name string) error
	Delete(ctx context.Context, id string) error
}

// View adds the public file URLs to a venue.
type View struct {
	*models.Venue
	Area         float64 `json:"area"`
	PhotoURL     string  `json:"photo_url,omitempty"`
	FloorPlanURL string  `json:"floor_plan_url,omitempty"`
}

type Service struct {
	DB            DBLayer
	Blobs         storage.Blobs
	PhotoMaxWidth int
	Logger        *logger.Logger
}

func NewService(db DBLayer, blobs storage.Blobs, photoMaxWidth int, log *logger.Logger) *Service {
	return &Service{DB: db, Blobs: blobs, PhotoMaxWidth: photoMaxWidth, Logger: log}
}

func (s *Service) view(v *models.Venue) View {
	return View{
		Venue:        v,
		Area:         v.Area(),
		PhotoURL:     s.Blobs.URLFor(storage.BucketVenuePhotos, v.Photo),
		FloorPlanURL: s.Blobs.URLFor(storage.BucketFloorPlans, v.FloorPlan),
	}
}

func (s *Service) List(ctx context.Context) ([]View, error) {
	venues, err := s.DB.ListVenues(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]View, 0, len(venues))
	for i := range venues {
		out = append(out, s.view(&venues[i]))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (View, error) {
	v, err := s.DB.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	return s.view(v), nil
}

func (s *Service) Create(ctx context.Context, in Input) (View, error) {
	if err := s.check(ctx, &in, ""); err != nil {
		return View{}, err
	}
	v := &models.Venue{ID: uuid.NewString()}
	in.apply(v)
	if err := s.DB.Insert(ctx, v); err != nil {
		return View{}, fmt.Errorf("insert venue: %w", err)
	}
	s.Logger.Info("VENUE", fmt.Sprintf("Created venue %s (%s)", v.Name, v.ShortCode))
	return s.view(v), nil
}

func (s *Service) Update(ctx context.Context, id string, in Input) (View, error) {
	v, err := s.DB.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	if err := s.check(ctx, &in, id); err != nil {
		return View{}, err
	}
	in.apply(v)
	if err := s.DB.Update(ctx, v); err != nil {
		return View{}, fmt.Errorf("update venue: %w", err)
	}
	return s.view(v), nil
}

// Delete soft-deletes the venue. Past orders keep showing it by name.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.DB.Get(ctx, id); err != nil {
		return err
	}
	if err := s.DB.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete venue: %w", err)
	}
	s.Logger.Info("VENUE", fmt.Sprintf("Deleted venue %s", id))
	return nil
}

// UploadPhoto downscales the image before storing it and replaces any previous photo.
func (s *Service) UploadPhoto(ctx context.Context, id, originalName string, r io.Reader) (View, error) {
	if !storage.IsImage(originalName) {
		return View{}, apperr.Field("file", "must be an image")
	}
	scaled, err := storage.Downscale(r, originalName, s.PhotoMaxWidth)
	if err != nil {
		return View{}, apperr.Field("file", "could not be read as an image")
	}
	return s.replaceFile(ctx, id, storage.BucketVenuePhotos, "photo", originalName, scaled)
}

func (s *Service) UploadFloorPlan(ctx context.Context, id, originalName string, r io.Reader) (View, error) {
	return s.replaceFile(ctx, id, storage.BucketFloorPlans, "floor_plan", originalName, r)
}

func (s *Service) replaceFile(ctx context.Context, id, bucket, column, originalName string, r io.Reader) (View, error) {
	v, err := s.DB.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	name, err := s.Blobs.Store(ctx, bucket, originalName, r)
	if err != nil {
		return View{}, fmt.Errorf("store %s: %w", column, err)
	}
	if err := s.DB.SetFile(ctx, id, column, name); err != nil {
		_ = s.Blobs.Delete(ctx, bucket, name)
		return View{}, fmt.Errorf("save %s: %w", column, err)
	}

	old := v.Photo
	if column == "floor_plan" {
		old, v.FloorPlan = v.FloorPlan, name
	} else {
		v.Photo = name
	}
	if old != "" {
		if err := s.Blobs.Delete(ctx, bucket, old); err != nil {
			s.Logger.Warn("VENUE", fmt.Sprintf("Failed to remove old %s %s: %v", column, old, err))
		}
	}
	return s.view(v), nil
}

func (s *Service) check(ctx context.Context, in *Input, excludeID string) error {
	in.ShortCode = strings.ToUpper(strings.TrimSpace(in.ShortCode))
	if err := apperr.Validate(*in); err != nil {
		return err
	}
	taken, err := s.DB.ShortCodeTaken(ctx, in.ShortCode, excludeID)
	if err != nil {
		return fmt.Errorf("check short code: %w", err)
	}
	if taken {
		return apperr.Field("short_code", "is already used by another venue")
	}
	return nil
}

func (in Input) apply(v *models.Venue) {
	v.Name = strings.TrimSpace(in.Name)
	v.ShortCode = in.ShortCode
	v.Length = in.Length
	v.Width = in.Width
	v.Height = in.Height
	v.CapacityBanquet = in.CapacityBanquet
	v.CapacityClassroom = in.CapacityClassroom
	v.CapacityTheater = in.CapacityTheater
	v.CapacityReception = in.CapacityReception
}
