package venue_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-venue-booking/internal/apperr"
	"ms-venue-booking/internal/config"
	"ms-venue-booking/internal/database/dbtest"
	"ms-venue-booking/internal/logger"
	"ms-venue-booking/internal/storage"
	"ms-venue-booking/internal/venue"
	"ms-venue-booking/internal/venue/db"
)

func setup(t *testing.T) (*venue.Service, string) {
	t.Helper()
	root := t.TempDir()
	blobs, err := storage.NewLocal(config.StorageConfig{Root: root, BaseURL: "/files", MaxUploadSize: 10 << 20}, logger.Discard())
	require.NoError(t, err)
	return venue.NewService(db.New(dbtest.New(t)), blobs, 100, logger.Discard()), root
}

func pngOf(t *testing.T, w, h int) *bytes.Buffer {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}

func TestVenueCRUD(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	v, err := svc.Create(ctx, venue.Input{Name: "Hall B", ShortCode: " hb ", Length: 20, Width: 10, CapacityBanquet: 200})
	require.NoError(t, err)
	assert.Equal(t, "HB", v.ShortCode)
	assert.Equal(t, 200.0, v.Area)

	_, err = svc.Create(ctx, venue.Input{Name: "Hall A", ShortCode: "HA"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, venue.Input{Name: "Dup", ShortCode: "HB"})
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "short_code")

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Hall A", list[0].Name)

	updated, err := svc.Update(ctx, v.ID, venue.Input{Name: "Hall B", ShortCode: "HB", Height: 8})
	require.NoError(t, err)
	assert.Equal(t, 8.0, updated.Height)

	require.NoError(t, svc.Delete(ctx, v.ID))
	_, err = svc.Get(ctx, v.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	// the short code stays reserved by the soft-deleted venue
	_, err = svc.Create(ctx, venue.Input{Name: "New B", ShortCode: "HB"})
	assert.ErrorAs(t, err, &verr)

	_, err = svc.Create(ctx, venue.Input{Name: "Neg", ShortCode: "NG", Width: -1})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "width")
}

func TestUploadPhotoDownscales(t *testing.T) {
	svc, root := setup(t)
	ctx := context.Background()

	v, err := svc.Create(ctx, venue.Input{Name: "Hall A", ShortCode: "HA"})
	require.NoError(t, err)

	got, err := svc.UploadPhoto(ctx, v.ID, "hall.png", pngOf(t, 400, 200))
	require.NoError(t, err)
	require.NotEmpty(t, got.Photo)
	assert.Equal(t, "/files/venues/photos/"+got.Photo, got.PhotoURL)

	img, err := imaging.Open(filepath.Join(root, "venues", "photos", got.Photo))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())

	first := got.Photo
	got, err = svc.UploadPhoto(ctx, v.ID, "hall2.png", pngOf(t, 50, 50))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "venues", "photos", first))
	assert.True(t, os.IsNotExist(err), "previous photo is removed")

	_, err = svc.UploadPhoto(ctx, v.ID, "notes.txt", strings.NewReader("text"))
	assert.Error(t, err)
	_, err = svc.UploadPhoto(ctx, v.ID, "broken.png", strings.NewReader("not a png"))
	assert.Error(t, err)
}

func TestUploadFloorPlan(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	v, err := svc.Create(ctx, venue.Input{Name: "Hall A", ShortCode: "HA"})
	require.NoError(t, err)
	got, err := svc.UploadFloorPlan(ctx, v.ID, "plan.pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(got.FloorPlanURL, "_plan.pdf"))

	reloaded, err := svc.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, got.FloorPlan, reloaded.FloorPlan)
}
