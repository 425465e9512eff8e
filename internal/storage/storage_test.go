package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-venue-booking/internal/config"
	"ms-venue-booking/internal/logger"
)

func newLocal(t *testing.T, max int64) *Local {
	t.Helper()
	l, err := NewLocal(config.StorageConfig{Root: t.TempDir(), BaseURL: "/files/", MaxUploadSize: max}, logger.Discard())
	require.NoError(t, err)
	return l
}

func TestStoreAndDelete(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t, 0)

	name, err := l.Store(ctx, BucketBeoAttachments, "menu.pdf", strings.NewReader("pdf-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, "_menu.pdf"))

	p := filepath.Join(l.Root(), BucketBeoAttachments, name)
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "pdf-bytes", string(data))

	assert.Equal(t, "/files/beo-attachments/"+name, l.URLFor(BucketBeoAttachments, name))

	require.NoError(t, l.Delete(ctx, BucketBeoAttachments, name))
	_, err = os.Stat(p)
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, l.Delete(ctx, BucketBeoAttachments, name))
}

func TestStoreRejectsUnknownBucketAndTraversal(t *testing.T) {
	ctx := context.Background()
	l := newLocal(t, 0)

	_, err := l.Store(ctx, "../etc", "x.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnknownBucket)

	err = l.Delete(ctx, BucketAttachments, "../../secret")
	assert.Error(t, err)
}

func TestStoreEnforcesMaxSize(t *testing.T) {
	l := newLocal(t, 4)

	_, err := l.Store(context.Background(), BucketAttachments, "big.bin", strings.NewReader("12345"))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(filepath.Join(l.Root(), BucketAttachments))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDownscale(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 400, 200))
	for x := 0; x < 400; x++ {
		src.Set(x, 10, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	out, err := Downscale(&buf, "hall.png", 100)
	require.NoError(t, err)
	data, err := io.ReadAll(out)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())

	_, err = Downscale(strings.NewReader("not an image"), "x.png", 100)
	assert.Error(t, err)

	assert.True(t, IsImage("A.JPG"))
	assert.False(t, IsImage("plan.pdf"))
}
