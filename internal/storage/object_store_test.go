package storage

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ObjectStore {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	store, err := NewObjectStore(t.TempDir(), "http://localhost:8083/", 15*time.Minute, logger)
	require.NoError(t, err)
	return store
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func tokenOf(target UploadTarget) string {
	return target.ObjectPath[strings.LastIndex(target.ObjectPath, "/")+1:]
}

func TestIssueUploadURL(t *testing.T) {
	store := newTestStore(t)
	target := store.IssueUploadURL()

	assert.True(t, strings.HasPrefix(target.ObjectPath, "/objects/uploads/"))
	assert.Equal(t, "http://localhost:8083"+target.ObjectPath, target.UploadURL)
	assert.NotEqual(t, target.ObjectPath, store.IssueUploadURL().ObjectPath)
}

func TestStoreWritesImageAndThumbnail(t *testing.T) {
	store := newTestStore(t)
	target := store.IssueUploadURL()
	data := pngBytes(t, 800, 200)

	objectPath, err := store.Store(tokenOf(target), bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, target.ObjectPath, objectPath)

	file, err := store.Resolve(objectPath)
	require.NoError(t, err)
	stored, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, data, stored)

	thumbFile, err := store.Resolve(ThumbnailPath(objectPath))
	require.NoError(t, err)
	thumb, err := imaging.Open(thumbFile)
	require.NoError(t, err)
	assert.Equal(t, ThumbnailWidth, thumb.Bounds().Dx())
	assert.Equal(t, 100, thumb.Bounds().Dy())

	_, err = store.Store(tokenOf(target), bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrUnknownUpload)
}

func TestStoreRejectsBadUploads(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Store("not-a-token", bytes.NewReader(pngBytes(t, 2, 2)))
	assert.ErrorIs(t, err, ErrUnknownUpload)

	_, err = store.Store(tokenOf(store.IssueUploadURL()), strings.NewReader("plain text"))
	assert.ErrorIs(t, err, ErrNotImage)

	big := bytes.Repeat([]byte{0xff}, MaxUploadSize+1)
	_, err = store.Store(tokenOf(store.IssueUploadURL()), bytes.NewReader(big))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestStoreRejectsExpiredToken(t *testing.T) {
	store := newTestStore(t)
	target := store.IssueUploadURL()

	store.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err := store.Store(tokenOf(target), bytes.NewReader(pngBytes(t, 2, 2)))
	assert.ErrorIs(t, err, ErrUnknownUpload)
}

func TestResolveStaysInsideRoot(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Resolve("/objects/../../etc/passwd")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	_, err = store.Resolve("/objects/uploads")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	_, err = store.Resolve("/objects/")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
