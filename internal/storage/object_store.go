package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// MaxUploadSize is the largest accepted image in bytes
	MaxUploadSize = 10 << 20

	// ThumbnailWidth is the width of generated thumbnails
	ThumbnailWidth = 400

	uploadsDir    = "uploads"
	objectsPrefix = "/objects/"
	thumbSuffix   = "-thumb.jpg"
	thumbQuality  = 75
)

var (
	ErrUnknownUpload  = errors.New("upload URL is unknown or expired")
	ErrTooLarge       = errors.New("upload exceeds the 10MB limit")
	ErrNotImage       = errors.New("upload is not a JPEG, PNG or GIF image")
	ErrObjectNotFound = errors.New("object not found")
)

var allowedFormats = map[string]bool{"jpeg": true, "png": true, "gif": true}

// UploadTarget is returned to the client for the second step of an upload
type UploadTarget struct {
	UploadURL  string `json:"uploadURL"`
	ObjectPath string `json:"objectPath"`
}

// ObjectStore keeps uploaded images on local disk under root and hands out
// single-use upload URLs
type ObjectStore struct {
	root          string
	publicBaseURL string
	ttl           time.Duration
	logger        *logrus.Entry

	mu      sync.Mutex
	pending map[string]time.Time
	now     func() time.Time
}

// NewObjectStore creates the upload directory if needed
func NewObjectStore(root, publicBaseURL string, ttl time.Duration, logger *logrus.Logger) (*ObjectStore, error) {
	if err := os.MkdirAll(filepath.Join(root, uploadsDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &ObjectStore{
		root:          root,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		ttl:           ttl,
		logger:        logger.WithField("component", "storage"),
		pending:       make(map[string]time.Time),
		now:           time.Now,
	}, nil
}

// IssueUploadURL reserves a new object path and returns where to PUT it
func (s *ObjectStore) IssueUploadURL() UploadTarget {
	token := uuid.NewString()
	objectPath := objectsPrefix + uploadsDir + "/" + token

	s.mu.Lock()
	now := s.now()
	for t, expires := range s.pending {
		if now.After(expires) {
			delete(s.pending, t)
		}
	}
	s.pending[token] = now.Add(s.ttl)
	s.mu.Unlock()

	return UploadTarget{
		UploadURL:  s.publicBaseURL + objectPath,
		ObjectPath: objectPath,
	}
}

// Store saves the uploaded bytes for token together with a thumbnail and
// returns the object path. A token can be used once.
func (s *ObjectStore) Store(token string, body io.Reader) (string, error) {
	if !s.claim(token) {
		return "", ErrUnknownUpload
	}

	data, err := io.ReadAll(io.LimitReader(body, MaxUploadSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > MaxUploadSize {
		return "", ErrTooLarge
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || !allowedFormats[format] {
		return "", ErrNotImage
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", ErrNotImage
	}

	target := filepath.Join(s.root, uploadsDir, token)
	if err := os.WriteFile(target, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write object: %w", err)
	}

	thumb := img
	if img.Bounds().Dx() > ThumbnailWidth {
		thumb = imaging.Resize(img, ThumbnailWidth, 0, imaging.Lanczos)
	}
	if err := imaging.Save(thumb, target+thumbSuffix, imaging.JPEGQuality(thumbQuality)); err != nil {
		s.logger.WithError(err).WithField("token", token).Warn("Failed to write thumbnail")
	}

	s.logger.WithFields(logrus.Fields{
		"token":  token,
		"format": format,
		"bytes":  len(data),
	}).Info("Stored upload")
	return objectsPrefix + uploadsDir + "/" + token, nil
}

// Resolve maps an object path below /objects/ to a file on disk
func (s *ObjectStore) Resolve(objectPath string) (string, error) {
	rel := strings.TrimPrefix(path.Clean("/"+strings.TrimPrefix(objectPath, objectsPrefix)), "/")
	if rel == "" || rel == "." {
		return "", ErrObjectNotFound
	}
	full := filepath.Join(s.root, filepath.FromSlash(rel))
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "", ErrObjectNotFound
	}
	return full, nil
}

// ThumbnailPath returns the object path of the thumbnail for an upload
func ThumbnailPath(objectPath string) string {
	return objectPath + thumbSuffix
}

// claim consumes a pending token if it exists and has not expired
func (s *ObjectStore) claim(token string) bool {
	if _, err := uuid.Parse(token); err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	expires, ok := s.pending[token]
	if !ok {
		return false
	}
	delete(s.pending, token)
	return !s.now().After(expires)
}
