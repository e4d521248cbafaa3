package handlers

import (
	"net/http"

	"catalog-service/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type UploadHandler struct {
	store  *storage.ObjectStore
	logger *logrus.Entry
}

func NewUploadHandler(store *storage.ObjectStore, logger *logrus.Logger) *UploadHandler {
	return &UploadHandler{
		store:  store,
		logger: logger.WithField("component", "handlers.upload"),
	}
}

// RequestUploadURL issues a single-use URL for the next image upload
// @Summary Request an image upload URL
// @Tags uploads
// @Produce json
// @Success 200 {object} storage.UploadTarget
// @Security BearerAuth
// @Router /api/admin/delivery/products/upload-url [post]
func (h *UploadHandler) RequestUploadURL(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.IssueUploadURL())
}

// PutObject stores the raw request body under the upload token
func (h *UploadHandler) PutObject(c *gin.Context) {
	objectPath, err := h.store.Store(c.Param("token"), c.Request.Body)
	if err != nil {
		h.logger.WithError(err).WithField("token", c.Param("token")).Warn("Upload rejected")
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"objectPath":    objectPath,
		"thumbnailPath": storage.ThumbnailPath(objectPath),
	})
}

// GetObject serves a stored object
func (h *UploadHandler) GetObject(c *gin.Context) {
	file, err := h.store.Resolve(c.Param("path"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.File(file)
}
