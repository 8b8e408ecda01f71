package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"messenger-service/internal/models"
)

// mediaTypes maps accepted upload extensions to the message type a
// client should use when sending the resulting URI.
var mediaTypes = map[string]string{
	".jpg":  models.TypeImage,
	".jpeg": models.TypeImage,
	".png":  models.TypeImage,
	".gif":  models.TypeImage,
	".webp": models.TypeImage,
	".mp3":  models.TypeVoice,
	".ogg":  models.TypeVoice,
	".wav":  models.TypeVoice,
	".m4a":  models.TypeVoice,
	".webm": models.TypeVoice,
	".pdf":  models.TypeFile,
	".txt":  models.TypeFile,
	".zip":  models.TypeFile,
}

// UploadHandler stores media referenced by image/voice/file messages.
type UploadHandler struct {
	dir     string
	maxSize int64
}

// NewUploadHandler builds an UploadHandler.
func NewUploadHandler(dir string, maxSize int64) *UploadHandler {
	return &UploadHandler{dir: dir, maxSize: maxSize}
}

// Upload saves one multipart file and returns the reference URI to use
// as a message body.
func (h *UploadHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if file.Size > h.maxSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	messageType, ok := mediaTypes[ext]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file type"})
		return
	}

	name := uuid.NewString() + ext
	if err := c.SaveUploadedFile(file, filepath.Join(h.dir, name)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store file"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"url":          "/uploads/" + name,
		"message_type": messageType,
	})
}
