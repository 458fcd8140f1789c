package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/itefm_backend/config"
	"github.com/mmdatafocus/itefm_backend/models"
	"github.com/mmdatafocus/itefm_backend/models/reports"
	"github.com/mmdatafocus/itefm_backend/utils"
	"github.com/sirupsen/logrus"
)

// Browsers report xlsx uploads with any of these.
var xlsxMimeTypes = map[string]bool{
	reports.ContentTypeXlsx:    true,
	"application/zip":          true,
	"application/octet-stream": true,
}

// uploadError is a problem with the uploaded file itself (HTTP 400).
type uploadError struct {
	msg string
}

func (e *uploadError) Error() string { return e.msg }

func invalidUpload(format string, args ...any) error {
	return &uploadError{msg: fmt.Sprintf(format, args...)}
}

// readUpload validates an uploaded workbook and returns its content.
func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	if fh == nil {
		return nil, invalidUpload("file is required")
	}
	if ext := strings.ToLower(filepath.Ext(fh.Filename)); ext != ".xlsx" {
		return nil, invalidUpload("invalid file type: only .xlsx files are allowed")
	}
	limit := config.MaxUploadSizeBytes()
	if fh.Size > limit {
		return nil, invalidUpload("file size exceeds %dMB limit", limit/(1024*1024))
	}
	if mimeType := fh.Header.Get("Content-Type"); mimeType != "" && !xlsxMimeTypes[mimeType] {
		return nil, invalidUpload("unsupported file type %q", mimeType)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, invalidUpload("file size exceeds %dMB limit", limit/(1024*1024))
	}
	// xlsx is a zip container.
	if http.DetectContentType(data) != "application/zip" {
		return nil, invalidUpload("%s is not an xlsx workbook", fh.Filename)
	}
	return data, nil
}

// storeUpload validates fh and attaches it to the session as the given kind.
func storeUpload(ctx context.Context, session *models.ReportSession, kind models.UploadKind, fh *multipart.FileHeader) error {
	if !kind.IsValid() {
		return invalidUpload("unknown upload kind %q", kind)
	}
	data, err := readUpload(fh)
	if err != nil {
		return err
	}
	if err := session.SaveUpload(ctx, kind, filepath.Base(fh.Filename), data); err != nil {
		return err
	}

	stored := session.Upload(kind)
	config.GetLogger().WithFields(logrus.Fields{
		"session_id": session.ID,
		"kind":       kind,
		"file_name":  stored.FileName,
		"size":       stored.Size,
	}).Info("[upload.store]")
	return nil
}

func uploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		requestID := requestIDFromHeaders(c)

		session, err := currentSession(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}

		kind := models.UploadKind(c.Param("kind"))
		if err := storeUpload(c.Request.Context(), session, kind, fh); err != nil {
			var invalid *uploadError
			if errors.As(err, &invalid) {
				c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Error()})
				return
			}
			logUploadError(logger, err, string(kind), requestID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": session})
	}
}

func logUploadError(logger *logrus.Logger, err error, kind string, requestID string) {
	logger.WithFields(logrus.Fields{
		"kind":       kind,
		"request_id": requestID,
	}).Error("[upload.error] " + err.Error())
}

func requestIDFromHeaders(c *gin.Context) string {
	if id := c.GetHeader("X-Request-Id"); id != "" {
		return id
	}
	if id, ok := utils.GetCorrelationIdFromContext(c.Request.Context()); ok {
		return id
	}
	return ""
}
