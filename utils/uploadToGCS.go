package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/mmdatafocus/itefm_backend/config"
	"google.golang.org/api/option"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// getGoogleClient initializes a Google Cloud Storage client
func getGoogleClient(ctx context.Context) (*storage.Client, error) {
	// Prefer ADC (Cloud Run service account / GOOGLE_APPLICATION_CREDENTIALS).
	// If you need to provide explicit JSON (e.g. locally), set GCS_CREDENTIALS_JSON.
	if credJSON := os.Getenv("GCS_CREDENTIALS_JSON"); strings.TrimSpace(credJSON) != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	}
	return storage.NewClient(ctx)
}

// ArchiveObjectKey places a camp report under <yyyy>/<mm>/<session>/.
func ArchiveObjectKey(at time.Time, sessionId string, fileName string) string {
	at = at.UTC()
	return path.Join(fmt.Sprintf("%04d", at.Year()), fmt.Sprintf("%02d", int(at.Month())), SanitizeSegment(sessionId), SanitizeSegment(fileName))
}

// ArchiveReport copies a generated workbook to REPORT_ARCHIVE_BUCKET.
// It is a no-op when the bucket is not configured.
func ArchiveReport(ctx context.Context, objectName string, data []byte) error {
	bucketName := config.ReportArchiveBucket()
	if bucketName == "" {
		return nil
	}
	if objectName == "" {
		return errors.New("object name is required")
	}

	client, err := getGoogleClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	wc := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	wc.ContentType = xlsxContentType

	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return fmt.Errorf("failed to upload report to Google Cloud Storage: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}
	return nil
}
