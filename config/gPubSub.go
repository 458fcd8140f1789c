package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// ReportEventCamp is the per-camp part of a ReportEvent.
type ReportEventCamp struct {
	Camp      string `json:"camp"`
	Matched   int    `json:"matched"`
	Unmatched int    `json:"unmatched"`
	Total     int    `json:"total"`
	Error     string `json:"error,omitempty"`
}

// ReportEvent is published once per generation run.
type ReportEvent struct {
	SessionId     string            `json:"session_id"`
	Username      string            `json:"username"`
	CampGroup     string            `json:"camp_group"`
	Camps         []ReportEventCamp `json:"camps"`
	GeneratedAt   time.Time         `json:"generated_at"`
	CorrelationId string            `json:"correlation_id"`
}

const pubsubConnectAttempts = 3

var (
	pubsubClient   *pubsub.Client
	pubsubClientMu sync.Mutex
)

func getPubSubProjectID() string {
	// Prefer explicit override.
	if v := os.Getenv("PUBSUB_PROJECT_ID"); v != "" {
		return v
	}
	// Cloud Run/Cloud Functions often set this.
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		return v
	}
	return os.Getenv("GCP_PROJECT")
}

func getPubSubClient(ctx context.Context) (*pubsub.Client, error) {
	pubsubClientMu.Lock()
	defer pubsubClientMu.Unlock()
	if pubsubClient != nil {
		return pubsubClient, nil
	}

	projectID := getPubSubProjectID()
	if projectID == "" {
		return nil, errors.New("PUBSUB_PROJECT_ID/GOOGLE_CLOUD_PROJECT not set")
	}
	credJSON := os.Getenv("PUBSUB_CREDENTIALS_JSON")

	var lastErr error
	for attempt := 1; attempt <= pubsubConnectAttempts; attempt++ {
		var (
			c   *pubsub.Client
			err error
		)
		if credJSON != "" {
			c, err = pubsub.NewClient(ctx, projectID, option.WithCredentialsJSON([]byte(credJSON)))
		} else {
			// Uses Application Default Credentials (Cloud Run service account or GOOGLE_APPLICATION_CREDENTIALS).
			c, err = pubsub.NewClient(ctx, projectID)
		}
		if err == nil {
			pubsubClient = c
			log.Printf("pubsub client ready (project_id=%s attempt=%d)", projectID, attempt)
			return c, nil
		}
		lastErr = err
		sleep := time.Second * time.Duration(1<<attempt)
		log.Printf("failed to init pubsub client (project_id=%s attempt=%d): %v; retrying in %s", projectID, attempt, err, sleep)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleep):
		}
	}
	return nil, fmt.Errorf("pubsub client: %w", lastErr)
}

// PublishReportEvent publishes to REPORT_EVENTS_TOPIC and returns the
// server-assigned message id. Without a topic it does nothing.
func PublishReportEvent(ctx context.Context, event ReportEvent) (string, error) {
	topicName := ReportEventsTopic()
	if topicName == "" {
		return "", nil
	}

	client, err := getPubSubClient(ctx)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return "", err
	}
	t := client.Topic(topicName)
	defer t.Stop()
	result := t.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"camp_group":     event.CampGroup,
			"correlation_id": event.CorrelationId,
		},
	})
	return result.Get(ctx)
}

// ClosePubSub releases the shared client, if any.
func ClosePubSub() {
	pubsubClientMu.Lock()
	defer pubsubClientMu.Unlock()
	if pubsubClient != nil {
		_ = pubsubClient.Close()
		pubsubClient = nil
	}
}
