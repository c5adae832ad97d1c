package kms

import (
	"errors"
	"log/slog"
	"os"

	"campusportal/internal/db"
	"campusportal/internal/queue"
)

// InitRotation initializes the KMS key rotation
func InitRotation() error {
	keyID := os.Getenv("AWS_KMS_KEY_ID")
	if keyID == "" {
		slog.Error("AWS_KMS_KEY_ID environment variable not set")
		return errors.New("AWS_KMS_KEY_ID environment variable not set")
	}

	if err := db.InitKMSRotation(keyID); err != nil {
		slog.Error("failed to seed rotation record", "error", err)
		return errors.New("failed to seed rotation record")
	}

	// Schedule next rotation
	if err := queue.ScheduleKMSRotation(keyID); err != nil {
		slog.Error("failed to schedule KMS rotation", "error", err)
		return errors.New("failed to schedule KMS rotation")
	}

	slog.Info("KMS rotation initialized successfully")
	return nil
}
