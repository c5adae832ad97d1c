package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
)

var (
	KMSKeyID  string
	KMSClient *kms.Client
)

// InitKMS prepares the KMS client used to encrypt survey answers at rest.
func InitKMS() error {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		slog.Error("Failed to load AWS SDK config", "error", err)
		return fmt.Errorf("unable to load AWS SDK config: %v", err)
	}

	KMSClient = kms.NewFromConfig(cfg)

	KMSKeyID = os.Getenv("AWS_KMS_KEY_ID")
	if KMSKeyID == "" {
		slog.Error("Missing required environment variable", "variable", "AWS_KMS_KEY_ID")
		return fmt.Errorf("AWS_KMS_KEY_ID environment variable is required")
	}

	slog.Info("Successfully initialized AWS KMS client")
	return nil
}
