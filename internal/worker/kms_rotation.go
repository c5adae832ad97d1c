package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"campusportal/internal/config"
	"campusportal/internal/db"
	"campusportal/internal/queue"
	"campusportal/internal/store"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/hibiken/asynq"
)

// HandleKMSRotation creates a fresh key for survey answers, rewrites every
// stored ciphertext under it, and schedules the next rotation.
func (w *Worker) HandleKMSRotation(ctx context.Context, t *asynq.Task) error {
	var payload queue.KMSRotationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v", err)
	}

	input := &kms.CreateKeyInput{
		Description: aws.String("Auto-rotated survey answer key"),
		Tags: []types.Tag{
			{
				TagKey:   aws.String("AutoRotated"),
				TagValue: aws.String("true"),
			},
		},
	}

	result, err := config.KMSClient.CreateKey(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create new KMS key: %v", err)
	}

	newKeyID := *result.KeyMetadata.KeyId

	if err := os.Setenv("AWS_KMS_KEY_ID", newKeyID); err != nil {
		return fmt.Errorf("failed to update KMS key ID: %v", err)
	}
	config.KMSKeyID = newKeyID

	reencrypted, err := store.GetResultsService().ReencryptSubmissions(ctx)
	if err != nil {
		return fmt.Errorf("failed to re-encrypt stored answers: %v", err)
	}

	if err := db.MarkKMSRotated(payload.KeyID); err != nil {
		return err
	}
	if err := db.InitKMSRotation(newKeyID); err != nil {
		return err
	}

	if err := queue.ScheduleKMSRotation(newKeyID); err != nil {
		return fmt.Errorf("failed to schedule next rotation: %v", err)
	}

	slog.Info("Successfully rotated KMS key",
		"old_key_id", payload.KeyID,
		"new_key_id", newKeyID,
		"reencrypted_submissions", reencrypted)

	return nil
}
