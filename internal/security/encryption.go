package security

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"

	"campusportal/internal/config"
)

// EncryptAnswers encrypts a survey answer map with KMS before it is written
// to the results store. Free-text answers can carry personal detail, so they
// never land in Firestore in the clear.
func EncryptAnswers(answers map[string]string) (string, error) {
	if config.KMSClient == nil {
		slog.Error("KMS client not initialized")
		return "", fmt.Errorf("KMS client not initialized")
	}

	plaintext, err := json.Marshal(answers)
	if err != nil {
		return "", fmt.Errorf("failed to marshal answers: %v", err)
	}

	input := &kms.EncryptInput{
		KeyId:     aws.String(config.KMSKeyID),
		Plaintext: plaintext,
	}

	result, err := config.KMSClient.Encrypt(context.TODO(), input)
	if err != nil {
		slog.Error("Failed to encrypt survey answers", "error", err)
		return "", fmt.Errorf("failed to encrypt survey answers: %v", err)
	}

	return base64.StdEncoding.EncodeToString(result.CiphertextBlob), nil
}

// DecryptAnswers reverses EncryptAnswers.
func DecryptAnswers(encrypted string) (map[string]string, error) {
	if config.KMSClient == nil {
		slog.Error("KMS client not initialized")
		return nil, fmt.Errorf("KMS client not initialized")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		slog.Error("Failed to decode encrypted answers", "error", err)
		return nil, fmt.Errorf("failed to decode encrypted answers: %v", err)
	}

	input := &kms.DecryptInput{
		CiphertextBlob: ciphertext,
	}

	result, err := config.KMSClient.Decrypt(context.TODO(), input)
	if err != nil {
		slog.Error("Failed to decrypt survey answers", "error", err)
		return nil, fmt.Errorf("failed to decrypt survey answers: %v", err)
	}

	var answers map[string]string
	if err := json.Unmarshal(result.Plaintext, &answers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal answers: %v", err)
	}

	return answers, nil
}
