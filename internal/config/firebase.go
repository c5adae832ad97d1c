package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// ServiceAccountCredentials mirrors the Firebase service-account JSON; the
// portal assembles it from individual environment variables so no key file
// ever lands on disk.
type ServiceAccountCredentials struct {
	Type                    string `json:"type"`
	ProjectID               string `json:"project_id"`
	PrivateKeyID            string `json:"private_key_id"`
	PrivateKey              string `json:"private_key"`
	ClientEmail             string `json:"client_email"`
	ClientID                string `json:"client_id"`
	AuthURI                 string `json:"auth_uri"`
	TokenURI                string `json:"token_uri"`
	AuthProviderX509CertURL string `json:"auth_provider_x509_cert_url"`
	ClientX509CertURL       string `json:"client_x509_cert_url"`
	UniverseDomain          string `json:"universe_domain"`
}

type FirebaseConfig struct {
	ProjectID   string
	DatabaseURL string
	Credentials ServiceAccountCredentials
}

// FirebaseClient is the portal's handle on the document database that holds
// notification definitions, course contexts and interaction results.
type FirebaseClient struct {
	App       *firebase.App
	Firestore *firestore.Client
}

var FirebaseConnection *FirebaseClient

func NewFirebaseClient(cfg *FirebaseConfig) (*FirebaseClient, error) {
	ctx := context.Background()

	credentialsJSON, err := json.Marshal(cfg.Credentials)
	if err != nil {
		slog.Error("Failed to marshal Firebase credentials", slog.Any("error", err))
		return nil, err
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{
		ProjectID:   cfg.ProjectID,
		DatabaseURL: cfg.DatabaseURL,
	}, option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		slog.Error("Failed to create Firebase app", slog.Any("error", err))
		return nil, err
	}

	firestoreClient, err := app.Firestore(ctx)
	if err != nil {
		slog.Error("Failed to create Firestore client", slog.Any("error", err))
		return nil, err
	}

	return &FirebaseClient{
		App:       app,
		Firestore: firestoreClient,
	}, nil
}

func requireEnv(name string) (string, error) {
	value := os.Getenv(name)
	if value == "" {
		return "", fmt.Errorf("missing required environment variable %s", name)
	}
	return value, nil
}

func LoadFirebaseConfig() (*FirebaseConfig, error) {
	fields := map[string]*string{}
	cfg := FirebaseConfig{}

	fields["FIREBASE_PROJECT_ID"] = &cfg.ProjectID
	fields["FIREBASE_DATABASE_URL"] = &cfg.DatabaseURL
	fields["FIREBASE_TYPE"] = &cfg.Credentials.Type
	fields["FIREBASE_PRIVATE_KEY_ID"] = &cfg.Credentials.PrivateKeyID
	fields["FIREBASE_PRIVATE_KEY"] = &cfg.Credentials.PrivateKey
	fields["FIREBASE_CLIENT_EMAIL"] = &cfg.Credentials.ClientEmail
	fields["FIREBASE_CLIENT_ID"] = &cfg.Credentials.ClientID
	fields["FIREBASE_AUTH_URI"] = &cfg.Credentials.AuthURI
	fields["FIREBASE_TOKEN_URI"] = &cfg.Credentials.TokenURI
	fields["FIREBASE_AUTH_PROVIDER_X509_CERT_URL"] = &cfg.Credentials.AuthProviderX509CertURL
	fields["FIREBASE_CLIENT_X509_CERT_URL"] = &cfg.Credentials.ClientX509CertURL
	fields["FIREBASE_UNIVERSE_DOMAIN"] = &cfg.Credentials.UniverseDomain

	for name, dst := range fields {
		value, err := requireEnv(name)
		if err != nil {
			slog.Error("Environment variable validation failed", slog.Any("error", err))
			return nil, err
		}
		*dst = value
	}

	cfg.Credentials.ProjectID = cfg.ProjectID
	return &cfg, nil
}

func InitFireStore() error {
	slog.Info("Initializing Firebase connection from environment variables")

	firebaseConfig, err := LoadFirebaseConfig()
	if err != nil {
		slog.Error("Failed to load Firebase config from environment variables", slog.Any("error", err))
		return err
	}

	FirebaseConnection, err = NewFirebaseClient(firebaseConfig)
	if err != nil {
		slog.Error("Failed to initialize Firebase client", slog.Any("error", err))
		return err
	}

	slog.Info("Firebase connection initialized successfully")
	return nil
}

func CloseFirebaseConnection() error {
	if FirebaseConnection != nil && FirebaseConnection.Firestore != nil {
		if err := FirebaseConnection.Firestore.Close(); err != nil {
			slog.Error("Failed to close Firebase connection", slog.Any("error", err))
			return err
		}
		slog.Info("Firebase connection closed successfully")
		FirebaseConnection = nil
	}
	return nil
}

func GetFirebaseClient() *FirebaseClient {
	if FirebaseConnection == nil {
		slog.Error("Firebase client not initialized. Call InitFireStore() first.")
		return nil
	}
	return FirebaseConnection
}
