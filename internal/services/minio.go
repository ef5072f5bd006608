package services

import (
	"context"
	"net/url"
	"os"
	"strings"
	"time"

	"velora_back_end/internal/database"
)

// GenerateSignedURL retourne une URL MinIO présignée pour un objet du
// bucket images. Accepte soit un chemin d'objet nu ("products/x.jpg"),
// soit une URL complète héritée d'anciens enregistrements.
func GenerateSignedURL(ctx context.Context, objectPath string, duration time.Duration) (string, error) {
	bucket := os.Getenv("MINIO_BUCKET")

	key := objectPath
	if idx := strings.Index(key, "/"+bucket+"/"); idx != -1 {
		key = key[idx+len(bucket)+2:]
	}
	key = strings.TrimPrefix(key, "/uploads/")

	presignedURL, err := database.MinIO.PresignedGetObject(
		ctx,
		bucket,
		key,
		duration,
		make(url.Values),
	)
	if err != nil {
		return "", err
	}

	return presignedURL.String(), nil
}
