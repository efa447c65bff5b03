package utils

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const (
	StorageProviderGCS   = "gcs"
	StorageProviderLocal = "local"
)

// ErrObjectNotFound reports a missing storage object regardless of provider.
var ErrObjectNotFound = errors.New("object not found")

func GetStorageProvider() string {
	provider := strings.TrimSpace(strings.ToLower(os.Getenv("STORAGE_PROVIDER")))
	if provider == "" {
		return StorageProviderGCS
	}
	return provider
}

// SaveImage stores base64-encoded jpeg data under objectName.
func SaveImage(ctx context.Context, objectName, imageData string) error {
	decodedData, err := base64.StdEncoding.DecodeString(imageData)
	if err != nil {
		return err
	}
	return UploadBytes(ctx, objectName, decodedData, "image/jpeg")
}

// UploadFile stores an uploaded file under objectName after a MIME check.
func UploadFile(ctx context.Context, objectName string, fileContent io.Reader) error {
	fileData, err := io.ReadAll(fileContent)
	if err != nil {
		return fmt.Errorf("failed to read file content: %v", err)
	}

	mimeType := http.DetectContentType(fileData)

	// Manually set MIME type for .docx and .xlsx files
	if mimeType == "application/zip" {
		if strings.HasSuffix(objectName, ".docx") {
			mimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
		} else if strings.HasSuffix(objectName, ".xlsx") {
			mimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		}
	}

	// Define the allowed MIME types for each file type
	allowedMimeTypes := map[string]bool{
		"application/pdf":          true,
		"application/msword":       true,
		"application/vnd.ms-excel": true,
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
		"image/jpeg": true,
		"image/png":  true,
	}

	// Check if the MIME type is allowed
	if !allowedMimeTypes[mimeType] {
		return fmt.Errorf("unsupported file type: %s", mimeType)
	}

	return UploadBytes(ctx, objectName, fileData, mimeType)
}

func UploadBytes(ctx context.Context, objectName string, data []byte, contentType string) error {
	switch GetStorageProvider() {
	case StorageProviderLocal:
		return writeObjectToDisk(objectName, data)
	default:
		return writeObjectToGCS(ctx, objectName, data, contentType)
	}
}

func DeleteObject(ctx context.Context, objectName string) error {
	switch GetStorageProvider() {
	case StorageProviderLocal:
		return deleteObjectFromDisk(objectName)
	default:
		return deleteObjectFromGCS(ctx, objectName)
	}
}

func ObjectExists(ctx context.Context, objectName string) (bool, error) {
	switch GetStorageProvider() {
	case StorageProviderLocal:
		return objectExistsOnDisk(objectName)
	default:
		return objectExistsInGCS(ctx, objectName)
	}
}

// ReadObject returns an object's content and content type.
func ReadObject(ctx context.Context, objectName string) ([]byte, string, error) {
	switch GetStorageProvider() {
	case StorageProviderLocal:
		return readObjectFromDisk(objectName)
	default:
		return readObjectFromGCS(ctx, objectName)
	}
}

/* local disk provider */

func getUploadDir() string {
	dir := strings.TrimSpace(os.Getenv("UPLOAD_DIR"))
	if dir == "" {
		return "uploads"
	}
	return dir
}

func localObjectPath(objectName string) (string, error) {
	// Basic hardening: reject path traversal.
	if strings.Contains(objectName, "..") {
		return "", errors.New("invalid object name")
	}
	return filepath.Join(getUploadDir(), filepath.FromSlash(objectName)), nil
}

func writeObjectToDisk(objectName string, data []byte) error {
	path, err := localObjectPath(objectName)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func deleteObjectFromDisk(objectName string) error {
	path, err := localObjectPath(objectName)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func objectExistsOnDisk(objectName string) (bool, error) {
	path, err := localObjectPath(objectName)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func readObjectFromDisk(objectName string) ([]byte, string, error) {
	path, err := localObjectPath(objectName)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrObjectNotFound
		}
		return nil, "", err
	}
	return data, http.DetectContentType(data), nil
}
