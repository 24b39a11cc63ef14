package blobstore

import (
	"fmt"
	"mime"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ShubhamGupta2412/vaultboard/internal/common"
)

// MaxBlobSize is the upload ceiling (10 MiB).
const MaxBlobSize = 10 << 20

// AllowedTypes lists the accepted attachment media types.
var AllowedTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"text/plain",
	"text/markdown",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"text/csv",
	"application/zip",
	"application/x-zip-compressed",
}

// extensionTypes backs up mime.TypeByExtension, whose table depends on
// the host.
var extensionTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".csv":  "text/csv",
	".zip":  "application/zip",
}

// MediaType resolves the effective media type of an upload. Parameters
// such as charset are dropped. An empty contentType is inferred from the
// file extension.
func MediaType(name, contentType string) (string, error) {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		ext := strings.ToLower(filepath.Ext(name))
		if t, ok := extensionTypes[ext]; ok {
			return t, nil
		}
		contentType = mime.TypeByExtension(ext)
		if contentType == "" {
			return "", fmt.Errorf("%w: unknown type for %q", common.ErrorBlobType, name)
		}
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorBlobType, err)
	}
	return strings.ToLower(mt), nil
}

// Validate applies the upload boundary checks and returns the media type
// that should be stored with the object.
func Validate(name, contentType string, size int) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("%w: file name is required", common.ErrorValidation)
	}
	if size == 0 {
		return "", fmt.Errorf("%w: file is empty", common.ErrorValidation)
	}
	if size > MaxBlobSize {
		return "", fmt.Errorf("%w: %d bytes (max %d)", common.ErrorBlobTooLarge, size, MaxBlobSize)
	}
	mt, err := MediaType(name, contentType)
	if err != nil {
		return "", err
	}
	if !slices.Contains(AllowedTypes, mt) {
		return "", fmt.Errorf("%w: %s", common.ErrorBlobType, mt)
	}
	return mt, nil
}
