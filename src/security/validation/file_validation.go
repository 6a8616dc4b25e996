// backend/src/validation/file_validation.go
package validation

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/merkaz770/shluchim/backend/src/logger"
)

// allowedAttachmentExtensions lists the receipt/confirmation formats the
// representatives may upload.
var allowedAttachmentExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// allowedDetectedTypes are the content types http.DetectContentType may report
// for an accepted attachment.
var allowedDetectedTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

// ValidateAttachmentFilename checks the client-supplied filename extension.
func ValidateAttachmentFilename(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedAttachmentExtensions[ext] {
		logger.L.Warn("Disallowed attachment extension", "filename", filename)
		return fmt.Errorf("%w: file type '%s' is not allowed for attachments", ErrValidationFailed, ext)
	}
	return nil
}

// ValidateAttachmentContent checks the actual file content signature (magic
// bytes) against the allowed attachment types, then resets the read pointer so
// the caller can store the full file.
func ValidateAttachmentContent(file io.ReadSeeker) (string, error) {
	if file == nil {
		return "", fmt.Errorf("file is nil")
	}

	// First 512 bytes are enough for content sniffing
	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file for content type checking: %w", err)
	}
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", seekErr)
	}
	if n == 0 {
		return "", fmt.Errorf("file is empty")
	}

	detectedContentType := http.DetectContentType(buffer[:n])
	detectedContentType = strings.ToLower(strings.Split(detectedContentType, ";")[0])

	if !allowedDetectedTypes[detectedContentType] {
		logger.L.Warn("Disallowed detected attachment content type", "detectedContentType", detectedContentType)
		return detectedContentType, fmt.Errorf("%w: detected file content type '%s' is not allowed", ErrValidationFailed, detectedContentType)
	}

	logger.L.Debug("Attachment content type validated", "detectedContentType", detectedContentType)
	return detectedContentType, nil
}
