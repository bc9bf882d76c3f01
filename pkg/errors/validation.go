package errors

import (
	"strings"
	"unicode"
)

// maxIDLength bounds node and session identifiers.
const maxIDLength = 256

// ValidateNodeID validates an identifier used for hierarchy nodes.
// Node IDs double as graph keys and URL path segments, so they must be
// non-empty, printable and free of path separators.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidHierarchy, "node id cannot be empty")
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidHierarchy, "node id too long (max %d characters)", maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidHierarchy, "node id %q contains whitespace or control characters", id)
		}
	}
	if strings.ContainsAny(id, "/\\") {
		return New(ErrCodeInvalidHierarchy, "node id %q cannot contain path separators", id)
	}
	return nil
}

// ValidateSessionID validates a session identifier received from a client.
// It rejects names that could be used for path traversal in file stores.
func ValidateSessionID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "session id cannot be empty")
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, "session id too long (max %d characters)", maxIDLength)
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}
	for _, pattern := range dangerousPatterns {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidInput, "session id contains invalid characters: %q", pattern)
		}
	}
	return nil
}

// ValidatePath validates a file path for output files.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}
