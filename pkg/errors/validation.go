package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// nameRegex matches identifiers accepted for socket kinds, node kinds,
// port names and control names.
var nameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// ValidateName validates an identifier used in a node definition.
// The what argument names the identifier in the error ("socket", "port", ...).
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - Maximum length of 128 characters
//   - Must start with a letter or underscore
//   - Only letters, digits, '_', '.' and '-' afterwards
func ValidateName(what, name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "%s name cannot be empty", what)
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "%s name too long (max 128 characters)", what)
	}
	if !nameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid %s name: %q", what, name)
	}
	return nil
}

// ValidateDocumentKey validates a key used to address a stored document.
// It rejects keys that could be used for path traversal in file-backed
// stores or key injection in Redis.
func ValidateDocumentKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidInput, "document key cannot be empty")
	}

	if len(key) > 256 {
		return New(ErrCodeInvalidInput, "document key too long (max 256 characters)")
	}

	for _, r := range key {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "document key contains invalid characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\\",   // Backslash (Windows path)
		"\x00", // Null byte
	}
	for _, pattern := range dangerousPatterns {
		if strings.Contains(key, pattern) {
			return New(ErrCodeInvalidInput, "document key contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateFilePath validates a user-supplied document path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidateFilePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
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
