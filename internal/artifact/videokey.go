package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeKeyChars = regexp.MustCompile(`[^0-9A-Za-z._-]+`)

// VideoKey returns the storage key for an uploaded video: the first 16 hex
// digits of the content hash followed by the sanitized file name. Uploading
// the same content twice yields the same key and thus the same artifacts.
func VideoKey(prefix, filename string, content io.Reader) (string, error) {
	hasher := sha256.New()
	if _, err := io.Copy(hasher, content); err != nil {
		return "", fmt.Errorf("compute file hash: %w", err)
	}
	fileHash := hex.EncodeToString(hasher.Sum(nil))[:16]

	name := unsafeKeyChars.ReplaceAllString(filepath.Base(filename), "_")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return fmt.Sprintf("%s%s-%s", prefix, fileHash, name), nil
}
