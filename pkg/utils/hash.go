package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
)

// HashContent identifies the content of a config or track file.
// The file watcher uses it to skip events that did not change the content.
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return HashContent(data), nil
}
