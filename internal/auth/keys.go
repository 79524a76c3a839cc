package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const keyFileName = "auth.key"

// LoadOrGenerateKey reads the hex-encoded token key from <dir>/auth.key, creating
// it with a fresh random key on first start.
func LoadOrGenerateKey(dir string) ([]byte, error) {
	path := filepath.Join(dir, keyFileName)

	raw, err := os.ReadFile(path) //#nosec G304 -- path is inside the configured data directory
	switch {
	case err == nil:
		key, err := hex.DecodeString(strings.TrimSpace(string(raw)))
		if err != nil {
			return nil, fmt.Errorf("invalid auth key in %s: %w", path, err)
		}
		if len(key) != keySize {
			return nil, fmt.Errorf("invalid auth key in %s: want %d bytes, got %d", path, keySize, len(key))
		}
		return key, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("read auth key: %w", err)
	}

	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate auth key: %w", err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(key)), 0o600); err != nil {
		return nil, fmt.Errorf("save auth key: %w", err)
	}
	return key, nil
}
