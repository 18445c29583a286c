package cache

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
)

// Key serializes parts and returns their FNV-1a 64-bit hash as a hex string.
func Key(parts ...any) (string, error) {
	data, err := json.Marshal(parts)
	if err != nil {
		return "", fmt.Errorf("failed to serialize: %w", err)
	}

	h := fnv.New64a()
	if _, err := h.Write(data); err != nil {
		return "", fmt.Errorf("failed to hash data: %w", err)
	}

	return fmt.Sprintf("%016x", h.Sum64()), nil
}
