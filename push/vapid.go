package push

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DecodeServerKey converts an application server key from its transport
// encoding (URL-safe base64, possibly unpadded) into the raw bytes expected
// by a push manager subscribe call.
func DecodeServerKey(key string) ([]byte, error) {
	padding := strings.Repeat("=", (4-len(key)%4)%4)
	raw, err := base64.URLEncoding.DecodeString(key + padding)
	if err != nil {
		return nil, fmt.Errorf("malformed server key: %w", err)
	}
	return raw, nil
}
