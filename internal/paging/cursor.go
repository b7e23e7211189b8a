package paging

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// EncodeCursor turns a raw key into an opaque wire token.
func EncodeCursor(key string) string {
	if key == "" {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(key))
}

// DecodeCursor turns a wire token back into a raw key. Padded and unpadded
// base64url are both accepted; "" decodes to "".
func DecodeCursor(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(token, "="))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	return string(raw), nil
}
