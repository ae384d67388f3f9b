// Package cursor provides opaque pagination token encoding/decoding.
package cursor

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Cursor represents the internal state of a pagination cursor.
//
// Pages are keyed by a (sort key, id) pair: Key is the sort column value of
// the last row on the previous page and ID is its tie-breaking identifier.
type Cursor struct {
	// Key is the sort key (unix milliseconds) of the last returned row.
	Key int64 `json:"key"`
	// ID is the tie-break identifier of the last returned row.
	ID string `json:"id"`
	// FilterHash ensures tokens are invalidated if the filter changes.
	FilterHash string `json:"filter_hash,omitempty"`
	// OrderHash ensures tokens are invalidated if the sort order changes.
	OrderHash string `json:"order_hash,omitempty"`
}

// New creates a cursor positioned after the given row for the given
// filter/order combination.
func New(key int64, id string, filter, orderBy string) Cursor {
	return Cursor{
		Key:        key,
		ID:         id,
		FilterHash: HashFilter(filter),
		OrderHash:  HashFilter(orderBy),
	}
}

// Encode encodes a cursor to an opaque base64 string.
func Encode(c Cursor) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(data), nil
}

// Decode decodes an opaque base64 string to a cursor.
// Returns an error if the token is invalid or malformed.
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, fmt.Errorf("empty token")
	}

	data, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode base64: %w", err)
	}

	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return Cursor{}, fmt.Errorf("unmarshal cursor: %w", err)
	}
	if c.ID == "" {
		return Cursor{}, fmt.Errorf("cursor missing tie-break id")
	}
	return c, nil
}

// HashFilter computes a short hash of the filter string for cursor validation.
// Returns empty string for empty filter.
func HashFilter(filter string) string {
	if filter == "" {
		return ""
	}
	h := sha256.Sum256([]byte(filter))
	return hex.EncodeToString(h[:8]) // 64-bit hash is sufficient for validation
}

// ValidateFilterHash checks if the cursor's filter hash matches the current filter.
func ValidateFilterHash(c Cursor, currentFilter string) error {
	if c.FilterHash != HashFilter(currentFilter) {
		return fmt.Errorf("filter changed since cursor was created")
	}
	return nil
}

// ValidateOrderHash checks if the cursor's order hash matches the current sort order.
func ValidateOrderHash(c Cursor, currentOrderBy string) error {
	if c.OrderHash != HashFilter(currentOrderBy) {
		return fmt.Errorf("sort order changed since cursor was created")
	}
	return nil
}
