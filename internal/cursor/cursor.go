// Package cursor implements the opaque pagination token: a flat JSON
// record, base64url-encoded without padding, carrying a window fingerprint
// so the decoder can detect a cursor submitted against a different query.
package cursor

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tolmachov/mcp-telegram/internal/model"
)

// ErrInvalidCursor is returned for any malformed or mismatched cursor.
var ErrInvalidCursor = fmt.Errorf("invalid cursor")

// State is the pagination state carried inside a cursor.
type State struct {
	OffsetID      int             `json:"offset_id"`
	OffsetDate    int64           `json:"offset_date,omitempty"`
	Direction     model.Direction `json:"direction"`
	FetchedCount  int             `json:"fetched_count"`
	WindowHash    string          `json:"window_hash"`
}

// Encode serializes state as compact JSON then URL-safe, unpadded base64.
func Encode(state State) (string, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("marshaling cursor state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode parses an opaque token back into State and verifies its window
// hash matches wantWindowHash. Any base64/JSON/field/hash failure returns
// ErrInvalidCursor wrapping the underlying cause.
func Decode(token string, wantWindowHash string) (State, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return State{}, fmt.Errorf("%w: decoding base64: %v", ErrInvalidCursor, err)
	}

	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return State{}, fmt.Errorf("%w: parsing json: %v", ErrInvalidCursor, err)
	}

	if state.WindowHash == "" || state.Direction == "" {
		return State{}, fmt.Errorf("%w: missing required field", ErrInvalidCursor)
	}

	if state.WindowHash != wantWindowHash {
		return State{}, fmt.Errorf("%w: window_hash mismatch", ErrInvalidCursor)
	}

	return state, nil
}

// WindowHash computes a short digest of a window's parameters so a cursor
// issued for one window is rejected when replayed against another.
func WindowHash(chatCanonicalID int64, fromUTC, toUTC *time.Time, direction model.Direction, pageSize int, search string, filter *model.FilterRecord) string {
	var sb strings.Builder
	sb.WriteString(strconv.FormatInt(chatCanonicalID, 10))
	sb.WriteByte('|')
	if fromUTC != nil {
		sb.WriteString(strconv.FormatInt(fromUTC.Unix(), 10))
	}
	sb.WriteByte('|')
	if toUTC != nil {
		sb.WriteString(strconv.FormatInt(toUTC.Unix(), 10))
	}
	sb.WriteByte('|')
	sb.WriteString(string(direction))
	sb.WriteByte('|')
	sb.WriteString(strconv.Itoa(pageSize))
	sb.WriteByte('|')
	sb.WriteString(search)
	sb.WriteByte('|')
	sb.WriteString(filterSignature(filter))

	sum := sha256.Sum256([]byte(sb.String()))
	return base64.RawURLEncoding.EncodeToString(sum[:12])
}

// filterSignature produces a stable, field-sorted textual encoding of a
// FilterRecord so two logically-equal filters hash identically regardless
// of slice ordering.
func filterSignature(f *model.FilterRecord) string {
	if f == nil {
		return ""
	}

	var parts []string

	if len(f.MediaTypes) > 0 {
		kinds := make([]string, len(f.MediaTypes))
		for i, k := range f.MediaTypes {
			kinds[i] = string(k)
		}
		sort.Strings(kinds)
		parts = append(parts, "media="+strings.Join(kinds, ","))
	}
	if f.HasMedia != nil {
		parts = append(parts, "has_media="+strconv.FormatBool(*f.HasMedia))
	}
	if len(f.FromUsers) > 0 {
		ids := make([]string, len(f.FromUsers))
		for i, id := range f.FromUsers {
			ids[i] = strconv.FormatInt(id, 10)
		}
		sort.Strings(ids)
		parts = append(parts, "from="+strings.Join(ids, ","))
	}
	if f.MinViews != nil {
		parts = append(parts, "min_views="+strconv.Itoa(*f.MinViews))
	}
	if f.MaxViews != nil {
		parts = append(parts, "max_views="+strconv.Itoa(*f.MaxViews))
	}

	return strings.Join(parts, ";")
}
