// Package filter implements a pure, AND-combined predicate over a
// Message, plus the total media-kind classifier every projected Message is
// run through.
package filter

import (
	"strings"

	"github.com/tolmachov/mcp-telegram/internal/model"
)

// mediaPrecedence is the fixed, ordered list used to resolve a message
// with multiple media facets to a single MediaKind.
var mediaPrecedence = []model.MediaKind{
	model.MediaPhoto,
	model.MediaVideo,
	model.MediaDocument,
	model.MediaAudio,
	model.MediaVoice,
	model.MediaSticker,
	model.MediaPoll,
	model.MediaLink,
	model.MediaText,
}

// Classify picks the first present facet from mediaPrecedence. present
// reports, for each MediaKind, whether the underlying message carries
// that facet; callers populate it from their raw provider type. Classify
// is total: absent every facet, it returns MediaText.
func Classify(present map[model.MediaKind]bool) model.MediaKind {
	for _, kind := range mediaPrecedence {
		if present[kind] {
			return kind
		}
	}
	return model.MediaText
}

// Matches reports whether msg satisfies every constraint set on f. A nil
// filter always matches. search, if non-empty, is applied as a
// case-insensitive substring match on msg.Text (the post-hoc half of
// search option).
func Matches(msg model.Message, f *model.FilterRecord, search string) bool {
	if f != nil {
		if len(f.MediaTypes) > 0 && !containsKind(f.MediaTypes, msg.MediaType) {
			return false
		}
		if f.HasMedia != nil && msg.HasMedia != *f.HasMedia {
			return false
		}
		if len(f.FromUsers) > 0 && !containsID(f.FromUsers, msg.Sender.ID) {
			return false
		}
		if f.MinViews != nil && views(msg) < *f.MinViews {
			return false
		}
		if f.MaxViews != nil && views(msg) > *f.MaxViews {
			return false
		}
	}

	if search != "" && !strings.Contains(strings.ToLower(msg.Text), strings.ToLower(search)) {
		return false
	}

	return true
}

func views(msg model.Message) int {
	if msg.Views == nil {
		return 0
	}
	return *msg.Views
}

func containsKind(set []model.MediaKind, k model.MediaKind) bool {
	for _, s := range set {
		if s == k {
			return true
		}
	}
	return false
}

func containsID(set []int64, id int64) bool {
	for _, s := range set {
		if s == id {
			return true
		}
	}
	return false
}
