package filter

import (
	"testing"

	"github.com/tolmachov/mcp-telegram/internal/model"
)

func TestClassifyPrecedence(t *testing.T) {
	// Photo wins over document per the fixed precedence list.
	got := Classify(map[model.MediaKind]bool{
		model.MediaDocument: true,
		model.MediaPhoto:    true,
	})
	if got != model.MediaPhoto {
		t.Errorf("got %q, want %q", got, model.MediaPhoto)
	}
}

func TestClassifyDefaultsToText(t *testing.T) {
	if got := Classify(nil); got != model.MediaText {
		t.Errorf("got %q, want %q", got, model.MediaText)
	}
}

func TestMatchesNilFilter(t *testing.T) {
	msg := model.Message{Text: "hello"}
	if !Matches(msg, nil, "") {
		t.Error("expected nil filter to match everything")
	}
}

func TestMatchesMediaTypes(t *testing.T) {
	f := &model.FilterRecord{MediaTypes: []model.MediaKind{model.MediaPhoto}}

	photo := model.Message{MediaType: model.MediaPhoto}
	if !Matches(photo, f, "") {
		t.Error("expected photo message to match media_types filter")
	}

	video := model.Message{MediaType: model.MediaVideo}
	if Matches(video, f, "") {
		t.Error("expected video message to be rejected by media_types filter")
	}
}

func TestMatchesViewBounds(t *testing.T) {
	min, max := 10, 100
	f := &model.FilterRecord{MinViews: &min, MaxViews: &max}

	low := 5
	below := model.Message{Views: &low}
	if Matches(below, f, "") {
		t.Error("expected message below min_views to be rejected")
	}

	high := 500
	above := model.Message{Views: &high}
	if Matches(above, f, "") {
		t.Error("expected message above max_views to be rejected")
	}

	ok := 50
	within := model.Message{Views: &ok}
	if !Matches(within, f, "") {
		t.Error("expected message within bounds to match")
	}
}

func TestMatchesFromUsers(t *testing.T) {
	f := &model.FilterRecord{FromUsers: []int64{1, 2}}

	in := model.Message{Sender: model.Sender{ID: 2}}
	if !Matches(in, f, "") {
		t.Error("expected sender in from_users to match")
	}

	out := model.Message{Sender: model.Sender{ID: 3}}
	if Matches(out, f, "") {
		t.Error("expected sender not in from_users to be rejected")
	}
}

func TestMatchesSearchCaseInsensitive(t *testing.T) {
	msg := model.Message{Text: "Hello World"}
	if !Matches(msg, nil, "world") {
		t.Error("expected case-insensitive substring match")
	}
	if Matches(msg, nil, "goodbye") {
		t.Error("expected no match for absent substring")
	}
}

func TestMatchesAndCombined(t *testing.T) {
	hasMedia := true
	f := &model.FilterRecord{HasMedia: &hasMedia}

	msg := model.Message{Text: "photo caption", HasMedia: true, MediaType: model.MediaPhoto}
	if !Matches(msg, f, "caption") {
		t.Error("expected combined filter+search to match")
	}
	if Matches(msg, f, "nope") {
		t.Error("expected combined filter+search to reject on failing search term")
	}
}
