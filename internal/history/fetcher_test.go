package history

import (
	"context"
	"testing"
	"time"

	"github.com/gotd/td/tg"

	"github.com/tolmachov/mcp-telegram/internal/apperr"
	"github.com/tolmachov/mcp-telegram/internal/model"
)

// fakeRawProvider serves a fixed, pre-sorted ascending slice of messages,
// paging through it in fixed-size chunks regardless of the requested limit,
// to exercise the Fetcher's own pagination and window-truncation logic.
type fakeRawProvider struct {
	all       []model.Message // ascending by ID
	chunkSize int
	peer      tg.InputPeerClass
}

func (f *fakeRawProvider) ResolvePeer(ctx context.Context, chatCanonicalID int64) (tg.InputPeerClass, error) {
	return f.peer, nil
}

func (f *fakeRawProvider) FetchBatch(ctx context.Context, peer tg.InputPeerClass, req BatchRequest) (Batch, error) {
	var start int
	for i, m := range f.all {
		if m.ID > req.MinID {
			start = i
			break
		}
		start = i + 1
	}

	end := start + f.chunkSize
	if end > len(f.all) {
		end = len(f.all)
	}
	if start > len(f.all) {
		start = len(f.all)
	}

	batch := append([]model.Message(nil), f.all[start:end]...)
	return Batch{
		Messages: batch,
		HasMore:  end < len(f.all),
	}, nil
}

func msgAt(id int, daysFromEpoch int) model.Message {
	return model.Message{
		ID:   id,
		Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, daysFromEpoch),
		Text: "message",
	}
}

func testChat() model.ChatRef {
	return model.ChatRef{CanonicalID: 42, Kind: model.ChatKindChannel, Title: "Test Channel"}
}

func TestFetchPageFirstPageNoCursor(t *testing.T) {
	provider := &fakeRawProvider{chunkSize: 3, all: []model.Message{
		msgAt(1, 0), msgAt(2, 1), msgAt(3, 2), msgAt(4, 3), msgAt(5, 4),
	}}
	f := New(provider, nil, 8, 0)

	window := model.MessageWindow{Chat: testChat(), Direction: model.DirectionAsc, PageSize: 2}
	page, err := f.FetchPage(context.Background(), window, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(page.Messages))
	}
	if page.Messages[0].ID != 1 || page.Messages[1].ID != 2 {
		t.Errorf("unexpected message IDs: %+v", page.Messages)
	}
	if !page.PageInfo.HasMore {
		t.Error("expected HasMore=true")
	}
	if page.PageInfo.Cursor == nil {
		t.Fatal("expected a cursor for a non-exhausted page")
	}
}

func TestFetchPageResumesFromCursor(t *testing.T) {
	provider := &fakeRawProvider{chunkSize: 3, all: []model.Message{
		msgAt(1, 0), msgAt(2, 1), msgAt(3, 2), msgAt(4, 3), msgAt(5, 4),
	}}
	f := New(provider, nil, 8, 0)
	window := model.MessageWindow{Chat: testChat(), Direction: model.DirectionAsc, PageSize: 2}

	first, err := f.FetchPage(context.Background(), window, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := f.FetchPage(context.Background(), window, *first.PageInfo.Cursor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(second.Messages) != 2 || second.Messages[0].ID != 3 || second.Messages[1].ID != 4 {
		t.Errorf("unexpected second page: %+v", second.Messages)
	}
}

func TestFetchPageExhaustsWithoutCursor(t *testing.T) {
	provider := &fakeRawProvider{chunkSize: 10, all: []model.Message{
		msgAt(1, 0), msgAt(2, 1),
	}}
	f := New(provider, nil, 8, 0)
	window := model.MessageWindow{Chat: testChat(), Direction: model.DirectionAsc, PageSize: 50}

	page, err := f.FetchPage(context.Background(), window, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.PageInfo.HasMore {
		t.Error("expected HasMore=false once the chat is exhausted")
	}
	if page.PageInfo.Cursor != nil {
		t.Error("expected no cursor once exhausted")
	}
	if len(page.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(page.Messages))
	}
}

func TestFetchPageRespectsToUTCBound(t *testing.T) {
	provider := &fakeRawProvider{chunkSize: 10, all: []model.Message{
		msgAt(1, 0), msgAt(2, 1), msgAt(3, 10), msgAt(4, 11),
	}}
	f := New(provider, nil, 8, 0)

	to := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 2)
	window := model.MessageWindow{Chat: testChat(), Direction: model.DirectionAsc, PageSize: 50, ToUTC: &to}

	page, err := f.FetchPage(context.Background(), window, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Messages) != 2 {
		t.Fatalf("got %d messages, want 2 (messages past to_utc excluded): %+v", len(page.Messages), page.Messages)
	}
	if page.PageInfo.HasMore {
		t.Error("expected HasMore=false once scan passes to_utc")
	}
}

func TestFetchPageInvalidCursorRejected(t *testing.T) {
	provider := &fakeRawProvider{chunkSize: 3, all: []model.Message{msgAt(1, 0)}}
	f := New(provider, nil, 8, 0)
	window := model.MessageWindow{Chat: testChat(), Direction: model.DirectionAsc, PageSize: 2}

	_, err := f.FetchPage(context.Background(), window, "not-a-real-cursor")
	appErr, ok := apperr.As(err)
	if !ok || appErr.Kind != apperr.KindValidation {
		t.Fatalf("expected KindValidation, got %v", err)
	}
}

func TestFetchPageCursorFromDifferentWindowRejected(t *testing.T) {
	provider := &fakeRawProvider{chunkSize: 3, all: []model.Message{
		msgAt(1, 0), msgAt(2, 1), msgAt(3, 2),
	}}
	f := New(provider, nil, 8, 0)

	windowA := model.MessageWindow{Chat: testChat(), Direction: model.DirectionAsc, PageSize: 1}
	windowB := model.MessageWindow{Chat: testChat(), Direction: model.DirectionAsc, PageSize: 2}

	first, err := f.FetchPage(context.Background(), windowA, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = f.FetchPage(context.Background(), windowB, *first.PageInfo.Cursor)
	appErr, ok := apperr.As(err)
	if !ok || appErr.Kind != apperr.KindValidation {
		t.Fatalf("expected KindValidation for mismatched window, got %v", err)
	}
}
