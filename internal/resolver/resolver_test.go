package resolver

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gotd/td/tg"

	"github.com/tolmachov/mcp-telegram/internal/apperr"
	"github.com/tolmachov/mcp-telegram/internal/model"
)

type fakeProvider struct {
	byUsername map[string]model.ChatRef
	byID       map[int64]model.ChatRef
	dialogs    []model.ChatRef
	privateIDs map[int64]bool
	calls      int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		byUsername: make(map[string]model.ChatRef),
		byID:       make(map[int64]model.ChatRef),
		privateIDs: make(map[int64]bool),
	}
}

func (f *fakeProvider) ResolveUsername(ctx context.Context, username string) (*tg.ContactsResolvedPeer, error) {
	f.calls++
	if _, ok := f.byUsername[username]; !ok {
		return nil, errors.New("username not found")
	}
	// Sentinel peer; ChatRefFromPeer below maps it back via username.
	return &tg.ContactsResolvedPeer{
		Peer:  &tg.PeerUser{UserID: f.byUsername[username].CanonicalID},
		Users: []tg.UserClass{&tg.User{ID: f.byUsername[username].CanonicalID, Username: username}},
	}, nil
}

func (f *fakeProvider) ResolvePeerByID(ctx context.Context, id int64) (tg.InputPeerClass, error) {
	f.calls++
	if _, ok := f.byID[id]; !ok {
		return nil, errors.New("id not found")
	}
	return &tg.InputPeerUser{UserID: id}, nil
}

func (f *fakeProvider) ChatRefFromPeer(ctx context.Context, peer tg.InputPeerClass) (model.ChatRef, error) {
	switch p := peer.(type) {
	case *tg.InputPeerUser:
		if f.privateIDs[p.UserID] {
			return model.ChatRef{}, errors.New("private")
		}
		if ref, ok := f.byID[p.UserID]; ok {
			return ref, nil
		}
		for _, ref := range f.byUsername {
			if ref.CanonicalID == p.UserID {
				return ref, nil
			}
		}
	}
	return model.ChatRef{}, errors.New("not found")
}

func (f *fakeProvider) DialogTitles(ctx context.Context) ([]model.ChatRef, error) {
	return f.dialogs, nil
}

func TestResolveByUsernameStripsAt(t *testing.T) {
	fp := newFakeProvider()
	fp.byUsername["durov"] = model.ChatRef{CanonicalID: 1, Kind: model.ChatKindUser, Title: "Pavel Durov", Username: "durov"}

	r := New(fp, 0)
	ref, err := r.Resolve(context.Background(), "@durov")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.CanonicalID != 1 {
		t.Errorf("got id %d, want 1", ref.CanonicalID)
	}
}

func TestResolveByTMEURL(t *testing.T) {
	fp := newFakeProvider()
	fp.byUsername["telegram"] = model.ChatRef{CanonicalID: 2, Kind: model.ChatKindChannel, Title: "Telegram", Username: "telegram"}

	r := New(fp, 0)
	ref, err := r.Resolve(context.Background(), "https://t.me/telegram")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.CanonicalID != 2 {
		t.Errorf("got id %d, want 2", ref.CanonicalID)
	}
}

func TestResolveByNumericID(t *testing.T) {
	fp := newFakeProvider()
	fp.byID[-1001234567890] = model.ChatRef{CanonicalID: -1001234567890, Kind: model.ChatKindChannel, Title: "Some Channel"}

	r := New(fp, 0)
	ref, err := r.Resolve(context.Background(), "-1001234567890")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Title != "Some Channel" {
		t.Errorf("got title %q, want %q", ref.Title, "Some Channel")
	}
}

func TestResolveEmptyInputIsValidationError(t *testing.T) {
	r := New(newFakeProvider(), 0)
	_, err := r.Resolve(context.Background(), "   ")
	appErr, ok := apperr.As(err)
	if !ok || appErr.Kind != apperr.KindValidation {
		t.Fatalf("expected KindValidation, got %v", err)
	}
}

func TestResolveNotFoundIncludesSuggestions(t *testing.T) {
	fp := newFakeProvider()
	fp.dialogs = []model.ChatRef{
		{CanonicalID: 5, Title: "Golang Developers"},
		{CanonicalID: 6, Title: "Rust Enthusiasts"},
	}

	r := New(fp, 0)
	_, err := r.Resolve(context.Background(), "@golangdevelopers")
	appErr, ok := apperr.As(err)
	if !ok || appErr.Kind != apperr.KindChatNotFound {
		t.Fatalf("expected KindChatNotFound, got %v", err)
	}
	if !strings.Contains(appErr.Detail, "Golang Developers") {
		t.Errorf("expected suggestion in detail, got %q", appErr.Detail)
	}
}

func TestResolveUsesCache(t *testing.T) {
	fp := newFakeProvider()
	fp.byUsername["durov"] = model.ChatRef{CanonicalID: 1, Kind: model.ChatKindUser, Title: "Pavel Durov", Username: "durov"}

	r := New(fp, 10)
	if _, err := r.Resolve(context.Background(), "@durov"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	callsAfterFirst := fp.calls

	if _, err := r.Resolve(context.Background(), "@durov"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fp.calls != callsAfterFirst {
		t.Errorf("expected cached resolve to avoid a second provider call, calls went from %d to %d", callsAfterFirst, fp.calls)
	}
}

func TestResolveByIDRejectsPrivateChat(t *testing.T) {
	fp := newFakeProvider()
	fp.byID[1234] = model.ChatRef{CanonicalID: 1234, Kind: model.ChatKindGroup, Title: "Private Group"}
	fp.privateIDs[1234] = true

	r := New(fp, 0)
	_, err := r.Resolve(context.Background(), "1234")
	appErr, ok := apperr.As(err)
	if !ok || appErr.Kind != apperr.KindChannelPrivate {
		t.Fatalf("expected KindChannelPrivate, got %v", err)
	}
}

func TestResolveInvalidUsername(t *testing.T) {
	r := New(newFakeProvider(), 0)
	_, err := r.Resolve(context.Background(), "@a!b")
	appErr, ok := apperr.As(err)
	if !ok || appErr.Kind != apperr.KindUsernameInvalid {
		t.Fatalf("expected KindUsernameInvalid, got %v", err)
	}
}
