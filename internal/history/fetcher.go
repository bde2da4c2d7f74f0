// Package history implements the engine behind fetch_history: it turns a
// bounded date window plus an optional cursor into one page of matching
// messages, iterating the raw MTProto history API until the page is full,
// the window is exhausted, or the inner read budget is spent.
package history

import (
	"context"
	"time"

	"github.com/gotd/td/tg"

	"github.com/tolmachov/mcp-telegram/internal/apperr"
	"github.com/tolmachov/mcp-telegram/internal/cursor"
	"github.com/tolmachov/mcp-telegram/internal/filter"
	"github.com/tolmachov/mcp-telegram/internal/model"
	"github.com/tolmachov/mcp-telegram/internal/waitctl"
)

// RawProvider fetches one batch of already-projected messages from the raw
// MTProto history API. Production code implements it over *tg.Client
// (see provider.go); tests supply a fake that serves canned batches.
type RawProvider interface {
	ResolvePeer(ctx context.Context, chatCanonicalID int64) (tg.InputPeerClass, error)
	FetchBatch(ctx context.Context, peer tg.InputPeerClass, req BatchRequest) (Batch, error)
}

// BatchRequest mirrors the MessagesGetHistory parameters needed to scan in
// either direction: forward-scan with min_id for ascending delivery, native
// offset_id descent otherwise.
type BatchRequest struct {
	Direction model.Direction
	OffsetID  int // descending scan resumes here
	MinID     int // ascending scan resumes strictly after this ID
	Limit     int
}

// Batch is one raw page read from the provider, already projected into the
// shared model and classified by the Filter Engine.
type Batch struct {
	Messages []model.Message
	HasMore  bool
	LastID   int // ID of the last message in Messages, 0 if empty
}

// Fetcher runs the fetch_history operation's paging state machine.
type Fetcher struct {
	provider        RawProvider
	waitCtl         *waitctl.Controller
	innerReadFactor int           // bounds internal reads per page to pageSize * factor
	requestTimeout  time.Duration // bounds the peer-resolution call; 0 disables
}

// New creates a Fetcher. innerReadFactor <= 0 defaults to 8. A heavily
// filtered window reads internally bounded by innerReadFactor × page size
// before yielding a possibly-short page. requestTimeout bounds the single
// ResolvePeer call made per FetchPage; batch reads are bounded separately by
// waitCtl's own per-attempt timeout.
func New(provider RawProvider, waitCtl *waitctl.Controller, innerReadFactor int, requestTimeout time.Duration) *Fetcher {
	if innerReadFactor <= 0 {
		innerReadFactor = 8
	}
	return &Fetcher{provider: provider, waitCtl: waitCtl, innerReadFactor: innerReadFactor, requestTimeout: requestTimeout}
}

// FetchPage returns the next page of window, resuming from token if
// non-empty. It validates token against the window's fingerprint so a
// cursor minted for a different window is rejected rather than silently
// reinterpreted.
func (f *Fetcher) FetchPage(ctx context.Context, window model.MessageWindow, token string) (model.Page, error) {
	windowHash := cursor.WindowHash(window.Chat.CanonicalID, window.FromUTC, window.ToUTC, window.Direction, window.PageSize, window.Search, window.Filter)

	state := cursor.State{Direction: window.Direction, WindowHash: windowHash}
	if token != "" {
		decoded, err := cursor.Decode(token, windowHash)
		if err != nil {
			return model.Page{}, apperr.Wrap(apperr.KindValidation, "cursor is invalid or does not match this window", err)
		}
		state = decoded
	}

	resolveCtx := ctx
	if f.requestTimeout > 0 {
		var cancel context.CancelFunc
		resolveCtx, cancel = context.WithTimeout(ctx, f.requestTimeout)
		defer cancel()
	}
	peer, err := f.provider.ResolvePeer(resolveCtx, window.Chat.CanonicalID)
	if err != nil {
		return model.Page{}, apperr.Wrap(apperr.KindChatNotFound, "chat could not be resolved for history fetch", err)
	}

	pageSize := window.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	readBudget := pageSize * f.innerReadFactor

	var matched []model.Message
	read := 0
	exhausted := false
	seen := make(map[int]struct{})
	// Nothing from this call has been emitted yet when a rate limit
	// surfaces, so the resumable cursor is the state this call started from.
	resumeState := state
	rateLimited := func() string {
		tok, _ := cursor.Encode(resumeState)
		return tok
	}

	for len(matched) < pageSize && read < readBudget {
		req := BatchRequest{Direction: window.Direction, Limit: min(pageSize*2, readBudget-read)}
		if window.Direction == model.DirectionAsc {
			req.MinID = state.OffsetID
		} else {
			req.OffsetID = state.OffsetID
		}

		var batch Batch
		fetch := func(ctx context.Context) error {
			b, err := f.provider.FetchBatch(ctx, peer, req)
			if err != nil {
				return err
			}
			batch = b
			return nil
		}

		var err error
		if f.waitCtl != nil {
			err = f.waitCtl.Do(ctx, rateLimited, fetch)
		} else {
			err = fetch(ctx)
		}
		if err != nil {
			return model.Page{}, err
		}

		read += len(batch.Messages)

		stop := false
		pageFull := false
		for _, msg := range batch.Messages {
			if outOfWindow(msg, window, window.Direction) {
				stop = true
				break
			}
			if _, dup := seen[msg.ID]; !dup {
				seen[msg.ID] = struct{}{}
				if inWindow(msg, window) && filter.Matches(msg, window.Filter, window.Search) {
					matched = append(matched, msg)
				}
			}
			state.OffsetID = msg.ID
			state.FetchedCount++
			if len(matched) >= pageSize {
				pageFull = true
				break
			}
		}

		if pageFull {
			// Paused to respect page_size: a full page is always reported
			// as not exhausted, regardless of batch.HasMore. If the page
			// happened to end on the window's last message, the follow-up
			// call returns an empty page with has_more=false.
			break
		}

		if stop || len(batch.Messages) == 0 || !batch.HasMore {
			exhausted = true
			break
		}
	}

	page := model.Page{Messages: matched}
	page.PageInfo.TotalFetched = state.FetchedCount
	page.PageInfo.HasMore = !exhausted

	if page.PageInfo.HasMore {
		tok, err := cursor.Encode(state)
		if err != nil {
			return model.Page{}, apperr.Wrap(apperr.KindInternal, "failed to encode continuation cursor", err)
		}
		page.PageInfo.Cursor = &tok
	}

	return page, nil
}

// inWindow reports whether msg falls within the window's UTC bounds.
func inWindow(msg model.Message, window model.MessageWindow) bool {
	if window.FromUTC != nil && msg.Date.Before(*window.FromUTC) {
		return false
	}
	if window.ToUTC != nil && msg.Date.After(*window.ToUTC) {
		return false
	}
	return true
}

// outOfWindow reports whether msg has scanned past the window's boundary
// in the scan direction, meaning no further message can be in-window.
func outOfWindow(msg model.Message, window model.MessageWindow, dir model.Direction) bool {
	if dir == model.DirectionAsc {
		return window.ToUTC != nil && msg.Date.After(*window.ToUTC)
	}
	return window.FromUTC != nil && msg.Date.Before(*window.FromUTC)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
