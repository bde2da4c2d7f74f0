// Package resolver turns a user-supplied username, t.me link, or numeric
// chat ID into a canonical ChatRef, with "did you mean" suggestions drawn
// from the caller's dialog list when nothing matches.
package resolver

import (
	"container/list"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/gotd/td/tg"

	"github.com/tolmachov/mcp-telegram/internal/apperr"
	"github.com/tolmachov/mcp-telegram/internal/model"
)

// Provider is the subset of MTProto access the resolver needs. Production
// code satisfies it with TGProvider (backed by *tg.Client and
// tgclient.ResolvePeer); tests supply a fake.
type Provider interface {
	ResolveUsername(ctx context.Context, username string) (*tg.ContactsResolvedPeer, error)
	ResolvePeerByID(ctx context.Context, id int64) (tg.InputPeerClass, error)
	ChatRefFromPeer(ctx context.Context, peer tg.InputPeerClass) (model.ChatRef, error)
	DialogTitles(ctx context.Context) ([]model.ChatRef, error)
}

// Resolver resolves resolve_chat inputs to a ChatRef, optionally caching
// successful resolutions in a bounded LRU.
type Resolver struct {
	provider Provider
	cache    *lru
}

// New creates a Resolver. cacheSize <= 0 disables caching.
func New(provider Provider, cacheSize int) *Resolver {
	var c *lru
	if cacheSize > 0 {
		c = newLRU(cacheSize)
	}
	return &Resolver{provider: provider, cache: c}
}

// Resolve parses input per the grammar (@username, t.me URL, bare username,
// signed int64 ID — a numeric name written as @name or a t.me link stays a
// username; a bare numeric input is a chat ID) and returns the resolved
// ChatRef. CHANNEL_PRIVATE is returned for peers the
// caller cannot access; CHAT_NOT_FOUND carries fuzzy "did you mean"
// suggestions drawn from the caller's own dialog list.
func (r *Resolver) Resolve(ctx context.Context, input string) (model.ChatRef, error) {
	norm := normalize(input)
	if norm == "" {
		return model.ChatRef{}, apperr.New(apperr.KindValidation, "chat reference is required", "")
	}

	if r.cache != nil {
		if ref, ok := r.cache.get(norm); ok {
			return ref, nil
		}
	}

	kind, username, id := parseInput(norm)

	var ref model.ChatRef
	var err error
	if kind == inputKindID {
		ref, err = r.resolveByID(ctx, id, input)
	} else {
		ref, err = r.resolveByUsername(ctx, username, input)
	}
	if err != nil {
		return model.ChatRef{}, err
	}

	if r.cache != nil {
		r.cache.put(norm, ref)
	}
	return ref, nil
}

func (r *Resolver) resolveByID(ctx context.Context, id int64, original string) (model.ChatRef, error) {
	peer, err := r.provider.ResolvePeerByID(ctx, id)
	if err != nil {
		return model.ChatRef{}, r.notFound(ctx, original)
	}

	ref, err := r.provider.ChatRefFromPeer(ctx, peer)
	if err != nil {
		return model.ChatRef{}, apperr.Wrap(apperr.KindChannelPrivate, "chat is not accessible", err)
	}
	return ref, nil
}

func (r *Resolver) resolveByUsername(ctx context.Context, username string, original string) (model.ChatRef, error) {
	if username == "" {
		return model.ChatRef{}, apperr.New(apperr.KindUsernameInvalid, "username must not be empty", original)
	}
	if !isValidUsername(username) {
		return model.ChatRef{}, apperr.New(apperr.KindUsernameInvalid, "username contains invalid characters", original)
	}

	resolved, err := r.provider.ResolveUsername(ctx, username)
	if err != nil {
		return model.ChatRef{}, r.notFound(ctx, original)
	}

	peer := peerFromResolved(resolved)
	if peer == nil {
		return model.ChatRef{}, r.notFound(ctx, original)
	}

	ref, err := r.provider.ChatRefFromPeer(ctx, peer)
	if err != nil {
		return model.ChatRef{}, apperr.Wrap(apperr.KindChannelPrivate, "chat is not accessible", err)
	}
	return ref, nil
}

// notFound builds a CHAT_NOT_FOUND error enriched with fuzzy "did you mean"
// suggestions from the caller's own dialog list, best-effort: a failure to
// list dialogs degrades to a plain not-found rather than masking the error.
func (r *Resolver) notFound(ctx context.Context, original string) *apperr.AppError {
	detail := fmt.Sprintf("no chat matches %q", original)

	dialogs, derr := r.provider.DialogTitles(ctx)
	if derr == nil && len(dialogs) > 0 {
		_, query, _ := parseInput(normalize(original))
		if suggestions := suggest(query, dialogs, 3); len(suggestions) > 0 {
			detail = fmt.Sprintf("%s; did you mean: %s?", detail, strings.Join(suggestions, ", "))
		}
	}

	return apperr.New(apperr.KindChatNotFound, "chat not found", detail)
}

func suggest(query string, candidates []model.ChatRef, limit int) []string {
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Title
	}

	matches := fuzzy.RankFindNormalizedFold(query, names)
	sort.Slice(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })

	var out []string
	for _, m := range matches {
		if len(out) >= limit {
			break
		}
		out = append(out, names[m.OriginalIndex])
	}
	return out
}

type inputKind int

const (
	inputKindUsername inputKind = iota
	inputKindID
)

// parseInput strips @-prefixes and t.me URL scaffolding, then classifies
// the remainder as a signed int64 chat ID or a username. Input written as
// @name or as a t.me link is always a username; only a bare numeric input
// is a chat ID.
func parseInput(raw string) (kind inputKind, username string, id int64) {
	s := raw
	prefixed := false
	for _, prefix := range []string{"https://t.me/", "http://t.me/", "t.me/", "@"} {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimPrefix(s, prefix)
			prefixed = true
		}
	}
	s = strings.SplitN(s, "?", 2)[0]
	s = strings.SplitN(s, "/", 2)[0]

	if n, err := strconv.ParseInt(s, 10, 64); err == nil && !prefixed {
		return inputKindID, s, n
	}
	return inputKindUsername, s, 0
}

func normalize(input string) string {
	return strings.TrimSpace(input)
}

func isValidUsername(username string) bool {
	if len(username) < 5 || len(username) > 32 {
		return false
	}
	for _, r := range username {
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

func peerFromResolved(resolved *tg.ContactsResolvedPeer) tg.InputPeerClass {
	for _, u := range resolved.Users {
		if user, ok := u.(*tg.User); ok {
			return &tg.InputPeerUser{UserID: user.ID, AccessHash: user.AccessHash}
		}
	}
	for _, c := range resolved.Chats {
		switch chat := c.(type) {
		case *tg.Channel:
			return &tg.InputPeerChannel{ChannelID: chat.ID, AccessHash: chat.AccessHash}
		case *tg.Chat:
			return &tg.InputPeerChat{ChatID: chat.ID}
		}
	}
	return nil
}

// lru is a small, mutex-guarded bounded LRU cache of resolved ChatRefs. No
// example repo in the corpus imports a third-party LRU library; a handful
// of container/list lines is cheaper and clearer than adding a dependency
// for this one internal cache.
type lru struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

type lruEntry struct {
	key string
	ref model.ChatRef
}

func newLRU(capacity int) *lru {
	return &lru{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
	}
}

func (c *lru) get(key string) (model.ChatRef, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return model.ChatRef{}, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*lruEntry).ref, true
}

func (c *lru) put(key string, ref model.ChatRef) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*lruEntry).ref = ref
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&lruEntry{key: key, ref: ref})
	c.items[key] = el

	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*lruEntry).key)
		}
	}
}
