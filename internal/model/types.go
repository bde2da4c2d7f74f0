// Package model holds the data types shared across the extraction engine:
// chat references, windows, messages, pages, and export artifacts.
package model

import "time"

// ChatKind is the closed set of publicly resolvable chat kinds.
type ChatKind string

const (
	ChatKindUser    ChatKind = "user"
	ChatKindGroup   ChatKind = "group"
	ChatKindChannel ChatKind = "channel"
)

// ChatRef is the canonical identifier for a public chat, produced by the Resolver.
type ChatRef struct {
	CanonicalID   int64    `json:"canonical_id"`
	Kind          ChatKind `json:"kind"`
	Username      string   `json:"username,omitempty"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	MemberCount   int      `json:"member_count,omitempty"`
	Verified      bool     `json:"verified,omitempty"`
}

// Direction controls whether a window is traversed oldest-first or newest-first.
type Direction string

const (
	DirectionAsc  Direction = "asc"
	DirectionDesc Direction = "desc"
)

// MediaKind is the closed, total classification of a message's media facet.
// Ordering of the constants mirrors the fixed precedence list in the filter engine.
type MediaKind string

const (
	MediaPhoto    MediaKind = "photo"
	MediaVideo    MediaKind = "video"
	MediaDocument MediaKind = "document"
	MediaAudio    MediaKind = "audio"
	MediaVoice    MediaKind = "voice"
	MediaSticker  MediaKind = "sticker"
	MediaPoll     MediaKind = "poll"
	MediaLink     MediaKind = "link"
	MediaText     MediaKind = "text"
)

// FilterRecord is the set of optional constraints a caller may attach to a window.
// Any zero-value field is "no constraint" (see internal/filter).
type FilterRecord struct {
	MediaTypes []MediaKind `json:"media_types,omitempty"`
	HasMedia   *bool       `json:"has_media,omitempty"`
	FromUsers  []int64     `json:"from_users,omitempty"`
	MinViews   *int        `json:"min_views,omitempty"`
	MaxViews   *int        `json:"max_views,omitempty"`
}

// MessageWindow is the requested slice of a chat's history.
type MessageWindow struct {
	Chat      ChatRef
	FromUTC   *time.Time
	ToUTC     *time.Time
	Direction Direction
	PageSize  int
	Search    string
	Filter    *FilterRecord
}

// Sender describes the author of a Message.
type Sender struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
	Display  string `json:"display,omitempty"`
	IsBot    bool   `json:"is_bot,omitempty"`
	Verified bool   `json:"verified,omitempty"`
}

// Message is the external, wire-shaped projection of a Telegram message.
type Message struct {
	ID         int       `json:"id"`
	Date       time.Time `json:"date"`
	Text       string    `json:"text"`
	Sender     Sender    `json:"sender"`
	Views      *int      `json:"views,omitempty"`
	Forwards   *int      `json:"forwards,omitempty"`
	Replies    *int      `json:"replies,omitempty"`
	Reactions  *int      `json:"reactions,omitempty"`
	Pinned     bool      `json:"pinned,omitempty"`
	Silent     bool      `json:"silent,omitempty"`
	Post       bool      `json:"post,omitempty"`
	NoForwards bool      `json:"noforwards,omitempty"`
	MediaType  MediaKind `json:"media_type,omitempty"`
	HasMedia   bool      `json:"has_media"`
	ReplyToID  *int      `json:"reply_to_id,omitempty"`
	TopicID    *int      `json:"topic_id,omitempty"`
	EditDate   *time.Time `json:"edit_date,omitempty"`
}

// PageInfo carries pagination metadata alongside a Page's messages.
type PageInfo struct {
	HasMore      bool    `json:"has_more"`
	Cursor       *string `json:"cursor,omitempty"`
	TotalFetched int     `json:"total_fetched"`
}

// PageExport references a materialized NDJSON Artifact for a large Page.
type PageExport struct {
	URI    string `json:"uri"`
	Format string `json:"format"`
}

// Page is the History Fetcher's output for one fetch call.
type Page struct {
	Messages []Message   `json:"messages"`
	PageInfo PageInfo    `json:"page_info"`
	Export   *PageExport `json:"export,omitempty"`
}

// Artifact is a process-managed NDJSON file holding a materialized window of messages.
type Artifact struct {
	URI             string    `json:"uri"`
	CreatedAt       time.Time `json:"created_at"`
	TTL             time.Duration `json:"ttl"`
	ChatCanonicalID int64     `json:"chat_canonical"`
	WindowHash      string    `json:"window_hash"`
	SizeBytes       int64     `json:"size_bytes"`
	MessageCount    int       `json:"message_count"`
}
