package history

import (
	"context"
	"fmt"
	"time"

	"github.com/gotd/td/tg"

	"github.com/tolmachov/mcp-telegram/internal/filter"
	"github.com/tolmachov/mcp-telegram/internal/model"
	"github.com/tolmachov/mcp-telegram/internal/tgclient"
)

// TGProvider is the production RawProvider, backed directly by the raw
// MTProto client.
type TGProvider struct {
	Client *tg.Client
}

// NewTGProvider wraps client as a history RawProvider.
func NewTGProvider(client *tg.Client) *TGProvider {
	return &TGProvider{Client: client}
}

func (p *TGProvider) ResolvePeer(ctx context.Context, chatCanonicalID int64) (tg.InputPeerClass, error) {
	return tgclient.ResolvePeer(ctx, p.Client, chatCanonicalID)
}

// FetchBatch issues one MessagesGetHistory call. For ascending scans it
// sets MinID, OffsetID = MinID+1 and a negative AddOffset so the API returns
// the next window of messages strictly after MinID; for descending scans it
// uses the native OffsetID descent the API already returns messages in.
func (p *TGProvider) FetchBatch(ctx context.Context, peer tg.InputPeerClass, req BatchRequest) (Batch, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 100
	}

	historyReq := &tg.MessagesGetHistoryRequest{
		Peer:  peer,
		Limit: limit,
	}

	if req.Direction == model.DirectionAsc {
		historyReq.MinID = req.MinID
		historyReq.OffsetID = req.MinID + 1
		historyReq.AddOffset = -limit
	} else {
		historyReq.OffsetID = req.OffsetID
	}

	history, err := p.Client.MessagesGetHistory(ctx, historyReq)
	if err != nil {
		return Batch{}, fmt.Errorf("getting message history: %w", err)
	}

	return projectHistory(history, peer, req.Direction)
}

func projectHistory(history tg.MessagesMessagesClass, peer tg.InputPeerClass, dir model.Direction) (Batch, error) {
	var rawMessages []tg.MessageClass
	var users []tg.UserClass
	var chats []tg.ChatClass
	var total int

	switch h := history.(type) {
	case *tg.MessagesMessages:
		rawMessages, users, chats, total = h.Messages, h.Users, h.Chats, len(h.Messages)
	case *tg.MessagesMessagesSlice:
		rawMessages, users, chats, total = h.Messages, h.Users, h.Chats, h.Count
	case *tg.MessagesChannelMessages:
		rawMessages, users, chats, total = h.Messages, h.Users, h.Chats, h.Count
	default:
		return Batch{}, fmt.Errorf("unexpected history response type %T", history)
	}

	userNames := make(map[int64]string, len(users))
	for _, u := range users {
		if user, ok := u.(*tg.User); ok {
			userNames[user.ID] = tgclient.UserDisplayName(user)
		}
	}
	chatNames := make(map[int64]string, len(chats))
	for _, c := range chats {
		switch chat := c.(type) {
		case *tg.Chat:
			chatNames[chat.ID] = chat.Title
		case *tg.Channel:
			chatNames[chat.ID] = chat.Title
		}
	}

	msgs := make([]model.Message, 0, len(rawMessages))
	for _, mc := range rawMessages {
		msg, ok := mc.(*tg.Message)
		if !ok {
			continue
		}
		msgs = append(msgs, projectMessage(msg, peer, userNames, chatNames))
	}

	// Ascending requests come back newest-first within the window; flip to
	// chronological order so callers always see messages sorted per
	// window.Direction.
	if dir == model.DirectionAsc {
		reverse(msgs)
	}

	var lastID int
	if len(msgs) > 0 {
		lastID = msgs[len(msgs)-1].ID
	}

	return Batch{
		Messages: msgs,
		HasMore:  len(rawMessages) > 0 && len(rawMessages) < total,
		LastID:   lastID,
	}, nil
}

func projectMessage(msg *tg.Message, peer tg.InputPeerClass, users, chats map[int64]string) model.Message {
	m := model.Message{
		ID:         msg.ID,
		Date:       time.Unix(int64(msg.Date), 0).UTC(),
		Text:       msg.Message,
		Post:       msg.Post,
		Silent:     msg.Silent,
		NoForwards: msg.Noforwards,
	}

	senderID, senderName := extractSender(msg, peer, users, chats)
	m.Sender = model.Sender{ID: senderID, Display: senderName}

	if msg.ReplyTo != nil {
		if reply, ok := msg.ReplyTo.(*tg.MessageReplyHeader); ok {
			id := reply.ReplyToMsgID
			m.ReplyToID = &id
			if topic, ok := reply.GetReplyToTopID(); ok {
				t := topic
				m.TopicID = &t
			}
		}
	}

	if views, ok := msg.GetViews(); ok {
		m.Views = &views
	}
	if forwards, ok := msg.GetForwards(); ok {
		m.Forwards = &forwards
	}
	if replies, ok := msg.GetReplies(); ok {
		count := replies.Replies
		m.Replies = &count
	}

	present := mediaFacets(msg.Media)
	m.MediaType = filter.Classify(present)
	m.HasMedia = msg.Media != nil

	if editDate, ok := msg.GetEditDate(); ok {
		t := time.Unix(int64(editDate), 0).UTC()
		m.EditDate = &t
	}

	return m
}

// mediaFacets reports which filter.Classify-recognized facets a raw
// message's media carries. A message carries at most one facet in
// practice; the map shape matches Classify's input contract.
func mediaFacets(media tg.MessageMediaClass) map[model.MediaKind]bool {
	if media == nil {
		return nil
	}

	switch m := media.(type) {
	case *tg.MessageMediaPhoto:
		return map[model.MediaKind]bool{model.MediaPhoto: true}
	case *tg.MessageMediaDocument:
		if doc, ok := m.GetDocument(); ok {
			if d, ok := doc.(*tg.Document); ok {
				for _, attr := range d.Attributes {
					switch attr.(type) {
					case *tg.DocumentAttributeVideo:
						return map[model.MediaKind]bool{model.MediaVideo: true}
					case *tg.DocumentAttributeAudio:
						if a, ok := attr.(*tg.DocumentAttributeAudio); ok && a.Voice {
							return map[model.MediaKind]bool{model.MediaVoice: true}
						}
						return map[model.MediaKind]bool{model.MediaAudio: true}
					case *tg.DocumentAttributeSticker:
						return map[model.MediaKind]bool{model.MediaSticker: true}
					}
				}
			}
		}
		return map[model.MediaKind]bool{model.MediaDocument: true}
	case *tg.MessageMediaPoll:
		return map[model.MediaKind]bool{model.MediaPoll: true}
	case *tg.MessageMediaWebPage:
		return map[model.MediaKind]bool{model.MediaLink: true}
	default:
		return nil
	}
}

func extractSender(msg *tg.Message, peer tg.InputPeerClass, users, chats map[int64]string) (int64, string) {
	const unknown = "Unknown"

	var p any = peer
	if msg.FromID != nil {
		p = msg.FromID
	}

	switch v := p.(type) {
	case interface{ GetUserID() int64 }:
		id := v.GetUserID()
		name := users[id]
		if name == "" {
			name = unknown
		}
		return id, name
	case interface{ GetChannelID() int64 }:
		id := v.GetChannelID()
		name := chats[id]
		if name == "" {
			name = unknown
		}
		return id, name
	case interface{ GetChatID() int64 }:
		id := v.GetChatID()
		name := chats[id]
		if name == "" {
			name = unknown
		}
		return id, name
	default:
		return 0, unknown
	}
}

func reverse(msgs []model.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
