package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/gotd/td/telegram/query"
	"github.com/gotd/td/telegram/query/dialogs"
	"github.com/gotd/td/tg"

	"github.com/tolmachov/mcp-telegram/internal/apperr"
	"github.com/tolmachov/mcp-telegram/internal/model"
	"github.com/tolmachov/mcp-telegram/internal/tgclient"
)

// TGProvider is the production Provider, backed directly by the raw MTProto
// client.
type TGProvider struct {
	Client         *tg.Client
	RequestTimeout time.Duration // bounds each single-entity lookup call; 0 disables
}

// NewTGProvider wraps client as a resolver Provider. requestTimeout bounds
// every single-entity lookup call (username/ID resolution, full-chat
// fetches); 0 disables the deadline.
func NewTGProvider(client *tg.Client, requestTimeout time.Duration) *TGProvider {
	return &TGProvider{Client: client, RequestTimeout: requestTimeout}
}

func (p *TGProvider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.RequestTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, p.RequestTimeout)
}

func (p *TGProvider) ResolveUsername(ctx context.Context, username string) (*tg.ContactsResolvedPeer, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return p.Client.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: username})
}

func (p *TGProvider) ResolvePeerByID(ctx context.Context, id int64) (tg.InputPeerClass, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	return tgclient.ResolvePeer(ctx, p.Client, id)
}

// ChatRefFromPeer fetches full chat metadata for peer and projects it into
// a model.ChatRef, rejecting a basic group or a channel with no public
// username as CHANNEL_PRIVATE rather than returning a generic failure.
func (p *TGProvider) ChatRefFromPeer(ctx context.Context, peer tg.InputPeerClass) (model.ChatRef, error) {
	switch pr := peer.(type) {
	case *tg.InputPeerUser:
		return p.userRef(ctx, pr)
	case *tg.InputPeerChat:
		return p.chatRef(ctx, pr)
	case *tg.InputPeerChannel:
		return p.channelRef(ctx, pr)
	default:
		return model.ChatRef{}, fmt.Errorf("unsupported peer type %T", peer)
	}
}

func (p *TGProvider) userRef(ctx context.Context, pr *tg.InputPeerUser) (model.ChatRef, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	full, err := p.Client.UsersGetFullUser(ctx, &tg.InputUser{UserID: pr.UserID, AccessHash: pr.AccessHash})
	if err != nil {
		return model.ChatRef{}, fmt.Errorf("fetching user: %w", err)
	}

	ref := model.ChatRef{CanonicalID: pr.UserID, Kind: model.ChatKindUser}
	for _, u := range full.Users {
		if user, ok := u.(*tg.User); ok && user.ID == pr.UserID {
			ref.Title = tgclient.UserDisplayName(user)
			ref.Username = user.Username
			ref.Verified = user.Verified
			break
		}
	}
	ref.Description = full.FullUser.About
	return ref, nil
}

// chatRef rejects every basic group outright: MTProto gives basic chats no
// username and no public join surface, so a numeric-ID-resolved tg.Chat is
// always private.
func (p *TGProvider) chatRef(ctx context.Context, pr *tg.InputPeerChat) (model.ChatRef, error) {
	return model.ChatRef{}, apperr.New(apperr.KindChannelPrivate, "chat is private",
		fmt.Sprintf("chat %d is a basic group, which has no public username", pr.ChatID))
}

func (p *TGProvider) channelRef(ctx context.Context, pr *tg.InputPeerChannel) (model.ChatRef, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	full, err := p.Client.ChannelsGetFullChannel(ctx, &tg.InputChannel{ChannelID: pr.ChannelID, AccessHash: pr.AccessHash})
	if err != nil {
		return model.ChatRef{}, apperr.Wrap(apperr.KindChannelPrivate, "channel is private or inaccessible", err)
	}

	canonicalID := -1000000000000 - pr.ChannelID
	ref := model.ChatRef{CanonicalID: canonicalID, Kind: model.ChatKindChannel}
	if fc, ok := full.FullChat.(*tg.ChannelFull); ok {
		ref.Description = fc.About
		ref.MemberCount = fc.ParticipantsCount
	}
	for _, c := range full.Chats {
		if channel, ok := c.(*tg.Channel); ok {
			ref.Title = channel.Title
			ref.Username = channel.Username
			ref.Verified = channel.Verified
			if channel.Megagroup {
				ref.Kind = model.ChatKindGroup
			}
			break
		}
	}

	if ref.Username == "" {
		return model.ChatRef{}, apperr.New(apperr.KindChannelPrivate, "channel is private",
			fmt.Sprintf("channel %d has no public username", pr.ChannelID))
	}

	return ref, nil
}

// DialogTitles lists the caller's own dialogs as ChatRefs, used only to
// source fuzzy "did you mean" suggestions on a failed resolution.
func (p *TGProvider) DialogTitles(ctx context.Context) ([]model.ChatRef, error) {
	var refs []model.ChatRef

	deadline, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := query.GetDialogs(p.Client).BatchSize(100).ForEach(deadline, func(ctx context.Context, dlg dialogs.Elem) error {
		if _, ok := dlg.Dialog.(*tg.Dialog); !ok {
			return nil
		}

		switch peer := dlg.Peer.(type) {
		case *tg.InputPeerUser:
			if user, ok := dlg.Entities.Users()[peer.UserID]; ok {
				refs = append(refs, model.ChatRef{CanonicalID: peer.UserID, Kind: model.ChatKindUser, Title: tgclient.UserDisplayName(user)})
			}
		case *tg.InputPeerChat:
			if chat, ok := dlg.Entities.Chats()[peer.ChatID]; ok {
				refs = append(refs, model.ChatRef{CanonicalID: peer.ChatID, Kind: model.ChatKindGroup, Title: chat.Title})
			}
		case *tg.InputPeerChannel:
			if channel, ok := dlg.Entities.Channels()[peer.ChannelID]; ok {
				refs = append(refs, model.ChatRef{CanonicalID: -1000000000000 - peer.ChannelID, Kind: model.ChatKindChannel, Title: channel.Title})
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing dialogs: %w", err)
	}

	return refs, nil
}
