package telegram

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"

	"github.com/pavelc4/gatekeeper-dl-bot/internal/membership"
	"github.com/pavelc4/gatekeeper-dl-bot/pkg/logger"
)

// ChannelChecker answers membership queries with channels.getParticipant. The
// bot must be an administrator of the channel.
type ChannelChecker struct {
	api     *tg.Client
	peers   *Peers
	channel string

	mu    sync.Mutex
	input *tg.InputChannel
}

func NewChannelChecker(api *tg.Client, peers *Peers, channel string) *ChannelChecker {
	return &ChannelChecker{api: api, peers: peers, channel: channel}
}

func (c *ChannelChecker) Status(ctx context.Context, userID int64) (membership.Status, error) {
	ch, err := c.resolve(ctx)
	if err != nil {
		return membership.StatusNone, err
	}

	res, err := c.api.ChannelsGetParticipant(ctx, &tg.ChannelsGetParticipantRequest{
		Channel:     ch,
		Participant: c.peers.User(userID),
	})
	if err != nil {
		if tgerr.Is(err, "USER_NOT_PARTICIPANT") {
			return membership.StatusNone, nil
		}
		return membership.StatusNone, errors.Wrap(err, "get participant")
	}
	return statusOf(res.Participant), nil
}

// resolve looks the channel up once and caches the result. Failures are not
// cached.
func (c *ChannelChecker) resolve(ctx context.Context) (*tg.InputChannel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.input != nil {
		return c.input, nil
	}

	var (
		chats []tg.ChatClass
		err   error
	)
	if id, ok := channelID(c.channel); ok {
		var res tg.MessagesChatsClass
		res, err = c.api.ChannelsGetChannels(ctx, []tg.InputChannelClass{&tg.InputChannel{ChannelID: id}})
		if err == nil {
			chats = res.GetChats()
		}
	} else {
		var res *tg.ContactsResolvedPeer
		res, err = c.api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{
			Username: strings.TrimPrefix(c.channel, "@"),
		})
		if err == nil {
			chats = res.Chats
		}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "resolve channel %s", c.channel)
	}

	for _, chat := range chats {
		if ch, ok := chat.(*tg.Channel); ok {
			c.input = ch.AsInput()
			logger.Info("Membership channel resolved", "channel", c.channel, "id", ch.ID, "title", ch.Title)
			return c.input, nil
		}
	}
	return nil, errors.Errorf("%s is not a channel", c.channel)
}

// channelID parses numeric channel ids, accepting the -100 prefixed form
// Bot API tools print.
func channelID(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-100") {
		s = strings.TrimPrefix(s, "-100")
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func statusOf(p tg.ChannelParticipantClass) membership.Status {
	switch p.(type) {
	case *tg.ChannelParticipantCreator:
		return membership.StatusCreator
	case *tg.ChannelParticipantAdmin:
		return membership.StatusAdministrator
	case *tg.ChannelParticipant, *tg.ChannelParticipantSelf:
		return membership.StatusMember
	default:
		return membership.StatusNone
	}
}
