package telegram

import (
	"sync"

	"github.com/go-faster/errors"
	"github.com/gotd/td/tg"
)

// Peers remembers user access hashes seen in updates so later calls about a
// user (membership queries, replies to callbacks) can address them.
type Peers struct {
	mu    sync.RWMutex
	users map[int64]int64
}

func NewPeers() *Peers {
	return &Peers{users: make(map[int64]int64)}
}

func (p *Peers) Remember(e tg.Entities) {
	if len(e.Users) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, u := range e.Users {
		if u.AccessHash != 0 {
			p.users[id] = u.AccessHash
		}
	}
}

// User returns an input peer for userID. An unknown user gets a zero access
// hash, which bots may use for users that have talked to them.
func (p *Peers) User(userID int64) *tg.InputPeerUser {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &tg.InputPeerUser{UserID: userID, AccessHash: p.users[userID]}
}

// ResolvePeer converts a PeerClass to InputPeerClass using the provided entities.
func (p *Peers) ResolvePeer(peer tg.PeerClass, entities tg.Entities) (tg.InputPeerClass, error) {
	switch pp := peer.(type) {
	case *tg.PeerUser:
		if user, ok := entities.Users[pp.UserID]; ok {
			return &tg.InputPeerUser{UserID: user.ID, AccessHash: user.AccessHash}, nil
		}
		return p.User(pp.UserID), nil
	case *tg.PeerChat:
		return &tg.InputPeerChat{ChatID: pp.ChatID}, nil
	case *tg.PeerChannel:
		channel, ok := entities.Channels[pp.ChannelID]
		if !ok {
			return nil, errors.Errorf("channel %d not found in entities", pp.ChannelID)
		}
		return &tg.InputPeerChannel{ChannelID: channel.ID, AccessHash: channel.AccessHash}, nil
	default:
		return nil, errors.Errorf("unknown peer type: %T", peer)
	}
}

// SenderID is the user who wrote msg.
func SenderID(msg *tg.Message) int64 {
	if from, ok := msg.GetFromID(); ok {
		if user, ok := from.(*tg.PeerUser); ok {
			return user.UserID
		}
	}
	if peer, ok := msg.PeerID.(*tg.PeerUser); ok {
		return peer.UserID
	}
	return 0
}

func getMsgID(updates tg.UpdatesClass) int {
	switch u := updates.(type) {
	case *tg.UpdateShortSentMessage:
		return u.ID
	case *tg.Updates:
		for _, update := range u.Updates {
			switch m := update.(type) {
			case *tg.UpdateMessageID:
				return m.ID
			case *tg.UpdateNewMessage:
				if msg, ok := m.Message.(*tg.Message); ok {
					return msg.ID
				}
			case *tg.UpdateNewChannelMessage:
				if msg, ok := m.Message.(*tg.Message); ok {
					return msg.ID
				}
			}
		}
	}
	return 0
}
