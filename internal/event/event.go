// Package event holds the platform-neutral inbound events the router dispatches.
package event

import (
	"strings"

	"github.com/pavelc4/gatekeeper-dl-bot/internal/catalog"
)

type Kind int

const (
	KindLinkSubmitted Kind = iota
	KindQualitySelected
	KindMembershipRecheck
	KindCommand
)

func (k Kind) String() string {
	switch k {
	case KindLinkSubmitted:
		return "link_submitted"
	case KindQualitySelected:
		return "quality_selected"
	case KindMembershipRecheck:
		return "membership_recheck"
	case KindCommand:
		return "command"
	}
	return "unknown"
}

type Event interface {
	Kind() Kind
	Owner() int64
}

// LinkSubmitted is any free text from a user that is not a command.
type LinkSubmitted struct {
	OwnerID int64
	Text    string
}

type QualitySelected struct {
	OwnerID int64
	Quality catalog.Quality
}

type MembershipRecheckRequested struct {
	OwnerID int64
}

type Command struct {
	OwnerID int64
	Name    string
	Args    []string
}

func (LinkSubmitted) Kind() Kind              { return KindLinkSubmitted }
func (QualitySelected) Kind() Kind            { return KindQualitySelected }
func (MembershipRecheckRequested) Kind() Kind { return KindMembershipRecheck }
func (Command) Kind() Kind                    { return KindCommand }

func (e LinkSubmitted) Owner() int64              { return e.OwnerID }
func (e QualitySelected) Owner() int64            { return e.OwnerID }
func (e MembershipRecheckRequested) Owner() int64 { return e.OwnerID }
func (e Command) Owner() int64                    { return e.OwnerID }

// FromText turns an incoming message into a Command when it starts with a
// slash and into a LinkSubmitted otherwise. "/cmd@botname" is reduced to "/cmd".
func FromText(owner int64, text string) Event {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "/") {
		return LinkSubmitted{OwnerID: owner, Text: text}
	}

	parts := strings.Fields(trimmed)
	name := parts[0]
	if idx := strings.Index(name, "@"); idx != -1 {
		name = name[:idx]
	}
	return Command{
		OwnerID: owner,
		Name:    strings.ToLower(name),
		Args:    parts[1:],
	}
}

const (
	qualityPrefix = "q:"
	RecheckData   = "recheck"
)

// EncodeQuality is the callback payload of a quality button. It never carries
// the link; the pending store holds that.
func EncodeQuality(q catalog.Quality) string {
	return qualityPrefix + string(q)
}

// FromCallback decodes button payloads. Payloads from older builds of the
// form "<quality>|<url>" still decode to a selection; the URL part is ignored.
func FromCallback(owner int64, data string) (Event, bool) {
	data = strings.TrimSpace(data)
	switch {
	case data == RecheckData || data == "check_joined":
		return MembershipRecheckRequested{OwnerID: owner}, true
	case strings.HasPrefix(data, qualityPrefix):
		tag := strings.TrimPrefix(data, qualityPrefix)
		if tag == "" {
			return nil, false
		}
		return QualitySelected{OwnerID: owner, Quality: catalog.Parse(tag)}, true
	case strings.Contains(data, "|"):
		tag, _, _ := strings.Cut(data, "|")
		if tag == "" {
			return nil, false
		}
		return QualitySelected{OwnerID: owner, Quality: catalog.Parse(tag)}, true
	}
	return nil, false
}
