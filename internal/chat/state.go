package chat

import (
	"fmt"
	"net/url"
	"slices"

	"github.com/samber/lo"

	"github.com/omochice/chatsync/pkg/protocol"
)

// PlaceholderAvatar is shown for senders missing from the roster.
const PlaceholderAvatar = "https://via.placeholder.com/40"

// AvatarFunc derives an avatar reference from a username.
// Implementations must be deterministic.
type AvatarFunc func(name string) string

// DiceBearAvatar returns the DiceBear adventurer avatar URL for name.
func DiceBearAvatar(name string) string {
	return fmt.Sprintf("https://avatars.dicebear.com/api/adventurer-neutral/%s.svg", url.PathEscape(name))
}

// UserProfile is one roster entry.
type UserProfile struct {
	Name      string
	AvatarRef string
}

// State is the local view of the chat: the last roster snapshot and every
// message received so far, oldest first.
type State struct {
	roster []UserProfile
	log    []protocol.ChatMessage
}

// Roster returns a copy of the current roster.
func (s *State) Roster() []UserProfile {
	return slices.Clone(s.roster)
}

// Log returns a copy of the message log.
func (s *State) Log() []protocol.ChatMessage {
	return slices.Clone(s.log)
}

// replaceRoster swaps the roster for profiles built from names. Duplicate
// names keep their first position.
func (s *State) replaceRoster(names []string, avatar AvatarFunc) {
	s.roster = lo.Map(lo.Uniq(names), func(name string, _ int) UserProfile {
		return UserProfile{Name: name, AvatarRef: avatar(name)}
	})
}

func (s *State) appendMessage(m protocol.ChatMessage) int {
	s.log = append(s.log, m)
	return len(s.log) - 1
}

// lookup matches sender against roster names exactly.
func (s *State) lookup(sender string) (UserProfile, bool) {
	return lo.Find(s.roster, func(p UserProfile) bool {
		return p.Name == sender
	})
}
