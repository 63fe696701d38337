package chat

import "github.com/omochice/chatsync/pkg/protocol"

// Status is the connection lifecycle seen by the synchronizer.
type Status int

const (
	StatusDisconnected Status = iota
	StatusRegistering
	StatusActive
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusRegistering:
		return "registering"
	case StatusActive:
		return "active"
	default:
		return "unknown"
	}
}

// Notification is emitted after the synchronizer changed state.
// The set of notifications is closed to this package.
type Notification interface {
	notification()
}

// RosterChanged carries the roster that replaced the previous one.
type RosterChanged struct {
	Roster []UserProfile
}

// MessageReceived carries a message appended to the log at Index, with the
// sender's roster profile or a placeholder when the sender is not listed.
type MessageReceived struct {
	Message protocol.ChatMessage
	Index   int
	Sender  UserProfile
}

// ConnectionChanged reports a connect or disconnect.
type ConnectionChanged struct {
	Status Status
}

func (RosterChanged) notification()     {}
func (MessageReceived) notification()   {}
func (ConnectionChanged) notification() {}
