package fchat

import (
	"fmt"

	"github.com/feathrs/fchat-go/protocol"
)

// EventListener is the user-supplied callback surface the dispatcher drives
// (§6). Every method is no-op by default via NoopListener; implementations
// embed it and override only what they need.
type EventListener interface {
	RawCommand(session *Session, command ServerEvent)
	SessionError(session *Session, err error)
	SessionsUpdated()
	SessionDisconnected(session *Session, err protocol.ErrorCode)
	Ready(session *Session)
	Broadcast(character Character, message string)
	Invited(session *Session, channel Channel, sender Character)
	Ad(channel Channel, character Character, message string)
	SystemMessage(session *Session, channel Channel, message string)
	Message(session *Session, source Character, target MessageChannel, content MessageContent)
	Typing(session *Session, character Character, status TypingStatus)
	UpdatedFriends()
	UpdatedBookmarks()
	UpdatedChannel(channel Channel)
	UpdatedCharacter(character Character)
	UpdatedGlobalOps()
	UpdatedChannelLists()
	UpdatedSessionChannels(session *Session)
	Error(session *Session, err protocol.ErrorCode, message string)
}

// NoopListener implements EventListener with every method a no-op. Embed it
// and override the methods a particular consumer cares about.
type NoopListener struct{}

func (NoopListener) RawCommand(*Session, ServerEvent)                             {}
func (NoopListener) SessionError(*Session, error)                                 {}
func (NoopListener) SessionsUpdated()                                             {}
func (NoopListener) SessionDisconnected(*Session, protocol.ErrorCode)             {}
func (NoopListener) Ready(*Session)                                               {}
func (NoopListener) Broadcast(Character, string)                                  {}
func (NoopListener) Invited(*Session, Channel, Character)                         {}
func (NoopListener) Ad(Channel, Character, string)                                {}
func (NoopListener) SystemMessage(*Session, Channel, string)                      {}
func (NoopListener) Message(*Session, Character, MessageChannel, MessageContent)  {}
func (NoopListener) Typing(*Session, Character, TypingStatus)                     {}
func (NoopListener) UpdatedFriends()                                              {}
func (NoopListener) UpdatedBookmarks()                                            {}
func (NoopListener) UpdatedChannel(Channel)                                       {}
func (NoopListener) UpdatedCharacter(Character)                                   {}
func (NoopListener) UpdatedGlobalOps()                                            {}
func (NoopListener) UpdatedChannelLists()                                         {}
func (NoopListener) UpdatedSessionChannels(*Session)                              {}

// Error's default panics on a fatal code (§4.3's ERR row); non-fatal codes
// are ignored, same as every other no-op here.
func (NoopListener) Error(_ *Session, err protocol.ErrorCode, message string) {
	if err.IsFatal() {
		panic(fmt.Sprintf("fchat: fatal server error %s: %s", err, message))
	}
}
