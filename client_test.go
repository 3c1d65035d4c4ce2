package fchat

import (
	"context"
	"testing"

	"github.com/feathrs/fchat-go/protocol"
)

// recordingListener counts and captures every callback the dispatcher
// drives, so a test can assert exactly which ones fired and how many
// times, mirroring the cache-gated vs unconditional split in the
// dispatch matrix.
type recordingListener struct {
	NoopListener

	updatedChannel       []Channel
	updatedChannelLists  int
	updatedGlobalOps     int
	updatedSessionChans  []*Session
	updatedCharacter     []Character
	broadcasts           []string
	invited              []Channel
	ads                  int
	adChannels           []Channel
	systemMessages       int
	messages             int
	typingCalls          int
	errors               int
}

func (r *recordingListener) UpdatedChannel(c Channel)               { r.updatedChannel = append(r.updatedChannel, c) }
func (r *recordingListener) UpdatedChannelLists()                   { r.updatedChannelLists++ }
func (r *recordingListener) UpdatedGlobalOps()                      { r.updatedGlobalOps++ }
func (r *recordingListener) UpdatedSessionChannels(s *Session)       { r.updatedSessionChans = append(r.updatedSessionChans, s) }
func (r *recordingListener) UpdatedCharacter(c Character)            { r.updatedCharacter = append(r.updatedCharacter, c) }
func (r *recordingListener) Broadcast(_ Character, message string)   { r.broadcasts = append(r.broadcasts, message) }
func (r *recordingListener) Invited(_ *Session, c Channel, _ Character) { r.invited = append(r.invited, c) }
func (r *recordingListener) Ad(c Channel, _ Character, _ string) {
	r.ads++
	r.adChannels = append(r.adChannels, c)
}
func (r *recordingListener) SystemMessage(*Session, Channel, string) { r.systemMessages++ }
func (r *recordingListener) Message(*Session, Character, MessageChannel, MessageContent) {
	r.messages++
}
func (r *recordingListener) Typing(*Session, Character, TypingStatus) { r.typingCalls++ }
func (r *recordingListener) Error(*Session, protocol.ErrorCode, string) { r.errors++ }

func newTestClient() (*Client, *recordingListener) {
	rec := &recordingListener{}
	c := New(rec, WithCache(NewMemoryCache()))
	return c, rec
}

func testSession(character string) *Session {
	return &Session{
		character:       NewCharacter(character),
		channels:        make(map[string]Channel),
		privateMessages: make(map[string]TypingStatus),
		done:            make(chan struct{}),
	}
}

func TestDispatchBroadcastIsUnconditional(t *testing.T) {
	c, rec := newTestClient()
	s := testSession("Alice")

	c.dispatchCommand(context.Background(), s, &protocol.EvtBroadcast{Character: "Admin", Message: "server restart"})

	if len(rec.broadcasts) != 1 || rec.broadcasts[0] != "server restart" {
		t.Errorf("broadcasts = %v, want one entry", rec.broadcasts)
	}
}

func TestDispatchGlobalOpsGatedOnCacheChange(t *testing.T) {
	c, rec := newTestClient()
	s := testSession("Alice")

	c.dispatchCommand(context.Background(), s, &protocol.EvtGlobalOpped{Character: "Mod1"})
	if rec.updatedGlobalOps != 1 {
		t.Fatalf("updatedGlobalOps after first op = %d, want 1", rec.updatedGlobalOps)
	}

	// Re-opping the same character is a no-op for MemoryCache's set, so the
	// listener must not be notified again.
	c.dispatchCommand(context.Background(), s, &protocol.EvtGlobalOpped{Character: "Mod1"})
	if rec.updatedGlobalOps != 1 {
		t.Errorf("updatedGlobalOps after duplicate op = %d, want still 1", rec.updatedGlobalOps)
	}
}

// TestDispatchJoinedChannelIsLogicalOr covers the JCH row: update_channel
// and add_channel_member are both attempted, and UpdatedChannel fires if
// either changed something, not only when both do.
func TestDispatchJoinedChannelIsLogicalOr(t *testing.T) {
	c, rec := newTestClient()
	s := testSession("Alice")
	frontpage := NewChannel("Frontpage")

	// Seed the channel with the same title the JCH frame will carry and no
	// members, so only add_channel_member changes anything on the JCH below.
	c.cache.UpdateChannel(frontpage, PartialChannelData{Title: strPtr("Frontpage")})

	c.dispatchCommand(context.Background(), s, &protocol.EvtJoinedChannel{
		Channel: "Frontpage", Character: "Alice", Title: "Frontpage",
	})

	if len(rec.updatedChannel) != 1 {
		t.Fatalf("updatedChannel = %v, want exactly one notification from the member-add alone", rec.updatedChannel)
	}
	if len(rec.updatedSessionChans) != 1 || rec.updatedSessionChans[0] != s {
		t.Errorf("updatedSessionChans = %v, want [s] since the joiner is this session's own character", rec.updatedSessionChans)
	}
}

// TestDispatchJoinedChannelOtherCharacterSkipsSessionNotice: a JCH for a
// different character still updates the channel cache/listener but must
// not fire UpdatedSessionChannels.
func TestDispatchJoinedChannelOtherCharacterSkipsSessionNotice(t *testing.T) {
	c, rec := newTestClient()
	s := testSession("Alice")

	c.dispatchCommand(context.Background(), s, &protocol.EvtJoinedChannel{
		Channel: "Frontpage", Character: "Bob", Title: "Frontpage",
	})

	if len(rec.updatedChannel) != 1 {
		t.Errorf("updatedChannel = %v, want one notification for the new channel row", rec.updatedChannel)
	}
	if len(rec.updatedSessionChans) != 0 {
		t.Errorf("updatedSessionChans = %v, want none: join was for a different character", rec.updatedSessionChans)
	}
}

func TestDispatchChannelListingGatesPerEntryAndNotifiesListsOnce(t *testing.T) {
	c, rec := newTestClient()
	s := testSession("Alice")

	frontpage := NewChannel("Frontpage")
	c.cache.UpdateChannel(frontpage, PartialChannelData{Title: strPtr("Frontpage")})

	c.dispatchCommand(context.Background(), s, &protocol.EvtGlobalChannels{
		Channels: []protocol.ChannelSummary{
			{Name: "Frontpage", Title: "Frontpage", Characters: 10}, // unchanged title
			{Name: "Fantasy", Title: "Fantasy", Characters: 3},      // new row
		},
	})

	if len(rec.updatedChannel) != 1 {
		t.Errorf("updatedChannel = %v, want exactly one entry (Fantasy, the actually-new row)", rec.updatedChannel)
	}
	if rec.updatedChannelLists != 1 {
		t.Errorf("updatedChannelLists = %d, want 1 regardless of per-entry gating", rec.updatedChannelLists)
	}
}

func TestDispatchInvitedFiresBothChannelUpdateAndInvite(t *testing.T) {
	c, rec := newTestClient()
	s := testSession("Alice")

	c.dispatchCommand(context.Background(), s, &protocol.EvtInvited{
		Sender: "Bob", Title: "Secret Club", Name: "ADH-abc123",
	})

	if len(rec.invited) != 1 {
		t.Fatalf("invited = %v, want exactly one call, unconditional of cache state", rec.invited)
	}
	if len(rec.updatedChannel) != 1 {
		t.Errorf("updatedChannel = %v, want one entry for the new channel title", rec.updatedChannel)
	}
}

func TestDispatchPrivateMessageGatedByCache(t *testing.T) {
	c, rec := newTestClient()
	s := testSession("Alice")

	c.dispatchCommand(context.Background(), s, &protocol.EvtPrivateMessage{Character: "Bob", Message: "hi"})

	if rec.messages != 1 {
		t.Errorf("messages = %d, want 1", rec.messages)
	}
}

func TestDispatchTypingIsUnconditional(t *testing.T) {
	c, rec := newTestClient()
	s := testSession("Alice")

	c.dispatchCommand(context.Background(), s, &protocol.EvtTyping{Character: "Bob", Status: "typing"})

	if rec.typingCalls != 1 {
		t.Errorf("typingCalls = %d, want 1", rec.typingCalls)
	}
}

func TestDispatchErrorIsUnconditional(t *testing.T) {
	c, rec := newTestClient()
	s := testSession("Alice")

	c.dispatchCommand(context.Background(), s, &protocol.EvtError{Number: int32(protocol.SyntaxError), Message: "bad frame"})

	if rec.errors != 1 {
		t.Errorf("errors = %d, want 1", rec.errors)
	}
}

func TestDispatchSystemMessageIsUnconditional(t *testing.T) {
	c, rec := newTestClient()
	s := testSession("Alice")

	c.dispatchCommand(context.Background(), s, &protocol.EvtSystemMessage{Channel: "Frontpage", Message: "the mods have changed"})

	if rec.systemMessages != 1 {
		t.Errorf("systemMessages = %d, want 1", rec.systemMessages)
	}
}

func TestDispatchLeftChannelRemovesMemberAndNotifiesOwnSession(t *testing.T) {
	c, rec := newTestClient()
	s := testSession("Alice")
	frontpage := NewChannel("Frontpage")
	c.cache.AddChannelMember(frontpage, NewCharacter("Alice"))

	c.dispatchCommand(context.Background(), s, &protocol.EvtLeftChannel{Channel: "Frontpage", Character: "Alice"})

	if len(rec.updatedChannel) != 1 {
		t.Errorf("updatedChannel = %v, want one entry for the member removal", rec.updatedChannel)
	}
	if len(rec.updatedSessionChans) != 1 {
		t.Errorf("updatedSessionChans = %v, want one: leaver is this session's own character", rec.updatedSessionChans)
	}
}

func TestDispatchAdDecodesChannelTarget(t *testing.T) {
	c, rec := newTestClient()
	s := testSession("Alice")

	c.dispatchCommand(context.Background(), s, &protocol.EvtAd{Channel: "Frontpage", Character: "Bob", Message: "looking for rp"})

	if rec.ads != 1 {
		t.Errorf("ads = %d, want 1", rec.ads)
	}
	if len(rec.adChannels) != 1 || !rec.adChannels[0].Equal(NewChannel("Frontpage")) {
		t.Errorf("adChannels = %v, want [Frontpage]", rec.adChannels)
	}
}

func strPtr(s string) *string { return &s }
