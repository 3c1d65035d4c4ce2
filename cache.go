package fchat

import "time"

// PartialChannelData carries only the fields to update; a nil pointer means
// "do not touch" (§4.4).
type PartialChannelData struct {
	Mode        *ChannelMode
	Title       *string
	Description *string
}

// PartialUserData carries only the fields to update; a nil pointer means
// "do not touch" (§4.4).
type PartialUserData struct {
	Gender        *Gender
	Status        *Status
	StatusMessage *string
}

// Cache mirrors server-side state for fast local reads. Every mutator
// returns whether it changed observable state, which the dispatcher uses
// to suppress redundant listener notifications (§4.4). Implementations
// must be safe for concurrent use; the core treats Cache as externally
// synchronized.
type Cache interface {
	InsertMessage(source MessageChannel, message Message) bool
	InsertChannel(channel Channel, data PartialChannelData, members []Character) bool
	InsertAd(channel Channel, character Character, ad string) bool

	AddChannelMember(channel Channel, character Character) bool
	RemoveChannelMember(channel Channel, character Character) bool

	AddBookmark(character Character) bool
	RemoveBookmark(character Character) bool

	AddGlobalOp(character Character) bool
	RemoveGlobalOp(character Character) bool
	SetGlobalOps(ops []Character) bool

	AddChannelOp(channel Channel, character Character) bool
	RemoveChannelOp(channel Channel, character Character) bool
	SetChannelOps(channel Channel, ops []Character) bool

	UpdateChannel(channel Channel, data PartialChannelData) bool
	UpdateCharacter(character Character, data PartialUserData) bool

	SetFriends(friends []FriendRelation) bool
	SetBookmarks(bookmarks []Character) bool
	SetChannelMembers(channel Channel, members []Character) bool
	SetGlobalChannels(channels []ChannelCount) bool
	SetUnofficialChannels(channels []ChannelCount) bool

	GetChannel(channel Channel) (ChannelData, bool)
	GetChannels() []ChannelData
	GetCharacter(character Character) (CharacterData, bool)
	GetCharacters() []CharacterData
	GetMessages(source MessageChannel, since time.Time, limit int) []Message
	GetFriendRelations() []FriendRelation
	GetFriends() []Character
	GetBookmarks() []Character
}

// ChannelCount pairs a channel with the member count the server reported
// for it in a CHA/ORS listing.
type ChannelCount struct {
	Channel Channel
	Count   int
}

// NoCache is the shipped null Cache: every mutator reports "changed" (so
// the dispatcher always notifies the listener) and every read is empty.
type NoCache struct{}

func (NoCache) InsertMessage(MessageChannel, Message) bool                    { return true }
func (NoCache) InsertChannel(Channel, PartialChannelData, []Character) bool   { return true }
func (NoCache) InsertAd(Channel, Character, string) bool                      { return true }
func (NoCache) AddChannelMember(Channel, Character) bool                      { return true }
func (NoCache) RemoveChannelMember(Channel, Character) bool                   { return true }
func (NoCache) AddBookmark(Character) bool                                   { return true }
func (NoCache) RemoveBookmark(Character) bool                                { return true }
func (NoCache) AddGlobalOp(Character) bool                                   { return true }
func (NoCache) RemoveGlobalOp(Character) bool                                { return true }
func (NoCache) SetGlobalOps([]Character) bool                                 { return true }
func (NoCache) AddChannelOp(Channel, Character) bool                         { return true }
func (NoCache) RemoveChannelOp(Channel, Character) bool                      { return true }
func (NoCache) SetChannelOps(Channel, []Character) bool                      { return true }
func (NoCache) UpdateChannel(Channel, PartialChannelData) bool               { return true }
func (NoCache) UpdateCharacter(Character, PartialUserData) bool              { return true }
func (NoCache) SetFriends([]FriendRelation) bool                             { return true }
func (NoCache) SetBookmarks([]Character) bool                                { return true }
func (NoCache) SetChannelMembers(Channel, []Character) bool                  { return true }
func (NoCache) SetGlobalChannels([]ChannelCount) bool                        { return true }
func (NoCache) SetUnofficialChannels([]ChannelCount) bool                    { return true }
func (NoCache) GetChannel(Channel) (ChannelData, bool)                       { return ChannelData{}, false }
func (NoCache) GetChannels() []ChannelData                                   { return nil }
func (NoCache) GetCharacter(Character) (CharacterData, bool)                 { return CharacterData{}, false }
func (NoCache) GetCharacters() []CharacterData                               { return nil }
func (NoCache) GetMessages(MessageChannel, time.Time, int) []Message         { return nil }
func (NoCache) GetFriendRelations() []FriendRelation                         { return nil }
func (NoCache) GetFriends() []Character                                     { return nil }
func (NoCache) GetBookmarks() []Character                                   { return nil }
