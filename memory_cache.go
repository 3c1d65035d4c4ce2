package fchat

import (
	"sort"
	"sync"
	"time"
)

// MemoryCache is an in-memory Cache implementation: a set of maps guarded
// by a single RWMutex, keyed by fold key so Character/Channel case-folding
// holds for lookups the same way it does for the domain types themselves.
// It is the reference Cache used by the package's own tests; production
// consumers are free to swap in a persisted implementation instead.
type MemoryCache struct {
	mu sync.RWMutex

	channels    map[string]ChannelData
	characters  map[string]CharacterData
	messages    map[string][]Message
	friends     []FriendRelation
	bookmarks   map[string]Character
	globalOps   map[string]Character
	channelOps  map[string]map[string]Character
}

// NewMemoryCache constructs an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		channels:   make(map[string]ChannelData),
		characters: make(map[string]CharacterData),
		messages:   make(map[string][]Message),
		bookmarks:  make(map[string]Character),
		globalOps:  make(map[string]Character),
		channelOps: make(map[string]map[string]Character),
	}
}

func (c *MemoryCache) InsertMessage(source MessageChannel, message Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := source.Key()
	c.messages[key] = append(c.messages[key], message)
	return true
}

func (c *MemoryCache) InsertAd(channel Channel, character Character, ad string) bool {
	return c.InsertMessage(NewChannelTarget(channel), Message{
		Timestamp: time.Now().UTC().Truncate(time.Second),
		Author:    character,
		Content:   NewTextContent(ad),
	})
}

func (c *MemoryCache) InsertChannel(channel Channel, data PartialChannelData, members []Character) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := channel.FoldKey()
	cd := c.channels[key]
	cd.Channel = channel
	applyChannelPartial(&cd, data)
	cd.Members = members
	c.channels[key] = cd
	return true
}

func (c *MemoryCache) AddChannelMember(channel Channel, character Character) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := channel.FoldKey()
	cd := c.channels[key]
	cd.Channel = channel
	for _, m := range cd.Members {
		if m.Equal(character) {
			return false
		}
	}
	cd.Members = append(cd.Members, character)
	c.channels[key] = cd
	return true
}

func (c *MemoryCache) RemoveChannelMember(channel Channel, character Character) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := channel.FoldKey()
	cd, ok := c.channels[key]
	if !ok {
		return false
	}
	for i, m := range cd.Members {
		if m.Equal(character) {
			cd.Members = append(cd.Members[:i], cd.Members[i+1:]...)
			c.channels[key] = cd
			return true
		}
	}
	return false
}

func (c *MemoryCache) SetChannelMembers(channel Channel, members []Character) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := channel.FoldKey()
	cd := c.channels[key]
	cd.Channel = channel
	cd.Members = members
	c.channels[key] = cd
	return true
}

func (c *MemoryCache) SetGlobalChannels(channels []ChannelCount) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range channels {
		key := ch.Channel.FoldKey()
		cd := c.channels[key]
		cd.Channel = ch.Channel
		c.channels[key] = cd
	}
	return true
}

func (c *MemoryCache) SetUnofficialChannels(channels []ChannelCount) bool {
	return c.SetGlobalChannels(channels)
}

func (c *MemoryCache) UpdateChannel(channel Channel, data PartialChannelData) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := channel.FoldKey()
	cd, existed := c.channels[key]
	cd.Channel = channel
	changed := !existed
	if applyChannelPartialTracked(&cd, data) {
		changed = true
	}
	c.channels[key] = cd
	return changed
}

func applyChannelPartial(cd *ChannelData, data PartialChannelData) {
	applyChannelPartialTracked(cd, data)
}

func applyChannelPartialTracked(cd *ChannelData, data PartialChannelData) (changed bool) {
	if data.Mode != nil && (cd.Mode != *data.Mode) {
		cd.Mode = *data.Mode
		changed = true
	}
	if data.Title != nil && cd.Title != *data.Title {
		cd.Title = *data.Title
		changed = true
	}
	if data.Description != nil && cd.Description != *data.Description {
		cd.Description = *data.Description
		changed = true
	}
	return changed
}

func (c *MemoryCache) UpdateCharacter(character Character, data PartialUserData) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := character.FoldKey()
	cd, existed := c.characters[key]
	cd.Character = character
	changed := !existed
	if data.Gender != nil && cd.Gender != *data.Gender {
		cd.Gender = *data.Gender
		changed = true
	}
	if data.Status != nil && cd.Status != *data.Status {
		cd.Status = *data.Status
		changed = true
	}
	if data.StatusMessage != nil && cd.StatusMessage != *data.StatusMessage {
		cd.StatusMessage = *data.StatusMessage
		changed = true
	}
	c.characters[key] = cd
	return changed
}

func (c *MemoryCache) AddBookmark(character Character) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := character.FoldKey()
	if _, ok := c.bookmarks[key]; ok {
		return false
	}
	c.bookmarks[key] = character
	return true
}

func (c *MemoryCache) RemoveBookmark(character Character) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := character.FoldKey()
	if _, ok := c.bookmarks[key]; !ok {
		return false
	}
	delete(c.bookmarks, key)
	return true
}

func (c *MemoryCache) SetBookmarks(bookmarks []Character) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bookmarks = make(map[string]Character, len(bookmarks))
	for _, b := range bookmarks {
		c.bookmarks[b.FoldKey()] = b
	}
	return true
}

func (c *MemoryCache) AddGlobalOp(character Character) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := character.FoldKey()
	if _, ok := c.globalOps[key]; ok {
		return false
	}
	c.globalOps[key] = character
	return true
}

func (c *MemoryCache) RemoveGlobalOp(character Character) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := character.FoldKey()
	if _, ok := c.globalOps[key]; !ok {
		return false
	}
	delete(c.globalOps, key)
	return true
}

func (c *MemoryCache) SetGlobalOps(ops []Character) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.globalOps = make(map[string]Character, len(ops))
	for _, op := range ops {
		c.globalOps[op.FoldKey()] = op
	}
	return true
}

func (c *MemoryCache) AddChannelOp(channel Channel, character Character) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ck := channel.FoldKey()
	ops, ok := c.channelOps[ck]
	if !ok {
		ops = make(map[string]Character)
		c.channelOps[ck] = ops
	}
	if _, already := ops[character.FoldKey()]; already {
		return false
	}
	ops[character.FoldKey()] = character
	return true
}

func (c *MemoryCache) RemoveChannelOp(channel Channel, character Character) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ck := channel.FoldKey()
	ops, ok := c.channelOps[ck]
	if !ok {
		return false
	}
	if _, already := ops[character.FoldKey()]; !already {
		return false
	}
	delete(ops, character.FoldKey())
	return true
}

func (c *MemoryCache) SetChannelOps(channel Channel, ops []Character) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := make(map[string]Character, len(ops))
	for _, op := range ops {
		m[op.FoldKey()] = op
	}
	c.channelOps[channel.FoldKey()] = m
	return true
}

func (c *MemoryCache) SetFriends(friends []FriendRelation) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.friends = append([]FriendRelation(nil), friends...)
	return true
}

func (c *MemoryCache) GetChannel(channel Channel) (ChannelData, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cd, ok := c.channels[channel.FoldKey()]
	return cd, ok
}

func (c *MemoryCache) GetChannels() []ChannelData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ChannelData, 0, len(c.channels))
	for _, cd := range c.channels {
		out = append(out, cd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Channel.Less(out[j].Channel) })
	return out
}

func (c *MemoryCache) GetCharacter(character Character) (CharacterData, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cd, ok := c.characters[character.FoldKey()]
	return cd, ok
}

func (c *MemoryCache) GetCharacters() []CharacterData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]CharacterData, 0, len(c.characters))
	for _, cd := range c.characters {
		out = append(out, cd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Character.Less(out[j].Character) })
	return out
}

func (c *MemoryCache) GetMessages(source MessageChannel, since time.Time, limit int) []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	all := c.messages[source.Key()]
	var out []Message
	for _, m := range all {
		if !since.IsZero() && !m.Timestamp.After(since) {
			continue
		}
		out = append(out, m)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

func (c *MemoryCache) GetFriendRelations() []FriendRelation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]FriendRelation(nil), c.friends...)
}

func (c *MemoryCache) GetFriends() []Character {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Character, 0, len(c.friends))
	for _, f := range c.friends {
		out = append(out, f.OtherCharacter)
	}
	return out
}

func (c *MemoryCache) GetBookmarks() []Character {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Character, 0, len(c.bookmarks))
	for _, b := range c.bookmarks {
		out = append(out, b)
	}
	return out
}
