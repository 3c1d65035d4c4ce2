package fchat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/feathrs/fchat-go/fapi"
	"github.com/feathrs/fchat-go/protocol"
)

// eventChannelCapacity bounds the single channel every Session feeds (§4.3,
// §5): a full channel back-pressures every Session's read loop equally.
const eventChannelCapacity = 8

// ticketFreshWindow is how long a ticket is trusted without a forced
// refresh; the server's own upper bound is 30 minutes, but a 5-minute
// margin keeps a slow reconnect from riding a ticket past the edge.
const ticketFreshWindow = 25 * time.Minute

// apiTicket is the Client's bearer credential, refreshed out of band.
type apiTicket struct {
	value       string
	refreshedAt time.Time
}

// Client owns one account's credentials, its live Sessions, and the
// dispatch loop that fans decoded commands into Cache and EventListener
// (§4.3). Construct with New, authenticate with Init, then Connect a
// character and feed Run an event-channel-draining goroutine.
type Client struct {
	api           *fapi.API
	logger        *slog.Logger
	clientName    string
	clientVersion string
	cache         Cache
	listener      EventListener

	credMu   sync.RWMutex
	account  string
	password string
	ticket   apiTicket

	charMu           sync.RWMutex
	defaultCharacter Character
	ownCharacters    map[string]Character

	sessMu   sync.RWMutex
	sessions []*Session

	events chan SessionEvent
}

type clientConfig struct {
	api           *fapi.API
	logger        *slog.Logger
	clientName    string
	clientVersion string
	cache         Cache
}

// ClientOption configures New.
type ClientOption func(*clientConfig)

// WithAPI overrides the external ticket/friends collaborator (tests inject
// a fake here).
func WithAPI(a *fapi.API) ClientOption {
	return func(c *clientConfig) { c.api = a }
}

// WithCache overrides the default NoCache.
func WithCache(cache Cache) ClientOption {
	return func(c *clientConfig) { c.cache = cache }
}

// WithClientLogger overrides the default logger.
func WithClientLogger(l *slog.Logger) ClientOption {
	return func(c *clientConfig) { c.logger = l }
}

// WithClientIdentity sets the cname/cversion sent on every IDN.
func WithClientIdentity(name, version string) ClientOption {
	return func(c *clientConfig) { c.clientName = name; c.clientVersion = version }
}

// New constructs a Client bound to listener. Call Init before Connect.
func New(listener EventListener, opts ...ClientOption) *Client {
	cfg := clientConfig{
		clientName:    "fchat-go",
		clientVersion: "0.1",
		cache:         NoCache{},
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.api == nil {
		cfg.api = fapi.New()
	}

	return &Client{
		api:           cfg.api,
		logger:        cfg.logger,
		clientName:    cfg.clientName,
		clientVersion: cfg.clientVersion,
		cache:         cfg.cache,
		listener:      listener,
		ownCharacters: make(map[string]Character),
		events:        make(chan SessionEvent, eventChannelCapacity),
	}
}

// Init authenticates, installs the default character and own-character
// set, and seeds the cache's bookmarks and friends (§4.3). Fails with
// ErrNoDefaultCharacter if the ticket response's default character is not
// among the returned characters.
func (c *Client) Init(ctx context.Context, account, password string) error {
	resp, err := c.api.GetAPITicket(ctx, account, password, true)
	if err != nil {
		return &ClientError{Op: "init", Err: err}
	}

	defaultCharacter := NewCharacter(resp.DefaultCharacter)
	own := make(map[string]Character, len(resp.Characters))
	for name := range resp.Characters {
		ch := NewCharacter(name)
		own[ch.FoldKey()] = ch
	}
	if _, ok := own[defaultCharacter.FoldKey()]; !ok {
		return &ClientError{Op: "init", Err: ErrNoDefaultCharacter}
	}

	c.credMu.Lock()
	c.account, c.password = account, password
	c.ticket = apiTicket{value: resp.Ticket, refreshedAt: time.Now()}
	c.credMu.Unlock()

	c.charMu.Lock()
	c.defaultCharacter = defaultCharacter
	c.ownCharacters = own
	c.charMu.Unlock()

	c.cache.SetBookmarks(bookmarksToCharacters(resp.Bookmarks))
	c.cache.SetFriends(friendsToRelations(resp.Friends))

	return nil
}

// refresh unconditionally fetches a fresh ticket.
func (c *Client) refresh(ctx context.Context) error {
	c.credMu.RLock()
	account, password := c.account, c.password
	c.credMu.RUnlock()

	resp, err := c.api.GetAPITicket(ctx, account, password, false)
	if err != nil {
		return &ClientError{Op: "refresh", Err: err}
	}
	c.credMu.Lock()
	c.ticket = apiTicket{value: resp.Ticket, refreshedAt: time.Now()}
	c.credMu.Unlock()
	return nil
}

// refreshFast refreshes only if the ticket is older than ticketFreshWindow.
func (c *Client) refreshFast(ctx context.Context) error {
	c.credMu.RLock()
	age := time.Since(c.ticket.refreshedAt)
	c.credMu.RUnlock()
	if age <= ticketFreshWindow {
		return nil
	}
	return c.refresh(ctx)
}

func (c *Client) credentials() (account, ticket string) {
	c.credMu.RLock()
	defer c.credMu.RUnlock()
	return c.account, c.ticket.value
}

// DefaultCharacter returns the character the ticket response named default.
func (c *Client) DefaultCharacter() Character {
	c.charMu.RLock()
	defer c.charMu.RUnlock()
	return c.defaultCharacter
}

// OwnCharacters returns every character available to this account.
func (c *Client) OwnCharacters() []Character {
	c.charMu.RLock()
	defer c.charMu.RUnlock()
	out := make([]Character, 0, len(c.ownCharacters))
	for _, ch := range c.ownCharacters {
		out = append(out, ch)
	}
	return out
}

// Sessions returns the currently live sessions.
func (c *Client) Sessions() []*Session {
	c.sessMu.RLock()
	defer c.sessMu.RUnlock()
	return append([]*Session(nil), c.sessions...)
}

// Connect always refreshes the ticket fully, then dials a Session for
// character and registers it (§4.3).
func (c *Client) Connect(ctx context.Context, character Character) (*Session, error) {
	if err := c.refresh(ctx); err != nil {
		return nil, err
	}
	account, ticket := c.credentials()
	sess, err := ConnectSession(ctx, account, ticket, c.clientName, c.clientVersion, character, c.events, WithSessionLogger(c.logger))
	if err != nil {
		return nil, err
	}

	c.sessMu.Lock()
	c.sessions = append(c.sessions, sess)
	c.sessMu.Unlock()

	c.listener.SessionsUpdated()
	return sess, nil
}

func (c *Client) dropSession(s *Session) {
	c.sessMu.Lock()
	defer c.sessMu.Unlock()
	for i, sess := range c.sessions {
		if sess == s {
			c.sessions = append(c.sessions[:i], c.sessions[i+1:]...)
			return
		}
	}
}

func (c *Client) replaceSession(old, next *Session) {
	c.sessMu.Lock()
	defer c.sessMu.Unlock()
	for i, sess := range c.sessions {
		if sess == old {
			c.sessions[i] = next
			return
		}
	}
	c.sessions = append(c.sessions, next)
}

// Run drains the shared event channel and dispatches strictly serially
// until ctx is cancelled (§4.3, §5). Exactly one listener callback is
// active at a time.
func (c *Client) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-c.events:
			if !ok {
				return nil
			}
			c.dispatch(ctx, evt)
		}
	}
}

func (c *Client) dispatch(ctx context.Context, evt SessionEvent) {
	switch evt.Kind {
	case SessionEventCommand:
		c.listener.RawCommand(evt.Session, evt.Command)
		c.dispatchCommand(ctx, evt.Session, evt.Command)

	case SessionEventReconnect:
		c.handleReconnect(ctx, evt.Session)

	case SessionEventDisconnected:
		c.dropSession(evt.Session)
		c.listener.SessionDisconnected(evt.Session, evt.LastErr)
		c.listener.SessionsUpdated()

	case SessionEventError:
		c.listener.SessionError(evt.Session, evt.Err)
	}
}

func (c *Client) handleReconnect(ctx context.Context, s *Session) {
	if err := c.refreshFast(ctx); err != nil {
		c.listener.SessionError(s, err)
		return
	}
	account, ticket := c.credentials()
	next, err := s.Reconnect(ctx, account, ticket, c.clientName, c.clientVersion, WithSessionLogger(c.logger))
	if err != nil {
		c.listener.SessionError(s, err)
		return
	}
	c.replaceSession(s, next)
	c.listener.SessionsUpdated()
}

// syncFriendsBookmarks re-fetches bookmarks/friends and replaces the
// cache's copy atomically, notifying the listener only for what actually
// changed (§4.3 RTB friend events).
func (c *Client) syncFriendsBookmarks(ctx context.Context) error {
	account, ticket := c.credentials()
	resp, err := c.api.GetFriendsList(ctx, account, ticket)
	if err != nil {
		return &ClientError{Op: "sync_friends_bookmarks", Err: err}
	}
	if c.cache.SetBookmarks(bookmarksToCharacters(resp.Bookmarks)) {
		c.listener.UpdatedBookmarks()
	}
	if c.cache.SetFriends(friendsToRelations(resp.Friends)) {
		c.listener.UpdatedFriends()
	}
	return nil
}

// dispatchCommand is the §4.3 dispatch matrix: one case per forwarded
// ServerCommand, cache mutation first, listener notification gated on the
// mutator's return value except where the table marks the cache column "—".
func (c *Client) dispatchCommand(ctx context.Context, session *Session, cmd ServerEvent) {
	switch v := cmd.(type) {

	case *protocol.EvtGlobalOps:
		if c.cache.SetGlobalOps(mapCharacterNames(v.Ops)) {
			c.listener.UpdatedGlobalOps()
		}

	case *protocol.EvtGlobalOpped:
		if c.cache.AddGlobalOp(NewCharacter(v.Character)) {
			c.listener.UpdatedGlobalOps()
		}

	case *protocol.EvtGlobalDeopped:
		if c.cache.RemoveGlobalOp(NewCharacter(v.Character)) {
			c.listener.UpdatedGlobalOps()
		}

	case *protocol.EvtBroadcast:
		c.listener.Broadcast(NewCharacter(v.Character), v.Message)

	case *protocol.EvtChannelDescription:
		desc := v.Description
		ch := NewChannel(v.Channel)
		if c.cache.UpdateChannel(ch, PartialChannelData{Description: &desc}) {
			c.listener.UpdatedChannel(ch)
		}

	case *protocol.EvtGlobalChannels:
		c.applyChannelListing(v.Channels)
		if c.cache.SetGlobalChannels(summariesToCounts(v.Channels)) {
			c.listener.UpdatedChannelLists()
		}

	case *protocol.EvtInvited:
		title := v.Title
		name := NewChannel(v.Name)
		if c.cache.UpdateChannel(name, PartialChannelData{Title: &title}) {
			c.listener.UpdatedChannel(name)
		}
		c.listener.Invited(session, name, NewCharacter(v.Sender))

	case *protocol.EvtChannelData:
		mode := parseChannelMode(v.Mode)
		members := make([]Character, len(v.Users))
		for i, u := range v.Users {
			members[i] = NewCharacter(string(u))
		}
		ch := NewChannel(v.Channel)
		if c.cache.InsertChannel(ch, PartialChannelData{Mode: &mode}, members) {
			c.listener.UpdatedChannel(ch)
		}

	case *protocol.EvtJoinedChannel:
		title := v.Title
		ch := NewChannel(v.Channel)
		identity := NewCharacter(string(v.Character))
		titleChanged := c.cache.UpdateChannel(ch, PartialChannelData{Title: &title})
		memberChanged := c.cache.AddChannelMember(ch, identity)
		if titleChanged || memberChanged {
			c.listener.UpdatedChannel(ch)
		}
		if identity.Equal(session.Character()) {
			c.listener.UpdatedSessionChannels(session)
		}

	case *protocol.EvtLeftChannel:
		ch := NewChannel(v.Channel)
		character := NewCharacter(v.Character)
		if c.cache.RemoveChannelMember(ch, character) {
			c.listener.UpdatedChannel(ch)
		}
		if character.Equal(session.Character()) {
			c.listener.UpdatedSessionChannels(session)
		}

	case *protocol.EvtChannelOpped:
		ch := NewChannel(v.Channel)
		if c.cache.AddChannelOp(ch, NewCharacter(v.Character)) {
			c.listener.UpdatedChannel(ch)
		}

	case *protocol.EvtChannelDeopped:
		ch := NewChannel(v.Channel)
		if c.cache.RemoveChannelOp(ch, NewCharacter(v.Character)) {
			c.listener.UpdatedChannel(ch)
		}

	case *protocol.EvtChannelOpList:
		ch := NewChannel(v.Channel)
		if c.cache.SetChannelOps(ch, mapCharacterNames(v.OpList)) {
			c.listener.UpdatedChannel(ch)
		}

	case *protocol.EvtChannelMode:
		mode := parseChannelMode(v.Mode)
		ch := NewChannel(v.Channel)
		if c.cache.UpdateChannel(ch, PartialChannelData{Mode: &mode}) {
			c.listener.UpdatedChannel(ch)
		}

	case *protocol.EvtConnected:
		c.listener.Ready(session)

	case *protocol.EvtOffline:
		status := StatusOffline
		character := NewCharacter(v.Character)
		if c.cache.UpdateCharacter(character, PartialUserData{Status: &status}) {
			c.listener.UpdatedCharacter(character)
		}

	case *protocol.EvtListOnline:
		for _, entry := range v.Characters {
			character := NewCharacter(entry[0])
			gender := parseGender(entry[1])
			status := parseStatus(entry[2])
			msg := entry[3]
			if c.cache.UpdateCharacter(character, PartialUserData{Gender: &gender, Status: &status, StatusMessage: &msg}) {
				c.listener.UpdatedCharacter(character)
			}
		}

	case *protocol.EvtNewConnection:
		character := NewCharacter(v.Identity)
		status := parseStatus(v.Status)
		gender := parseGender(v.Gender)
		if c.cache.UpdateCharacter(character, PartialUserData{Status: &status, Gender: &gender}) {
			c.listener.UpdatedCharacter(character)
		}

	case *protocol.EvtStatus:
		character := NewCharacter(v.Character)
		status := parseStatus(v.Status)
		msg := v.StatusMsg
		if c.cache.UpdateCharacter(character, PartialUserData{Status: &status, StatusMessage: &msg}) {
			c.listener.UpdatedCharacter(character)
		}

	case *protocol.EvtPrivateMessage:
		source := NewCharacter(v.Character)
		target := NewPrivateMessageTarget(session.Character(), source)
		content := NewTextContent(v.Message)
		msg := Message{Timestamp: time.Now().UTC().Truncate(time.Second), Author: source, Content: content}
		if c.cache.InsertMessage(target, msg) {
			c.listener.Message(session, source, target, content)
		}

	case *protocol.EvtMessage:
		source := NewCharacter(v.Character)
		target := NewChannelTarget(NewChannel(v.Channel))
		content := NewTextContent(v.Message)
		msg := Message{Timestamp: time.Now().UTC().Truncate(time.Second), Author: source, Content: content}
		if c.cache.InsertMessage(target, msg) {
			c.listener.Message(session, source, target, content)
		}

	case *protocol.EvtAd:
		ch := NewChannel(v.Channel)
		character := NewCharacter(v.Character)
		if c.cache.InsertAd(ch, character, v.Message) {
			c.listener.Ad(ch, character, v.Message)
		}

	case *protocol.EvtRoll:
		character := NewCharacter(v.Character)
		content := NewRollContent(v.Rolls, v.Results, v.EndResult)
		var target MessageChannel
		if v.Recipient != "" {
			target = NewPrivateMessageTarget(session.Character(), NewCharacter(v.Recipient))
		} else {
			target = NewChannelTarget(NewChannel(v.Channel))
		}
		msg := Message{Timestamp: time.Now().UTC().Truncate(time.Second), Author: character, Content: content}
		if c.cache.InsertMessage(target, msg) {
			c.listener.Message(session, character, target, content)
		}

	case *protocol.EvtSystemMessage:
		c.listener.SystemMessage(session, NewChannel(v.Channel), v.Message)

	case *protocol.EvtTyping:
		c.listener.Typing(session, NewCharacter(v.Character), parseTypingStatus(v.Status))

	case *protocol.EvtError:
		c.listener.Error(session, protocol.FromCode(v.Number), v.Message)

	case *protocol.EvtBridgeEvent:
		c.handleBridgeEvent(ctx, session, v)

	case *protocol.EvtChannelList:
		c.applyChannelListing(v.Channels)
		if c.cache.SetUnofficialChannels(summariesToCounts(v.Channels)) {
			c.listener.UpdatedChannelLists()
		}

	case *protocol.EvtProfileData, *protocol.EvtKinkData, *protocol.EvtUptime, *protocol.EvtSearchResult:
		c.logger.Debug("no core handling for informational command", "type", fmt.Sprintf("%T", v))

	case *protocol.EvtChannelBanned, *protocol.EvtChannelKicked, *protocol.EvtChannelTimedOut, *protocol.EvtReport:
		c.logger.Debug("moderation command reserved, no core handling", "type", fmt.Sprintf("%T", v))

	default:
		c.logger.Debug("unhandled server command", "type", fmt.Sprintf("%T", v))
	}
}

func (c *Client) handleBridgeEvent(ctx context.Context, session *Session, v *protocol.EvtBridgeEvent) {
	character := NewCharacter(v.Character)
	switch v.Type {
	case "bookmarkadd":
		if c.cache.AddBookmark(character) {
			c.listener.UpdatedBookmarks()
		}
	case "bookmarkremove":
		if c.cache.RemoveBookmark(character) {
			c.listener.UpdatedBookmarks()
		}
	case "friendadd", "friendremove":
		if err := c.syncFriendsBookmarks(ctx); err != nil {
			c.listener.SessionError(session, err)
		}
	case "friendrequest":
		c.logger.Info("friend request bridge event", "character", character.String())
	default:
		c.logger.Debug("unrecognized bridge event", "type", v.Type, "character", character.String())
	}
}

// applyChannelListing handles the CHA/ORS shared shape: per-entry
// update_channel, gated per-entry notification.
func (c *Client) applyChannelListing(entries []protocol.ChannelSummary) {
	for _, entry := range entries {
		title := entry.Title
		if title == "" {
			title = entry.Name
		}
		ch := NewChannel(entry.Name)
		if c.cache.UpdateChannel(ch, PartialChannelData{Title: &title}) {
			c.listener.UpdatedChannel(ch)
		}
	}
}

func summariesToCounts(entries []protocol.ChannelSummary) []ChannelCount {
	out := make([]ChannelCount, len(entries))
	for i, entry := range entries {
		out[i] = ChannelCount{Channel: NewChannel(entry.Name), Count: entry.Characters}
	}
	return out
}

func mapCharacterNames(names []string) []Character {
	out := make([]Character, len(names))
	for i, n := range names {
		out[i] = NewCharacter(n)
	}
	return out
}

func bookmarksToCharacters(bookmarks []fapi.Bookmark) []Character {
	out := make([]Character, len(bookmarks))
	for i, b := range bookmarks {
		out[i] = NewCharacter(b.Name)
	}
	return out
}

func friendsToRelations(friends []fapi.Friend) []FriendRelation {
	out := make([]FriendRelation, len(friends))
	for i, f := range friends {
		out[i] = FriendRelation{OwnCharacter: NewCharacter(f.Dest), OtherCharacter: NewCharacter(f.Source)}
	}
	return out
}

func parseGender(wire string) Gender {
	var g Gender
	if err := g.UnmarshalJSON([]byte(`"` + wire + `"`)); err != nil {
		return GenderNone
	}
	return g
}

func parseStatus(wire string) Status {
	var s Status
	if err := s.UnmarshalJSON([]byte(`"` + wire + `"`)); err != nil {
		return StatusOnline
	}
	return s
}

func parseChannelMode(wire string) ChannelMode {
	var m ChannelMode
	if err := m.UnmarshalJSON([]byte(`"` + wire + `"`)); err != nil {
		return ChannelModeBoth
	}
	return m
}
