package fchat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/feathrs/fchat-go/protocol"
)

// Variables is the burst of server-declared per-connection limits and
// cooldowns delivered as VAR frames right after identify (§3, §4.2).
// Modeled as session-scoped per the spec's own resolution of an otherwise
// ambivalent source (§9 Open Questions).
type Variables struct {
	ChatMax       uint32
	PrivMax       uint32
	AdMax         uint32
	CdsMax        uint32
	AdCooldown    float32
	ChatCooldown  float32
	StatusCooldown float32
	Permissions   string
	IconBlacklist []Channel
}

func (v *Variables) apply(raw protocol.Variable) {
	switch raw.Kind {
	case protocol.VariableChatMax:
		v.ChatMax = raw.ChatMax
	case protocol.VariablePrivMax:
		v.PrivMax = raw.PrivMax
	case protocol.VariableAdMax:
		v.AdMax = raw.AdMax
	case protocol.VariableCdsMax:
		v.CdsMax = raw.CdsMax
	case protocol.VariableLfrpFlood:
		v.AdCooldown = raw.LfrpFlood
	case protocol.VariableMsgFlood:
		v.ChatCooldown = raw.MsgFlood
	case protocol.VariableStaFlood:
		v.StatusCooldown = raw.StaFlood
	case protocol.VariablePermissions:
		v.Permissions = raw.Permissions
	case protocol.VariableIconBlacklist:
		chans := make([]Channel, len(raw.IconBlacklist))
		for i, c := range raw.IconBlacklist {
			chans[i] = NewChannel(c)
		}
		v.IconBlacklist = chans
	}
}

// SessionEventKind discriminates SessionEvent; exactly one of SessionEvent's
// payload fields is meaningful per kind.
type SessionEventKind int

const (
	SessionEventCommand SessionEventKind = iota
	SessionEventReconnect
	SessionEventDisconnected
	SessionEventError
)

// SessionEvent is what a Session pushes onto the Client's single shared
// event channel (§4.3).
type SessionEvent struct {
	Session *Session
	Kind    SessionEventKind

	Command ServerEvent                 // SessionEventCommand
	LastErr protocol.ErrorCode          // SessionEventDisconnected
	Err     error                       // SessionEventError, SessionEventDisconnected
}

// ServerEvent is an alias of protocol.ServerCommand, so the package's own
// signatures can name a decoded server command without spelling out the
// protocol package at every call site.
type ServerEvent = protocol.ServerCommand

// Session is one authenticated websocket connection bound to exactly one
// Character (§3, §4.2). Reads happen on a dedicated goroutine; writes are
// serialized through writeMu, held only across the write itself.
type Session struct {
	character Character
	conn      Connection
	logger    *slog.Logger
	events    chan<- SessionEvent

	writeMu sync.Mutex

	mu              sync.RWMutex
	channels        map[string]Channel
	channelOrder    []string
	privateMessages map[string]TypingStatus

	variables Variables
	lastErr   atomic.Int32

	closeOnce sync.Once
	done      chan struct{}
}

type sessionConfig struct {
	logger *slog.Logger
}

// SessionOption configures ConnectSession / Session.reconnect.
type SessionOption func(*sessionConfig)

// WithSessionLogger overrides the default logger.
func WithSessionLogger(l *slog.Logger) SessionOption {
	return func(c *sessionConfig) { c.logger = l }
}

// Character returns the identity this Session is bound to.
func (s *Session) Character() Character { return s.character }

// Channels returns the channels currently joined by this session's
// character, in join order.
func (s *Session) Channels() []Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Channel, 0, len(s.channelOrder))
	for _, key := range s.channelOrder {
		out = append(out, s.channels[key])
	}
	return out
}

// Variables returns the negotiated per-connection limits for this session.
func (s *Session) Variables() Variables {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.variables
}

// LastError returns the most recently observed ERR code, used to classify
// an ungraceful close as fatal or reconnectable.
func (s *Session) LastError() protocol.ErrorCode {
	return protocol.ErrorCode(s.lastErr.Load())
}

// ConnectSession performs the full handshake: dial, IDN, drain VAR frames
// until the first non-VAR arrives, then start the read loop (§4.2).
func ConnectSession(ctx context.Context, account, ticket, clientName, clientVersion string, character Character, events chan<- SessionEvent, opts ...SessionOption) (*Session, error) {
	conn, err := dialChat(ctx)
	if err != nil {
		return nil, fmt.Errorf("fchat: connect session: %w", err)
	}
	return connectSession(ctx, conn, account, ticket, clientName, clientVersion, character, events, opts...)
}

// connectSession is ConnectSession's handshake logic over an already-dialed
// Connection, split out so tests can script the handshake without a real
// socket.
func connectSession(ctx context.Context, conn Connection, account, ticket, clientName, clientVersion string, character Character, events chan<- SessionEvent, opts ...SessionOption) (*Session, error) {
	cfg := sessionConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := writeFrame(ctx, conn, protocol.CmdIdentify{
		Method:        "ticket",
		Account:       account,
		Ticket:        ticket,
		Character:     character.String(),
		ClientName:    clientName,
		ClientVersion: clientVersion,
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("fchat: send identify: %w", err)
	}

	frame, err := conn.Read(ctx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("fchat: await identify response: %w", err)
	}
	cmd, err := protocol.Decode(frame)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("fchat: decode identify response: %w", err)
	}
	idn, ok := cmd.(*protocol.EvtIdentifySuccess)
	if !ok {
		conn.Close()
		return nil, &UnexpectedProtocolMessageError{Frame: frame}
	}
	if idn.Character != character.String() {
		conn.Close()
		return nil, &UnexpectedProtocolMessageError{Frame: frame}
	}

	variables, next, err := readVariables(ctx, conn, cfg.logger)
	if err != nil {
		conn.Close()
		return nil, err
	}

	s := &Session{
		character:       character,
		conn:            conn,
		logger:          cfg.logger,
		events:          events,
		channels:        make(map[string]Channel),
		privateMessages: make(map[string]TypingStatus),
		variables:       variables,
		done:            make(chan struct{}),
	}
	s.lastErr.Store(int32(protocol.Other))

	go s.readLoop(next)

	return s, nil
}

// writeFrame encodes and writes a single ClientCommand frame.
func writeFrame(ctx context.Context, conn Connection, cmd protocol.ClientCommand) error {
	frame, err := protocol.Encode(cmd)
	if err != nil {
		return err
	}
	return conn.Write(ctx, frame)
}

// readVariables accumulates VAR frames into Variables until the first
// non-VAR frame, which is returned unconsumed for the caller to deliver.
// A variable name it does not recognize is logged and otherwise ignored.
func readVariables(ctx context.Context, conn Connection, logger *slog.Logger) (Variables, protocol.ServerCommand, error) {
	var vars Variables
	for {
		frame, err := conn.Read(ctx)
		if err != nil {
			return Variables{}, nil, fmt.Errorf("%w: %v", ErrMiscConnectionFailure, err)
		}
		cmd, err := protocol.Decode(frame)
		if err != nil {
			return Variables{}, nil, fmt.Errorf("fchat: decode during var negotiation: %w", err)
		}
		raw, ok := cmd.(*protocol.EvtVariable)
		if !ok {
			return vars, cmd, nil
		}
		resolved, err := protocol.ParseVariable(*raw)
		if err != nil {
			return Variables{}, nil, fmt.Errorf("fchat: parse variable: %w", err)
		}
		if resolved.Kind == protocol.VariableUnknown {
			logger.Debug("unrecognized server variable", "variable", resolved.RawName, "value", string(resolved.RawValue))
		}
		vars.apply(resolved)
	}
}

// send serializes command and writes it, holding writeMu only across the
// write (§5 shared-resource policy).
func (s *Session) send(ctx context.Context, cmd protocol.ClientCommand) error {
	frame, err := protocol.Encode(cmd)
	if err != nil {
		return fmt.Errorf("fchat: encode %T: %w", cmd, err)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.Write(ctx, frame)
}

// MessageTarget selects where SendMessage/SendDice deliver to.
type MessageTarget struct {
	broadcast bool
	channel   Channel
	recipient Character
	isPM      bool
}

// Broadcast targets every connected character (admin-only on the server).
func Broadcast() MessageTarget { return MessageTarget{broadcast: true} }

// ToChannel targets a channel.
func ToChannel(c Channel) MessageTarget { return MessageTarget{channel: c} }

// ToCharacter targets a private-message peer.
func ToCharacter(c Character) MessageTarget { return MessageTarget{recipient: c, isPM: true} }

// SendMessage sends text to target: Broadcast→BRO, channel→MSG,
// character→PRI followed by a best-effort Typing{Clear} (§4.2).
func (s *Session) SendMessage(ctx context.Context, target MessageTarget, text string) error {
	switch {
	case target.broadcast:
		return s.send(ctx, protocol.CmdBroadcastSend{Message: text})
	case target.isPM:
		err := s.send(ctx, protocol.CmdPrivateMessage{Recipient: target.recipient.String(), Message: text})
		go func() {
			_ = s.send(context.Background(), protocol.CmdTyping{
				Character: target.recipient.String(),
				Status:    TypingClear.String(),
			})
		}()
		return err
	default:
		return s.send(ctx, protocol.CmdMessage{Channel: target.channel.String(), Message: text})
	}
}

// SendDice sends a /roll. Broadcasting dice is a caller error, since the
// server has no such concept.
func (s *Session) SendDice(ctx context.Context, target MessageTarget, dice string) error {
	switch {
	case target.broadcast:
		return fmt.Errorf("fchat: cannot broadcast dice")
	case target.isPM:
		return s.send(ctx, protocol.CmdRoll{Recipient: target.recipient.String(), Dice: dice})
	default:
		return s.send(ctx, protocol.CmdRoll{Channel: target.channel.String(), Dice: dice})
	}
}

// JoinChannel requests to join channel.
func (s *Session) JoinChannel(ctx context.Context, channel Channel) error {
	return s.send(ctx, protocol.CmdJoinChannel{Channel: channel.String()})
}

// LeaveChannel requests to leave channel.
func (s *Session) LeaveChannel(ctx context.Context, channel Channel) error {
	return s.send(ctx, protocol.CmdLeaveChannel{Channel: channel.String()})
}

// Close tears down the transport. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return s.conn.Close()
}

func (s *Session) emit(evt SessionEvent) {
	evt.Session = s
	select {
	case s.events <- evt:
	case <-s.done:
	}
}

// readLoop handles first (the unconsumed post-VAR frame) first, then loops
// reading frames until the transport ends. At most one event is emitted per
// wire frame (suppressed and unparseable frames emit none), and events from
// this Session are always in wire order (§5 ordering guarantees).
func (s *Session) readLoop(first protocol.ServerCommand) {
	if forward, handled := s.handle(first); !handled {
		s.emit(SessionEvent{Kind: SessionEventError, Err: &SessionError{Op: "handshake", Err: lateCommandError(first)}})
	} else if forward {
		s.emit(SessionEvent{Kind: SessionEventCommand, Command: first})
	}

	for {
		frame, err := s.conn.Read(context.Background())
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			last := protocol.ErrorCode(s.lastErr.Load())
			if last.IsFatal() {
				s.emit(SessionEvent{Kind: SessionEventDisconnected, LastErr: last, Err: fmt.Errorf("%w: last server error %s", ErrDisconnected, last)})
			} else {
				s.emit(SessionEvent{Kind: SessionEventReconnect})
			}
			return
		}

		cmd, err := protocol.Decode(frame)
		if err != nil {
			s.logger.Debug("skipping unparseable frame", "err", err, "frame", frame)
			continue
		}

		forward, handled := s.handle(cmd)
		if !handled {
			s.emit(SessionEvent{Kind: SessionEventError, Err: &SessionError{Op: "handle", Err: lateCommandError(cmd)}})
			continue
		}
		if forward {
			s.emit(SessionEvent{Kind: SessionEventCommand, Command: cmd})
		}
	}
}

// lateCommandError classifies handle()'s two ordering-violation commands
// (§7), wrapping the matching sentinel so callers can errors.Is against it.
func lateCommandError(cmd protocol.ServerCommand) error {
	switch cmd.(type) {
	case *protocol.EvtIdentifySuccess:
		return fmt.Errorf("%w: %T", ErrLateIdentifyCommand, cmd)
	case *protocol.EvtVariable:
		return fmt.Errorf("%w: %T", ErrLateVarCommand, cmd)
	default:
		return fmt.Errorf("fchat: unexpected %T", cmd)
	}
}

// handle applies in-session side effects and decides whether cmd should be
// forwarded to the Client. The second return is false only for the two
// ordering-violation cases, which the caller turns into a SessionEventError.
func (s *Session) handle(cmd protocol.ServerCommand) (forward bool, handled bool) {
	switch v := cmd.(type) {
	case *protocol.EvtPing:
		_ = s.send(context.Background(), protocol.CmdPong{})
		return false, true

	case *protocol.EvtHello:
		return false, true

	case *protocol.EvtConnected:
		return true, true

	case *protocol.EvtError:
		s.lastErr.Store(v.Number)
		return true, true

	case *protocol.EvtJoinedChannel:
		if NewCharacter(string(v.Character)).Equal(s.character) {
			s.addChannel(NewChannel(v.Channel))
		}
		return true, true

	case *protocol.EvtLeftChannel:
		if NewCharacter(v.Character).Equal(s.character) {
			s.removeChannel(NewChannel(v.Channel))
		}
		return true, true

	case *protocol.EvtTyping:
		changed := s.upsertTyping(NewCharacter(v.Character), parseTypingStatus(v.Status))
		return changed, true

	case *protocol.EvtIdentifySuccess:
		return false, false

	case *protocol.EvtVariable:
		return false, false

	default:
		return true, true
	}
}

func (s *Session) addChannel(c Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := c.FoldKey()
	if _, ok := s.channels[key]; !ok {
		s.channels[key] = c
		s.channelOrder = append(s.channelOrder, key)
	}
}

func (s *Session) removeChannel(c Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := c.FoldKey()
	if _, ok := s.channels[key]; !ok {
		return
	}
	delete(s.channels, key)
	for i, k := range s.channelOrder {
		if k == key {
			s.channelOrder = append(s.channelOrder[:i], s.channelOrder[i+1:]...)
			break
		}
	}
}

func (s *Session) upsertTyping(c Character, status TypingStatus) (changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := c.FoldKey()
	old, existed := s.privateMessages[key]
	s.privateMessages[key] = status
	if !existed {
		return true
	}
	return old != status
}

func parseTypingStatus(wire string) TypingStatus {
	var t TypingStatus
	if err := t.UnmarshalJSON([]byte(`"` + wire + `"`)); err != nil {
		return TypingClear
	}
	return t
}

// Reconnect dials a fresh Session bound to the same character, then
// re-joins every channel the old session had, in insertion order, before
// handing control back (§4.2 S5). The receiver is left terminal: callers
// must stop using it.
func (s *Session) Reconnect(ctx context.Context, account, ticket, clientName, clientVersion string, opts ...SessionOption) (*Session, error) {
	conn, err := dialChat(ctx)
	if err != nil {
		return nil, fmt.Errorf("fchat: reconnect: %w", err)
	}
	return s.reconnect(ctx, conn, account, ticket, clientName, clientVersion, opts...)
}

// reconnect is Reconnect's logic over an already-dialed Connection, split
// out so tests can script the handshake without a real socket.
func (s *Session) reconnect(ctx context.Context, conn Connection, account, ticket, clientName, clientVersion string, opts ...SessionOption) (*Session, error) {
	next, err := connectSession(ctx, conn, account, ticket, clientName, clientVersion, s.character, s.events, opts...)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	order := append([]string(nil), s.channelOrder...)
	byKey := make(map[string]Channel, len(s.channels))
	for k, v := range s.channels {
		byKey[k] = v
	}
	s.mu.RUnlock()

	for _, key := range order {
		if err := next.JoinChannel(ctx, byKey[key]); err != nil {
			s.logger.Warn("rejoin failed during reconnect", "channel", byKey[key], "err", err)
		}
	}

	return next, nil
}
