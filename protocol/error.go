package protocol

import "fmt"

// ErrorCode is a numeric F-Chat protocol error, delivered on an ERR frame.
// The codec does not interpret it; Session classifies it via IsFatal when
// deciding whether an ungraceful close is terminal or reconnectable.
type ErrorCode int32

const (
	SyntaxError             ErrorCode = 1
	FullServer              ErrorCode = 2
	Unauthenticated         ErrorCode = 3
	AuthenticationFailed    ErrorCode = 4
	MessageCooldown         ErrorCode = 5
	NoSuchCharacter         ErrorCode = 6
	ProfileCooldown         ErrorCode = 7
	UnknownCommand          ErrorCode = 8
	Banned                  ErrorCode = 9
	AdminRequired           ErrorCode = 10
	AlreadyIdentified       ErrorCode = 11
	KinkCooldown            ErrorCode = 13
	MessageTooLong          ErrorCode = 15
	AlreadyModerator        ErrorCode = 16
	NotAModerator           ErrorCode = 17
	NoResults               ErrorCode = 18
	ModeratorRequired       ErrorCode = 19
	Ignored                 ErrorCode = 20
	InvalidTarget           ErrorCode = 21
	NoSuchChannel           ErrorCode = 26
	AlreadyInChannel        ErrorCode = 28
	TooManySessions         ErrorCode = 30
	AnotherConnection       ErrorCode = 31
	AlreadyBanned           ErrorCode = 32
	InvalidAuthentication   ErrorCode = 33
	RollError               ErrorCode = 36
	InvalidTimeoutDuration  ErrorCode = 38
	TimeOut                 ErrorCode = 39
	Kick                    ErrorCode = 40
	AlreadyChannelBanned    ErrorCode = 41
	NotChannelBanned        ErrorCode = 42
	ChannelInviteRequired   ErrorCode = 44
	ChannelJoinRequired     ErrorCode = 45
	ChannelInviteForbidden  ErrorCode = 47
	ChannelBanned           ErrorCode = 48
	CharacterNotInChannel   ErrorCode = 49
	SearchCooldown          ErrorCode = 50
	ReportCooldown          ErrorCode = 54
	AdCooldown              ErrorCode = 56
	MessageOnly             ErrorCode = 59
	AdsOnly                 ErrorCode = 60
	TooManySearchTerms      ErrorCode = 61
	NoFreeSlots             ErrorCode = 62
	IgnoreListTooLong       ErrorCode = 64
	ChannelTitleTooLong     ErrorCode = 67
	TooManySearchResults    ErrorCode = 72

	// Synthetic codes: never sent by the server. Session seeds its lastErr
	// with Other before any ERR has arrived; the others are part of the
	// taxonomy but nothing in this module assigns them.
	InternalError ErrorCode = -1
	CommandError  ErrorCode = -2
	Unimplemented ErrorCode = -3
	LoginTimeOut  ErrorCode = -4
	UnknownError  ErrorCode = -5
	FrontpageDice ErrorCode = -10
	Other         ErrorCode = -100
)

var errorNames = map[ErrorCode]string{
	SyntaxError:            "SyntaxError",
	FullServer:             "FullServer",
	Unauthenticated:        "Unauthenticated",
	AuthenticationFailed:   "AuthenticationFailed",
	MessageCooldown:        "MessageCooldown",
	NoSuchCharacter:        "NoSuchCharacter",
	ProfileCooldown:        "ProfileCooldown",
	UnknownCommand:         "UnknownCommand",
	Banned:                 "Banned",
	AdminRequired:          "AdminRequired",
	AlreadyIdentified:      "AlreadyIdentified",
	KinkCooldown:           "KinkCooldown",
	MessageTooLong:         "MessageTooLong",
	AlreadyModerator:       "AlreadyModerator",
	NotAModerator:          "NotAModerator",
	NoResults:              "NoResults",
	ModeratorRequired:      "ModeratorRequired",
	Ignored:                "Ignored",
	InvalidTarget:          "InvalidTarget",
	NoSuchChannel:          "NoSuchChannel",
	AlreadyInChannel:       "AlreadyInChannel",
	TooManySessions:        "TooManySessions",
	AnotherConnection:      "AnotherConnection",
	AlreadyBanned:          "AlreadyBanned",
	InvalidAuthentication:  "InvalidAuthentication",
	RollError:              "RollError",
	InvalidTimeoutDuration: "InvalidTimeoutDuration",
	TimeOut:                "TimeOut",
	Kick:                   "Kick",
	AlreadyChannelBanned:   "AlreadyChannelBanned",
	NotChannelBanned:       "NotChannelBanned",
	ChannelInviteRequired:  "ChannelInviteRequired",
	ChannelJoinRequired:    "ChannelJoinRequired",
	ChannelInviteForbidden: "ChannelInviteForbidden",
	ChannelBanned:          "ChannelBanned",
	CharacterNotInChannel:  "CharacterNotInChannel",
	SearchCooldown:         "SearchCooldown",
	ReportCooldown:         "ReportCooldown",
	AdCooldown:             "AdCooldown",
	MessageOnly:            "MessageOnly",
	AdsOnly:                "AdsOnly",
	TooManySearchTerms:     "TooManySearchTerms",
	NoFreeSlots:            "NoFreeSlots",
	IgnoreListTooLong:      "IgnoreListTooLong",
	ChannelTitleTooLong:    "ChannelTitleTooLong",
	TooManySearchResults:   "TooManySearchResults",
	InternalError:          "InternalError",
	CommandError:           "CommandError",
	Unimplemented:          "Unimplemented",
	LoginTimeOut:           "LoginTimeOut",
	UnknownError:           "UnknownError",
	FrontpageDice:          "FrontpageDice",
	Other:                  "Other",
}

func (e ErrorCode) String() string {
	if name, ok := errorNames[e]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", int32(e))
}

// fatalCodes are the codes that, if the last ERR seen before an ungraceful
// close, prohibit automatic reconnection (§7).
var fatalCodes = map[ErrorCode]bool{
	FullServer:        true,
	Banned:            true,
	TooManySessions:   true,
	AnotherConnection: true,
	InvalidAuthentication: true,
	TimeOut:           true,
	Kick:              true,
	InternalError:     true,
}

// IsFatal reports whether e should block automatic reconnection.
func (e ErrorCode) IsFatal() bool { return fatalCodes[e] }

// HasMessage reports whether e carries a meaningful free-text message
// beyond its code (the spec singles these two out, though the codec
// always surfaces whatever message the server sent regardless).
func (e ErrorCode) HasMessage() bool { return e == Ignored || e == TimeOut }

// FromCode maps a raw wire integer to an ErrorCode, preserving unknown codes
// numerically rather than collapsing them (so callers can still log/compare
// the raw value even when it falls outside the known taxonomy).
func FromCode(n int32) ErrorCode { return ErrorCode(n) }
