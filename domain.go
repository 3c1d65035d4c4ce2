// Package fchat implements the F-Chat client core: the wire protocol codec,
// the per-character Session state machine, and the Client aggregator that
// fans server events into a pluggable cache and event listener.
package fchat

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// maxCharacterBytes and maxChannelBytes record the identity-string bounds of
// the wire contract. Channel names (official, "Fandom"-style) can run longer
// than unofficial ADH- ids, so the channel bound is the generous one. Nothing
// in this package validates lengths against them: NewCharacter and
// NewChannel accept any string and the server is the final arbiter.
const (
	maxCharacterBytes = 20
	maxChannelBytes   = 64
)

// Character is an F-Chat character identity. Equality and ordering are
// case-insensitive; display preserves the case the server sent. Never
// compare two Characters with ==; use Equal or the fold key as a map key.
type Character struct {
	name string
}

// NewCharacter wraps a raw identity string.
func NewCharacter(name string) Character { return Character{name: name} }

// String returns the case-preserving display form.
func (c Character) String() string { return c.name }

// IsZero reports whether c was never assigned an identity.
func (c Character) IsZero() bool { return c.name == "" }

// FoldKey is the lowercased form used for map keys, set membership, and
// hashing. Two Characters with the same FoldKey are the same identity.
func (c Character) FoldKey() string { return strings.ToLower(c.name) }

// Equal reports case-insensitive identity equality.
func (c Character) Equal(other Character) bool { return c.FoldKey() == other.FoldKey() }

// Less orders Characters lexicographically by fold key.
func (c Character) Less(other Character) bool { return c.FoldKey() < other.FoldKey() }

func (c Character) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.name)
}

func (c *Character) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("character: %w", err)
	}
	c.name = s
	return nil
}

// Channel is an F-Chat chatroom identity: either an official ("Fandom")
// name or an unofficial id prefixed ADH-. Both shapes are one type here;
// callers that need to distinguish them check IsUnofficial.
type Channel struct {
	name string
}

// NewChannel wraps a raw channel identity string.
func NewChannel(name string) Channel { return Channel{name: name} }

func (c Channel) String() string { return c.name }

func (c Channel) IsZero() bool { return c.name == "" }

// IsUnofficial reports whether this is an ADH- prefixed unofficial channel id.
func (c Channel) IsUnofficial() bool { return strings.HasPrefix(c.name, "ADH-") }

func (c Channel) FoldKey() string { return strings.ToLower(c.name) }

func (c Channel) Equal(other Channel) bool { return c.FoldKey() == other.FoldKey() }

func (c Channel) Less(other Channel) bool { return c.FoldKey() < other.FoldKey() }

func (c Channel) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.name)
}

func (c *Channel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("channel: %w", err)
	}
	c.name = s
	return nil
}

// Gender is a character's declared gender.
type Gender int

const (
	GenderMale Gender = iota
	GenderFemale
	GenderTransgender
	GenderHerm
	GenderShemale
	GenderMaleHerm
	GenderCBoy
	GenderNone
)

var genderNames = map[Gender]string{
	GenderMale:        "Male",
	GenderFemale:      "Female",
	GenderTransgender: "Transgender",
	GenderHerm:        "Herm",
	GenderShemale:     "Shemale",
	GenderMaleHerm:    "Male-Herm",
	GenderCBoy:        "Cunt-boy",
	GenderNone:        "None",
}

func (g Gender) String() string {
	if name, ok := genderNames[g]; ok {
		return name
	}
	return fmt.Sprintf("Gender(%d)", int(g))
}

var genderWire = reverseMap(genderNames)

func (g Gender) MarshalJSON() ([]byte, error) { return json.Marshal(g.String()) }

func (g *Gender) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("gender: %w", err)
	}
	v, ok := genderWire[s]
	if !ok {
		return fmt.Errorf("gender: unknown wire value %q", s)
	}
	*g = v
	return nil
}

// Status is a character's chat presence. Offline is synthetic: the server
// signals it via a dedicated FLN command rather than as a status value.
type Status int

const (
	StatusOnline Status = iota
	StatusLooking
	StatusBusy
	StatusDND
	StatusIdle
	StatusAway
	StatusCrown
	StatusOffline
)

var statusNames = map[Status]string{
	StatusOnline:  "online",
	StatusLooking: "looking",
	StatusBusy:    "busy",
	StatusDND:     "dnd",
	StatusIdle:    "idle",
	StatusAway:    "away",
	StatusCrown:   "crown",
	StatusOffline: "offline",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

var statusWire = reverseMap(statusNames)

func (s Status) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

func (s *Status) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("status: %w", err)
	}
	v, ok := statusWire[str]
	if !ok {
		return fmt.Errorf("status: unknown wire value %q", str)
	}
	*s = v
	return nil
}

// ChannelMode controls what a channel accepts.
type ChannelMode int

const (
	ChannelModeChatOnly ChannelMode = iota
	ChannelModeAdsOnly
	ChannelModeBoth
)

var channelModeNames = map[ChannelMode]string{
	ChannelModeChatOnly: "chat",
	ChannelModeAdsOnly:  "ads",
	ChannelModeBoth:     "both",
}

func (m ChannelMode) String() string {
	if name, ok := channelModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("ChannelMode(%d)", int(m))
}

var channelModeWire = reverseMap(channelModeNames)

func (m ChannelMode) MarshalJSON() ([]byte, error) { return json.Marshal(m.String()) }

func (m *ChannelMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("channel mode: %w", err)
	}
	v, ok := channelModeWire[s]
	if !ok {
		return fmt.Errorf("channel mode: unknown wire value %q", s)
	}
	*m = v
	return nil
}

// TypingStatus is a PM thread's typing indicator.
type TypingStatus int

const (
	TypingClear TypingStatus = iota
	TypingPaused
	TypingTyping
)

var typingStatusNames = map[TypingStatus]string{
	TypingClear:  "clear",
	TypingPaused: "paused",
	TypingTyping: "typing",
}

func (t TypingStatus) String() string {
	if name, ok := typingStatusNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TypingStatus(%d)", int(t))
}

var typingStatusWire = reverseMap(typingStatusNames)

func (t TypingStatus) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }

func (t *TypingStatus) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("typing status: %w", err)
	}
	v, ok := typingStatusWire[s]
	if !ok {
		return fmt.Errorf("typing status: unknown wire value %q", s)
	}
	*t = v
	return nil
}

// IgnoreAction is the action carried by an IGN client/server command.
type IgnoreAction int

const (
	IgnoreActionAdd IgnoreAction = iota
	IgnoreActionDelete
	IgnoreActionNotify
	IgnoreActionList
	IgnoreActionInit
)

var ignoreActionNames = map[IgnoreAction]string{
	IgnoreActionAdd:    "add",
	IgnoreActionDelete: "delete",
	IgnoreActionNotify: "notify",
	IgnoreActionList:   "list",
	IgnoreActionInit:   "init",
}

func (a IgnoreAction) String() string {
	if name, ok := ignoreActionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("IgnoreAction(%d)", int(a))
}

var ignoreActionWire = reverseMap(ignoreActionNames)

func (a IgnoreAction) MarshalJSON() ([]byte, error) { return json.Marshal(a.String()) }

func (a *IgnoreAction) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("ignore action: %w", err)
	}
	v, ok := ignoreActionWire[s]
	if !ok {
		return fmt.Errorf("ignore action: unknown wire value %q", s)
	}
	*a = v
	return nil
}

// Orientation is a character's declared orientation, used only by FKS search.
type Orientation int

const (
	OrientationStraight Orientation = iota
	OrientationGay
	OrientationBisexual
	OrientationAsexual
	OrientationUnsure
	OrientationBiMalePref
	OrientationBiFemalePref
	OrientationPansexual
	OrientationBicurious
)

var orientationNames = map[Orientation]string{
	OrientationStraight:     "Straight",
	OrientationGay:          "Gay",
	OrientationBisexual:     "Bisexual",
	OrientationAsexual:      "Asexual",
	OrientationUnsure:       "Unsure",
	OrientationBiMalePref:   "Bi - male preference",
	OrientationBiFemalePref: "Bi - female preference",
	OrientationPansexual:    "Pansexual",
	OrientationBicurious:    "Bicurious",
}

func (o Orientation) String() string {
	if name, ok := orientationNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Orientation(%d)", int(o))
}

var orientationWire = reverseMap(orientationNames)

func (o Orientation) MarshalJSON() ([]byte, error) { return json.Marshal(o.String()) }

func (o *Orientation) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("orientation: %w", err)
	}
	v, ok := orientationWire[s]
	if !ok {
		return fmt.Errorf("orientation: unknown wire value %q", s)
	}
	*o = v
	return nil
}

// Language is a character's declared language, used only by FKS search.
type Language int

const (
	LanguageDutch Language = iota
	LanguageEnglish
	LanguageFrench
	LanguageSpanish
	LanguageGerman
	LanguageRussian
	LanguageChinese
	LanguageJapanese
	LanguagePortuguese
	LanguageKorean
	LanguageArabic
	LanguageItalian
	LanguageSwedish
	LanguageOther
)

var languageNames = map[Language]string{
	LanguageDutch:      "Dutch",
	LanguageEnglish:    "English",
	LanguageFrench:     "French",
	LanguageSpanish:    "Spanish",
	LanguageGerman:     "German",
	LanguageRussian:    "Russian",
	LanguageChinese:    "Chinese",
	LanguageJapanese:   "Japanese",
	LanguagePortuguese: "Portuguese",
	LanguageKorean:     "Korean",
	LanguageArabic:     "Arabic",
	LanguageItalian:    "Italian",
	LanguageSwedish:    "Swedish",
	LanguageOther:      "Other",
}

func (l Language) String() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Language(%d)", int(l))
}

var languageWire = reverseMap(languageNames)

func (l Language) MarshalJSON() ([]byte, error) { return json.Marshal(l.String()) }

func (l *Language) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("language: %w", err)
	}
	v, ok := languageWire[s]
	if !ok {
		return fmt.Errorf("language: unknown wire value %q", s)
	}
	*l = v
	return nil
}

// FurryPreference is a character's declared furry preference, used only by
// FKS search. The wire encoding is a full sentence per variant, not the
// Go identifier.
type FurryPreference int

const (
	FurryPreferenceHumanOnly FurryPreference = iota
	FurryPreferenceHumanPref
	FurryPreferenceBoth
	FurryPreferenceFurryPref
	FurryPreferenceFurryOnly
)

var furryPreferenceNames = map[FurryPreference]string{
	FurryPreferenceHumanOnly: "No furry characters, just humans",
	FurryPreferenceHumanPref: "Furries ok, Humans Preferred",
	FurryPreferenceBoth:      "Furs and / or humans",
	FurryPreferenceFurryPref: "Humans ok, Furries Preferred",
	FurryPreferenceFurryOnly: "No humans, just furry characters",
}

func (f FurryPreference) String() string {
	if name, ok := furryPreferenceNames[f]; ok {
		return name
	}
	return fmt.Sprintf("FurryPreference(%d)", int(f))
}

var furryPreferenceWire = reverseMap(furryPreferenceNames)

func (f FurryPreference) MarshalJSON() ([]byte, error) { return json.Marshal(f.String()) }

func (f *FurryPreference) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("furry preference: %w", err)
	}
	v, ok := furryPreferenceWire[s]
	if !ok {
		return fmt.Errorf("furry preference: unknown wire value %q", s)
	}
	*f = v
	return nil
}

// Role is a character's declared dominance role, used only by FKS search.
type Role int

const (
	RoleAlwaysDom Role = iota
	RoleUsuallyDom
	RoleSwitch
	RoleUsuallySub
	RoleAlwaysSub
	RoleNone
)

var roleNames = map[Role]string{
	RoleAlwaysDom:  "Always dominant",
	RoleUsuallyDom: "Usually dominant",
	RoleSwitch:     "Switch",
	RoleUsuallySub: "Usually submissive",
	RoleAlwaysSub:  "Always submissive",
	RoleNone:       "None",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

var roleWire = reverseMap(roleNames)

func (r Role) MarshalJSON() ([]byte, error) { return json.Marshal(r.String()) }

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("role: %w", err)
	}
	v, ok := roleWire[s]
	if !ok {
		return fmt.Errorf("role: unknown wire value %q", s)
	}
	*r = v
	return nil
}

// reverseMap builds the wire-string-to-value lookup from a value-to-string
// name table, exactly once per enum, the same shape as steamclient.EMsg's
// name table but inverted for decode.
func reverseMap[K comparable, V comparable](m map[K]V) map[V]K {
	r := make(map[V]K, len(m))
	for k, v := range m {
		r[v] = k
	}
	return r
}

// MessageContent is the payload of a chat Message. Exactly one of the
// accessor methods below is meaningful for any given value; construct one
// with NewTextContent, NewEmoteContent, NewRollContent, or NewBottleContent.
type MessageContent struct {
	kind   messageContentKind
	text   string
	rolls  []string
	result []int32
	total  int32
	target Character
}

type messageContentKind int

const (
	contentKindMessage messageContentKind = iota
	contentKindEmote
	contentKindRoll
	contentKindBottle
)

func NewTextContent(text string) MessageContent {
	return MessageContent{kind: contentKindMessage, text: text}
}

func NewEmoteContent(text string) MessageContent {
	return MessageContent{kind: contentKindEmote, text: text}
}

func NewRollContent(rolls []string, results []int32, total int32) MessageContent {
	return MessageContent{kind: contentKindRoll, rolls: rolls, result: results, total: total}
}

func NewBottleContent(target Character) MessageContent {
	return MessageContent{kind: contentKindBottle, target: target}
}

func (m MessageContent) IsMessage() bool { return m.kind == contentKindMessage }
func (m MessageContent) IsEmote() bool   { return m.kind == contentKindEmote }
func (m MessageContent) IsRoll() bool    { return m.kind == contentKindRoll }
func (m MessageContent) IsBottle() bool  { return m.kind == contentKindBottle }

// Text returns the message/emote body; valid only when IsMessage or IsEmote.
func (m MessageContent) Text() string { return m.text }

// Rolls returns the dice expressions; valid only when IsRoll.
func (m MessageContent) Rolls() []string { return m.rolls }

// Results returns the per-expression roll results; valid only when IsRoll.
func (m MessageContent) Results() []int32 { return m.result }

// Total returns the summed roll result; valid only when IsRoll.
func (m MessageContent) Total() int32 { return m.total }

// BottleTarget returns the selected character; valid only when IsBottle.
func (m MessageContent) BottleTarget() Character { return m.target }

// MessageChannel identifies a conversation for message storage: either a
// channel or a private-message thread between two characters.
type MessageChannel struct {
	isPM      bool
	channel   Channel
	self      Character
	recipient Character
}

func NewChannelTarget(channel Channel) MessageChannel {
	return MessageChannel{channel: channel}
}

func NewPrivateMessageTarget(self, other Character) MessageChannel {
	return MessageChannel{isPM: true, self: self, recipient: other}
}

func (m MessageChannel) IsPrivateMessage() bool { return m.isPM }

func (m MessageChannel) Channel() Channel { return m.channel }

func (m MessageChannel) Self() Character { return m.self }

func (m MessageChannel) Recipient() Character { return m.recipient }

// Key is a stable, comparable string for using MessageChannel as a map key.
func (m MessageChannel) Key() string {
	if m.isPM {
		return "pm:" + m.self.FoldKey() + ":" + m.recipient.FoldKey()
	}
	return "ch:" + m.channel.FoldKey()
}

// Message is a stored chat event: a timestamp, its author, and its content.
// Timestamp is UTC, truncated to whole seconds.
type Message struct {
	Timestamp time.Time
	Author    Character
	Content   MessageContent
}

// CharacterData mirrors the server's view of one character.
type CharacterData struct {
	Character      Character
	Gender         Gender
	Status         Status
	StatusMessage  string
}

// ChannelData mirrors the server's view of one channel.
type ChannelData struct {
	Channel     Channel
	Mode        ChannelMode
	Members     []Character
	Description string
	Title       string
}

// FriendRelation is a directed friendship edge. A mutual friendship may
// appear as two FriendRelations, one per logged-in side.
type FriendRelation struct {
	OwnCharacter   Character
	OtherCharacter Character
}

