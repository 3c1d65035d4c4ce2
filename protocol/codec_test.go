package protocol

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

// TestSearchRoundTrip is S1: FKS encodes kink ids as quoted strings and
// furry preferences as their full wire sentence.
func TestSearchRoundTrip(t *testing.T) {
	cmd := CmdSearch{
		Kinks:        []kinkID{523, 66},
		Genders:      []string{"Male", "Male-Herm"},
		Orientations: []string{"Gay", "Bi - male preference", "Bisexual"},
		Languages:    []string{"Dutch"},
		FurryPrefs: []string{
			"Furs and / or humans",
			"Humans ok, Furries Preferred",
			"No humans, just furry characters",
		},
		Roles: []string{"Always dominant", "Usually dominant"},
	}

	frame, err := Encode(cmd)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.HasPrefix(frame, "FKS {") {
		t.Fatalf("frame = %q, want prefix %q", frame, "FKS {")
	}
	if !strings.Contains(frame, `"kinks":["523","66"]`) {
		t.Errorf("frame %q missing quoted kink ids", frame)
	}
	if !strings.Contains(frame, `"furryprefs":["Furs and / or humans","Humans ok, Furries Preferred","No humans, just furry characters"]`) {
		t.Errorf("frame %q missing furry preference sentences", frame)
	}
}

// TestListOnlineDecode is S2: LIS decodes into tuple rows, and the
// Cunt-boy wire string is representable as a bare string field (domain
// package owns the Gender mapping; the codec only needs to preserve it).
func TestListOnlineDecode(t *testing.T) {
	frame := `LIS {"characters": [["Alexandrea","Female","online",""],["Fa Mulan","Female","busy","Away, check out my new alt Aya Kinjou!"],["Viol","Cunt-boy","looking",""]]}`

	cmd, err := Decode(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	lis, ok := cmd.(*EvtListOnline)
	if !ok {
		t.Fatalf("decoded %T, want *EvtListOnline", cmd)
	}
	if len(lis.Characters) != 3 {
		t.Fatalf("len(Characters) = %d, want 3", len(lis.Characters))
	}
	if lis.Characters[2][1] != "Cunt-boy" {
		t.Errorf("Characters[2][1] = %q, want %q", lis.Characters[2][1], "Cunt-boy")
	}
	if lis.Characters[1][3] != "Away, check out my new alt Aya Kinjou!" {
		t.Errorf("Characters[1][3] = %q", lis.Characters[1][3])
	}
}

// TestKinkIDPolymorphism is S3.
func TestKinkIDPolymorphism(t *testing.T) {
	var fromString kinkID
	if err := json.Unmarshal([]byte(`"621"`), &fromString); err != nil {
		t.Fatalf("unmarshal quoted: %v", err)
	}
	if fromString != 621 {
		t.Errorf("quoted kink id = %d, want 621", fromString)
	}

	var fromNumber kinkID
	if err := json.Unmarshal([]byte(`621`), &fromNumber); err != nil {
		t.Fatalf("unmarshal bare: %v", err)
	}
	if fromNumber != 621 {
		t.Errorf("bare kink id = %d, want 621", fromNumber)
	}

	out, err := json.Marshal(kinkID(621))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"621"` {
		t.Errorf("marshal(621) = %s, want %q", out, `"621"`)
	}
}

func TestCharacterIdentityBareOrWrapped(t *testing.T) {
	var bare characterIdentity
	if err := json.Unmarshal([]byte(`"Alice"`), &bare); err != nil {
		t.Fatalf("unmarshal bare: %v", err)
	}
	if bare != "Alice" {
		t.Errorf("bare = %q, want Alice", bare)
	}

	var wrapped characterIdentity
	if err := json.Unmarshal([]byte(`{"identity":"Alice"}`), &wrapped); err != nil {
		t.Fatalf("unmarshal wrapped: %v", err)
	}
	if wrapped != "Alice" {
		t.Errorf("wrapped = %q, want Alice", wrapped)
	}
}

func TestStringBoolAcceptsBothShapes(t *testing.T) {
	var fromNative StringBool
	if err := json.Unmarshal([]byte(`true`), &fromNative); err != nil || !bool(fromNative) {
		t.Errorf("native bool: %v, err=%v", fromNative, err)
	}

	var fromString StringBool
	if err := json.Unmarshal([]byte(`"false"`), &fromString); err != nil || bool(fromString) {
		t.Errorf("string bool: %v, err=%v", fromString, err)
	}
}

// TestClientCommandRoundTrip is testable property 1: decode(encode(c)) = c
// for a representative spread of client command variants.
func TestClientCommandRoundTrip(t *testing.T) {
	tests := map[string]ClientCommand{
		"message":      CmdMessage{Channel: "Frontpage", Message: "hi"},
		"private":      CmdPrivateMessage{Recipient: "Bob", Message: "psst"},
		"join":         CmdJoinChannel{Channel: "ADH-abc"},
		"roll channel": CmdRoll{Channel: "Frontpage", Dice: "1d20"},
		"roll private": CmdRoll{Recipient: "Bob", Dice: "2d6+3"},
		"identify": CmdIdentify{
			Method: "ticket", Account: "user", Ticket: "abc",
			Character: "Alice", ClientName: "fchat-go", ClientVersion: "0.1",
		},
		"pong": CmdPong{},
	}

	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			frame, err := Encode(want)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}

			tag := Tag(frame[:3])
			if tag != want.clientTag() {
				t.Fatalf("frame tag = %s, want %s", tag, want.clientTag())
			}

			body := strings.TrimPrefix(frame[3:], " ")
			target := newZeroClientCommand(want)
			if body != "" {
				if err := json.Unmarshal([]byte(body), target); err != nil {
					t.Fatalf("decode body: %v", err)
				}
			}
			if got := reflect.ValueOf(target).Elem().Interface(); !reflect.DeepEqual(got, want) {
				t.Errorf("round trip = %#v, want %#v", got, want)
			}
		})
	}
}

// newZeroClientCommand returns a pointer to a zero value of the same
// concrete type as want, for round-trip decoding in the test above.
func newZeroClientCommand(want ClientCommand) any {
	switch want.(type) {
	case CmdMessage:
		return &CmdMessage{}
	case CmdPrivateMessage:
		return &CmdPrivateMessage{}
	case CmdJoinChannel:
		return &CmdJoinChannel{}
	case CmdRoll:
		return &CmdRoll{}
	case CmdIdentify:
		return &CmdIdentify{}
	case CmdPong:
		return &CmdPong{}
	default:
		panic("unhandled command type in test")
	}
}

func TestDecodeUnknownTag(t *testing.T) {
	_, err := Decode("ZZZ {}")
	if err == nil {
		t.Fatal("expected error for unknown tag")
	}
}

func TestDecodeBodylessFrame(t *testing.T) {
	cmd, err := Decode("PIN")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := cmd.(*EvtPing); !ok {
		t.Fatalf("decoded %T, want *EvtPing", cmd)
	}
}

func TestEncodeBodylessCommand(t *testing.T) {
	frame, err := Encode(CmdPong{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if frame != "PIN" {
		t.Errorf("frame = %q, want %q", frame, "PIN")
	}
}

func TestParseVariableKnownAndUnknown(t *testing.T) {
	v, err := ParseVariable(EvtVariable{Variable: "chat_max", Value: json.RawMessage(`4096`)})
	if err != nil {
		t.Fatalf("parse chat_max: %v", err)
	}
	if v.Kind != VariableChatMax || v.ChatMax != 4096 {
		t.Errorf("parsed %+v, want ChatMax=4096", v)
	}

	unknown, err := ParseVariable(EvtVariable{Variable: "something_new", Value: json.RawMessage(`"x"`)})
	if err != nil {
		t.Fatalf("parse unknown: %v", err)
	}
	if unknown.Kind != VariableUnknown || unknown.RawName != "something_new" {
		t.Errorf("parsed %+v, want preserved unknown variable", unknown)
	}
}

func TestErrorCodeFatalClassification(t *testing.T) {
	tests := map[string]struct {
		code  ErrorCode
		fatal bool
	}{
		"full server":    {FullServer, true},
		"banned":         {Banned, true},
		"syntax error":   {SyntaxError, false},
		"message cooldown": {MessageCooldown, false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := tt.code.IsFatal(); got != tt.fatal {
				t.Errorf("IsFatal(%v) = %v, want %v", tt.code, got, tt.fatal)
			}
		})
	}
}
