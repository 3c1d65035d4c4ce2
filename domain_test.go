package fchat

import (
	"encoding/json"
	"testing"
)

func TestCharacterCaseFolding(t *testing.T) {
	a := NewCharacter("Foo")
	b := NewCharacter("foo")

	if !a.Equal(b) {
		t.Errorf("Equal(%q, %q) = false, want true", a, b)
	}
	if a.FoldKey() != b.FoldKey() {
		t.Errorf("FoldKey mismatch: %q vs %q", a.FoldKey(), b.FoldKey())
	}
	if a.String() != "Foo" {
		t.Errorf("String() = %q, want display-preserving %q", a.String(), "Foo")
	}
}

func TestCharacterLess(t *testing.T) {
	tests := map[string]struct {
		a, b string
		want bool
	}{
		"lowercase before uppercase folds equal": {"apple", "Apple", false},
		"alphabetical":                           {"Alice", "Bob", true},
		"reverse alphabetical":                   {"Bob", "Alice", false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := NewCharacter(tt.a).Less(NewCharacter(tt.b))
			if got != tt.want {
				t.Errorf("Less(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestGenderWireRoundTrip(t *testing.T) {
	tests := map[string]Gender{
		"Male":        GenderMale,
		"Female":      GenderFemale,
		"Transgender": GenderTransgender,
		"Herm":        GenderHerm,
		"Shemale":     GenderShemale,
		"Male-Herm":   GenderMaleHerm,
		"Cunt-boy":    GenderCBoy,
		"None":        GenderNone,
	}

	for wire, want := range tests {
		t.Run(wire, func(t *testing.T) {
			var g Gender
			if err := json.Unmarshal([]byte(`"`+wire+`"`), &g); err != nil {
				t.Fatalf("unmarshal %q: %v", wire, err)
			}
			if g != want {
				t.Errorf("unmarshal %q = %v, want %v", wire, g, want)
			}
			out, err := json.Marshal(g)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(out) != `"`+wire+`"` {
				t.Errorf("marshal(%v) = %s, want %q", g, out, wire)
			}
		})
	}
}

func TestGenderUnknownWireValue(t *testing.T) {
	var g Gender
	if err := json.Unmarshal([]byte(`"Bogus"`), &g); err == nil {
		t.Error("expected error for unknown gender wire value, got nil")
	}
}

func TestFurryPreferenceWireIsFullSentence(t *testing.T) {
	out, err := json.Marshal(FurryPreferenceBoth)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `"Furs and / or humans"`
	if string(out) != want {
		t.Errorf("marshal(FurryPreferenceBoth) = %s, want %s", out, want)
	}
}

func TestMessageContentAccessors(t *testing.T) {
	roll := NewRollContent([]string{"1d20"}, []int32{17}, 17)
	if !roll.IsRoll() {
		t.Error("IsRoll() = false, want true")
	}
	if roll.IsMessage() || roll.IsEmote() || roll.IsBottle() {
		t.Error("roll content reports as another kind too")
	}
	if roll.Total() != 17 {
		t.Errorf("Total() = %d, want 17", roll.Total())
	}

	text := NewTextContent("hello")
	if !text.IsMessage() || text.Text() != "hello" {
		t.Errorf("text content wrong: IsMessage=%v Text=%q", text.IsMessage(), text.Text())
	}
}

func TestMessageChannelKey(t *testing.T) {
	alice := NewCharacter("Alice")
	bob := NewCharacter("Bob")

	pmAB := NewPrivateMessageTarget(alice, bob)
	pmBA := NewPrivateMessageTarget(bob, alice)
	if pmAB.Key() == pmBA.Key() {
		t.Error("PM thread key should be directional (self vs recipient)")
	}

	ch1 := NewChannelTarget(NewChannel("Frontpage"))
	ch2 := NewChannelTarget(NewChannel("frontpage"))
	if ch1.Key() != ch2.Key() {
		t.Errorf("channel target key should fold case: %q vs %q", ch1.Key(), ch2.Key())
	}
}

func TestChannelIsUnofficial(t *testing.T) {
	if !NewChannel("ADH-abc123").IsUnofficial() {
		t.Error("ADH- prefixed channel should report unofficial")
	}
	if NewChannel("Frontpage").IsUnofficial() {
		t.Error("official channel name should not report unofficial")
	}
}
