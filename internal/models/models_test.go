package models

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func testCharacter(id, name string) Character {
	return Character{
		ID:         id,
		Name:       name,
		Color:      "#112233",
		LabelStyle: LabelStyle{Size: 24, Color: "#ffffff", Font: FontRoboto},
		Scale:      Vector2{X: 1, Y: 1},
		Metadata:   Metadata{},
		Tokens:     map[string]Token{},
	}
}

func TestCharacterMapPreservesInsertionOrder(t *testing.T) {
	m := NewCharacterMap(testCharacter("c", "C"), testCharacter("a", "A"), testCharacter("b", "B"))

	if got := m.Keys(); !reflect.DeepEqual(got, []string{"c", "a", "b"}) {
		t.Fatalf("unexpected order: %v", got)
	}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	ci := strings.Index(string(data), `"c":`)
	ai := strings.Index(string(data), `"a":`)
	bi := strings.Index(string(data), `"b":`)
	if !(ci < ai && ai < bi) {
		t.Errorf("encoded order lost: %s", data)
	}

	var decoded CharacterMap
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if got := decoded.Keys(); !reflect.DeepEqual(got, []string{"c", "a", "b"}) {
		t.Errorf("decoded order lost: %v", got)
	}
}

func TestCharacterMapSetReplacesInPlace(t *testing.T) {
	m := NewCharacterMap(testCharacter("a", "A"), testCharacter("b", "B"))
	m.Set(testCharacter("a", "Renamed"))

	if got := m.Keys(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("replace should keep position, got %v", got)
	}
	c, _ := m.Get("a")
	if c.Name != "Renamed" {
		t.Errorf("expected replaced name, got %s", c.Name)
	}
}

func TestCharacterMapDelete(t *testing.T) {
	m := NewCharacterMap(testCharacter("a", "A"), testCharacter("b", "B"), testCharacter("c", "C"))

	if !m.Delete("b") {
		t.Fatal("Delete() should report removal")
	}
	if m.Delete("b") {
		t.Error("second Delete() should report absence")
	}
	if got := m.Keys(); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Errorf("unexpected keys after delete: %v", got)
	}
	if m.Index("b") != -1 {
		t.Error("deleted id should have index -1")
	}
}

func TestCharacterMapZeroValue(t *testing.T) {
	var m CharacterMap
	if m.Len() != 0 {
		t.Errorf("expected empty map, got %d", m.Len())
	}
	m.Set(testCharacter("x", "X"))
	if !m.Has("x") {
		t.Error("zero value map should accept Set")
	}
}

func TestCharacterMapUnmarshalInheritsKey(t *testing.T) {
	var m CharacterMap
	if err := json.Unmarshal([]byte(`{"k1":{"name":"no id"}}`), &m); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	c, ok := m.Get("k1")
	if !ok || c.ID != "k1" {
		t.Errorf("expected id inherited from key, got %+v", c)
	}
}

func TestCharacterMapUnmarshalKeyWinsOverID(t *testing.T) {
	var m CharacterMap
	if err := json.Unmarshal([]byte(`{"k1":{"id":"other","name":"Aria"},"k2":{"id":"k2"}}`), &m); err != nil {
		t.Fatalf("mismatched id should be repaired: %v", err)
	}
	c, ok := m.Get("k1")
	if !ok || c.ID != "k1" || c.Name != "Aria" {
		t.Errorf("expected k1 keyed by its map key, got %+v (%v)", c, ok)
	}
	if m.Has("other") || m.Len() != 2 {
		t.Errorf("unexpected keys %v", m.Keys())
	}
}

func TestCharacterMapUnmarshalRejectsArray(t *testing.T) {
	var m CharacterMap
	if err := json.Unmarshal([]byte(`[1,2]`), &m); err == nil {
		t.Fatal("expected error for array")
	}
}

func TestCloneIsDeep(t *testing.T) {
	c := testCharacter("a", "A")
	c.Metadata["nested"] = map[string]any{"hp": 10.0}
	c.Tokens["t1"] = Token{Label: "wolf", LabelType: LabelAdd}
	data := PlayerData{Characters: NewCharacterMap(c), SelectedCharacterID: "a"}

	clone := data.Clone()
	clone.Characters.Update("a", func(ch *Character) {
		ch.Name = "changed"
		ch.Tokens["t2"] = Token{Label: "bear"}
		ch.Metadata["nested"].(map[string]any)["hp"] = 1.0
	})

	orig, _ := data.Characters.Get("a")
	if orig.Name != "A" {
		t.Errorf("clone mutation leaked name: %s", orig.Name)
	}
	if _, ok := orig.Tokens["t2"]; ok {
		t.Error("clone mutation leaked token")
	}
	if orig.Metadata["nested"].(map[string]any)["hp"] != 10.0 {
		t.Error("clone mutation leaked nested metadata")
	}
}

func TestNullSelectionEncoding(t *testing.T) {
	data := PlayerData{Characters: NewCharacterMap(testCharacter("a", "A"))}

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	if !strings.Contains(string(raw), `"selectedCharacterId":null`) {
		t.Errorf("empty selection should encode as null: %s", raw)
	}
	if !strings.Contains(string(raw), `"selectedTokenId":null`) {
		t.Errorf("empty token selection should encode as null: %s", raw)
	}

	data.SelectedCharacterID = "a"
	raw, _ = json.Marshal(data)

	var decoded PlayerData
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if decoded.SelectedCharacterID != "a" {
		t.Errorf("expected selection a, got %q", decoded.SelectedCharacterID)
	}
	if !reflect.DeepEqual(decoded, data) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", decoded, data)
	}
}

func TestCurrentTreatsDanglingAsAbsent(t *testing.T) {
	data := PlayerData{Characters: NewCharacterMap(testCharacter("a", "A")), SelectedCharacterID: "gone"}
	if _, ok := data.Current(); ok {
		t.Error("dangling selection should yield no current character")
	}
	data.SelectedCharacterID = ""
	if _, ok := data.Current(); ok {
		t.Error("empty selection should yield no current character")
	}
}

func TestSelectedToken(t *testing.T) {
	c := testCharacter("a", "A")
	c.Tokens["t1"] = Token{Label: "wolf"}
	c.SelectedTokenID = "t1"
	if tok, ok := c.SelectedToken(); !ok || tok.Label != "wolf" {
		t.Errorf("expected wolf token, got %+v %v", tok, ok)
	}
	c.SelectedTokenID = "missing"
	if _, ok := c.SelectedToken(); ok {
		t.Error("dangling token selection should be absent")
	}
}

func TestFontValid(t *testing.T) {
	if len(Fonts) != 7 {
		t.Fatalf("expected 7 fonts, got %d", len(Fonts))
	}
	if !FontComicSans.Valid() {
		t.Error("Comic Sans MS should be valid")
	}
	if Font("Papyrus").Valid() {
		t.Error("Papyrus should not be valid")
	}
}

func TestVectorMath(t *testing.T) {
	got := Vector2{X: 10, Y: -4}.Multiply(-2).Add(Vector2{X: 1, Y: 1})
	if got != (Vector2{X: -19, Y: 9}) {
		t.Errorf("unexpected vector: %+v", got)
	}
}
