package models

import "encoding/json"

// Font is one of the fixed label fonts offered by the panel
type Font string

const (
	FontRoboto        Font = "Roboto"
	FontArial         Font = "Arial"
	FontGeorgia       Font = "Georgia"
	FontTimesNewRoman Font = "Times New Roman"
	FontCourierNew    Font = "Courier New"
	FontVerdana       Font = "Verdana"
	FontComicSans     Font = "Comic Sans MS"
)

// Fonts lists every selectable label font in display order
var Fonts = []Font{
	FontRoboto,
	FontArial,
	FontGeorgia,
	FontTimesNewRoman,
	FontCourierNew,
	FontVerdana,
	FontComicSans,
}

// Valid reports whether f is one of Fonts
func (f Font) Valid() bool {
	for _, known := range Fonts {
		if f == known {
			return true
		}
	}
	return false
}

// LabelType controls how a token label combines with the character label
type LabelType string

const (
	LabelAdd     LabelType = "ADD"
	LabelReplace LabelType = "REPLACE"
)

// Vector2 is a 2D point or scale
type Vector2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + o
func (v Vector2) Add(o Vector2) Vector2 {
	return Vector2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Multiply returns v scaled by s
func (v Vector2) Multiply(s float64) Vector2 {
	return Vector2{X: v.X * s, Y: v.Y * s}
}

// LabelStyle is the text style of a character label on the table
type LabelStyle struct {
	Size  float64 `json:"size"`
	Color string  `json:"color"`
	Font  Font    `json:"font"`
}

// ImageContent describes the image behind a token
type ImageContent struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Mime   string  `json:"mime"`
	URL    string  `json:"url"`
}

// ImageGrid describes how a token image aligns to the scene grid
type ImageGrid struct {
	DPI    float64 `json:"dpi"`
	Offset Vector2 `json:"offset"`
}

// Token is a named visual asset owned by a single character
type Token struct {
	Label     string       `json:"label"`
	LabelType LabelType    `json:"labelType"`
	Image     ImageContent `json:"image"`
	Grid      ImageGrid    `json:"grid"`
}

// Metadata is an opaque key-value bag carried alongside a character
type Metadata map[string]any

// Character is a player-owned persona with presentation metadata and tokens.
// SelectedTokenID is empty when no token is selected; it is encoded as null.
type Character struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Color           string           `json:"color"`
	Collapsed       bool             `json:"collapsed"`
	Label           string           `json:"label"`
	LabelStyle      LabelStyle       `json:"labelStyle"`
	Scale           Vector2          `json:"scale"`
	Metadata        Metadata         `json:"metadata"`
	SelectedTokenID string           `json:"selectedTokenId"`
	Tokens          map[string]Token `json:"tokens"`
}

type characterAlias Character

type characterJSON struct {
	characterAlias
	SelectedTokenID *string `json:"selectedTokenId"`
}

func (c Character) MarshalJSON() ([]byte, error) {
	return json.Marshal(characterJSON{
		characterAlias:  characterAlias(c),
		SelectedTokenID: nullable(c.SelectedTokenID),
	})
}

func (c *Character) UnmarshalJSON(data []byte) error {
	var aux characterJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*c = Character(aux.characterAlias)
	c.SelectedTokenID = deref(aux.SelectedTokenID)
	return nil
}

// SelectedToken returns the selected token, treating a dangling id as absent
func (c Character) SelectedToken() (Token, bool) {
	if c.SelectedTokenID == "" {
		return Token{}, false
	}
	tok, ok := c.Tokens[c.SelectedTokenID]
	return tok, ok
}

// Clone returns a deep copy of c
func (c Character) Clone() Character {
	out := c
	out.Metadata = cloneMetadata(c.Metadata)
	if c.Tokens != nil {
		out.Tokens = make(map[string]Token, len(c.Tokens))
		for id, tok := range c.Tokens {
			out.Tokens[id] = tok
		}
	}
	return out
}

// PlayerData is the root aggregate: every character plus the selection.
// SelectedCharacterID is empty when nothing is selected; it is encoded as null.
type PlayerData struct {
	Characters          CharacterMap `json:"characters"`
	SelectedCharacterID string       `json:"selectedCharacterId"`
}

type playerDataAlias PlayerData

type playerDataJSON struct {
	playerDataAlias
	SelectedCharacterID *string `json:"selectedCharacterId"`
}

func (p PlayerData) MarshalJSON() ([]byte, error) {
	return json.Marshal(playerDataJSON{
		playerDataAlias:     playerDataAlias(p),
		SelectedCharacterID: nullable(p.SelectedCharacterID),
	})
}

func (p *PlayerData) UnmarshalJSON(data []byte) error {
	var aux playerDataJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = PlayerData(aux.playerDataAlias)
	p.SelectedCharacterID = deref(aux.SelectedCharacterID)
	return nil
}

// Current returns the selected character. Unset or dangling selections yield false.
func (p PlayerData) Current() (Character, bool) {
	if p.SelectedCharacterID == "" {
		return Character{}, false
	}
	return p.Characters.Get(p.SelectedCharacterID)
}

// Clone returns a deep copy of p
func (p PlayerData) Clone() PlayerData {
	return PlayerData{
		Characters:          p.Characters.Clone(),
		SelectedCharacterID: p.SelectedCharacterID,
	}
}

func nullable(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func deref(id *string) string {
	if id == nil {
		return ""
	}
	return *id
}

func cloneMetadata(m Metadata) Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[k] = cloneValue(inner)
		}
		return out
	case Metadata:
		return cloneMetadata(t)
	case []any:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		return v
	}
}
