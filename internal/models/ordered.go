package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// CharacterMap is a map of characters keyed by id that remembers insertion
// order. The order is the display order of the panel and survives encoding.
// The zero value is an empty map ready to use.
type CharacterMap struct {
	order []string
	items map[string]Character
}

// NewCharacterMap builds a map holding chars in the given order
func NewCharacterMap(chars ...Character) CharacterMap {
	m := CharacterMap{
		order: make([]string, 0, len(chars)),
		items: make(map[string]Character, len(chars)),
	}
	for _, c := range chars {
		m.Set(c)
	}
	return m
}

func (m *CharacterMap) init() {
	if m.items == nil {
		m.items = make(map[string]Character)
		m.order = []string{}
	}
}

// Len returns the number of characters
func (m CharacterMap) Len() int {
	return len(m.order)
}

// Get returns the character stored under id
func (m CharacterMap) Get(id string) (Character, bool) {
	c, ok := m.items[id]
	return c, ok
}

// Has reports whether id is present
func (m CharacterMap) Has(id string) bool {
	_, ok := m.items[id]
	return ok
}

// Set stores c under c.ID. A new id is appended; an existing one keeps its position.
func (m *CharacterMap) Set(c Character) {
	m.init()
	if _, ok := m.items[c.ID]; !ok {
		m.order = append(m.order, c.ID)
	}
	m.items[c.ID] = c
}

// Delete removes id and reports whether it was present
func (m *CharacterMap) Delete(id string) bool {
	i := m.Index(id)
	if i < 0 {
		return false
	}
	m.order = slices.Delete(m.order, i, i+1)
	delete(m.items, id)
	return true
}

// Index returns the position of id, or -1
func (m CharacterMap) Index(id string) int {
	if _, ok := m.items[id]; !ok {
		return -1
	}
	return slices.Index(m.order, id)
}

// Swap exchanges the positions of the entries at i and j
func (m *CharacterMap) Swap(i, j int) {
	m.order[i], m.order[j] = m.order[j], m.order[i]
}

// Keys returns the ids in order
func (m CharacterMap) Keys() []string {
	return slices.Clone(m.order)
}

// Values returns the characters in order
func (m CharacterMap) Values() []Character {
	out := make([]Character, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.items[id])
	}
	return out
}

// Clone returns a deep copy of m
func (m CharacterMap) Clone() CharacterMap {
	out := CharacterMap{
		order: make([]string, 0, len(m.order)),
		items: make(map[string]Character, len(m.items)),
	}
	for _, id := range m.order {
		out.order = append(out.order, id)
		out.items[id] = m.items[id].Clone()
	}
	return out
}

// Update applies fn to the stored character in place
func (m *CharacterMap) Update(id string, fn func(*Character)) bool {
	c, ok := m.items[id]
	if !ok {
		return false
	}
	fn(&c)
	c.ID = id
	m.items[id] = c
	return true
}

func (m CharacterMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range m.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(m.items[id])
		if err != nil {
			return nil, fmt.Errorf("character %s: %w", id, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping key order. A character without an
// id, or one that disagrees with its key, takes the key.
func (m *CharacterMap) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("characters: expected object, got %v", tok)
	}

	out := NewCharacterMap()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("characters: expected key, got %v", tok)
		}

		var c Character
		if err := dec.Decode(&c); err != nil {
			return fmt.Errorf("character %s: %w", key, err)
		}
		c.ID = key
		out.Set(c)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*m = out
	return nil
}
