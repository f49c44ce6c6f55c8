// Package codec persists the player's character collection as one JSON
// document in durable storage and builds the default collection.
package codec

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/lostbyte/mainhero/internal/dal"
	"github.com/lostbyte/mainhero/internal/logger"
	"github.com/lostbyte/mainhero/internal/models"
)

// DecodeError reports stored data that could not be turned into a collection
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode collection: %s: %v", e.Reason, e.Err)
	}
	return "decode collection: " + e.Reason
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Codec reads and writes the collection under a single storage key
type Codec struct {
	dal dal.StorageDAL
	key string
}

// New creates a codec bound to key in store
func New(store dal.StorageDAL, key string) *Codec {
	return &Codec{dal: store, key: key}
}

// Key returns the storage key the codec writes to
func (c *Codec) Key() string {
	return c.key
}

// Load returns the stored collection. Missing, unreadable or undecodable data
// yields a fresh default collection instead of an error.
func (c *Codec) Load() models.PlayerData {
	raw, err := c.dal.Get(c.key)
	if err != nil {
		if errors.Is(err, dal.ErrNotFound) {
			logger.Info("No stored collection, creating default", "key", c.key)
		} else {
			logger.Warn("Failed to read stored collection, using default", "key", c.key, "error", err)
		}
		return DefaultCollection()
	}

	data, err := Decode([]byte(raw))
	if err != nil {
		logger.Warn("Stored collection is unreadable, using default", "key", c.key, "error", err)
		return DefaultCollection()
	}

	logger.Debug("Loaded stored collection", "key", c.key, "characters", data.Characters.Len())
	return data
}

// Save encodes the whole collection and overwrites the stored entry
func (c *Codec) Save(data models.PlayerData) error {
	raw, err := Encode(data)
	if err != nil {
		return err
	}
	if err := c.dal.Set(c.key, string(raw)); err != nil {
		return fmt.Errorf("save collection: %w", err)
	}
	return nil
}

// Encode serializes a collection to JSON
func Encode(data models.PlayerData) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode collection: %w", err)
	}
	return raw, nil
}

// Decode parses a stored collection. The document must be an object with a
// non-null characters object; nil maps inside characters are normalised.
func Decode(raw []byte) (models.PlayerData, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return models.PlayerData{}, &DecodeError{Reason: "empty value"}
	}

	var shape map[string]json.RawMessage
	if err := json.Unmarshal(raw, &shape); err != nil {
		return models.PlayerData{}, &DecodeError{Reason: "not a JSON object", Err: err}
	}
	if shape == nil {
		return models.PlayerData{}, &DecodeError{Reason: "null document"}
	}
	chars, ok := shape["characters"]
	if !ok || bytes.Equal(bytes.TrimSpace(chars), []byte("null")) {
		return models.PlayerData{}, &DecodeError{Reason: "missing characters"}
	}

	var data models.PlayerData
	if err := json.Unmarshal(raw, &data); err != nil {
		return models.PlayerData{}, &DecodeError{Reason: "invalid collection", Err: err}
	}

	for _, id := range data.Characters.Keys() {
		data.Characters.Update(id, func(c *models.Character) {
			if c.Metadata == nil {
				c.Metadata = models.Metadata{}
			}
			if c.Tokens == nil {
				c.Tokens = map[string]models.Token{}
			}
		})
	}
	return data, nil
}

// CreateCharacter builds a character with a fresh id and a random color
func CreateCharacter() models.Character {
	return models.Character{
		ID:        uuid.NewString(),
		Name:      "",
		Color:     randomColor(),
		Collapsed: false,
		Label:     "",
		LabelStyle: models.LabelStyle{
			Color: "#ffffff",
			Size:  24,
			Font:  models.FontRoboto,
		},
		Scale:    models.Vector2{X: 1, Y: 1},
		Metadata: models.Metadata{},
		Tokens:   map[string]models.Token{},
	}
}

// DefaultCollection holds one generated character, selected
func DefaultCollection() models.PlayerData {
	c := CreateCharacter()
	return models.PlayerData{
		Characters:          models.NewCharacterMap(c),
		SelectedCharacterID: c.ID,
	}
}

// randomColor returns a random 24-bit color as #rrggbb
func randomColor() string {
	var b [3]byte
	rand.Read(b[:])
	return "#" + hex.EncodeToString(b[:])
}
