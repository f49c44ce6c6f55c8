package store

import (
	"sync"

	"github.com/lostbyte/mainhero/internal/models"
	"github.com/lostbyte/mainhero/internal/pubsub"
)

// PublishTo announces every committed change on bus: collection:changed
// always, and character:selected whenever the selection moves.
// The returned function stops publishing.
func (s *Store) PublishTo(bus *pubsub.PubSub) func() {
	var mu sync.Mutex
	lastSelected := s.CurrentCharacterID()

	return s.Subscribe(func(d models.PlayerData) {
		bus.Publish(pubsub.Event{
			Type: pubsub.EventCollectionChanged,
			Payload: map[string]any{
				"order":               d.Characters.Keys(),
				"selectedCharacterId": nullableID(d.SelectedCharacterID),
			},
		})

		mu.Lock()
		changed := d.SelectedCharacterID != lastSelected
		lastSelected = d.SelectedCharacterID
		mu.Unlock()

		if changed {
			bus.Publish(pubsub.Event{
				Type:    pubsub.EventCharacterSelected,
				Payload: map[string]any{"id": nullableID(d.SelectedCharacterID)},
			})
		}
	})
}

func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}
