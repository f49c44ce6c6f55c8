package viewport

import (
	"context"
	"fmt"

	"github.com/lostbyte/mainhero/internal/host"
	"github.com/lostbyte/mainhero/internal/logger"
	"github.com/lostbyte/mainhero/internal/models"
)

// CenterOn returns the viewport translation that puts pos in the middle of a
// width x height viewport at the given zoom
func CenterOn(pos models.Vector2, scale, width, height float64) models.Vector2 {
	return pos.Multiply(-scale).Add(models.Vector2{X: width / 2, Y: height / 2})
}

// Focus animates the host camera onto the scene item id at the current zoom.
// A missing item is a no-op. With selectItem the item also becomes the local
// selection; a failed selection is only logged.
func Focus(ctx context.Context, s host.Session, id string, selectItem bool) error {
	items, err := s.Items(ctx, []string{id})
	if err != nil {
		return fmt.Errorf("look up item %s: %w", id, err)
	}
	if len(items) == 0 {
		return nil
	}

	scale, err := s.ViewportScale(ctx)
	if err != nil {
		return fmt.Errorf("viewport scale: %w", err)
	}
	width, err := s.ViewportWidth(ctx)
	if err != nil {
		return fmt.Errorf("viewport width: %w", err)
	}
	height, err := s.ViewportHeight(ctx)
	if err != nil {
		return fmt.Errorf("viewport height: %w", err)
	}

	target := host.ViewportTransform{
		Scale:    scale,
		Position: CenterOn(items[0].Position, scale, width, height),
	}
	if err := s.AnimateTo(ctx, target); err != nil {
		return fmt.Errorf("animate viewport: %w", err)
	}

	if selectItem {
		if err := s.Select(ctx, []string{id}); err != nil {
			logger.Debug("Host rejected item selection", "item_id", id, "error", err)
		}
	}
	return nil
}
