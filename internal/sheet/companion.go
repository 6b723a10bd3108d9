package sheet

import (
	"context"
	"fmt"

	"github.com/cory-johannsen/exa/internal/game/entity"
)

// CompanionView is the sheet-facing view of a companion. The linked pilot's
// combat stats are exposed next to the companion's own, never in place of them.
type CompanionView struct {
	Companion   entity.Entity  `json:"companion"`
	PilotID     string         `json:"pilotId,omitempty"`
	PilotName   string         `json:"pilotName,omitempty"`
	PilotCombat *entity.Combat `json:"pilotCombat,omitempty"`
}

// Companion returns the companion id with its linked pilot's combat stats.
//
// Postcondition: PilotCombat is nil when the link is empty or does not resolve.
func (s *Service) Companion(ctx context.Context, id string) (CompanionView, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return CompanionView{}, err
	}
	if c.Kind != entity.KindCompanion {
		return CompanionView{}, fmt.Errorf("%w: %q is a %s, not a companion", ErrInvalidKind, id, c.Kind)
	}
	view := CompanionView{Companion: c}
	if c.Link == "" {
		return view, nil
	}
	if p, ok := s.Lookup(ctx)(entity.KindPilot, c.Link); ok {
		combat := p.Combat
		view.PilotID, view.PilotName, view.PilotCombat = p.ID, p.Name, &combat
	}
	return view, nil
}
