package roll

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cory-johannsen/exa/internal/game/dice"
	"github.com/cory-johannsen/exa/internal/game/entity"
	"github.com/cory-johannsen/exa/internal/game/ruleset"
)

var (
	// ErrNoNormalDice refuses a roll whose base group would be empty.
	ErrNoNormalDice = errors.New("roll needs at least one normal die")
	// ErrPoolTooLarge refuses a roll with a group over ruleset.MaxGroupDice.
	ErrPoolTooLarge = errors.New("roll group too large")
	// ErrNotLinked refuses a linked roll between entities that do not link
	// to each other.
	ErrNotLinked = errors.New("entities are not linked")
	// ErrCommit reports that dice were rolled but consumption could not be
	// persisted. The roll is not retried.
	ErrCommit = errors.New("committing roll consumption")
)

// Sheets is the entity capability the roller needs.
type Sheets interface {
	Get(ctx context.Context, id string) (entity.Entity, error)
	// Consume applies up to points of resource use and returns what was applied.
	Consume(ctx context.Context, id string, points int) (int, error)
}

// Roller validates, rolls and commits dice pool rolls.
type Roller struct {
	sheets Sheets
	dice   *dice.Roller
	sink   Sink
	logger *zap.Logger
	now    func() time.Time
}

// NewRoller creates a Roller. A nil sink discards outcomes.
//
// Precondition: sheets, d and logger must be non-nil.
func NewRoller(sheets Sheets, d *dice.Roller, sink Sink, logger *zap.Logger) *Roller {
	if sink == nil {
		sink = NopSink{}
	}
	return &Roller{sheets: sheets, dice: d, sink: sink, logger: logger, now: time.Now}
}

// Roll resolves req.
//
// Precondition: req.NormalDice() > 0, otherwise ErrNoNormalDice is returned
// before anything is read or rolled. No group may exceed ruleset.MaxGroupDice
// (ErrPoolTooLarge), and a linked entity must link to the roller or be linked
// from it (ErrNotLinked).
// Postcondition: once dice are rolled, consumption is committed exactly once
// regardless of ctx cancellation. A commit failure returns the outcome together
// with an error wrapping ErrCommit.
func (r *Roller) Roll(ctx context.Context, req Request) (Outcome, error) {
	ctx, span := tracer().Start(ctx, "roll.Roll", trace.WithAttributes(
		attribute.String("exa.entity_id", req.EntityID),
		attribute.String("exa.linked_id", req.LinkedID),
		attribute.Int("exa.normal_dice", req.NormalDice()),
		attribute.Int("exa.bonus_dice", req.BonusDice),
	))
	defer span.End()

	out, err := r.roll(ctx, req)
	if out.ID != uuid.Nil {
		span.SetAttributes(
			attribute.String("exa.roll_id", out.ID.String()),
			attribute.Int("exa.successes", out.Successes),
			attribute.Int("exa.consumed", out.Primary.Consumed),
		)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return out, err
}

func (r *Roller) roll(ctx context.Context, req Request) (Outcome, error) {
	if n := req.NormalDice(); n <= 0 {
		r.logger.Warn("roll refused",
			zap.String("entity", req.EntityID),
			zap.Int("base", req.BaseDice),
			zap.Int("attribute_bonus", req.AttributeBonus),
			zap.Int("linked_attribute_bonus", req.LinkedAttributeBonus),
		)
		return Outcome{}, fmt.Errorf("%w: base %d + attribute %d + linked attribute %d = %d",
			ErrNoNormalDice, req.BaseDice, req.AttributeBonus, req.LinkedAttributeBonus, n)
	}
	if err := checkGroupSizes(req); err != nil {
		r.logger.Warn("roll refused", zap.String("entity", req.EntityID), zap.Error(err))
		return Outcome{}, err
	}

	out := Outcome{ID: uuid.New(), Label: req.Label}
	var meta Metadata

	primary, err := r.sheets.Get(ctx, req.EntityID)
	if err != nil {
		return Outcome{}, fmt.Errorf("loading roller %q: %w", req.EntityID, err)
	}
	meta.EntityName = primary.Name
	out.Primary = r.clampSpend(&out, primary, req.ResourceSpend)

	if req.LinkedID != "" {
		linked, err := r.sheets.Get(ctx, req.LinkedID)
		if err != nil {
			return Outcome{}, fmt.Errorf("loading linked entity %q: %w", req.LinkedID, err)
		}
		if !linkedTo(primary, linked) {
			r.logger.Warn("roll refused",
				zap.String("entity", req.EntityID),
				zap.String("linked", req.LinkedID),
			)
			return Outcome{}, fmt.Errorf("%w: %q and %q", ErrNotLinked, req.EntityID, req.LinkedID)
		}
		meta.LinkedName = linked.Name
		c := r.clampSpend(&out, linked, req.LinkedResourceSpend)
		out.Linked = &c
	} else if req.LinkedResourceSpend > 0 {
		r.warn(&out, req.EntityID, fmt.Sprintf("no linked entity: linked resource spend %d ignored", req.LinkedResourceSpend))
	}

	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	out.Groups = append(out.Groups, r.group(GroupBase, req.NormalDice()))
	if req.BonusDice > 0 {
		out.Groups = append(out.Groups, r.group(GroupBonus, req.BonusDice))
	}
	if out.Primary.Spend > 0 {
		g := r.group(GroupResource, out.Primary.Spend)
		out.Primary.Consumed = g.ones
		out.Groups = append(out.Groups, g)
	}
	if out.Linked != nil && out.Linked.Spend > 0 {
		g := r.group(GroupLinkedResource, out.Linked.Spend)
		out.Linked.Consumed = g.ones
		out.Groups = append(out.Groups, g)
	}
	for _, g := range out.Groups {
		out.Successes += g.Successes
	}
	out.RolledAt = r.now()

	commitErr := r.commit(context.WithoutCancel(ctx), &out)

	if err := r.sink.Publish(context.WithoutCancel(ctx), out, meta); err != nil {
		r.logger.Warn("publishing roll outcome", zap.String("roll_id", out.ID.String()), zap.Error(err))
	}
	if commitErr != nil {
		return out, commitErr
	}
	return out, nil
}

// checkGroupSizes refuses any group, or any requested spend, above the cap.
func checkGroupSizes(req Request) error {
	sizes := []struct {
		name string
		n    int
	}{
		{"base", req.NormalDice()},
		{"bonus", req.BonusDice},
		{"resource spend", req.ResourceSpend},
		{"linked resource spend", req.LinkedResourceSpend},
	}
	for _, s := range sizes {
		if s.n > ruleset.MaxGroupDice {
			return fmt.Errorf("%w: %s %d exceeds %d dice", ErrPoolTooLarge, s.name, s.n, ruleset.MaxGroupDice)
		}
	}
	return nil
}

// linkedTo reports whether a and b reference each other in either direction.
func linkedTo(a, b entity.Entity) bool {
	if a.ID == b.ID {
		return false
	}
	return (a.Link != "" && a.Link == b.ID) || (b.Link != "" && b.Link == a.ID)
}

// clampSpend bounds a requested spend by the entity's current pool.
func (r *Roller) clampSpend(out *Outcome, e entity.Entity, requested int) Consumption {
	c := Consumption{EntityID: e.ID, Requested: requested}
	if requested <= 0 {
		return c
	}
	avail := max(int(math.Floor(e.Exa.Current)), 0)
	c.Spend = min(requested, avail)
	if c.Spend < requested {
		r.warn(out, e.ID, fmt.Sprintf("%s has %d resource points: spend reduced from %d to %d",
			displayName(e), avail, requested, c.Spend))
	}
	return c
}

func (r *Roller) group(g Group, count int) GroupResult {
	pool := r.dice.RollPool(count)
	return GroupResult{
		Group:     g,
		Results:   pool.Results,
		Total:     pool.Total,
		Successes: pool.Count(SuccessFace),
		ones:      pool.Count(ConsumeFace),
	}
}

// commit applies primary and linked consumption independently. A failure on
// one does not prevent the other.
func (r *Roller) commit(ctx context.Context, out *Outcome) error {
	var errs []error
	for _, c := range []*Consumption{&out.Primary, out.Linked} {
		if c == nil || c.Consumed == 0 {
			continue
		}
		applied, err := r.sheets.Consume(ctx, c.EntityID, c.Consumed)
		if err != nil {
			r.logger.Error("roll commit failed",
				zap.String("roll_id", out.ID.String()),
				zap.String("entity", c.EntityID),
				zap.Int("consumed", c.Consumed),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("entity %q: %w", c.EntityID, err))
			continue
		}
		c.Committed = applied
		if applied < c.Consumed {
			r.warn(out, c.EntityID, fmt.Sprintf("only %d of %d consumed resource points were available at commit", applied, c.Consumed))
		}
		r.logger.Info("roll consumption committed",
			zap.String("roll_id", out.ID.String()),
			zap.String("entity", c.EntityID),
			zap.Int("committed", applied),
		)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrCommit, errors.Join(errs...))
	}
	return nil
}

func (r *Roller) warn(out *Outcome, id, msg string) {
	out.Warnings = append(out.Warnings, msg)
	r.logger.Warn("roll adjusted", zap.String("entity", id), zap.String("warning", msg))
}

func displayName(e entity.Entity) string {
	if e.Name != "" {
		return e.Name
	}
	return e.ID
}
