// Package roll resolves dice pool rolls against entity resource pools.
package roll

import (
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/exa/internal/game/dice"
)

// Group identifies an independently rolled die group.
type Group string

const (
	// GroupBase holds the normal dice: base plus attribute bonuses.
	GroupBase Group = "base"
	// GroupBonus holds bonus dice. They add successes but never make a roll valid.
	GroupBonus Group = "bonus"
	// GroupResource holds the dice bought with the primary entity's resource.
	GroupResource Group = "resource"
	// GroupLinkedResource holds the dice bought with the linked entity's resource.
	GroupLinkedResource Group = "linked_resource"
)

const (
	// SuccessFace counts as a success in every group.
	SuccessFace = dice.Sides
	// ConsumeFace consumes one resource point when rolled in a resource group.
	ConsumeFace = 1
)

// Request describes a roll before it is validated.
type Request struct {
	EntityID             string `json:"entityId"`
	LinkedID             string `json:"linkedId,omitempty"`
	Label                string `json:"label,omitempty"`
	BaseDice             int    `json:"baseDice"`
	BonusDice            int    `json:"bonusDice"`
	AttributeBonus       int    `json:"attributeBonus"`
	ResourceSpend        int    `json:"resourceSpend"`
	LinkedAttributeBonus int    `json:"linkedAttributeBonus"`
	LinkedResourceSpend  int    `json:"linkedResourceSpend"`
}

// NormalDice is the size of the base group.
func (r Request) NormalDice() int {
	return r.BaseDice + r.AttributeBonus + r.LinkedAttributeBonus
}

// GroupResult is one rolled group.
type GroupResult struct {
	Group     Group `json:"group"`
	Results   []int `json:"results"`
	Total     int   `json:"total"`
	Successes int   `json:"successes"`

	ones int
}

// Consumption is the resource accounting for one entity.
type Consumption struct {
	EntityID string `json:"entityId"`
	// Requested is the spend asked for; Spend is what was rolled after clamping.
	Requested int `json:"requested"`
	Spend     int `json:"spend"`
	// Consumed is the number of ConsumeFace results in the entity's resource group.
	Consumed int `json:"consumed"`
	// Committed is what the store actually applied.
	Committed int `json:"committed"`
}

// Outcome is a resolved roll.
type Outcome struct {
	ID        uuid.UUID     `json:"id"`
	Label     string        `json:"label,omitempty"`
	Groups    []GroupResult `json:"groups"`
	Successes int           `json:"successes"`
	Primary   Consumption   `json:"primary"`
	Linked    *Consumption  `json:"linked,omitempty"`
	Warnings  []string      `json:"warnings,omitempty"`
	RolledAt  time.Time     `json:"rolledAt"`
}

// Group returns the result for g, if it was rolled.
func (o Outcome) Group(g Group) (GroupResult, bool) {
	for _, r := range o.Groups {
		if r.Group == g {
			return r, true
		}
	}
	return GroupResult{}, false
}

// Metadata describes who and what a published outcome belongs to.
type Metadata struct {
	EntityName string `json:"entityName,omitempty"`
	LinkedName string `json:"linkedName,omitempty"`
}
