// internal/models/dietplan.go
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Slot is a meal time in the tracker's day plan.
type Slot string

const (
	Breakfast       Slot = "breakfast"
	SecondBreakfast Slot = "second_breakfast"
	Dinner          Slot = "dinner"
	Snack           Slot = "snack"
	Supper          Slot = "supper"
)

// Slots lists every slot in day order.
var Slots = []Slot{Breakfast, SecondBreakfast, Dinner, Snack, Supper}

// ErrUnknownSlot is returned by ParseSlot for values outside the fixed set.
var ErrUnknownSlot = errors.New("unknown meal slot")

// ParseSlot validates a tracker slot key.
func ParseSlot(s string) (Slot, error) {
	candidate := Slot(strings.ToLower(strings.TrimSpace(s)))
	for _, slot := range Slots {
		if slot == candidate {
			return slot, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSlot, s)
}

// DietPlan item constants used by the tracker.
const (
	FoodTypeProduct = "PRODUCT"
	SourceAPI       = "API"
	DefaultMeasure  = 1

	// ItemTimeLayout is the timestamp layout of updatedAt and deletedAt.
	ItemTimeLayout = "2006-01-02 15:04:05"
)

// DietPlanItem is one entry of a slot in a day's diet plan.
type DietPlanItem struct {
	PlanDayDietItemID string  `json:"planDayDietItemId"`
	FoodType          string  `json:"foodType"`
	MeasureID         int     `json:"measureId,omitempty"`
	MeasureQuantity   float64 `json:"measureQuantity"`
	ProductID         ID      `json:"productId"`
	Source            string  `json:"source,omitempty"`
	Brand             string  `json:"brand,omitempty"`
	Name              string  `json:"name,omitempty"`
	UpdatedAt         string  `json:"updatedAt,omitempty"`
	DeletedAt         string  `json:"deletedAt,omitempty"`

	// raw holds every field as the tracker sent it. Fields this type does not
	// model are written back unchanged.
	raw map[string]json.RawMessage
}

// dietPlanItemFields has the fields of DietPlanItem without its JSON methods.
type dietPlanItemFields DietPlanItem

// UnmarshalJSON decodes the modelled fields and keeps the full object.
func (i *DietPlanItem) UnmarshalJSON(data []byte) error {
	var fields dietPlanItemFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*i = DietPlanItem(fields)
	i.raw = raw
	return nil
}

// MarshalJSON writes the item over the fields it was decoded from. A productId
// that still names the same product keeps its original JSON form.
func (i DietPlanItem) MarshalJSON() ([]byte, error) {
	modelled, err := json.Marshal(dietPlanItemFields(i))
	if err != nil {
		return nil, err
	}
	if len(i.raw) == 0 {
		return modelled, nil
	}

	var overlay map[string]json.RawMessage
	if err := json.Unmarshal(modelled, &overlay); err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(i.raw)+len(overlay))
	for key, value := range i.raw {
		out[key] = value
	}
	for key, value := range overlay {
		out[key] = value
	}
	if original, ok := i.raw["productId"]; ok && !bytes.Equal(bytes.TrimSpace(original), []byte("null")) {
		var id ID
		if err := json.Unmarshal(original, &id); err == nil && id == i.ProductID {
			out["productId"] = original
		}
	}
	return json.Marshal(out)
}

// Deleted reports whether the item carries a deletion timestamp.
func (i DietPlanItem) Deleted() bool {
	return i.DeletedAt != ""
}

// DietPlan holds the items of each slot for a single day.
type DietPlan map[Slot][]DietPlanItem

// SlotItems is the wire shape of a single slot.
type SlotItems struct {
	Items []DietPlanItem `json:"items"`
}

// MarshalJSON renders the plan in the tracker's {slot: {items: [...]}} shape.
func (p DietPlan) MarshalJSON() ([]byte, error) {
	out := make(map[Slot]SlotItems, len(p))
	for slot, items := range p {
		if items == nil {
			items = []DietPlanItem{}
		}
		out[slot] = SlotItems{Items: items}
	}
	return json.Marshal(out)
}

// RawDietPlan is the undecoded slot map as served by the tracker; keys have not
// been validated yet.
type RawDietPlan map[string]SlotItems

// Contains reports whether an item with the product exists in slot and has
// not been deleted.
func (p DietPlan) Contains(slot Slot, productID ID) bool {
	for _, item := range p[slot] {
		if item.ProductID == productID && !item.Deleted() {
			return true
		}
	}
	return false
}
