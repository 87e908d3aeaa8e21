// internal/models/mapping.go
package models

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultMealLabels maps the vendor's Polish meal labels to tracker slots.
var DefaultMealLabels = map[string]string{
	"Śniadanie":    string(Breakfast),
	"II śniadanie": string(SecondBreakfast),
	"Obiad":        string(Dinner),
	"Podwieczorek": string(Snack),
	"Kolacja":      string(Supper),
}

// MealMapping resolves vendor meal labels to tracker slots.
type MealMapping struct {
	slots map[string]Slot
}

// NewMealMapping validates every slot in labels and builds a mapping.
func NewMealMapping(labels map[string]string) (MealMapping, error) {
	slots := make(map[string]Slot, len(labels))
	for label, value := range labels {
		key := normalizeLabel(label)
		if key == "" {
			return MealMapping{}, fmt.Errorf("meal mapping: empty label for slot %q", value)
		}
		slot, err := ParseSlot(value)
		if err != nil {
			return MealMapping{}, fmt.Errorf("meal mapping %q: %w", label, err)
		}
		slots[key] = slot
	}
	return MealMapping{slots: slots}, nil
}

// DefaultMealMapping returns the mapping for DefaultMealLabels.
func DefaultMealMapping() MealMapping {
	mapping, err := NewMealMapping(DefaultMealLabels)
	if err != nil {
		panic(err)
	}
	return mapping
}

// Slot returns the slot for a vendor label.
func (m MealMapping) Slot(label string) (Slot, bool) {
	slot, ok := m.slots[normalizeLabel(label)]
	return slot, ok
}

// Len returns the number of mapped labels.
func (m MealMapping) Len() int {
	return len(m.slots)
}

// Vendor labels arrive in either composed or decomposed form depending on the
// client that entered them.
func normalizeLabel(label string) string {
	return norm.NFC.String(strings.TrimSpace(label))
}
