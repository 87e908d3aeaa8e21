// internal/mealsync/publish.go
package mealsync

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"meal-sync/internal/models"
)

// DietPlanStore is the subset of the tracker used to publish diet plans.
type DietPlanStore interface {
	DietPlan(ctx context.Context, date string) (models.DietPlan, error)
	SaveDietPlan(ctx context.Context, date string, plan models.DietPlan) error
}

// ResolvedMeal links a vendor meal slot to the tracker product chosen for it.
type ResolvedMeal struct {
	MealName  string
	ProductID models.ID
	Weight    models.Value
}

// ResolvedMeals is an insertion-ordered set of meals keyed by meal name. Adding
// a meal name again replaces the earlier entry in place.
type ResolvedMeals struct {
	order  []string
	byName map[string]ResolvedMeal
}

// Add records meal, replacing any earlier meal with the same name.
func (m *ResolvedMeals) Add(meal ResolvedMeal) {
	if m.byName == nil {
		m.byName = make(map[string]ResolvedMeal)
	}
	if _, ok := m.byName[meal.MealName]; !ok {
		m.order = append(m.order, meal.MealName)
	}
	m.byName[meal.MealName] = meal
}

// Merge adds every meal of other.
func (m *ResolvedMeals) Merge(other *ResolvedMeals) {
	if other == nil {
		return
	}
	for _, meal := range other.All() {
		m.Add(meal)
	}
}

// All returns the meals in insertion order.
func (m *ResolvedMeals) All() []ResolvedMeal {
	if m == nil {
		return nil
	}
	out := make([]ResolvedMeal, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.byName[name])
	}
	return out
}

// Len returns the number of meals.
func (m *ResolvedMeals) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// ProductIDs returns the set of resolved product ids.
func (m *ResolvedMeals) ProductIDs() map[models.ID]struct{} {
	ids := make(map[models.ID]struct{}, m.Len())
	for _, meal := range m.All() {
		ids[meal.ProductID] = struct{}{}
	}
	return ids
}

// Publisher merges resolved meals into the tracker's diet plan.
type Publisher struct {
	store   DietPlanStore
	mapping models.MealMapping
	now     func() time.Time
	newID   func() string
	logger  *zap.Logger
}

// PublisherOption customises a Publisher.
type PublisherOption func(*Publisher)

// WithClock overrides the time source used for updatedAt and deletedAt.
func WithClock(now func() time.Time) PublisherOption {
	return func(p *Publisher) {
		if now != nil {
			p.now = now
		}
	}
}

// WithIDGenerator overrides how new diet plan item ids are generated.
func WithIDGenerator(newID func() string) PublisherOption {
	return func(p *Publisher) {
		if newID != nil {
			p.newID = newID
		}
	}
}

// NewPublisher wires a Publisher to the tracker.
func NewPublisher(store DietPlanStore, mapping models.MealMapping, logger *zap.Logger, opts ...PublisherOption) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Publisher{
		store:   store,
		mapping: mapping,
		now:     time.Now,
		newID:   newItemID,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish reads the day's plan, merges meals into it and writes it back.
func (p *Publisher) Publish(ctx context.Context, date string, meals *ResolvedMeals) error {
	existing, err := p.store.DietPlan(ctx, date)
	if err != nil {
		return err
	}

	plan := p.Merge(date, brandItems(existing), meals)
	if err := p.store.SaveDietPlan(ctx, date, plan); err != nil {
		return err
	}
	return nil
}

// Merge builds the plan to submit from the existing brand items and the
// resolved meals. Existing items whose product is no longer resolved are
// soft-deleted; resolved meals not yet present are appended.
func (p *Publisher) Merge(date string, existing models.DietPlan, meals *ResolvedMeals) models.DietPlan {
	logger := p.logger.With(zap.String("date", date))
	stamp := p.now().Format(models.ItemTimeLayout)
	current := meals.ProductIDs()

	plan := make(models.DietPlan, len(existing))
	for slot, items := range existing {
		kept := make([]models.DietPlanItem, 0, len(items))
		for _, item := range items {
			if _, ok := current[item.ProductID]; !ok && !item.Deleted() {
				item.DeletedAt = stamp
				logger.Info("marking stale item for deletion",
					zap.String("slot", string(slot)),
					zap.Stringer("product_id", item.ProductID),
				)
			}
			kept = append(kept, item)
		}
		if len(kept) > 0 {
			plan[slot] = kept
		}
	}

	for _, meal := range meals.All() {
		slot, ok := p.mapping.Slot(meal.MealName)
		if !ok {
			logger.Info("skipping meal not covered by mapping", zap.String("meal", meal.MealName))
			continue
		}
		if plan.Contains(slot, meal.ProductID) {
			logger.Info("skipping meal already in diet plan",
				zap.String("meal", meal.MealName),
				zap.Stringer("product_id", meal.ProductID),
			)
			continue
		}

		quantity := math.Round(meal.Weight.Or(DefaultWeight))
		plan[slot] = append(plan[slot], models.DietPlanItem{
			PlanDayDietItemID: p.newID(),
			FoodType:          models.FoodTypeProduct,
			MeasureID:         models.DefaultMeasure,
			MeasureQuantity:   quantity,
			ProductID:         meal.ProductID,
			Source:            models.SourceAPI,
			UpdatedAt:         stamp,
		})
		logger.Info("added meal to diet plan",
			zap.String("meal", meal.MealName),
			zap.String("slot", string(slot)),
			zap.Float64("grams", quantity),
			zap.Stringer("product_id", meal.ProductID),
		)
	}
	return plan
}

// brandItems keeps only the items this tool owns.
func brandItems(plan models.DietPlan) models.DietPlan {
	out := make(models.DietPlan, len(plan))
	for slot, items := range plan {
		var owned []models.DietPlanItem
		for _, item := range items {
			if item.Brand == Brand {
				owned = append(owned, item)
			}
		}
		if len(owned) > 0 {
			out[slot] = owned
		}
	}
	return out
}

func newItemID() string {
	id, err := uuid.NewUUID()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
