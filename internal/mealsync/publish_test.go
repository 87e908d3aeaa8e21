package mealsync

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"meal-sync/internal/models"
)

var fixedNow = time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("item-%d", n)
	}
}

func newTestPublisher(t *testing.T, store DietPlanStore) *Publisher {
	t.Helper()
	return NewPublisher(store, models.DefaultMealMapping(), zaptest.NewLogger(t),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(sequentialIDs()),
	)
}

func mealsOf(meals ...ResolvedMeal) *ResolvedMeals {
	out := &ResolvedMeals{}
	for _, m := range meals {
		out.Add(m)
	}
	return out
}

func brandItem(id string, productID models.ID) models.DietPlanItem {
	return models.DietPlanItem{
		PlanDayDietItemID: id,
		FoodType:          models.FoodTypeProduct,
		MeasureID:         models.DefaultMeasure,
		MeasureQuantity:   300,
		ProductID:         productID,
		Source:            models.SourceAPI,
		Brand:             Brand,
	}
}

func TestResolvedMealsKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	var meals ResolvedMeals
	meals.Add(ResolvedMeal{MealName: "Obiad", ProductID: "1"})
	meals.Add(ResolvedMeal{MealName: "Śniadanie", ProductID: "2"})
	meals.Add(ResolvedMeal{MealName: "Obiad", ProductID: "3"})

	other := mealsOf(ResolvedMeal{MealName: "Kolacja", ProductID: "4"})
	meals.Merge(other)
	meals.Merge(nil)

	all := meals.All()
	require.Len(t, all, 3)
	assert.Equal(t, "Obiad", all[0].MealName)
	assert.Equal(t, models.ID("3"), all[0].ProductID)
	assert.Equal(t, "Śniadanie", all[1].MealName)
	assert.Equal(t, "Kolacja", all[2].MealName)
	assert.Equal(t, map[models.ID]struct{}{"2": {}, "3": {}, "4": {}}, meals.ProductIDs())

	var nilMeals *ResolvedMeals
	assert.Zero(t, nilMeals.Len())
	assert.Empty(t, nilMeals.All())
}

func TestMergeAppendsNewMeals(t *testing.T) {
	t.Parallel()

	p := newTestPublisher(t, newFakeTracker())
	plan := p.Merge("2024-01-01", models.DietPlan{}, mealsOf(
		ResolvedMeal{MealName: "Śniadanie", ProductID: "11", Weight: models.Number(349.6)},
		ResolvedMeal{MealName: "Obiad", ProductID: "12", Weight: models.Absent()},
	))

	require.Len(t, plan[models.Breakfast], 1)
	assert.Equal(t, models.DietPlanItem{
		PlanDayDietItemID: "item-1",
		FoodType:          "PRODUCT",
		MeasureID:         1,
		MeasureQuantity:   350,
		ProductID:         "11",
		Source:            "API",
		UpdatedAt:         "2024-01-01 12:30:00",
	}, plan[models.Breakfast][0])

	require.Len(t, plan[models.Dinner], 1)
	assert.Equal(t, "item-2", plan[models.Dinner][0].PlanDayDietItemID)
	assert.Equal(t, DefaultWeight, plan[models.Dinner][0].MeasureQuantity)
}

func TestMergeSoftDeletesStaleItems(t *testing.T) {
	t.Parallel()

	p := newTestPublisher(t, newFakeTracker())
	existing := models.DietPlan{
		models.Breakfast: {brandItem("a", "11")},
		models.Dinner:    {brandItem("b", "99")},
	}
	plan := p.Merge("2024-01-01", existing, mealsOf(
		ResolvedMeal{MealName: "Śniadanie", ProductID: "11", Weight: models.Number(300)},
	))

	require.Len(t, plan[models.Breakfast], 1)
	assert.False(t, plan[models.Breakfast][0].Deleted())
	assert.Equal(t, "a", plan[models.Breakfast][0].PlanDayDietItemID)

	require.Len(t, plan[models.Dinner], 1)
	assert.Equal(t, "2024-01-01 12:30:00", plan[models.Dinner][0].DeletedAt)
	assert.Equal(t, "b", plan[models.Dinner][0].PlanDayDietItemID)
}

func TestMergeKeepsExistingDeletionTimestamp(t *testing.T) {
	t.Parallel()

	p := newTestPublisher(t, newFakeTracker())
	old := brandItem("b", "99")
	old.DeletedAt = "2023-12-31 08:00:00"

	plan := p.Merge("2024-01-01", models.DietPlan{models.Dinner: {old}}, &ResolvedMeals{})

	require.Len(t, plan[models.Dinner], 1)
	assert.Equal(t, "2023-12-31 08:00:00", plan[models.Dinner][0].DeletedAt)
}

func TestMergeSkipsUnmappedMeals(t *testing.T) {
	t.Parallel()

	p := newTestPublisher(t, newFakeTracker())
	plan := p.Merge("2024-01-01", models.DietPlan{}, mealsOf(
		ResolvedMeal{MealName: "Przekąska nocna", ProductID: "11"},
	))

	assert.Empty(t, plan)
}

func TestMergeAddsMealOnceWhenAlreadyPresent(t *testing.T) {
	t.Parallel()

	p := newTestPublisher(t, newFakeTracker())
	existing := models.DietPlan{models.Dinner: {brandItem("a", "12")}}
	plan := p.Merge("2024-01-01", existing, mealsOf(
		ResolvedMeal{MealName: "Obiad", ProductID: "12", Weight: models.Number(450)},
	))

	require.Len(t, plan[models.Dinner], 1)
	assert.Equal(t, "a", plan[models.Dinner][0].PlanDayDietItemID)
	assert.Equal(t, float64(300), plan[models.Dinner][0].MeasureQuantity)
}

func TestMergeReaddsDeletedProduct(t *testing.T) {
	t.Parallel()

	p := newTestPublisher(t, newFakeTracker())
	old := brandItem("a", "12")
	old.DeletedAt = "2023-12-31 08:00:00"
	plan := p.Merge("2024-01-01", models.DietPlan{models.Dinner: {old}}, mealsOf(
		ResolvedMeal{MealName: "Obiad", ProductID: "12", Weight: models.Number(450)},
	))

	require.Len(t, plan[models.Dinner], 2)
	assert.True(t, plan[models.Dinner][0].Deleted())
	assert.False(t, plan[models.Dinner][1].Deleted())
	assert.Equal(t, float64(450), plan[models.Dinner][1].MeasureQuantity)
}

func TestPublishIgnoresForeignItems(t *testing.T) {
	t.Parallel()

	tracker := newFakeTracker()
	foreign := models.DietPlanItem{
		PlanDayDietItemID: "manual",
		FoodType:          models.FoodTypeProduct,
		ProductID:         "555",
		Brand:             "Danone",
	}
	tracker.plans["2024-01-01"] = models.DietPlan{models.Snack: {foreign}}
	p := newTestPublisher(t, tracker)

	err := p.Publish(context.Background(), "2024-01-01", mealsOf(
		ResolvedMeal{MealName: "Kolacja", ProductID: "13", Weight: models.Number(250)},
	))
	require.NoError(t, err)

	saved := tracker.lastSaved("2024-01-01")
	assert.NotContains(t, saved, models.Snack)
	require.Len(t, saved[models.Supper], 1)
	assert.Equal(t, models.ID("13"), saved[models.Supper][0].ProductID)

	// The foreign item survives on the tracker side.
	assert.Equal(t, []models.DietPlanItem{foreign}, tracker.plans["2024-01-01"][models.Snack])
}

func TestPublishIsIdempotent(t *testing.T) {
	t.Parallel()

	tracker := newFakeTracker()
	p := newTestPublisher(t, tracker)
	ctx := context.Background()
	meals := mealsOf(
		ResolvedMeal{MealName: "Śniadanie", ProductID: "11", Weight: models.Number(300)},
		ResolvedMeal{MealName: "Obiad", ProductID: "12", Weight: models.Number(450)},
	)

	require.NoError(t, p.Publish(ctx, "2024-01-01", meals))
	require.NoError(t, p.Publish(ctx, "2024-01-01", meals))

	stored := tracker.plans["2024-01-01"]
	assert.Len(t, stored[models.Breakfast], 1)
	assert.Len(t, stored[models.Dinner], 1)

	second := tracker.lastSaved("2024-01-01")
	for _, items := range second {
		for _, item := range items {
			assert.False(t, item.Deleted())
			assert.NotEqual(t, "item-3", item.PlanDayDietItemID)
		}
	}
}

func TestPublishEmptyMealsClearsDay(t *testing.T) {
	t.Parallel()

	tracker := newFakeTracker()
	tracker.plans["2024-01-01"] = models.DietPlan{models.Dinner: {brandItem("a", "12")}}
	p := newTestPublisher(t, tracker)

	require.NoError(t, p.Publish(context.Background(), "2024-01-01", &ResolvedMeals{}))

	saved := tracker.lastSaved("2024-01-01")
	require.Len(t, saved[models.Dinner], 1)
	assert.True(t, saved[models.Dinner][0].Deleted())
	assert.Empty(t, tracker.plans["2024-01-01"][models.Dinner])
}

func TestPublishPropagatesStoreErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	tracker := newFakeTracker()
	tracker.planErr = errFake
	err := newTestPublisher(t, tracker).Publish(ctx, "2024-01-01", &ResolvedMeals{})
	require.ErrorIs(t, err, errFake)
	assert.Empty(t, tracker.saved)

	tracker = newFakeTracker()
	tracker.saveErr["2024-01-01"] = errFake
	err = newTestPublisher(t, tracker).Publish(ctx, "2024-01-01", &ResolvedMeals{})
	require.ErrorIs(t, err, errFake)
}
