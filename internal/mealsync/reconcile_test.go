package mealsync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"meal-sync/internal/models"
)

func TestValuesMatch(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		existing models.Value
		incoming models.Value
		want     bool
	}{
		{"within tolerance", models.Number(100), models.Number(100.05), true},
		{"outside tolerance", models.Number(100), models.Number(102), false},
		{"existing absent", models.Absent(), models.Number(50), true},
		{"incoming absent", models.Number(50), models.Absent(), true},
		{"both zero", models.Number(0), models.Number(0), true},
		{"zero against value", models.Number(0), models.Number(1), false},
		{"boundary", models.Number(1000), models.Number(1001), true},
		{"just past boundary", models.Number(1000), models.Number(1001.2), false},
		{"symmetric", models.Number(100.05), models.Number(100), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ValuesMatch(tc.existing, tc.incoming))
		})
	}
}

func dinnerNutrition() models.Nutrition {
	return models.Nutrition{
		Calories:     models.Number(612),
		Protein:      models.Number(41),
		Carbohydrate: models.Number(55.5),
		Sugar:        models.Number(8),
		Fat:          models.Number(21),
		SaturatedFat: models.Absent(),
		Fiber:        models.Number(6),
		Salt:         models.Number(2.1),
		Weight:       models.Number(420),
	}
}

func TestFindOrCreateCreatesWhenNothingExists(t *testing.T) {
	t.Parallel()

	tracker := newFakeTracker()
	r := NewReconciler(tracker, zaptest.NewLogger(t))

	id, err := r.FindOrCreate(context.Background(), "Kurczak tikka masala", dinnerNutrition(), "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, models.ID("1001"), id)

	require.Len(t, tracker.created, 1)
	created := tracker.created[0]
	assert.Equal(t, "Kurczak tikka masala", created.Name)
	assert.Equal(t, Brand, created.Brand)
	assert.Equal(t, models.Number(612), created.Energy)
	assert.Equal(t, models.Number(8), created.Sugars)
	assert.False(t, created.SaturatedFat.IsPresent())
	assert.Equal(t, []models.Measure{{MeasureKey: "PACKAGE", MeasureUnit: "g", Weight: "420"}}, created.Measures)
	assert.Empty(t, tracker.deleted)
}

func TestFindOrCreateIsIdempotent(t *testing.T) {
	t.Parallel()

	tracker := newFakeTracker()
	r := NewReconciler(tracker, zaptest.NewLogger(t))
	ctx := context.Background()

	first, err := r.FindOrCreate(ctx, "Bigos", dinnerNutrition(), "2024-01-01")
	require.NoError(t, err)
	second, err := r.FindOrCreate(ctx, "Bigos", dinnerNutrition(), "2024-01-01")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, tracker.created, 1)
	assert.Len(t, tracker.products, 1)
	assert.Empty(t, tracker.deleted)
}

func TestFindOrCreateKeepsMatchAndDeletesOthers(t *testing.T) {
	t.Parallel()

	tracker := newFakeTracker(
		product("1", "Bigos", 500),
		product("2", "Bigos", 612.3),
		product("3", "Bigos", 612),
	)
	r := NewReconciler(tracker, zaptest.NewLogger(t))

	id, err := r.FindOrCreate(context.Background(), "Bigos", dinnerNutrition(), "2024-01-01")
	require.NoError(t, err)

	assert.Equal(t, models.ID("2"), id)
	assert.Equal(t, []models.ID{"1", "3"}, tracker.deleted)
	assert.Empty(t, tracker.created)
	require.Len(t, tracker.products, 1)
	assert.Equal(t, models.ID("2"), tracker.products[0].FoodID)
}

func TestFindOrCreateIgnoresOtherNamesAndBrands(t *testing.T) {
	t.Parallel()

	foreign := product("7", "Bigos", 612)
	foreign.Brand = "Pudliszki"
	tracker := newFakeTracker(
		foreign,
		product("8", "Bigos staropolski", 612),
	)
	r := NewReconciler(tracker, zaptest.NewLogger(t))

	id, err := r.FindOrCreate(context.Background(), "Bigos", dinnerNutrition(), "2024-01-01")
	require.NoError(t, err)

	assert.Equal(t, models.ID("1001"), id)
	assert.Len(t, tracker.created, 1)
	assert.Empty(t, tracker.deleted)
}

func TestFindOrCreateMismatchCreatesWithoutDeleting(t *testing.T) {
	t.Parallel()

	stale := product("5", "Bigos", 540)
	stale.Protein = models.Number(30)
	tracker := newFakeTracker(stale)
	r := NewReconciler(tracker, zaptest.NewLogger(t))

	id, err := r.FindOrCreate(context.Background(), "Bigos", dinnerNutrition(), "2024-01-01")
	require.NoError(t, err)

	assert.Equal(t, models.ID("1001"), id)
	assert.Empty(t, tracker.deleted)
	assert.Len(t, tracker.products, 2)

	// The next run matches the new product and removes the stale one.
	id, err = r.FindOrCreate(context.Background(), "Bigos", dinnerNutrition(), "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, models.ID("1001"), id)
	assert.Equal(t, []models.ID{"5"}, tracker.deleted)
}

func TestFindOrCreateMissingCaloriesMatchesFirst(t *testing.T) {
	t.Parallel()

	tracker := newFakeTracker(product("1", "Bigos", 500), product("2", "Bigos", 612))
	r := NewReconciler(tracker, zaptest.NewLogger(t))

	n := dinnerNutrition()
	n.Calories = models.Absent()
	id, err := r.FindOrCreate(context.Background(), "Bigos", n, "2024-01-01")
	require.NoError(t, err)

	assert.Equal(t, models.ID("1"), id)
	assert.Equal(t, []models.ID{"2"}, tracker.deleted)
}

func TestFindOrCreateToleratesDeleteFailure(t *testing.T) {
	t.Parallel()

	tracker := newFakeTracker(
		product("1", "Bigos", 612),
		product("2", "Bigos", 300),
		product("3", "Bigos", 200),
	)
	tracker.deleteErr["2"] = errFake
	r := NewReconciler(tracker, zaptest.NewLogger(t))

	id, err := r.FindOrCreate(context.Background(), "Bigos", dinnerNutrition(), "2024-01-01")
	require.NoError(t, err)

	assert.Equal(t, models.ID("1"), id)
	assert.Equal(t, []models.ID{"3"}, tracker.deleted)
}

func TestFindOrCreateCreateFailure(t *testing.T) {
	t.Parallel()

	tracker := newFakeTracker()
	tracker.createErr = errFake
	r := NewReconciler(tracker, zaptest.NewLogger(t))

	id, err := r.FindOrCreate(context.Background(), "Bigos", dinnerNutrition(), "2024-01-01")
	require.ErrorIs(t, err, errFake)
	assert.True(t, id.IsZero())
}

func TestFindOrCreateSearchFailure(t *testing.T) {
	t.Parallel()

	tracker := newFakeTracker()
	tracker.searchErr = errFake
	r := NewReconciler(tracker, zaptest.NewLogger(t))

	_, err := r.FindOrCreate(context.Background(), "Bigos", dinnerNutrition(), "2024-01-01")
	require.ErrorIs(t, err, errFake)
	assert.Empty(t, tracker.created)
}

func TestNewProductDefaultsWeight(t *testing.T) {
	t.Parallel()

	n := dinnerNutrition()
	n.Weight = models.Absent()
	p := newProduct("Bigos", n)
	require.Len(t, p.Measures, 1)
	assert.Equal(t, "100", p.Measures[0].Weight)

	n.Weight = models.Number(352.5)
	assert.Equal(t, "352.5", newProduct("Bigos", n).Measures[0].Weight)
}
