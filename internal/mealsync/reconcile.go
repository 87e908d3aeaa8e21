// internal/mealsync/reconcile.go
package mealsync

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"meal-sync/internal/models"
)

// Brand is stamped on every product this tool creates. Searches and diet plan
// edits only ever touch products carrying it.
const Brand = "Viking"

// DefaultWeight is the portion size in grams used when the vendor reports none.
const DefaultWeight = 100.0

// matchTolerance is the relative difference below which two nutrition values
// are considered equal.
const matchTolerance = 0.001

// ProductStore is the subset of the tracker used for product reconciliation.
type ProductStore interface {
	SearchProducts(ctx context.Context, phrase, date string) ([]models.TrackerProduct, error)
	CreateProduct(ctx context.Context, product models.NewProduct) (models.ID, error)
	DeleteProduct(ctx context.Context, id models.ID) error
}

// ValuesMatch reports whether two nutrition values agree within tolerance.
// Values that cannot be compared because either side is absent always match.
func ValuesMatch(existing, incoming models.Value) bool {
	a, ok := existing.Float64()
	if !ok {
		return true
	}
	b, ok := incoming.Float64()
	if !ok {
		return true
	}
	return math.Abs(a-b) <= matchTolerance*math.Max(math.Abs(a), math.Abs(b))
}

// Reconciler finds or creates the tracker product for a vendor meal.
type Reconciler struct {
	store  ProductStore
	logger *zap.Logger
}

// NewReconciler wires a Reconciler to the tracker.
func NewReconciler(store ProductStore, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{store: store, logger: logger}
}

// FindOrCreate returns the id of the product named name whose energy matches the
// meal's calories, deleting every other same-named product. When none matches
// a new product is created.
func (r *Reconciler) FindOrCreate(ctx context.Context, name string, nutrition models.Nutrition, date string) (models.ID, error) {
	logger := r.logger.With(zap.String("product", name), zap.String("date", date))

	candidates, err := r.candidates(ctx, name, date)
	if err != nil {
		return "", err
	}
	if len(candidates) > 0 {
		logger.Info("found existing products", zap.Int("count", len(candidates)))
		for _, p := range candidates {
			logger.Debug("candidate product",
				zap.Stringer("food_id", p.FoodID),
				zap.Stringer("energy", p.Energy),
				zap.Stringer("protein", p.Protein),
			)
		}
	}

	for i, product := range candidates {
		if !ValuesMatch(product.Energy, nutrition.Calories) {
			continue
		}
		logger.Info("matched product",
			zap.Stringer("food_id", product.FoodID),
			zap.Stringer("energy", product.Energy),
			zap.Stringer("calories", nutrition.Calories),
		)
		r.deleteDuplicates(ctx, logger, candidates, i)
		return product.FoodID, nil
	}

	if len(candidates) > 0 {
		if diffs := differences(candidates[0], nutrition); len(diffs) > 0 {
			logger.Warn("nutrition mismatch, creating new product",
				zap.Stringer("food_id", candidates[0].FoodID),
				zap.Strings("differences", diffs),
			)
		}
	}

	id, err := r.store.CreateProduct(ctx, newProduct(name, nutrition))
	if err != nil {
		return "", err
	}
	logger.Info("created product", zap.Stringer("food_id", id))
	return id, nil
}

// candidates returns the search results that are exactly name and carry Brand.
func (r *Reconciler) candidates(ctx context.Context, name, date string) ([]models.TrackerProduct, error) {
	results, err := r.store.SearchProducts(ctx, name, date)
	if err != nil {
		return nil, err
	}
	var out []models.TrackerProduct
	for _, p := range results {
		if p.Name == name && p.Brand == Brand {
			out = append(out, p)
		}
	}
	return out, nil
}

// deleteDuplicates removes every candidate except the one at keep. Failures are
// logged and do not stop the run.
func (r *Reconciler) deleteDuplicates(ctx context.Context, logger *zap.Logger, candidates []models.TrackerProduct, keep int) {
	deleted := 0
	for i, product := range candidates {
		if i == keep || product.FoodID == candidates[keep].FoodID {
			continue
		}
		if err := r.store.DeleteProduct(ctx, product.FoodID); err != nil {
			logger.Warn("failed to delete duplicate product", zap.Stringer("food_id", product.FoodID), zap.Error(err))
			continue
		}
		logger.Info("deleted duplicate product", zap.Stringer("food_id", product.FoodID), zap.Stringer("energy", product.Energy))
		deleted++
	}
	if deleted > 0 {
		logger.Info("cleaned up duplicates", zap.Int("count", deleted))
	}
}

func differences(existing models.TrackerProduct, n models.Nutrition) []string {
	fields := []struct {
		label    string
		existing models.Value
		incoming models.Value
	}{
		{"calories", existing.Energy, n.Calories},
		{"protein", existing.Protein, n.Protein},
		{"carbohydrate", existing.Carbohydrate, n.Carbohydrate},
		{"fat", existing.Fat, n.Fat},
	}

	var diffs []string
	for _, f := range fields {
		if !ValuesMatch(f.existing, f.incoming) {
			diffs = append(diffs, fmt.Sprintf("%s: %s -> %s", f.label, f.existing, f.incoming))
		}
	}
	return diffs
}

func newProduct(name string, n models.Nutrition) models.NewProduct {
	return models.NewProduct{
		Name:         name,
		Brand:        Brand,
		Energy:       n.Calories,
		Carbohydrate: n.Carbohydrate,
		Sugars:       n.Sugar,
		Fat:          n.Fat,
		Protein:      n.Protein,
		SaturatedFat: n.SaturatedFat,
		Fiber:        n.Fiber,
		Salt:         n.Salt,
		Measures: []models.Measure{{
			MeasureKey:  models.MeasureKeyPackage,
			MeasureUnit: models.MeasureUnitGram,
			Weight:      models.Number(n.Weight.Or(DefaultWeight)).String(),
		}},
	}
}
