package mealsync

import (
	"context"
	"errors"
	"fmt"

	"meal-sync/internal/models"
)

var errFake = errors.New("fake failure")

// fakeTracker stores products and diet plans in memory and mimics the tracker
// by echoing saved plans back without deleted items.
type fakeTracker struct {
	products  []models.TrackerProduct
	nextID    int
	created   []models.NewProduct
	deleted   []models.ID
	searches  int
	searchErr error
	createErr error
	deleteErr map[models.ID]error

	plans   map[string]models.DietPlan
	saved   map[string][]models.DietPlan
	planErr error
	saveErr map[string]error
}

func newFakeTracker(products ...models.TrackerProduct) *fakeTracker {
	return &fakeTracker{
		products:  products,
		nextID:    1000,
		deleteErr: map[models.ID]error{},
		plans:     map[string]models.DietPlan{},
		saved:     map[string][]models.DietPlan{},
		saveErr:   map[string]error{},
	}
}

func (f *fakeTracker) SearchProducts(ctx context.Context, phrase, date string) ([]models.TrackerProduct, error) {
	f.searches++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	out := make([]models.TrackerProduct, len(f.products))
	copy(out, f.products)
	return out, nil
}

func (f *fakeTracker) CreateProduct(ctx context.Context, product models.NewProduct) (models.ID, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextID++
	id := models.ID(fmt.Sprint(f.nextID))
	f.created = append(f.created, product)
	f.products = append(f.products, models.TrackerProduct{
		FoodID:       id,
		Name:         product.Name,
		Brand:        product.Brand,
		Energy:       product.Energy,
		Protein:      product.Protein,
		Carbohydrate: product.Carbohydrate,
		Fat:          product.Fat,
	})
	return id, nil
}

func (f *fakeTracker) DeleteProduct(ctx context.Context, id models.ID) error {
	if err := f.deleteErr[id]; err != nil {
		return err
	}
	f.deleted = append(f.deleted, id)
	kept := f.products[:0]
	for _, p := range f.products {
		if p.FoodID != id {
			kept = append(kept, p)
		}
	}
	f.products = kept
	return nil
}

func (f *fakeTracker) DietPlan(ctx context.Context, date string) (models.DietPlan, error) {
	if f.planErr != nil {
		return nil, f.planErr
	}
	return clonePlan(f.plans[date]), nil
}

func (f *fakeTracker) SaveDietPlan(ctx context.Context, date string, plan models.DietPlan) error {
	if err := f.saveErr[date]; err != nil {
		return err
	}
	f.saved[date] = append(f.saved[date], clonePlan(plan))

	stored := models.DietPlan{}
	for slot, items := range plan {
		for _, item := range items {
			if item.Deleted() {
				continue
			}
			item.Brand = Brand
			stored[slot] = append(stored[slot], item)
		}
	}
	for slot, items := range f.plans[date] {
		for _, item := range items {
			if item.Brand != Brand {
				stored[slot] = append(stored[slot], item)
			}
		}
	}
	f.plans[date] = stored
	return nil
}

func (f *fakeTracker) lastSaved(date string) models.DietPlan {
	saves := f.saved[date]
	if len(saves) == 0 {
		return nil
	}
	return saves[len(saves)-1]
}

func clonePlan(plan models.DietPlan) models.DietPlan {
	if plan == nil {
		return models.DietPlan{}
	}
	out := make(models.DietPlan, len(plan))
	for slot, items := range plan {
		out[slot] = append([]models.DietPlanItem(nil), items...)
	}
	return out
}

type fakeOrders struct {
	order      models.Order
	orderErr   error
	orderCalls int
	menus      map[models.ID]models.DeliveryMenu
	menuErr    map[models.ID]error
}

func (f *fakeOrders) Order(ctx context.Context, orderID string) (models.Order, error) {
	f.orderCalls++
	if f.orderErr != nil {
		return models.Order{}, f.orderErr
	}
	return f.order, nil
}

func (f *fakeOrders) DeliveryMenu(ctx context.Context, deliveryID models.ID) (models.DeliveryMenu, error) {
	if err := f.menuErr[deliveryID]; err != nil {
		return models.DeliveryMenu{}, err
	}
	return f.menus[deliveryID], nil
}

func product(id, name string, energy float64) models.TrackerProduct {
	return models.TrackerProduct{
		FoodID: models.ID(id),
		Name:   name,
		Brand:  Brand,
		Energy: models.Number(energy),
	}
}

func deliveryMealID(id string) *models.ID {
	v := models.ID(id)
	return &v
}
