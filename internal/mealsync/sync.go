// internal/mealsync/sync.go
package mealsync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"meal-sync/internal/models"
)

var (
	errOrdersRequired  = errors.New("mealsync: order source is required")
	errTrackerRequired = errors.New("mealsync: tracker is required")
	errOrderIDRequired = errors.New("mealsync: order id is required")
)

// OrderSource reads the vendor order and delivery menus.
type OrderSource interface {
	Order(ctx context.Context, orderID string) (models.Order, error)
	DeliveryMenu(ctx context.Context, deliveryID models.ID) (models.DeliveryMenu, error)
}

// Tracker is everything the sync needs from the nutrition tracker.
type Tracker interface {
	ProductStore
	DietPlanStore
}

// Deps wires the dependencies of a Syncer.
type Deps struct {
	Orders           OrderSource
	Tracker          Tracker
	OrderID          string
	Mapping          models.MealMapping
	Logger           *zap.Logger
	PublisherOptions []PublisherOption
}

// Syncer runs the order to diet plan pipeline one date at a time.
type Syncer struct {
	orders     OrderSource
	orderID    string
	reconciler *Reconciler
	publisher  *Publisher
	logger     *zap.Logger
}

// DateReport summarises the outcome for one date.
type DateReport struct {
	Date       string `json:"date"`
	Deliveries int    `json:"deliveries"`
	Meals      int    `json:"meals"`
	Published  bool   `json:"published"`
	Error      string `json:"error,omitempty"`
}

// Report summarises a run.
type Report struct {
	Dates []DateReport `json:"dates"`
}

// Failed returns the number of dates that were not published.
func (r Report) Failed() int {
	failed := 0
	for _, d := range r.Dates {
		if !d.Published {
			failed++
		}
	}
	return failed
}

// New constructs a Syncer.
func New(deps Deps) (*Syncer, error) {
	if deps.Orders == nil {
		return nil, errOrdersRequired
	}
	if deps.Tracker == nil {
		return nil, errTrackerRequired
	}
	if strings.TrimSpace(deps.OrderID) == "" {
		return nil, errOrderIDRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Syncer{
		orders:     deps.Orders,
		orderID:    deps.OrderID,
		reconciler: NewReconciler(deps.Tracker, logger.Named("reconcile")),
		publisher:  NewPublisher(deps.Tracker, deps.Mapping, logger.Named("publish"), deps.PublisherOptions...),
		logger:     logger,
	}, nil
}

// DeliveriesForDate returns the deliveries scheduled on date, in order.
func DeliveriesForDate(order models.Order, date string) []models.Delivery {
	var out []models.Delivery
	for _, d := range order.Deliveries {
		if d.Date == date {
			out = append(out, d)
		}
	}
	return out
}

// Run fetches the order once and processes each date in turn. It fails only
// when the order cannot be read; per-date failures are reported.
func (s *Syncer) Run(ctx context.Context, dates []string) (Report, error) {
	report := Report{Dates: []DateReport{}}
	if len(dates) == 0 {
		s.logger.Warn("no dates selected, nothing to do")
		return report, nil
	}

	order, err := s.orders.Order(ctx, s.orderID)
	if err != nil {
		s.logger.Error("failed to retrieve order", zap.String("order_id", s.orderID), zap.Error(err))
		return report, fmt.Errorf("retrieve order %s: %w", s.orderID, err)
	}

	for _, date := range dates {
		report.Dates = append(report.Dates, s.ProcessDate(ctx, order, date))
	}
	return report, nil
}

// Deliveries fetches the order and returns the deliveries scheduled on date.
func (s *Syncer) Deliveries(ctx context.Context, date string) ([]models.Delivery, error) {
	order, err := s.orders.Order(ctx, s.orderID)
	if err != nil {
		return nil, fmt.Errorf("retrieve order %s: %w", s.orderID, err)
	}
	return DeliveriesForDate(order, date), nil
}

// ProcessDate resolves every meal delivered on date and publishes the diet plan.
func (s *Syncer) ProcessDate(ctx context.Context, order models.Order, date string) DateReport {
	logger := s.logger.With(zap.String("date", date))
	logger.Info("processing date")

	report := DateReport{Date: date}
	deliveries := DeliveriesForDate(order, date)
	report.Deliveries = len(deliveries)
	if len(deliveries) == 0 {
		logger.Info("no deliveries found")
	}

	meals := &ResolvedMeals{}
	for _, delivery := range deliveries {
		resolved, err := s.ProcessDelivery(ctx, delivery, date)
		if err != nil {
			logger.Error("failed to retrieve delivery details", zap.Stringer("delivery_id", delivery.DeliveryID), zap.Error(err))
			continue
		}
		meals.Merge(resolved)
	}
	report.Meals = meals.Len()

	if err := s.publisher.Publish(ctx, date, meals); err != nil {
		logger.Error("failed to update diet plan", zap.Error(err))
		report.Error = err.Error()
		return report
	}
	logger.Info("diet plan updated", zap.Int("meals", meals.Len()))
	report.Published = true
	return report
}

// ProcessDelivery fetches the delivery menu and resolves a product for every
// delivered meal. Meals whose product cannot be resolved are skipped.
func (s *Syncer) ProcessDelivery(ctx context.Context, delivery models.Delivery, date string) (*ResolvedMeals, error) {
	menu, err := s.orders.DeliveryMenu(ctx, delivery.DeliveryID)
	if err != nil {
		return nil, err
	}

	meals := &ResolvedMeals{}
	for _, meal := range menu.Meals {
		if !meal.Delivered() {
			s.logger.Info("skipping meal without delivery", zap.String("date", date), zap.String("meal", meal.MealName))
			continue
		}
		if strings.TrimSpace(meal.MenuMealName) == "" {
			continue
		}

		productID, err := s.reconciler.FindOrCreate(ctx, meal.MenuMealName, meal.Nutrition, date)
		if err != nil {
			s.logger.Error("failed to resolve product, skipping meal",
				zap.String("date", date),
				zap.String("meal", meal.MealName),
				zap.String("product", meal.MenuMealName),
				zap.Error(err),
			)
			continue
		}
		meals.Add(ResolvedMeal{
			MealName:  meal.MealName,
			ProductID: productID,
			Weight:    meal.Nutrition.Weight,
		})
	}
	return meals, nil
}
