// internal/models/order.go
package models

// Order is the vendor order holding every scheduled delivery.
type Order struct {
	Deliveries []Delivery `json:"deliveries"`
}

// Delivery is a single scheduled delivery day.
type Delivery struct {
	DeliveryID ID     `json:"deliveryId"`
	Date       string `json:"date"`
}

// DeliveryMenu is the per-delivery meal breakdown.
type DeliveryMenu struct {
	Meals []MealDetail `json:"deliveryMenuMeal"`
}

// MealDetail describes one meal of a delivery. A nil DeliveryMealID means the
// meal was not actually delivered.
type MealDetail struct {
	MealName       string    `json:"mealName"`
	MenuMealName   string    `json:"menuMealName"`
	DeliveryMealID *ID       `json:"deliveryMealId"`
	Nutrition      Nutrition `json:"nutrition"`
}

// Delivered reports whether the meal was part of the delivery.
func (m MealDetail) Delivered() bool {
	return m.DeliveryMealID != nil
}

// Nutrition holds the vendor's nutrition facts for a full portion.
type Nutrition struct {
	Calories     Value `json:"calories"`
	Protein      Value `json:"protein"`
	Carbohydrate Value `json:"carbohydrate"`
	Sugar        Value `json:"sugar"`
	Fat          Value `json:"fat"`
	SaturatedFat Value `json:"saturatedFattyAcids"`
	Fiber        Value `json:"dietaryFiber"`
	Salt         Value `json:"salt"`
	Weight       Value `json:"weight"`
}
