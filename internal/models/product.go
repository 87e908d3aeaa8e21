// internal/models/product.go
package models

const (
	MeasureKeyPackage = "PACKAGE"
	MeasureUnitGram   = "g"
)

// TrackerProduct is a product as returned by the tracker's food search.
type TrackerProduct struct {
	FoodID       ID     `json:"foodId"`
	Name         string `json:"name"`
	Brand        string `json:"brand"`
	Energy       Value  `json:"energy"`
	Protein      Value  `json:"protein"`
	Carbohydrate Value  `json:"carbohydrate"`
	Fat          Value  `json:"fat"`
	Sugars       Value  `json:"sugars"`
	SaturatedFat Value  `json:"saturatedFat"`
	Fiber        Value  `json:"fiber"`
	Salt         Value  `json:"salt"`
}

// NewProduct is the payload used to create a tracker product.
type NewProduct struct {
	Name         string    `json:"name"`
	Brand        string    `json:"brand"`
	Energy       Value     `json:"energy"`
	Carbohydrate Value     `json:"carbohydrate"`
	Sugars       Value     `json:"sugars"`
	Fat          Value     `json:"fat"`
	Protein      Value     `json:"protein"`
	SaturatedFat Value     `json:"saturatedFat"`
	Fiber        Value     `json:"fiber"`
	Salt         Value     `json:"salt"`
	Measures     []Measure `json:"measures"`
}

// Measure is a named serving of a product.
type Measure struct {
	MeasureKey  string `json:"measureKey"`
	MeasureUnit string `json:"measureUnit"`
	Weight      string `json:"weight"`
}
