// Package nutrition totals the nutritional facts of a lunchbox.
package nutrition

import "github.com/dukerupert/nutribox/internal/model"

// Summary holds nutrient totals. ItemCount is the sum of line item
// quantities, not the number of distinct foods.
type Summary struct {
	TotalCalories float64 `json:"total_calories"`
	TotalProtein  float64 `json:"total_protein"`
	TotalCarbs    float64 `json:"total_carbs"`
	TotalFat      float64 `json:"total_fat"`
	TotalFiber    float64 `json:"total_fiber"`
	ItemCount     int     `json:"item_count"`
}

// Line pairs a line item with the food it references. Food is nil when the
// reference could not be resolved.
type Line struct {
	Item model.LineItem
	Food *model.FoodItem
}

// Summarize multiplies each food's per-unit facts by its quantity and sums
// them. Lines without a resolved food are skipped. Inactive foods count.
func Summarize(lines []Line) Summary {
	var s Summary
	for _, l := range lines {
		if l.Food == nil {
			continue
		}
		q := float64(l.Item.Quantity)
		s.TotalCalories += l.Food.Calories * q
		s.TotalProtein += l.Food.Protein * q
		s.TotalCarbs += l.Food.Carbs * q
		s.TotalFat += l.Food.Fat * q
		s.TotalFiber += l.Food.Fiber * q
		s.ItemCount += l.Item.Quantity
	}
	return s
}

// Resolve pairs items with foods looked up by id.
func Resolve(items []model.LineItem, foods map[int64]model.FoodItem) []Line {
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		l := Line{Item: it}
		if f, ok := foods[it.FoodItemID]; ok {
			l.Food = &f
		}
		lines = append(lines, l)
	}
	return lines
}

// Aggregate adds several summaries together.
func Aggregate(summaries ...Summary) Summary {
	var total Summary
	for _, s := range summaries {
		total.TotalCalories += s.TotalCalories
		total.TotalProtein += s.TotalProtein
		total.TotalCarbs += s.TotalCarbs
		total.TotalFat += s.TotalFat
		total.TotalFiber += s.TotalFiber
		total.ItemCount += s.ItemCount
	}
	return total
}
