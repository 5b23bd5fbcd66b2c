package geminiservice

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// The model is instructed via prompt and response schema to emit strict JSON,
// but instruction-following is not guaranteed. These parsers are the actual
// enforcement point: they never trust field presence or types, and every
// required field in the result is populated with a documented default.

// --- Normalized result types ---

type NutritionalInfo struct {
	Protein string `json:"protein"`
	Carbs   string `json:"carbs"`
	Fat     string `json:"fat"`
	Fiber   string `json:"fiber"`
}

type FoodAnalysisResult struct {
	FoodName        string          `json:"foodName"`
	Calories        int             `json:"calories"`
	ServingSize     string          `json:"servingSize"`
	Confidence      string          `json:"confidence"` // high, medium or low
	NutritionalInfo NutritionalInfo `json:"nutritionalInfo"`
	Description     string          `json:"description"`
}

type Routine struct {
	Name string `json:"name"`
	Sets int    `json:"sets"`
	Reps int    `json:"reps"`
}

type ExerciseDay struct {
	Day      string    `json:"day"`
	Routines []Routine `json:"routines"`
}

type WorkoutPlan struct {
	Schedule  []string      `json:"schedule"`
	Exercises []ExerciseDay `json:"exercises"`
}

type Meal struct {
	Name  string   `json:"name"`
	Foods []string `json:"foods"`
}

type DietPlan struct {
	DailyCalories int    `json:"dailyCalories"`
	Meals         []Meal `json:"meals"`
}

// Defaults substituted when the model omits or mistypes a field.
const (
	defaultFoodName    = "Unknown Food"
	defaultServingSize = "Unknown"
	defaultConfidence  = "low"
	defaultNutrition   = "N/A"
	defaultDescription = "No description available for this food item."
	defaultSets        = 3
	defaultReps        = 10
	defaultCalories    = 2000
)

// ParseFoodAnalysis normalizes the vision model's output into a structurally
// complete FoodAnalysisResult.
func ParseFoodAnalysis(raw string) (*FoodAnalysisResult, error) {
	doc, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	nutrition, _ := doc["nutritionalInfo"].(map[string]any)

	return &FoodAnalysisResult{
		FoodName:    asString(doc["foodName"], defaultFoodName),
		Calories:    asInt(doc["calories"], 0),
		ServingSize: asString(doc["servingSize"], defaultServingSize),
		Confidence:  asConfidence(doc["confidence"]),
		NutritionalInfo: NutritionalInfo{
			Protein: asString(nutrition["protein"], defaultNutrition),
			Carbs:   asString(nutrition["carbs"], defaultNutrition),
			Fat:     asString(nutrition["fat"], defaultNutrition),
			Fiber:   asString(nutrition["fiber"], defaultNutrition),
		},
		Description: asString(doc["description"], defaultDescription),
	}, nil
}

// ParseWorkoutPlan normalizes the workout generation output. Sets and reps
// are coerced through a numeric parse; values that fail to parse, or are
// below one, take the documented defaults.
func ParseWorkoutPlan(raw string) (*WorkoutPlan, error) {
	doc, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	plan := &WorkoutPlan{
		Schedule:  asStringSlice(doc["schedule"]),
		Exercises: []ExerciseDay{},
	}

	for _, entry := range asSlice(doc["exercises"]) {
		dayDoc, _ := entry.(map[string]any)
		day := ExerciseDay{
			Day:      asString(dayDoc["day"], ""),
			Routines: []Routine{},
		}
		for _, r := range asSlice(dayDoc["routines"]) {
			routineDoc, _ := r.(map[string]any)
			day.Routines = append(day.Routines, Routine{
				Name: asString(routineDoc["name"], "Exercise"),
				Sets: asPositiveInt(routineDoc["sets"], defaultSets),
				Reps: asPositiveInt(routineDoc["reps"], defaultReps),
			})
		}
		plan.Exercises = append(plan.Exercises, day)
	}

	return plan, nil
}

// ParseDietPlan normalizes the diet generation output. Each meal is
// re-projected to exactly {name, foods}; extra fields the model may have
// emitted are dropped.
func ParseDietPlan(raw string) (*DietPlan, error) {
	doc, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	plan := &DietPlan{
		DailyCalories: asPositiveInt(doc["dailyCalories"], defaultCalories),
		Meals:         []Meal{},
	}

	for _, entry := range asSlice(doc["meals"]) {
		mealDoc, _ := entry.(map[string]any)
		plan.Meals = append(plan.Meals, Meal{
			Name:  asString(mealDoc["name"], "Meal"),
			Foods: asStringSlice(mealDoc["foods"]),
		})
	}

	return plan, nil
}

// decodeObject strips an enclosing code fence, then parses the remainder as
// a JSON object. A parse failure is a classified MalformedResponse error,
// never a panic or an unclassified exception.
func decodeObject(raw string) (map[string]any, error) {
	cleaned := stripFence(raw)

	var doc map[string]any
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return nil, &APIError{
			Kind:   KindMalformedResponse,
			Detail: fmt.Sprintf("model output is not a JSON object: %v", err),
		}
	}
	return doc, nil
}

// stripFence removes triple-backtick wrappers, with or without a "json" tag.
func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// --- Coercion helpers ---

func asString(v any, def string) string {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func asInt(v any, def int) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return int(parsed)
		}
	}
	return def
}

// asPositiveInt coerces like asInt but treats anything below one as a
// failed parse.
func asPositiveInt(v any, def int) int {
	n := asInt(v, def)
	if n < 1 {
		return def
	}
	return n
}

func asConfidence(v any) string {
	c := strings.ToLower(asString(v, defaultConfidence))
	switch c {
	case "high", "medium", "low":
		return c
	}
	return defaultConfidence
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func asStringSlice(v any) []string {
	out := []string{}
	for _, item := range asSlice(v) {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
