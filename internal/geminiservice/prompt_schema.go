package geminiservice

import "fmt"

/* =================================================================================
							GEMINI SCHEMA DEFINITION
	This is the core structure that tells Gemini how to format its JSON response
=================================================================================*/

// GeminiSchema defines the structure for "Controlled Generation" (Structured Output).
// It maps to Google's generative-ai-go/genai Schema type.
type GeminiSchema struct {
	// Type defines the data type (e.g., "OBJECT", "ARRAY", "STRING", "INTEGER").
	Type string `json:"type"`

	// Description explains the field's purpose to the AI, helping it generate better content.
	Description string `json:"description,omitempty"`

	// Properties maps field names to their child schemas (used when Type is "OBJECT").
	Properties map[string]*GeminiSchema `json:"properties,omitempty"`

	// Items defines the schema for elements within an array (used when Type is "ARRAY").
	Items *GeminiSchema `json:"items,omitempty"`

	// Required lists the field names that the AI MUST include in the response.
	Required []string `json:"required,omitempty"`

	// Enum lists valid specific string values for fields with restricted options.
	Enum []string `json:"enum,omitempty"`
}

/* =================================================================================
						CHAT PROMPT & HISTORY WINDOW
=================================================================================*/

// RefusalMessage is the fixed sentence the assistant must answer with when a
// request falls outside the allowed topic domain.
const RefusalMessage = "I'm sorry, I can only help with fitness, workouts, nutrition, and healthy living."

/*
ChatSystemPrompt defines the "Persona" and "Guardrails" for the chat model.
It restricts the assistant to the fitness domain and pins the exact refusal
sentence for anything else.
*/
const ChatSystemPrompt = `You are FitPulse, a friendly and knowledgeable fitness and nutrition coach.

DOMAIN RESTRICTION (CRITICAL):
You ONLY answer questions about fitness, workouts, exercise technique, nutrition,
diet, hydration, sleep, recovery, and healthy living.
IF the user asks about anything else (politics, coding, general knowledge, etc.):
- DO NOT answer the question.
- Reply with EXACTLY this sentence: "` + RefusalMessage + `"

STYLE:
- Be encouraging and practical.
- Keep answers short and actionable; prefer bullet points for routines.
- Never give medical diagnoses; suggest seeing a professional for injuries or
  medical conditions.`

// chatHistoryWindow is how many prior turns are replayed as context.
const chatHistoryWindow = 10

// HistoryWindow selects the conversation context for a chat request: the
// newest turn is dropped (it is sent as the current message, not as history)
// and the most recent chatHistoryWindow of the remainder are kept, oldest
// first.
func HistoryWindow(turns []HistoryTurn) []HistoryTurn {
	if len(turns) == 0 {
		return nil
	}
	prior := turns[:len(turns)-1]
	if len(prior) > chatHistoryWindow {
		prior = prior[len(prior)-chatHistoryWindow:]
	}
	return prior
}

// ChatGenerationConfig returns the sampling parameters used for chat turns.
func ChatGenerationConfig() *GenerationConfig {
	return &GenerationConfig{
		Temperature:     0.7,
		TopK:            40,
		TopP:            0.95,
		MaxOutputTokens: 1024,
	}
}

/* =================================================================================
						FOOD PHOTO ANALYSIS PROMPT
=================================================================================*/

/*
FoodAnalysisPrompt is the fixed instruction sent alongside the food photo.
The literal key list must stay in sync with FoodAnalysisResult; the
normalizer fills defaults for anything the model drops.
*/
const FoodAnalysisPrompt = `Analyze the food in this image and estimate its calories.

Respond with ONLY a JSON object, no markdown and no extra text, using exactly
these keys:
{
  "foodName": "name of the dish or food item",
  "calories": estimated calories for the visible portion as a NUMBER,
  "servingSize": "the portion you based the estimate on, e.g. '1 plate' or '250g'",
  "confidence": "high", "medium" or "low",
  "nutritionalInfo": {
    "protein": "approximate protein, e.g. '20g'",
    "carbs": "approximate carbohydrates, e.g. '45g'",
    "fat": "approximate fat, e.g. '15g'",
    "fiber": "approximate fiber, e.g. '5g'"
  },
  "description": "one sentence describing what you see"
}

If the image does not contain food, use "Unknown Food" as foodName, 0 calories
and "low" confidence.`

// VisionGenerationConfig returns the sampling parameters for photo analysis.
// Low temperature: we want the most literal reading of the plate.
func VisionGenerationConfig() *GenerationConfig {
	return &GenerationConfig{
		Temperature:     0.2,
		MaxOutputTokens: 512,
	}
}

/* =================================================================================
						PLAN GENERATION PROMPTS & SCHEMAS
=================================================================================*/

// PlanProfile carries the biometrics and preferences the plan prompts are
// built from.
type PlanProfile struct {
	Age          int    `json:"age"`
	Gender       string `json:"gender"`
	HeightCm     int    `json:"heightCm"`
	WeightKg     int    `json:"weightKg"`
	Goal         string `json:"goal"`         // e.g. "lose weight", "build muscle"
	FitnessLevel string `json:"fitnessLevel"` // beginner, intermediate, advanced
	DaysPerWeek  int    `json:"daysPerWeek"`
	Preferences  string `json:"preferences"` // free-form, e.g. "vegetarian, no barbell work"
}

const workoutPromptTemplate = `Create a weekly workout plan for this person:
- Age: %d
- Gender: %s
- Height: %d cm
- Weight: %d kg
- Goal: %s
- Fitness level: %s
- Training days per week: %d
- Preferences: %s

Respond with ONLY a JSON object, no markdown and no extra text:
{
  "schedule": ["Monday", "Wednesday", ...],
  "exercises": [
    {
      "day": "Monday",
      "routines": [
        {"name": "exercise name", "sets": 3, "reps": 10}
      ]
    }
  ]
}

STRICT RULES:
- "sets" and "reps" MUST be plain numbers, never words or ranges.
- Do NOT add any fields beyond the ones shown above.
- Every day in "schedule" must have a matching entry in "exercises".`

const dietPromptTemplate = `Create a daily diet plan for this person:
- Age: %d
- Gender: %s
- Height: %d cm
- Weight: %d kg
- Goal: %s
- Preferences: %s

Respond with ONLY a JSON object, no markdown and no extra text:
{
  "dailyCalories": 2000,
  "meals": [
    {"name": "Breakfast", "foods": ["food 1", "food 2"]}
  ]
}

STRICT RULES:
- "dailyCalories" MUST be a plain number.
- Each meal has EXACTLY the fields "name" and "foods"; do NOT add any others.
- "foods" is an array of plain strings.`

// BuildWorkoutPrompt renders the workout generation prompt for one profile.
func BuildWorkoutPrompt(p PlanProfile) string {
	return fmt.Sprintf(workoutPromptTemplate,
		p.Age, p.Gender, p.HeightCm, p.WeightKg, p.Goal, p.FitnessLevel, p.DaysPerWeek, p.Preferences)
}

// BuildDietPrompt renders the diet generation prompt for one profile.
func BuildDietPrompt(p PlanProfile) string {
	return fmt.Sprintf(dietPromptTemplate,
		p.Age, p.Gender, p.HeightCm, p.WeightKg, p.Goal, p.Preferences)
}

// PlanGenerationConfig returns the sampling parameters for plan generation,
// with structured output enforced through the given response schema.
func PlanGenerationConfig(schema *GeminiSchema) *GenerationConfig {
	return &GenerationConfig{
		Temperature:      0.4,
		MaxOutputTokens:  2048,
		ResponseMimeType: structuredMimeType,
		ResponseSchema:   schema,
	}
}

/*
WorkoutSchema describes the exact JSON structure the workout generation MUST
output. It is passed to the Gemini configuration to enforce strict validation;
the normalizer still re-checks everything.
*/
var WorkoutSchema = &GeminiSchema{
	Type: "OBJECT",
	Properties: map[string]*GeminiSchema{
		"schedule": {
			Type:        "ARRAY",
			Description: "Ordered training day names, e.g. Monday, Wednesday, Friday.",
			Items:       &GeminiSchema{Type: "STRING"},
		},
		"exercises": {
			Type: "ARRAY",
			Items: &GeminiSchema{
				Type: "OBJECT",
				Properties: map[string]*GeminiSchema{
					"day": {Type: "STRING"},
					"routines": {
						Type: "ARRAY",
						Items: &GeminiSchema{
							Type: "OBJECT",
							Properties: map[string]*GeminiSchema{
								"name": {Type: "STRING"},
								"sets": {Type: "INTEGER", Description: "Number of sets, minimum 1."},
								"reps": {Type: "INTEGER", Description: "Repetitions per set, minimum 1."},
							},
							Required: []string{"name", "sets", "reps"},
						},
					},
				},
				Required: []string{"day", "routines"},
			},
		},
	},
	Required: []string{"schedule", "exercises"},
}

// DietSchema describes the exact JSON structure the diet generation MUST output.
var DietSchema = &GeminiSchema{
	Type: "OBJECT",
	Properties: map[string]*GeminiSchema{
		"dailyCalories": {
			Type:        "INTEGER",
			Description: "Total daily calorie target.",
		},
		"meals": {
			Type: "ARRAY",
			Items: &GeminiSchema{
				Type: "OBJECT",
				Properties: map[string]*GeminiSchema{
					"name":  {Type: "STRING"},
					"foods": {Type: "ARRAY", Items: &GeminiSchema{Type: "STRING"}},
				},
				Required: []string{"name", "foods"},
			},
		},
	},
	Required: []string{"dailyCalories", "meals"},
}
