package model

import "time"

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

var MealTypes = []MealType{MealBreakfast, MealLunch, MealDinner, MealSnack}

func (m MealType) Valid() bool {
	switch m {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}

type Goal string

const (
	GoalLose     Goal = "lose"
	GoalMaintain Goal = "maintain"
)

type Source string

const (
	SourceAI     Source = "ai"
	SourceManual Source = "manual"
)

type Settings struct {
	DailyPoints        int      `json:"dailyPoints" validate:"min=1,max=100"`
	WeeklyBonus        int      `json:"weeklyBonus" validate:"min=0,max=500"`
	Goal               Goal     `json:"goal" validate:"oneof=lose maintain"`
	DietaryPrefs       []string `json:"dietaryPrefs"`
	NoGos              []string `json:"noGos"`
	Locale             string   `json:"locale" validate:"required,bcp47_language_tag"`
	GeminiAPIKey       string   `json:"geminiApiKey"`
	GeminiModel        string   `json:"geminiModel" validate:"required"`
	OnboardingComplete bool     `json:"onboardingComplete"`
}

type FoodItem struct {
	Name           string  `json:"name" validate:"required"`
	AmountText     string  `json:"amountText"`
	Points         float64 `json:"points" validate:"min=0"`
	AssumedPortion bool    `json:"assumedPortion,omitempty"`
	ReasonShort    string  `json:"reasonShort,omitempty"`
}

type LogEntry struct {
	ID          string     `json:"id" validate:"required"`
	MealType    MealType   `json:"mealType" validate:"oneof=breakfast lunch dinner snack"`
	RawText     string     `json:"rawText"`
	Items       []FoodItem `json:"items" validate:"dive"`
	PointsTotal float64    `json:"pointsTotal" validate:"min=0"`
	CreatedAt   time.Time  `json:"createdAt"`
	Source      Source     `json:"source" validate:"oneof=ai manual"`
	Notes       string     `json:"notes,omitempty"`
}

type Meals struct {
	Breakfast []LogEntry `json:"breakfast"`
	Lunch     []LogEntry `json:"lunch"`
	Dinner    []LogEntry `json:"dinner"`
	Snack     []LogEntry `json:"snack"`
}

type DayLog struct {
	Date  string `json:"date"`
	Meals Meals  `json:"meals"`
}

// Bucket returns the entry list for a meal type, or nil for an unknown one.
func (d *DayLog) Bucket(m MealType) *[]LogEntry {
	switch m {
	case MealBreakfast:
		return &d.Meals.Breakfast
	case MealLunch:
		return &d.Meals.Lunch
	case MealDinner:
		return &d.Meals.Dinner
	case MealSnack:
		return &d.Meals.Snack
	}
	return nil
}

// EnsureBuckets replaces nil buckets with empty lists so they encode as [].
func (d *DayLog) EnsureBuckets() {
	for _, m := range MealTypes {
		b := d.Bucket(m)
		if *b == nil {
			*b = []LogEntry{}
		}
	}
}

func (d DayLog) IsEmpty() bool {
	return len(d.Meals.Breakfast) == 0 && len(d.Meals.Lunch) == 0 && len(d.Meals.Dinner) == 0 && len(d.Meals.Snack) == 0
}

func (d DayLog) Entries() []LogEntry {
	out := make([]LogEntry, 0, len(d.Meals.Breakfast)+len(d.Meals.Lunch)+len(d.Meals.Dinner)+len(d.Meals.Snack))
	out = append(out, d.Meals.Breakfast...)
	out = append(out, d.Meals.Lunch...)
	out = append(out, d.Meals.Dinner...)
	out = append(out, d.Meals.Snack...)
	return out
}

func (d DayLog) TotalPoints() float64 {
	total := 0.0
	for _, e := range d.Entries() {
		total += e.PointsTotal
	}
	return total
}

type WeightEntry struct {
	Date  string  `json:"date" validate:"required,datetime=2006-01-02"`
	Value float64 `json:"value" validate:"gt=0,lte=500"`
}

type FoodResponse struct {
	Locale           string     `json:"locale"`
	Raw              string     `json:"raw"`
	Items            []FoodItem `json:"items"`
	PointsTotal      float64    `json:"pointsTotal"`
	Confidence       float64    `json:"confidence"`
	FollowUpQuestion string     `json:"followUpQuestion,omitempty"`
	Warnings         []string   `json:"warnings"`
}

type SuggestionItem struct {
	Name       string  `json:"name"`
	AmountText string  `json:"amountText"`
	Points     float64 `json:"points"`
}

type Suggestion struct {
	Title       string           `json:"title"`
	Items       []SuggestionItem `json:"items"`
	PointsTotal float64          `json:"pointsTotal"`
	Why         string           `json:"why"`
	FitScore    float64          `json:"fitScore"`
}

type RecommendationResponse struct {
	MealType        MealType     `json:"mealType"`
	PointsAvailable float64      `json:"pointsAvailable"`
	Suggestions     []Suggestion `json:"suggestions"`
	Notes           string       `json:"notes,omitempty"`
}

type CacheEntry struct {
	Key       string       `json:"key"`
	Result    FoodResponse `json:"result"`
	Timestamp int64        `json:"timestamp"`
}

func (c CacheEntry) WrittenAt() time.Time {
	return time.UnixMilli(c.Timestamp)
}
