package estimator

import (
	"fmt"
	"strings"
)

type promptSet struct {
	foodSystem           string
	recommendationSystem string
	none                 string
	noFavorites          string
	noFrequent           string
	noMealsYet           string
	pointsUnit           string
	foodContext          string
	recommendationTask   string
}

var prompts = map[string]promptSet{
	"de": {
		foodSystem: `Du bist ein Food-Tracking-Assistent für eine Punkte-Diät-App. Antworte ausschließlich mit gültigem JSON, ohne Markdown und ohne Erklärtext. Gib keine medizinischen Ratschläge. Bei Unsicherheit schätze konservativ und setze "confidence" niedrig.

Die Eingabe ist freier Text wie "2 Scheiben Pizza und 1 Cola 0,33". Zerlege sie in Items mit Menge oder Portion und schätze Punkte pro Item sowie die Summe. Energiedichte Lebensmittel geben mehr Punkte, zuckerhaltige Getränke mittel, Gemüse wenig, mageres Protein mittel. Fehlt eine Menge, nimm eine typische Portion an und markiere das mit "assumedPortion": true.

Schema (alle Felder immer vorhanden):
{
  "locale": "%s",
  "raw": "<Originaltext>",
  "items": [
    {"name": "<Lebensmittel>", "amountText": "<z.B. 2 Scheiben, 330ml>", "assumedPortion": true, "points": 0, "reasonShort": "<max. 10 Wörter>"}
  ],
  "pointsTotal": 0,
  "confidence": 0.0,
  "followUpQuestion": "",
  "warnings": []
}

Regeln:
- points und pointsTotal sind Zahlen, keine Strings.
- pointsTotal ist die Summe der Item-Punkte.
- followUpQuestion nur wenn wirklich nötig, sonst "".
- warnings z.B. ["unsicher bei Portionsgröße"] oder [].`,
		recommendationSystem: `Du bist ein Meal-Recommender für eine Punkte-Tracking-App. Antworte ausschließlich mit gültigem JSON, ohne Markdown.

Du bekommst die verfügbaren Punkte, die heute geloggten Mahlzeiten, Favoriten, häufige Lebensmittel, Präferenzen und No-Gos. Erstelle genau 3 Vorschläge für die nächste Mahlzeit. Jeder Vorschlag hat 1 bis 4 Items, eine Punktesumme innerhalb des Budgets und eine kurze Begründung.

Schema:
{
  "mealType": "<breakfast|lunch|dinner|snack>",
  "pointsAvailable": 0,
  "suggestions": [
    {"title": "<kurzer Name>", "items": [{"name": "<Lebensmittel>", "amountText": "<Portion>", "points": 0}], "pointsTotal": 0, "why": "<max. 12 Wörter>", "fitScore": 0.0}
  ],
  "notes": ""
}

Regeln:
- suggestions hat genau 3 Einträge.
- pointsTotal ist die Summe der Items.
- No-Gos strikt beachten.
- Bei sehr kleinem Budget nur Vorschläge mit wenig Punkten.`,
		none:        "keine",
		noFavorites: "keine angegeben",
		noFrequent:  "keine bekannt",
		noMealsYet:  "Noch keine Mahlzeiten heute",
		pointsUnit:  "Punkte",
		foodContext: `Kontext:
- Tagespunktebudget: %s
- Bisher heute verbraucht: %s
- Verbleibend: %s
- Diätstil/Präferenzen: %s
- No-Gos/Allergien: %s

Aufgabe:
Schätze die Punkte für die folgende Eingabe. Verstößt etwas gegen die No-Gos, behalte es trotzdem und setze eine Warnung.

Eingabe:
%s`,
		recommendationTask: "Gib 3 Vorschläge im Schema zurück. Bevorzuge Favoriten und häufige Lebensmittel, aber variiere.",
	},
	"en": {
		foodSystem: `You are a food tracking assistant for a points diet app. Reply with valid JSON only, no markdown and no prose. Never give medical advice. When unsure, estimate conservatively and set a low "confidence".

The input is free text such as "2 slices of pizza and a 330ml coke". Split it into items with amount or portion and estimate points per item and in total. Energy-dense food scores high, sugary drinks medium, vegetables low, lean protein medium. If no amount is given, assume a typical portion and mark it with "assumedPortion": true.

Schema (every field always present):
{
  "locale": "%s",
  "raw": "<original text>",
  "items": [
    {"name": "<food>", "amountText": "<e.g. 2 slices, 330ml>", "assumedPortion": true, "points": 0, "reasonShort": "<max 10 words>"}
  ],
  "pointsTotal": 0,
  "confidence": 0.0,
  "followUpQuestion": "",
  "warnings": []
}

Rules:
- points and pointsTotal are numbers, not strings.
- pointsTotal is the sum of the item points.
- followUpQuestion only when really needed, otherwise "".
- warnings e.g. ["portion size uncertain"] or [].`,
		recommendationSystem: `You are a meal recommender for a points tracking app. Reply with valid JSON only, no markdown.

You get the available points, today's logged meals, favorites, frequent foods, preferences and exclusions. Create exactly 3 suggestions for the next meal. Each suggestion has 1 to 4 items, a points total within the budget and a short reason.

Schema:
{
  "mealType": "<breakfast|lunch|dinner|snack>",
  "pointsAvailable": 0,
  "suggestions": [
    {"title": "<short name>", "items": [{"name": "<food>", "amountText": "<portion>", "points": 0}], "pointsTotal": 0, "why": "<max 12 words>", "fitScore": 0.0}
  ],
  "notes": ""
}

Rules:
- suggestions has exactly 3 entries.
- pointsTotal is the sum of the items.
- Respect exclusions strictly.
- With a very small budget only suggest low-point options.`,
		none:        "none",
		noFavorites: "none given",
		noFrequent:  "none known",
		noMealsYet:  "No meals logged today",
		pointsUnit:  "points",
		foodContext: `Context:
- Daily points budget: %s
- Used today: %s
- Remaining: %s
- Diet style/preferences: %s
- Exclusions/allergies: %s

Task:
Estimate points for the following input. If something violates an exclusion, keep it and add a warning.

Input:
%s`,
		recommendationTask: "Return 3 suggestions in the schema. Prefer favorites and frequent foods, but vary.",
	},
}

func promptsFor(locale string) promptSet {
	lang, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(locale)), "-")
	if p, ok := prompts[lang]; ok {
		return p
	}
	return prompts["de"]
}

func joinOr(values []string, fallback string) string {
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			cleaned = append(cleaned, v)
		}
	}
	if len(cleaned) == 0 {
		return fallback
	}
	return strings.Join(cleaned, ", ")
}

func formatPoints(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", v), "0"), ".")
}

func foodSystemPrompt(locale string) string {
	return fmt.Sprintf(promptsFor(locale).foodSystem, locale)
}

func foodUserPrompt(text string, fc FoodContext) string {
	p := promptsFor(fc.Locale)
	return fmt.Sprintf(p.foodContext,
		formatPoints(fc.DailyPoints),
		formatPoints(fc.UsedPoints),
		formatPoints(fc.RemainingPoints),
		joinOr(fc.DietaryPrefs, p.none),
		joinOr(fc.NoGos, p.none),
		strings.TrimSpace(text),
	)
}

func recommendationSystemPrompt(locale string) string {
	return promptsFor(locale).recommendationSystem
}

func recommendationUserPrompt(rc RecommendationContext) string {
	p := promptsFor(rc.Locale)
	var b strings.Builder
	b.WriteString("- mealType: " + string(rc.MealType) + "\n")
	b.WriteString("- pointsAvailable: " + formatPoints(rc.PointsAvailable) + "\n")
	b.WriteString("- todaysLog:\n")
	if len(rc.TodaysLog) == 0 {
		b.WriteString(p.noMealsYet + "\n")
	}
	for _, m := range rc.TodaysLog {
		fmt.Fprintf(&b, "%s: %s (%s %s)\n", m.Meal, joinOr(m.Items, p.none), formatPoints(m.Points), p.pointsUnit)
	}
	b.WriteString("- favorites: " + joinOr(rc.Favorites, p.noFavorites) + "\n")
	b.WriteString("- frequentFoods: " + joinOr(rc.FrequentFoods, p.noFrequent) + "\n")
	b.WriteString("- dietaryPrefs: " + joinOr(rc.DietaryPrefs, p.none) + "\n")
	b.WriteString("- noGos: " + joinOr(rc.NoGos, p.none) + "\n\n")
	b.WriteString(p.recommendationTask)
	return b.String()
}
