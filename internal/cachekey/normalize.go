package cachekey

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	DefaultLocale = "de-DE"
	Separator     = "|"
)

var (
	whitespaceRe     = regexp.MustCompile(`\s+`)
	decimalLiterRe   = regexp.MustCompile(`(\d+)[,.](\d+)\s*l([^\p{L}\d_]|$)`)
	integerLiterRe   = regexp.MustCompile(`(\d+)\s*l([^\p{L}\d_]|$)`)
	bareDecimalRe    = regexp.MustCompile(`(^|[^\d,.])0[,.](\d+)`)
	leadingWordRe    = regexp.MustCompile(`^ ?(%|[a-zäöüß]+)`)
	disallowedCharRe = regexp.MustCompile(`[^a-z0-9äöüß ]`)
	leadingDigitsRe  = regexp.MustCompile(`^(\d*)(.*)$`)
)

var abbreviations = map[string]map[string]string{
	"de": {
		"stk": "stück",
		"el":  "esslöffel",
		"tl":  "teelöffel",
	},
	"en": {
		"tbsp": "tablespoon",
		"tsp":  "teaspoon",
		"pc":   "piece",
		"pcs":  "piece",
	},
}

// Words after a bare 0,xx quantity that mean it is not a drink size.
var unitWords = map[string]bool{
	"g": true, "kg": true, "mg": true, "ml": true, "cl": true, "dl": true, "l": true,
	"oz": true, "lb": true, "el": true, "tl": true, "stk": true, "stück": true,
	"esslöffel": true, "teelöffel": true, "prozent": true, "liter": true,
	"tbsp": true, "tsp": true, "cup": true, "cups": true,
}

// Normalize derives the cache key for a food description.
func Normalize(text, locale string) string {
	if strings.TrimSpace(locale) == "" {
		locale = DefaultLocale
	}
	return locale + Separator + NormalizeText(text, locale)
}

func NormalizeText(text, locale string) string {
	s := collapse(strings.ToLower(text))
	s = decimalLiterRe.ReplaceAllStringFunc(s, func(m string) string {
		parts := decimalLiterRe.FindStringSubmatch(m)
		return litersToMilliliters(parts[1]+"."+parts[2]) + parts[3]
	})
	s = convertBareDecimals(s)
	// Punctuation is gone from here on, so "(1 TL)" and "1 TL" tokenize alike
	// and a second pass finds nothing left to rewrite.
	s = collapse(disallowedCharRe.ReplaceAllString(s, ""))
	s = integerLiterRe.ReplaceAllStringFunc(s, func(m string) string {
		parts := integerLiterRe.FindStringSubmatch(m)
		return litersToMilliliters(parts[1]) + parts[2]
	})
	s = expandAbbreviations(s, locale)
	return collapse(s)
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func litersToMilliliters(value string) string {
	liters, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return value
	}
	return strconv.FormatInt(int64(math.Round(liters*1000)), 10) + "ml"
}

// convertBareDecimals reads a unitless 0,xx quantity as litres.
func convertBareDecimals(s string) string {
	var b strings.Builder
	last := 0
	for _, m := range bareDecimalRe.FindAllStringSubmatchIndex(s, -1) {
		start, end := m[3], m[1]
		if w := leadingWordRe.FindStringSubmatch(s[end:]); w != nil && (w[1] == "%" || unitWords[w[1]]) {
			continue
		}
		b.WriteString(s[last:start])
		b.WriteString(litersToMilliliters("0." + s[m[4]:m[5]]))
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}

func expandAbbreviations(s, locale string) string {
	table := abbreviations[language(locale)]
	if len(table) == 0 {
		return s
	}
	tokens := strings.Split(s, " ")
	for i, tok := range tokens {
		parts := leadingDigitsRe.FindStringSubmatch(tok)
		if full, ok := table[parts[2]]; ok {
			tokens[i] = parts[1] + full
		}
	}
	return strings.Join(tokens, " ")
}

func language(locale string) string {
	lang, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(locale)), "-")
	if lang == "" {
		return "de"
	}
	return lang
}
