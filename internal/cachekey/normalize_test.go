package cachekey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		text   string
		locale string
		want   string
	}{
		{name: "decimal liter comma", text: "0,33l", locale: "de-DE", want: "de-DE|330ml"},
		{name: "decimal liter dot with space", text: "1.5 l Wasser", locale: "de-DE", want: "de-DE|1500ml wasser"},
		{name: "integer liter", text: "2l", locale: "de-DE", want: "de-DE|2000ml"},
		{name: "every occurrence rewritten", text: "1l Wasser und 0,5l Saft", locale: "de-DE", want: "de-DE|1000ml wasser und 500ml saft"},
		{name: "bare drink size", text: "2 Scheiben Pizza und 1 Cola 0,33", locale: "de-DE", want: "de-DE|2 scheiben pizza und 1 cola 330ml"},
		{name: "bare decimal with unit stays", text: "0,5 kg Quark", locale: "de-DE", want: "de-DE|05 kg quark"},
		{name: "liter prefix of word untouched", text: "2 Löffel Zucker", locale: "de-DE", want: "de-DE|2 löffel zucker"},
		{name: "abbreviations", text: "2 EL. Öl, 1 TL Honig, 3 Stk Brot", locale: "de-DE", want: "de-DE|2 esslöffel öl 1 teelöffel honig 3 stück brot"},
		{name: "abbreviation glued to number", text: "2el Öl", locale: "de-DE", want: "de-DE|2esslöffel öl"},
		{name: "abbreviation inside word untouched", text: "Mehl und Teller", locale: "de-DE", want: "de-DE|mehl und teller"},
		{name: "abbreviation in parentheses", text: "Tee (1 TL) Zucker", locale: "de-DE", want: "de-DE|tee 1 teelöffel zucker"},
		{name: "parentheses do not change the key", text: "Tee 1 TL Zucker", locale: "de-DE", want: "de-DE|tee 1 teelöffel zucker"},
		{name: "integer liter after punctuation", text: "2 !l Wasser", locale: "de-DE", want: "de-DE|2000ml wasser"},
		{name: "english abbreviations", text: "1 tbsp Butter", locale: "en-US", want: "en-US|1 tablespoon butter"},
		{name: "german table not applied to english", text: "1 el", locale: "en-US", want: "en-US|1 el"},
		{name: "whitespace and punctuation", text: "  Apfel!!   &  Birne?  ", locale: "de-DE", want: "de-DE|apfel birne"},
		{name: "default locale", text: "Apfel", locale: "", want: "de-DE|apfel"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, Normalize(tc.text, tc.locale))
		})
	}
}

func TestNormalizeTextIsIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"2 Scheiben Pizza und 1 Cola 0,33",
		"Müsli mit 0,2l Milch, 1 EL Honig",
		"  Käse-Brot (Vollkorn)  ",
		"3 Stk. Kekse",
		"ß ÄÖÜ 12",
		"Tee (1 TL) Zucker",
		"2 !l Wasser",
		"Brot [2 Stk], Butter (1 EL)",
	}
	for _, in := range inputs {
		once := NormalizeText(in, DefaultLocale)
		assert.Equal(t, once, NormalizeText(once, DefaultLocale), "input %q", in)
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	t.Parallel()
	a := Normalize("1 Banane, 0,25l Milch", "de-DE")
	b := Normalize("1 Banane, 0,25l Milch", "de-DE")
	assert.Equal(t, a, b)
}
