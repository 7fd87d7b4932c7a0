package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var knownLanguages = []language.Tag{
	language.Afrikaans, language.Albanian, language.Amharic, language.Arabic,
	language.Armenian, language.Azerbaijani, language.Bengali, language.Bulgarian,
	language.Burmese, language.Catalan, language.Chinese, language.SimplifiedChinese,
	language.TraditionalChinese, language.Croatian, language.Czech, language.Danish,
	language.Dutch, language.English, language.AmericanEnglish, language.BritishEnglish,
	language.Estonian, language.Filipino, language.Finnish, language.French,
	language.CanadianFrench, language.Georgian, language.German, language.Greek,
	language.Gujarati, language.Hebrew, language.Hindi, language.Hungarian,
	language.Icelandic, language.Indonesian, language.Italian, language.Japanese,
	language.Kannada, language.Kazakh, language.Khmer, language.Korean,
	language.Lao, language.Latvian, language.Lithuanian, language.Macedonian,
	language.Malay, language.Malayalam, language.Marathi, language.Mongolian,
	language.Nepali, language.Norwegian, language.Persian, language.Polish,
	language.Portuguese, language.BrazilianPortuguese, language.EuropeanPortuguese, language.Punjabi,
	language.Romanian, language.Russian, language.Serbian, language.Sinhala,
	language.Slovak, language.Slovenian, language.Spanish, language.LatinAmericanSpanish,
	language.Swahili, language.Swedish, language.Tamil, language.Telugu,
	language.Thai, language.Turkish, language.Ukrainian, language.Urdu,
	language.Uzbek, language.Vietnamese, language.Zulu,
}

var englishNames = display.Tags(language.English)

// NormalizeLanguage turns a language name or BCP 47 tag into the English
// name used in prompts and output file names. "es", "spanish" and "Spanish"
// all give "Spanish". Names the table does not know are title-cased and
// returned with language.Und so rarer languages still work.
func NormalizeLanguage(input string) (string, language.Tag, error) {
	s := strings.Join(strings.Fields(input), " ")
	if s == "" {
		return "", language.Und, errors.New("language is empty")
	}

	for _, tag := range knownLanguages {
		if strings.EqualFold(englishNames.Name(tag), s) {
			return englishNames.Name(tag), tag, nil
		}
	}

	if tag, err := language.Parse(s); err == nil && tag != language.Und {
		if name := englishNames.Name(tag); name != "" {
			return name, tag, nil
		}
	}

	for _, r := range s {
		if !unicode.IsLetter(r) && r != ' ' && r != '-' && r != '(' && r != ')' {
			return "", language.Und, fmt.Errorf("unrecognised language %q", s)
		}
	}
	return cases.Title(language.English).String(s), language.Und, nil
}
