package domain

import "fmt"

type Language string

const (
	English Language = "en"
	Spanish Language = "es"
	German  Language = "de"
	French  Language = "fr"
	Chinese Language = "zh"
)

const DefaultLanguage = English

func (l Language) String() string {
	return string(l)
}

func ParseLanguage(raw string) (Language, error) {
	switch Language(raw) {
	case English, Spanish, German, French, Chinese:
		return Language(raw), nil
	}
	return "", fmt.Errorf("unknown language %q", raw)
}
