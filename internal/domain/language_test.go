package domain_test

import (
	"testing"

	"github.com/Amund211/gw2lib/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestParseLanguage(t *testing.T) {
	t.Parallel()

	for _, language := range []domain.Language{domain.English, domain.Spanish, domain.German, domain.French, domain.Chinese} {
		t.Run(language.String(), func(t *testing.T) {
			t.Parallel()

			parsed, err := domain.ParseLanguage(language.String())
			require.NoError(t, err)
			require.Equal(t, language, parsed)
		})
	}

	for _, raw := range []string{"", "EN", "no", "english"} {
		t.Run("invalid "+raw, func(t *testing.T) {
			t.Parallel()

			_, err := domain.ParseLanguage(raw)
			require.Error(t, err)
		})
	}

	require.Equal(t, domain.English, domain.DefaultLanguage)
}
