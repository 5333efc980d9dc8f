package helper

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidUtorid(t *testing.T) {
	require.True(t, ValidUtorid("alice123"))
	require.True(t, ValidUtorid("bob4567"))
	require.False(t, ValidUtorid("short1"))
	require.False(t, ValidUtorid("waytoolong9"))
	require.False(t, ValidUtorid("no-dash1"))
}

func TestValidCampusEmail(t *testing.T) {
	require.True(t, ValidCampusEmail("alice@mail.utoronto.ca"))
	require.True(t, ValidCampusEmail("bob@utoronto.ca"))
	require.True(t, ValidCampusEmail("carol@UTORONTO.CA"))
	require.False(t, ValidCampusEmail("alice@gmail.com"))
	require.False(t, ValidCampusEmail("@utoronto.ca"))
	require.False(t, ValidCampusEmail("no-at-sign"))
}

func TestValidPassword(t *testing.T) {
	require.True(t, ValidPassword("Password1!"))
	require.False(t, ValidPassword("Sh0rt!"))
	require.False(t, ValidPassword("alllowercase1!"))
	require.False(t, ValidPassword("ALLUPPERCASE1!"))
	require.False(t, ValidPassword("NoDigitsHere!"))
	require.False(t, ValidPassword("NoSpecials123"))
	require.False(t, ValidPassword("WayTooLongPassword123!!"))
}

func TestParseBirthday(t *testing.T) {
	_, ok := ParseBirthday("2004-02-29")
	require.True(t, ok)
	_, ok = ParseBirthday("2005-02-29")
	require.False(t, ok)
	_, ok = ParseBirthday("2004-13-01")
	require.False(t, ok)
	_, ok = ParseBirthday("feb 29 2004")
	require.False(t, ok)
}
