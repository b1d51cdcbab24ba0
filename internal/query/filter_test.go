package query

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_TitleAlternation(t *testing.T) {
	f, err := Build([]string{"Software Engineer", " software engineer ", "C++ Developer", ""}, "Hobart")
	require.NoError(t, err)

	require.Len(t, f.AnyOf, 2, "blank and case-duplicate keywords are dropped")
	assert.Equal(t, FieldTitle, f.AnyOf[0].Field)
	assert.Equal(t, "Software Engineer", f.AnyOf[0].Pattern)
	assert.Equal(t, `C\+\+ Developer`, f.AnyOf[1].Pattern)
	assert.True(t, f.ExcludeInactive)
}

func TestBuild_EscapesMetacharacters(t *testing.T) {
	f, err := Build([]string{"Engineer (Level 2) [Cloud] $100k.*"}, "")
	require.NoError(t, err)
	require.Len(t, f.AnyOf, 1)

	re := regexp.MustCompile("(?i)" + f.AnyOf[0].Pattern)
	assert.True(t, re.MatchString("Senior engineer (level 2) [cloud] $100k.*"))
	assert.False(t, re.MatchString("Engineer Level 2 Cloud 100k"))
}

func TestBuild_GreaterAreaLocation(t *testing.T) {
	f, err := Build([]string{"Data Scientist"}, "Sydney")
	require.NoError(t, err)
	require.Len(t, f.AllOf, 1)
	assert.Equal(t, FieldLocation, f.AllOf[0].Field)

	re := regexp.MustCompile("(?i)" + f.AllOf[0].Pattern)
	assert.True(t, re.MatchString("Parramatta NSW"))
	assert.True(t, re.MatchString("penrith"))
	assert.True(t, re.MatchString("Sydney CBD"))
	assert.False(t, re.MatchString("Melbourne VIC"))
	assert.True(t, re.MatchString("Richmond NSW"))
	assert.False(t, re.MatchString("Richmond VIC"))
}

func TestBuild_UnknownCityIsLiteral(t *testing.T) {
	f, err := Build([]string{"Nurse"}, "Alice Springs (NT)")
	require.NoError(t, err)
	require.Len(t, f.AllOf, 1)
	assert.Equal(t, `Alice Springs \(NT\)`, f.AllOf[0].Pattern)
}

func TestBuild_NoKeywordsDropsDisjunction(t *testing.T) {
	f, err := Build(nil, "Perth")
	require.NoError(t, err)
	assert.Nil(t, f.AnyOf)
	assert.Len(t, f.AllOf, 1)
}

func TestBuild_Degenerate(t *testing.T) {
	f, err := Build([]string{"  "}, "")
	assert.ErrorIs(t, err, ErrDegenerateFilter)
	assert.True(t, f.IsEmpty())
	assert.True(t, f.ExcludeInactive)
}

func TestOptimize_DropsEmptyConditions(t *testing.T) {
	f, err := Optimize(Filter{
		AnyOf: []Condition{{Field: FieldTitle, Pattern: ""}, {Field: "", Pattern: "x"}},
		AllOf: []Condition{{Field: FieldLocation, Pattern: "Perth"}},
	})
	require.NoError(t, err)
	assert.Nil(t, f.AnyOf)
	assert.Len(t, f.AllOf, 1)
}
