package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	ClearCache()

	prompt, err := Get("scoring.json", "score-job")
	require.NoError(t, err)
	assert.Contains(t, prompt, "KEY REQUIREMENTS:")
	assert.Contains(t, prompt, "{{.Framing}}")
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	ClearCache()

	_, err := Get("expansion.json", "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet_Panics(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() {
		MustGet("nonexistent.json", "some-key")
	})
}

func TestFormat(t *testing.T) {
	out := Format("Find {{.Title}} roles in {{.City}}, {{.Title}}.", map[string]string{
		"Title": "Data Scientist",
		"City":  "Sydney",
	})
	assert.Equal(t, "Find Data Scientist roles in Sydney, Data Scientist.", out)
	assert.Equal(t, "keep {{.Missing}}", Format("keep {{.Missing}}", nil))
}

func TestList(t *testing.T) {
	keys, err := List("scoring.json")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"score-job", "framing-opportunity", "framing-fit", "framing-neutral"}, keys)
}

func TestAllPromptFilesParse(t *testing.T) {
	ClearCache()
	for _, f := range []string{"expansion.json", "scoring.json"} {
		keys, err := List(f)
		require.NoError(t, err, f)
		assert.NotEmpty(t, keys, f)
	}
}

func TestRender(t *testing.T) {
	out, err := Render("scoring.json", "score-job", map[string]string{
		"Framing": "F",
		"Profile": "P",
		"Job":     "J",
	})
	require.NoError(t, err)
	assert.NotContains(t, out, "{{.")

	_, err = Render("scoring.json", "score-job", map[string]string{"Framing": "F"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Profile")
}
