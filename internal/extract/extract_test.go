package extract

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fgerrors "github.com/randalmurphal/cognigen/pkg/flowgraph/errors"
)

func TestJSON_FencedObject(t *testing.T) {
	got, err := JSON("```json\n{\"a\":1}\n```")

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1)}, got)
}

func TestJSON_SingleObjectSurvivesWrapping(t *testing.T) {
	objects := []string{
		`{"a":1}`,
		`{"title":"Loops","items":[1,2,{"x":"y"}]}`,
		`{"code":"func main() { fmt.Println(\"}\") }","n":null}`,
		`{"text":"a ] stray [ bracket","nested":{"deep":{"deeper":[[],{}]}}}`,
		`{"quote":"he said \"hi\" {not json}","ok":true}`,
		`{"md":"use ` + "```go" + ` blocks"}`,
	}
	wrappers := []struct {
		name string
		wrap func(string) string
	}{
		{"bare", func(s string) string { return s }},
		{"whitespace", func(s string) string { return "\n\n  " + s + "  \n" }},
		{"json fence", func(s string) string { return "```json\n" + s + "\n```" }},
		{"plain fence", func(s string) string { return "```\n" + s + "\n```" }},
		{"prose", func(s string) string { return "Sure! Here is the result:\n" + s + "\nLet me know if you need more." }},
		{"prose and fence", func(s string) string { return "Here you go:\n```json\n" + s + "\n```\nHope that helps {really}." }},
		{"braces in prose", func(s string) string { return "Note {this} and [that]: " + s }},
	}

	for _, obj := range objects {
		var want any
		require.NoError(t, json.Unmarshal([]byte(obj), &want))

		for _, w := range wrappers {
			t.Run(w.name, func(t *testing.T) {
				got, err := JSON(w.wrap(obj))
				require.NoError(t, err, "input: %s", w.wrap(obj))
				assert.Equal(t, want, got)
			})
		}
	}
}

func TestJSON_UnwrapsSingleObjectArray(t *testing.T) {
	got, err := JSON(`[{"question":"q1"}]`)

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"question": "q1"}, got)
}

func TestJSON_KeepsMultiElementArrays(t *testing.T) {
	got, err := JSON(`[{"a":1},{"b":2}]`)

	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestJSON_KeepsSingleScalarArray(t *testing.T) {
	got, err := JSON(`["only"]`)

	require.NoError(t, err)
	assert.Equal(t, []any{"only"}, got)
}

func TestJSON_PrefersLongestCandidate(t *testing.T) {
	raw := `First {"small":1} then {"big":{"inner":[1,2,3]},"more":"x"} end`

	got, err := JSON(raw)

	require.NoError(t, err)
	assert.Contains(t, got, "big")
}

func TestJSON_SkipsUnparseableLongerCandidate(t *testing.T) {
	raw := `{not: valid, but: [long, enough, to, win]} then {"ok":true}`

	got, err := JSON(raw)

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": true}, got)
}

func TestJSON_TrailingCommas(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want any
	}{
		{"object", `{"a":1,"b":[1,2,],}`, map[string]any{"a": float64(1), "b": []any{float64(1), float64(2)}}},
		{"with whitespace", "{\"a\":1 ,\n }", map[string]any{"a": float64(1)}},
		{"inside prose", `Result: {"list":["x","y",],} done`, map[string]any{"list": []any{"x", "y"}}},
		{"comma in string kept", `{"s":"a,}","t":1,}`, map[string]any{"s": "a,}", "t": float64(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JSON(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSON_FailsWithRawText(t *testing.T) {
	inputs := []string{
		"I'm sorry, I can't help with that.",
		"",
		"```json\n```",
		`{"unterminated": "value`,
		"42",
		`"just a string"`,
	}

	for _, raw := range inputs {
		t.Run(raw, func(t *testing.T) {
			_, err := JSON(raw)

			var extractErr *fgerrors.ExtractionError
			require.ErrorAs(t, err, &extractErr)
			assert.Equal(t, raw, extractErr.Raw)
		})
	}
}

func TestObject(t *testing.T) {
	p, err := Object("```json\n{\"title\":\"T\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "T", p.String("title", ""))

	_, err = Object(`[1,2,3]`)
	var extractErr *fgerrors.ExtractionError
	require.ErrorAs(t, err, &extractErr)
	assert.Equal(t, "[1,2,3]", extractErr.Raw)
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"```json\n{}\n```", "{}"},
		{"```\n[]\n```", "[]"},
		{"```json{}```", "{}"},
		{"{}", "{}"},
		{"{\"a\":\"```\"}", "{\"a\":\"```\"}"},
		{"text ```x``` text", "text ```x``` text"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, stripFences(tt.in), "input %q", tt.in)
	}
}

func TestCandidates(t *testing.T) {
	got := Candidates(`a {"x":"}"} b [1,{"y":2}] c {broken]`)

	assert.Equal(t, []string{`[1,{"y":2}]`, `{"x":"}"}`, `{"y":2}`}, got)
}

func TestCandidates_EscapedQuotes(t *testing.T) {
	got := Candidates(`{"a":"\"}\""}`)

	require.NotEmpty(t, got)
	assert.Equal(t, `{"a":"\"}\""}`, got[0])
}

func TestCandidates_OpenerInsideStringSettledSeparately(t *testing.T) {
	got := Candidates(`[" [1] "`)

	assert.Equal(t, []string{`[1]`}, got)
}

func TestJSON_LargeUnbalancedInputIsLinear(t *testing.T) {
	const n = 200_000
	inputs := map[string]string{
		"open brackets":     strings.Repeat("[", n) + " no json here",
		"open braces":       strings.Repeat(`{"a":`, n/4),
		"quoted brackets":   strings.Repeat(`[" `, n/2),
		"nested non-json":   strings.Repeat("[", n/4) + "x" + strings.Repeat("]", n/4),
		"mismatched closer": strings.Repeat("{[", n/2) + "}",
	}

	for name, raw := range inputs {
		t.Run(name, func(t *testing.T) {
			start := time.Now()
			_, err := JSON(raw)
			elapsed := time.Since(start)

			var extractErr *fgerrors.ExtractionError
			require.ErrorAs(t, err, &extractErr)
			assert.Less(t, elapsed, 2*time.Second)
		})
	}
}

func TestStripTrailingCommas(t *testing.T) {
	assert.Equal(t, `{"a":[1,2]}`, stripTrailingCommas(`{"a":[1,2,],}`))
	assert.Equal(t, `{"a":",]"}`, stripTrailingCommas(`{"a":",]"}`))
	assert.Equal(t, `[1, 2]`, stripTrailingCommas(`[1, 2]`))
}

func BenchmarkJSON_Noisy(b *testing.B) {
	raw := "Here is your content:\n```json\n" + `{"explanation":"` + strings.Repeat("text {x} ", 200) + `","items":[1,2,3,],}` + "\n```"
	for b.Loop() {
		_, _ = JSON(raw)
	}
}
