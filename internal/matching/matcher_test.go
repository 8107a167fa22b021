package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, []string{"jose", "nunez"}, normalize("  JOSÉ   Núñez "))
	assert.Equal(t, []string{"1abc", "234"}, normalize("1ABC-234"))
	assert.Empty(t, normalize(" -- "))
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "John Smith", "John Smith", 1},
		{"case and accents", "ZOË O'Brien", "zoe obrien", 1},
		{"reordered tokens", "Smith, John", "John Smith", 1},
		{"plate punctuation", "1ABC-234", "1abc 234", 1},
		{"empty", "", "John", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, similarity(newKey(tt.a), newKey(tt.b)), 1e-9)
		})
	}

	typo := similarity(newKey("Jon Smith"), newKey("John Smith"))
	assert.Greater(t, typo, 0.85)
	assert.Less(t, typo, 1.0)
}

func TestMatchPartitionsCandidates(t *testing.T) {
	events := []Candidate{
		{ID: "ev1", Name: "smith john"},
		{ID: "ev2", Name: "Jon Citizen"},
		{ID: "ev3", Name: "Unknown Driver"},
		{ID: "ev4", Name: ""},
	}
	drivers := []Candidate{
		{ID: "d1", Name: "John Smith"},
		{ID: "d2", Name: "John Citizen"},
		{ID: "d3", Name: "Mary Jones"},
	}

	res := Match(events, drivers, 0.9)

	require.Len(t, res.Matches, 2)
	assert.Equal(t, "ev1", res.Matches[0].Left.ID)
	assert.Equal(t, "d1", res.Matches[0].Right.ID)
	assert.Equal(t, 1.0, res.Matches[0].Score)
	assert.Equal(t, "ev2", res.Matches[1].Left.ID)
	assert.Equal(t, "d2", res.Matches[1].Right.ID)

	ids := func(cs []Candidate) []string {
		var out []string
		for _, c := range cs {
			out = append(out, c.ID)
		}
		return out
	}
	assert.Equal(t, []string{"ev3", "ev4"}, ids(res.UnmatchedLeft))
	assert.Equal(t, []string{"d3"}, ids(res.UnmatchedRight))

	require.Len(t, res.Review, 1, "low-confidence guess surfaced for ev3 only")
	assert.Equal(t, "ev3", res.Review[0].Left.ID)
	assert.Equal(t, "d3", res.Review[0].Right.ID)
	assert.Less(t, res.Review[0].Score, 0.9)
}

func TestMatchIsOneToOne(t *testing.T) {
	left := []Candidate{{ID: "a", Name: "John Smith"}, {ID: "b", Name: "John Smith"}}
	right := []Candidate{{ID: "x", Name: "John Smith"}}

	res := Match(left, right, 0.8)

	require.Len(t, res.Matches, 1)
	assert.Equal(t, "a", res.Matches[0].Left.ID)
	assert.Equal(t, []Candidate{{ID: "b", Name: "John Smith"}}, res.UnmatchedLeft)
	assert.Empty(t, res.UnmatchedRight)
	assert.Empty(t, res.Review, "no right candidate left to suggest")
}

func TestMatchDeterministic(t *testing.T) {
	left := []Candidate{{ID: "1", Name: "A Brown"}, {ID: "2", Name: "B Brown"}}
	right := []Candidate{{ID: "x", Name: "Brown"}, {ID: "y", Name: "C Brown"}}

	first := Match(left, right, 0.5)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Match(left, right, 0.5))
	}
}
