package search

import (
	"sort"
	"testing"

	"wisefido-directory/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_EmptyDataset(t *testing.T) {
	idx := Build(nil, nil, Options{})
	require.Nil(t, idx)
	assert.Empty(t, idx.Vocabulary())
	assert.Equal(t, 0, idx.Len())
	assert.True(t, idx.Match("x").IsEmpty())
	assert.Nil(t, idx.Fuzzy("x", 5))
	assert.Empty(t, idx.Autocomplete("x", 5))
}

func TestIndex_MatchAgreesWithEvaluate(t *testing.T) {
	rooms := testRooms()
	idx := Build(rooms, nil, Options{})
	require.Equal(t, len(rooms), idx.Len())

	queries := []string{
		"", "4", "4 radiology", "radiology orthopedics", "main", "ma", "m", "north tower",
		"building:north", "fb", "patient-room", "exam-room", "room:4101", "10", "emer", "x-y",
		"imaging, main", "level:2", "type:mri",
	}
	for _, q := range queries {
		want := ids(Evaluate(q, rooms, tagsOf))
		got := []int{}
		for _, id := range idx.Match(q).ToArray() {
			got = append(got, int(id))
		}
		assert.Equal(t, want, got, "query %q", q)
	}
}

func TestBuildVocabulary(t *testing.T) {
	idx := Build(testRooms(), nil, Options{})
	vocab := idx.Vocabulary()
	assert.True(t, sort.StringsAreSorted(vocab))
	assert.Contains(t, vocab, "building:north tower")
	assert.Contains(t, vocab, "north tower")
	assert.Contains(t, vocab, "4101")
	assert.Contains(t, vocab, "room:4101")

	capped := Build(testRooms(), nil, Options{AutocompleteLimit: 7})
	assert.Len(t, capped.Vocabulary(), 7)
	assert.True(t, sort.StringsAreSorted(capped.Vocabulary()))
}

func TestBuildVocabulary_StopsAtLimit(t *testing.T) {
	docs := []Document{
		{RmNbr: "1", Tags: []string{"a", "floor:1"}},
		{RmNbr: "2", Tags: []string{"b"}},
	}
	// a, floor:1, 1 (bare value), room number "1" is a duplicate
	assert.Equal(t, []string{"1", "a", "floor:1"}, BuildVocabulary(docs, 3))
	assert.Equal(t, []string{"1", "2", "a", "b", "floor:1"}, BuildVocabulary(docs, 100))
}

func TestIndex_Autocomplete(t *testing.T) {
	idx := Build(testRooms(), nil, Options{})

	got := idx.Autocomplete("rad", 3)
	require.NotEmpty(t, got)
	assert.Equal(t, "radiology", got[0])

	got = idx.Autocomplete("tower", 10)
	assert.Contains(t, got, "north tower")
	assert.Contains(t, got, "tower")
	assert.Equal(t, "tower", got[0], "prefix matches come first")

	assert.Empty(t, idx.Autocomplete("  ", 10))
}

func TestIndex_Fuzzy(t *testing.T) {
	idx := Build(testRooms(), nil, Options{})

	hits := idx.Fuzzy("4101", 3)
	require.NotEmpty(t, hits)
	assert.Equal(t, 1, hits[0].RoomID)

	// one typo still finds the department
	hits = idx.Fuzzy("radiolgy", 0)
	found := map[int]bool{}
	for _, h := range hits {
		found[h.RoomID] = true
	}
	assert.True(t, found[1])
	assert.True(t, found[3])
}

func TestIndex_Tags(t *testing.T) {
	idx := Build([]domain.Room{{ID: 9, RmNbr: "1", Floor: "1"}}, nil, Options{})
	assert.Contains(t, idx.Tags(9), "room:1")
	assert.Nil(t, idx.Tags(10))
}
