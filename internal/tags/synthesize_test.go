package tags

import (
	"testing"

	"wisefido-directory/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnnotations struct {
	custom map[int][]domain.CustomTag
	staff  map[int][]string
}

func (f fakeAnnotations) CustomTags(id int) []domain.CustomTag { return f.custom[id] }
func (f fakeAnnotations) StaffTags(id int) []string            { return f.staff[id] }

func exampleRoom() domain.Room {
	return domain.Room{
		ID:            1,
		RmNbr:         "4101",
		Floor:         "4",
		BldDescrShort: "Main",
		Building:      "Main Hospital",
		Dept:          "Radiology",
		TypeFull:      "Office - Storage/Supply",
		Tags:          []string{"Storage & Utility", "X-Ray Support"},
	}
}

func TestSynthesize_ExampleRoom(t *testing.T) {
	set := Synthesize(exampleRoom(), nil)

	for _, want := range []string{
		"floor:4", "f4", "level:4", "4",
		"radiology", "department:radiology",
		"room:4101", "4101",
		"main hospital", "main", "hospital", "building:main hospital", "building:main",
		"office - storage/supply", "office", "storage", "supply", "type:office - storage/supply",
		"storage & utility", "utility", "category:storage & utility",
		"x-ray support", "ray", "support", "category:x-ray support",
	} {
		assert.True(t, set.Contains(want), "missing %q in %v", want, set.Strings())
	}

	// word length thresholds
	assert.False(t, set.Contains("x"), "category words must be longer than 2")
	assert.False(t, set.Contains("&"))
}

func TestSynthesize_BuildingShortSameAsName(t *testing.T) {
	r := domain.Room{ID: 2, RmNbr: "1", Floor: "1", Building: "Main", BldDescrShort: "MAIN"}
	set := Synthesize(r, nil)
	n := 0
	for _, s := range set.Strings() {
		if s == "building:main" {
			n++
		}
	}
	assert.Equal(t, 1, n)
}

func TestSynthesize_Annotations(t *testing.T) {
	ann := fakeAnnotations{
		custom: map[int][]domain.CustomTag{
			1: {{Name: "Crash Cart A", Type: "equipment", Color: domain.ColorRed}},
		},
		staff: map[int][]string{
			1: {"Staff: Jane Q Doe"},
		},
	}
	set := Synthesize(exampleRoom(), ann)

	for _, want := range []string{
		"crash cart a", "crash", "cart", "custom:crash cart a", "tagtype:equipment", "color:red",
		"jane q doe", "jane", "doe", "staff:jane q doe",
	} {
		assert.True(t, set.Contains(want), "missing %q", want)
	}
	assert.False(t, set.Contains("a"), "custom words must be longer than 1")
	assert.False(t, set.Contains("q"), "staff name parts must be longer than 1")
	assert.False(t, set.Contains("staff: jane q doe"))
}

func TestSynthesize_WordLengthCountsCharacters(t *testing.T) {
	room := domain.Room{
		ID:       7,
		RmNbr:    "110",
		Floor:    "1",
		Building: "Hôpital é Nord",
		Dept:     "Écho Ré",
	}
	ann := fakeAnnotations{staff: map[int][]string{7: {domain.StaffTag("Zoë Ó")}}}
	set := Synthesize(room, ann)

	for _, want := range []string{"hôpital", "nord", "building:hôpital é nord", "écho", "zoë", "staff:zoë ó"} {
		assert.True(t, set.Contains(want), want)
	}
	// 单个多字节字符不算一个词；部门词需超过 2 个字符
	for _, unwanted := range []string{"é", "ré", "ó"} {
		assert.False(t, set.Contains(unwanted), unwanted)
	}
}

func TestSynthesize_Idempotent(t *testing.T) {
	ann := fakeAnnotations{staff: map[int][]string{1: {"Staff: Jane Doe"}}}
	a := Synthesize(exampleRoom(), ann).Strings()
	b := Synthesize(exampleRoom(), ann).Strings()
	require.Equal(t, a, b)
}

func TestSynthesize_NoDuplicates(t *testing.T) {
	set := Synthesize(exampleRoom(), nil)
	seen := map[string]bool{}
	for _, s := range set.Strings() {
		require.False(t, seen[s], "duplicate %q", s)
		seen[s] = true
	}
	assert.Equal(t, len(seen), set.Len())
}

func TestToken_StringAndSplit(t *testing.T) {
	assert.Equal(t, "floor:4", Token{Kind: KindFloor, Prefix: "floor", Value: "4"}.String())
	assert.Equal(t, "f4", Token{Kind: KindFloor, Value: "f4"}.String())
	assert.Equal(t, "floor", KindFloor.String())

	p, v, ok := SplitQualified("building:main hospital")
	require.True(t, ok)
	assert.Equal(t, "building", p)
	assert.Equal(t, "main hospital", v)

	_, _, ok = SplitQualified("plain")
	assert.False(t, ok)
	_, _, ok = SplitQualified(":x")
	assert.False(t, ok)
}
