package codec

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"wisefido-directory/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleRooms() []domain.Room {
	return []domain.Room{
		{ID: 1, RmNbr: "4101", Floor: "4", Building: "Main", RmRecNbr: "9001", TypeFull: "Office"},
		{ID: 2, RmNbr: "4102", Floor: "4", Building: "Main", RmRecNbr: "9002", TypeFull: "Laboratory"},
		{ID: 3, RmNbr: "4101", Floor: "4", Building: "North", RmRecNbr: "9003", TypeFull: "Office"},
	}
}

func TestEncodeTags_NothingToExport(t *testing.T) {
	_, err := EncodeTags(nil, sampleRooms(), fixedNow)
	require.ErrorIs(t, err, ErrNothingToExport)

	_, err = EncodeTags(map[int][]domain.CustomTag{1: {}}, sampleRooms(), fixedNow)
	require.ErrorIs(t, err, ErrNothingToExport)
}

func TestEncodeTags_NoLoadedRooms(t *testing.T) {
	custom := map[int][]domain.CustomTag{99: {{Name: "Orphan"}}}
	_, err := EncodeTags(custom, sampleRooms(), fixedNow)
	require.ErrorIs(t, err, ErrNoLoadedRooms)
}

func TestEncodeDecodeTags(t *testing.T) {
	custom := map[int][]domain.CustomTag{
		2:  {domain.NewCustomTag(domain.CustomTag{Name: "Freezer", Color: domain.ColorRed}, fixedNow)},
		99: {{Name: "Orphan"}},
	}
	data, err := EncodeTags(custom, sampleRooms(), fixedNow)
	require.NoError(t, err)

	doc, err := DecodeTags(data)
	require.NoError(t, err)
	assert.Equal(t, Version, doc.Version)
	assert.Equal(t, "2026-03-01T12:00:00Z", doc.Timestamp)
	require.Len(t, doc.CustomTags, 1)
	require.Contains(t, doc.CustomTags, "2")
	assert.Equal(t, RoomReference{RmNbr: "4102", TypeFull: "Laboratory", RmRecNbr: "9002", Building: "Main"}, doc.RoomReference["2"])

	tag, ok := NormalizeTagEntry(doc.CustomTags["2"][0], fixedNow)
	require.True(t, ok)
	assert.Equal(t, custom[2][0], tag)
}

func TestDecodeTags_Errors(t *testing.T) {
	_, err := DecodeTags([]byte(`{"version":"1.0"}`))
	require.ErrorIs(t, err, ErrMissingCustomTags)

	_, err = DecodeTags([]byte(`{"customTags":null}`))
	require.ErrorIs(t, err, ErrMissingCustomTags)

	_, err = DecodeTags([]byte(`not json`))
	require.ErrorIs(t, err, ErrDecode)
}

func TestResolveRoom_Precedence(t *testing.T) {
	rooms := sampleRooms()

	// rmrecnbr wins over a key that points at another room
	r, ok := ResolveRoom("1", &RoomReference{RmRecNbr: "9002", RmNbr: "4101"}, rooms)
	require.True(t, ok)
	assert.Equal(t, 2, r.ID)

	// raw id when rmrecnbr is unknown
	r, ok = ResolveRoom("3", &RoomReference{RmRecNbr: "nope", RmNbr: "4102"}, rooms)
	require.True(t, ok)
	assert.Equal(t, 3, r.ID)

	// room number + building
	r, ok = ResolveRoom("77", &RoomReference{RmNbr: "4101", Building: "North"}, rooms)
	require.True(t, ok)
	assert.Equal(t, 3, r.ID)

	// room number only
	r, ok = ResolveRoom("77", &RoomReference{RmNbr: "4101", Building: "Elsewhere"}, rooms)
	require.True(t, ok)
	assert.Equal(t, 1, r.ID)

	_, ok = ResolveRoom("77", &RoomReference{RmNbr: "0000"}, rooms)
	assert.False(t, ok)
	_, ok = ResolveRoom("abc", nil, rooms)
	assert.False(t, ok)
}

func TestNormalizeTagEntry(t *testing.T) {
	tag, ok := NormalizeTagEntry(json.RawMessage(`"  Wheelchair  "`), fixedNow)
	require.True(t, ok)
	assert.Equal(t, "Wheelchair", tag.Name)
	assert.Equal(t, domain.DefaultTagType, tag.Type)
	assert.Equal(t, domain.DefaultTagColor, tag.Color)
	assert.Equal(t, fixedNow, tag.Created)
	assert.NotEmpty(t, tag.ID)

	tag, ok = NormalizeTagEntry(json.RawMessage(`{"name":"Keypad","type":"access","color":"PURPLE","contact":"x123"}`), fixedNow)
	require.True(t, ok)
	assert.Equal(t, "access", tag.Type)
	assert.Equal(t, domain.ColorPurple, tag.Color)
	assert.Equal(t, "x123", tag.Contact)

	_, ok = NormalizeTagEntry(json.RawMessage(`""`), fixedNow)
	assert.False(t, ok)
	_, ok = NormalizeTagEntry(json.RawMessage(`{"type":"x"}`), fixedNow)
	assert.False(t, ok)
	_, ok = NormalizeTagEntry(json.RawMessage(`42`), fixedNow)
	assert.False(t, ok)
}

func TestPlanTagImport(t *testing.T) {
	doc := &TagDocument{
		CustomTags: map[string][]json.RawMessage{
			"10": {json.RawMessage(`"Freezer"`), json.RawMessage(`{"name":"Keypad"}`)},
			"11": {json.RawMessage(`"Ghost"`)},
		},
		RoomReference: map[string]RoomReference{
			"10": {RmRecNbr: "9003"},
			"11": {RmNbr: "0000"},
		},
	}
	plan, skipped := PlanTagImport(doc, sampleRooms(), fixedNow)
	assert.Equal(t, 1, skipped)
	require.Len(t, plan, 1)
	assert.Equal(t, 3, plan[0].RoomID)
	require.Len(t, plan[0].Tags, 2)
	assert.Equal(t, "Freezer", plan[0].Tags[0].Name)
	assert.Equal(t, "Keypad", plan[0].Tags[1].Name)
}

func TestSession_RoundTrip(t *testing.T) {
	data := SessionData{
		ProcessedData: sampleRooms(),
		CustomTags: map[int][]domain.CustomTag{
			1: {domain.NewCustomTag(domain.CustomTag{Name: "Freezer"}, fixedNow)},
		},
		StaffTags:       map[int][]string{2: {"Staff: Jane Doe"}},
		BuildingColors:  map[string]string{"Main": "#1f77b4"},
		ActiveFilters:   domain.Filters{Building: "Main", Tags: []string{"imaging"}},
		SearchQuery:     "radiology",
		CurrentViewMode: "cards",
		ResultsPerPage:  25,
	}
	blob, err := EncodeSession(data, fixedNow)
	require.NoError(t, err)

	doc, err := DecodeSession(blob)
	require.NoError(t, err)
	assert.Equal(t, SessionType, doc.Type)
	assert.Equal(t, Version, doc.Version)
	assert.Equal(t, data, doc.Data)
}

func TestEncodeSession_Empty(t *testing.T) {
	_, err := EncodeSession(SessionData{}, fixedNow)
	require.ErrorIs(t, err, ErrNothingToExport)
}

func TestDecodeSession_Errors(t *testing.T) {
	_, err := DecodeSession("%%%not-base64")
	require.ErrorIs(t, err, ErrDecode)

	_, err = DecodeSession(base64.StdEncoding.EncodeToString([]byte("not gzip")))
	require.ErrorIs(t, err, ErrDecode)

	// valid transport, wrong type marker
	blob, err := EncodeSession(SessionData{ProcessedData: sampleRooms()}, fixedNow)
	require.NoError(t, err)
	doc, err := DecodeSession(blob)
	require.NoError(t, err)
	doc.Type = "other"
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	_, err = DecodeSession(encodeRaw(t, raw))
	require.ErrorIs(t, err, ErrSessionType)
}
