package httpapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"wisefido-directory/internal/abbrev"
	"wisefido-directory/internal/codec"
	"wisefido-directory/internal/directory"
	"wisefido-directory/internal/domain"
	"wisefido-directory/internal/remote"
	"wisefido-directory/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const roomsCSV = "rmnbr,floor,building,rmtyp_descrshort,dept_descr,rmrecnbr\n" +
	"4101,4,Main Hospital,OFF,Radiology,R1\n" +
	"4102,4,Main Hospital,EXAM,Orthopedics,R2\n" +
	"2201,2,North Tower,MRI,Radiology,R3\n"

type testEnv struct {
	store  *directory.Store
	router *Router
	repo   *repository.MemorySessionRepo
}

func newTestEnv(t *testing.T, fetcher *remote.Fetcher) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	store := directory.NewStore(abbrev.New(), logger, directory.Options{})
	repo := repository.NewMemorySessionRepo()
	router := NewRouter(logger)
	router.RegisterDirectoryRoutes(NewDirectoryHandler(store, repo, fetcher, logger))
	return &testEnv{store: store, router: router, repo: repo}
}

func (e *testEnv) seed(t *testing.T) {
	t.Helper()
	e.store.MergeRoomRows([]domain.RawRoomRow{
		{RmNbr: "4101", Floor: "4", Building: "Main Hospital", RmTyp: "OFF", Dept: "Radiology", RmRecNbr: "R1"},
		{RmNbr: "4102", Floor: "4", Building: "Main Hospital", RmTyp: "EXAM", Dept: "Orthopedics", RmRecNbr: "R2"},
		{RmNbr: "2201", Floor: "2", Building: "North Tower", RmTyp: "MRI", Dept: "Radiology", RmRecNbr: "R3"},
	})
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case string:
		rdr = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) Result[T] {
	t.Helper()
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var out Result[T]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestImportFiles_Multipart(t *testing.T) {
	env := newTestEnv(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("files", "rooms.csv")
	require.NoError(t, err)
	_, _ = fw.Write([]byte(roomsCSV))
	fw, err = mw.CreateFormFile("files", "notes.txt")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("hello"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, APIPrefix+"import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	res := decode[ImportResult](t, rr)
	assert.Equal(t, "warning", res.Type)
	assert.Equal(t, 3, res.Result.Rooms)
	assert.Equal(t, directory.Summary{Processed: 1, Failed: 1}, res.Result.Summary)
	require.Len(t, res.Result.Files, 2)
	assert.Equal(t, directory.FileProcessed, res.Result.Files[0].Status)
	assert.Equal(t, directory.FileError, res.Result.Files[1].Status)
	assert.NotEmpty(t, res.Result.Files[1].Message)
}

func TestImportFiles_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := env.do(t, http.MethodGet, APIPrefix+"import", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestViewAndRooms(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t)

	res := decode[RoomsPage](t, env.do(t, http.MethodGet, APIPrefix+"rooms", nil))
	assert.Equal(t, 3, res.Result.Total)

	q := "radiology"
	per := 1
	view := decode[directory.ViewState](t, env.do(t, http.MethodPut, APIPrefix+"view", ViewRequest{SearchQuery: &q, ResultsPerPage: &per}))
	assert.Equal(t, "radiology", view.Result.SearchQuery)
	assert.Equal(t, 1, view.Result.ResultsPerPage)

	res = decode[RoomsPage](t, env.do(t, http.MethodGet, APIPrefix+"rooms?page=2", nil))
	assert.Equal(t, 2, res.Result.Total)
	assert.Equal(t, 2, res.Result.Page)
	require.Len(t, res.Result.Items, 1)
	assert.Equal(t, "2201", res.Result.Items[0].RmNbr)

	search := decode[[]domain.Room](t, env.do(t, http.MethodGet, APIPrefix+"search?q=orthopedics", nil))
	require.Len(t, search.Result, 1)
	assert.Equal(t, "4102", search.Result[0].RmNbr)
}

func TestRoomTags(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t)

	added := decode[domain.CustomTag](t, env.do(t, http.MethodPost, APIPrefix+"rooms/2/tags", `{"name":"Sports Med","color":"green"}`))
	assert.Equal(t, ResultSuccess, added.Code)
	assert.Equal(t, "Sports Med", added.Result.Name)

	dup := decode[any](t, env.do(t, http.MethodPost, APIPrefix+"rooms/2/tags", `{"name":"sports med"}`))
	assert.Equal(t, ResultError, dup.Code)

	detail := decode[RoomDetail](t, env.do(t, http.MethodGet, APIPrefix+"rooms/2", nil))
	assert.Contains(t, detail.Result.Tags, "custom:sports med")
	require.Len(t, detail.Result.CustomTags, 1)

	removed := decode[[]domain.CustomTag](t, env.do(t, http.MethodDelete, APIPrefix+"rooms/2/tags/Sports%20Med", nil))
	assert.Equal(t, ResultSuccess, removed.Code)
	assert.Empty(t, removed.Result)

	missing := decode[any](t, env.do(t, http.MethodGet, APIPrefix+"rooms/99", nil))
	assert.Equal(t, ResultError, missing.Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, APIPrefix+"rooms/abc", nil).Code)
}

func TestRemoveTag_NameWithEscapes(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t)

	for _, name := range []string{"50% off", "O2/N2O", "a%2Fb"} {
		added := decode[domain.CustomTag](t, env.do(t, http.MethodPost, APIPrefix+"rooms/2/tags", map[string]string{"name": name}))
		require.Equal(t, ResultSuccess, added.Code, name)

		rr := env.do(t, http.MethodDelete, APIPrefix+"rooms/2/tags/"+url.PathEscape(name), nil)
		removed := decode[[]domain.CustomTag](t, rr)
		assert.Equal(t, ResultSuccess, removed.Code, name)
		assert.Empty(t, removed.Result, name)
	}
	assert.Empty(t, env.store.CustomTags(2))
}

func TestAutocomplete_CachedPerGeneration(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t)

	first := decode[[]string](t, env.do(t, http.MethodGet, APIPrefix+"autocomplete?prefix=rad&limit=5", nil))
	assert.Contains(t, first.Result, "radiology")
	assert.NotContains(t, first.Result, "radar")

	_, err := env.store.AddCustomTag(1, domain.CustomTag{Name: "Radar Lab"})
	require.NoError(t, err)

	second := decode[[]string](t, env.do(t, http.MethodGet, APIPrefix+"autocomplete?prefix=rad&limit=5", nil))
	assert.Contains(t, second.Result, "radar")
}

func TestFacetsAndUnmapped(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t)
	env.store.MergeRoomRows([]domain.RawRoomRow{
		{RmNbr: "1", Floor: "1", RmTyp: "ZZQ"},
		{RmNbr: "2", Floor: "1", RmTyp: "ZZQ"},
		{RmNbr: "3", Floor: "1", RmTyp: "AAX"},
	})

	facets := decode[FacetsResponse](t, env.do(t, http.MethodGet, APIPrefix+"facets", nil))
	assert.Equal(t, []string{"1", "2", "4"}, facets.Result.Floors)
	assert.Len(t, facets.Result.BuildingColors, 3)

	unmapped := decode[[]abbrev.UnmappedCount](t, env.do(t, http.MethodGet, APIPrefix+"unmapped", nil))
	assert.Equal(t, []abbrev.UnmappedCount{{Code: "ZZQ", Count: 2}, {Code: "AAX", Count: 1}}, unmapped.Result)
}

func TestSessionEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	empty := decode[any](t, env.do(t, http.MethodGet, APIPrefix+"session/export", nil))
	assert.Equal(t, ResultError, empty.Code)

	env.seed(t)
	exported := decode[SessionBlob](t, env.do(t, http.MethodGet, APIPrefix+"session/export", nil))
	require.NotEmpty(t, exported.Result.Blob)

	other := newTestEnv(t, nil)
	imported := decode[map[string]int](t, other.do(t, http.MethodPost, APIPrefix+"session/import", exported.Result))
	assert.Equal(t, 3, imported.Result["rooms"])

	bad := decode[any](t, other.do(t, http.MethodPost, APIPrefix+"session/import", SessionBlob{Blob: "!!"}))
	assert.Equal(t, ResultError, bad.Code)
	assert.Equal(t, 3, other.store.Len())
}

func TestNamedSessions(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t)

	saved := decode[repository.SessionInfo](t, env.do(t, http.MethodPut, APIPrefix+"sessions/ward-4", nil))
	assert.Equal(t, "ward-4", saved.Result.Name)

	list := decode[[]repository.SessionInfo](t, env.do(t, http.MethodGet, APIPrefix+"sessions", nil))
	require.Len(t, list.Result, 1)

	env.store.Replace(codec.SessionData{})
	assert.Zero(t, env.store.Len())

	loaded := decode[map[string]int](t, env.do(t, http.MethodPost, APIPrefix+"sessions/ward-4", nil))
	assert.Equal(t, 3, loaded.Result["rooms"])

	deleted := decode[string](t, env.do(t, http.MethodDelete, APIPrefix+"sessions/ward-4", nil))
	assert.Equal(t, "ward-4", deleted.Result)
	missing := decode[any](t, env.do(t, http.MethodPost, APIPrefix+"sessions/ward-4", nil))
	assert.Equal(t, ResultError, missing.Code)
	assert.Contains(t, missing.Message, "session not found")
}

func TestTagsExportImport(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t)
	_, err := env.store.AddCustomTag(3, domain.CustomTag{Name: "Contrast"})
	require.NoError(t, err)

	rr := env.do(t, http.MethodGet, APIPrefix+"tags/export", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "custom-tags.json")

	other := newTestEnv(t, nil)
	other.seed(t)
	counts := decode[directory.ImportCounts](t, other.do(t, http.MethodPost, APIPrefix+"tags/import", rr.Body.String()))
	assert.Equal(t, directory.ImportCounts{Imported: 1}, counts.Result)

	bad := decode[any](t, other.do(t, http.MethodPost, APIPrefix+"tags/import", `{"version":"1.0"}`))
	assert.Equal(t, ResultError, bad.Code)
}

func TestExportExcel(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t)

	rr := env.do(t, http.MethodGet, APIPrefix+"export.xlsx", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, xlsxContentType, rr.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rr.Body.String(), "PK"))
}

func TestImportRemote(t *testing.T) {
	fetcher := remote.NewFetcher(remote.Options{}, zap.NewNop())
	env := newTestEnv(t, fetcher)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/rooms.csv" {
			_, _ = w.Write([]byte(roomsCSV))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	body := map[string][]string{"urls": {srv.URL + "/rooms.csv", srv.URL + "/missing.csv"}}
	res := decode[ImportResult](t, env.do(t, http.MethodPost, APIPrefix+"import/remote", body))
	assert.Equal(t, directory.Summary{Processed: 1, Failed: 1}, res.Result.Summary)
	assert.Equal(t, 3, res.Result.Rooms)
	assert.Equal(t, "rooms.csv", res.Result.Files[0].Name)
}

func TestImportRemote_NotConfigured(t *testing.T) {
	env := newTestEnv(t, nil)
	res := decode[any](t, env.do(t, http.MethodPost, APIPrefix+"import/remote", `{"urls":["http://x/a.csv"]}`))
	assert.Equal(t, ResultError, res.Code)
}

func TestSearch_TagParams(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seed(t)

	res := decode[[]domain.Room](t, env.do(t, http.MethodGet, "/directory/api/v1/search?q=radiology", nil))
	assert.Len(t, res.Result, 2)

	res = decode[[]domain.Room](t, env.do(t, http.MethodGet, "/directory/api/v1/search?q=radiology&tag=floor:2", nil))
	require.Len(t, res.Result, 1)
	assert.Equal(t, "2201", res.Result[0].RmNbr)

	res = decode[[]domain.Room](t, env.do(t, http.MethodGet, "/directory/api/v1/search?tag=radiology,floor:4", nil))
	require.Len(t, res.Result, 1)
	assert.Equal(t, "4101", res.Result[0].RmNbr)

	// 视图状态不变
	assert.Empty(t, env.store.View().SearchQuery)
}
