package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wisefido-directory/internal/codec"
	"wisefido-directory/internal/directory"
	"wisefido-directory/internal/domain"
	"wisefido-directory/internal/export"
	"wisefido-directory/internal/ingest"
	"wisefido-directory/internal/remote"
	"wisefido-directory/internal/repository"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	defaultMaxUpload = 32 << 20
	maxJSONBody      = 8 << 20
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// DirectoryHandler 房间目录 API
type DirectoryHandler struct {
	store     *directory.Store
	sessions  repository.SessionRepo
	fetcher   *remote.Fetcher
	cache     *gocache.Cache
	maxUpload int64
	logger    *zap.Logger
}

// NewDirectoryHandler sessions / fetcher 可为 nil（对应路由返回 Fail）
func NewDirectoryHandler(store *directory.Store, sessions repository.SessionRepo, fetcher *remote.Fetcher, logger *zap.Logger) *DirectoryHandler {
	return &DirectoryHandler{
		store:     store,
		sessions:  sessions,
		fetcher:   fetcher,
		cache:     gocache.New(5*time.Minute, 10*time.Minute),
		maxUpload: defaultMaxUpload,
		logger:    logger,
	}
}

// ImportResult 批量导入响应
type ImportResult struct {
	Files   []directory.FileOutcome `json:"files"`
	Summary directory.Summary       `json:"summary"`
	Rooms   int                     `json:"rooms"`
}

func (h *DirectoryHandler) importResult(outcomes []directory.FileOutcome) Result[ImportResult] {
	res := ImportResult{Files: outcomes, Summary: directory.Summarize(outcomes), Rooms: h.store.Len()}
	if res.Summary.Failed > 0 {
		return Warn(fmt.Sprintf("%d of %d files failed", res.Summary.Failed, len(outcomes)), res)
	}
	return Ok(res)
}

// POST /directory/api/v1/import  (multipart, 字段名 files，可多个)
func (h *DirectoryHandler) ImportFiles(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		writeJSON(w, http.StatusOK, Fail("failed to parse form"))
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		writeJSON(w, http.StatusOK, Fail("no files in request"))
		return
	}

	files := make([]ingest.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			writeJSON(w, http.StatusOK, Fail("failed to open "+fh.Filename))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeJSON(w, http.StatusOK, Fail("failed to read "+fh.Filename))
			return
		}
		files = append(files, ingest.File{Name: fh.Filename, Data: data})
	}

	outcomes := h.store.ImportFiles(r.Context(), files)
	writeJSON(w, http.StatusOK, h.importResult(outcomes))
}

// POST /directory/api/v1/import/remote  body: {"urls": [...]}
func (h *DirectoryHandler) ImportRemote(w http.ResponseWriter, r *http.Request) {
	if h.fetcher == nil {
		writeJSON(w, http.StatusOK, Fail("remote import is not configured"))
		return
	}
	var payload struct {
		URLs []string `json:"urls"`
	}
	if err := readBodyJSON(r, maxJSONBody, &payload); err != nil || len(payload.URLs) == 0 {
		writeJSON(w, http.StatusOK, Fail("urls is required"))
		return
	}

	outcomes := make([]directory.FileOutcome, 0, len(payload.URLs))
	for _, u := range payload.URLs {
		file, err := h.fetcher.Fetch(r.Context(), u)
		if err != nil {
			h.logger.Warn("Remote import failed", zap.String("url", u), zap.Error(err))
			outcomes = append(outcomes, directory.FileOutcome{Name: u, Status: directory.FileError, Err: err, Message: err.Error()})
			continue
		}
		outcomes = append(outcomes, h.store.ImportFiles(r.Context(), []ingest.File{file})...)
	}
	writeJSON(w, http.StatusOK, h.importResult(outcomes))
}

// RoomsPage 分页结果
type RoomsPage struct {
	Items []domain.Room       `json:"items"`
	Total int                 `json:"total"`
	Page  int                 `json:"page"`
	Size  int                 `json:"size"`
	View  directory.ViewState `json:"view"`
}

// GET /directory/api/v1/rooms?page=
// 使用当前视图状态（PUT /view 设置）过滤
func (h *DirectoryHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	page := parseInt(r.URL.Query().Get("page"), 1)
	items, total := h.store.Page(page)
	view := h.store.View()
	writeJSON(w, http.StatusOK, Ok(RoomsPage{
		Items: items,
		Total: total,
		Page:  view.CurrentPage,
		Size:  view.ResultsPerPage,
		View:  view,
	}))
}

// ViewRequest 视图状态更新；未提供的字段保持不变
type ViewRequest struct {
	SearchQuery    *string         `json:"searchQuery"`
	Filters        *domain.Filters `json:"activeFilters"`
	ViewMode       *string         `json:"currentViewMode"`
	ResultsPerPage *int            `json:"resultsPerPage"`
}

// GET/PUT /directory/api/v1/view
func (h *DirectoryHandler) View(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, Ok(h.store.View()))
	case http.MethodPut:
		var req ViewRequest
		if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
			writeJSON(w, http.StatusOK, Fail("invalid body"))
			return
		}
		if req.SearchQuery != nil {
			h.store.SetSearchQuery(*req.SearchQuery)
		}
		if req.Filters != nil {
			h.store.SetFilters(*req.Filters)
		}
		if req.ViewMode != nil {
			h.store.SetViewMode(*req.ViewMode)
		}
		if req.ResultsPerPage != nil {
			h.store.SetResultsPerPage(*req.ResultsPerPage)
		}
		writeJSON(w, http.StatusOK, Ok(h.store.View()))
	default:
		methodNotAllowed(w)
	}
}

// GET /directory/api/v1/search?q=&tag=  (只做查询求值，不改视图状态)
// tag 作为额外的 AND 项拼接到查询后
func (h *DirectoryHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	terms := append([]string{q.Get("q")}, splitList(q["tag"])...)
	writeJSON(w, http.StatusOK, Ok(h.store.SearchByTags(strings.TrimSpace(strings.Join(terms, " ")))))
}

// RoomDetail 单个房间及其 token / 注解
type RoomDetail struct {
	Room       domain.Room        `json:"room"`
	Tags       []string           `json:"unifiedTags"`
	CustomTags []domain.CustomTag `json:"customTags"`
	StaffTags  []string           `json:"staffTags"`
}

// GET /directory/api/v1/rooms/{id}
func (h *DirectoryHandler) GetRoom(w http.ResponseWriter, r *http.Request, id int) {
	room, ok := h.store.Room(id)
	if !ok {
		writeJSON(w, http.StatusOK, Fail("room not found"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(RoomDetail{
		Room:       room,
		Tags:       h.store.Tags(id),
		CustomTags: h.store.CustomTags(id),
		StaffTags:  h.store.StaffTags(id),
	}))
}

// POST /directory/api/v1/rooms/{id}/tags
func (h *DirectoryHandler) AddTag(w http.ResponseWriter, r *http.Request, id int) {
	var tag domain.CustomTag
	if err := readBodyJSON(r, maxJSONBody, &tag); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	created, err := h.store.AddCustomTag(id, tag)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(created))
}

// DELETE /directory/api/v1/rooms/{id}/tags/{name}
func (h *DirectoryHandler) RemoveTag(w http.ResponseWriter, r *http.Request, id int, name string) {
	if err := h.store.RemoveCustomTag(id, name); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(h.store.CustomTags(id)))
}

// GET /directory/api/v1/autocomplete?prefix=&limit=
// 结果按索引代数缓存，索引重建后自然失效
func (h *DirectoryHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	prefix := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("prefix")))
	limit := parseInt(r.URL.Query().Get("limit"), 10)
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	key := fmt.Sprintf("%d|%d|%s", h.store.Generation(), limit, prefix)
	if v, ok := h.cache.Get(key); ok {
		writeJSON(w, http.StatusOK, Ok(v.([]string)))
		return
	}
	suggestions := h.store.Autocomplete(prefix, limit)
	h.cache.SetDefault(key, suggestions)
	writeJSON(w, http.StatusOK, Ok(suggestions))
}

// GET /directory/api/v1/fuzzy?q=&limit=
func (h *DirectoryHandler) Fuzzy(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 20)
	writeJSON(w, http.StatusOK, Ok(h.store.Fuzzy(r.URL.Query().Get("q"), limit)))
}

// FacetsResponse facet 集合和楼栋颜色
type FacetsResponse struct {
	domain.Facets
	BuildingColors map[string]string `json:"buildingColors"`
}

// GET /directory/api/v1/facets
func (h *DirectoryHandler) Facets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(FacetsResponse{Facets: h.store.Facets(), BuildingColors: h.store.BuildingColors()}))
}

// GET /directory/api/v1/unmapped
func (h *DirectoryHandler) Unmapped(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(h.store.UnmappedCodes()))
}

// GET /directory/api/v1/tags/export
func (h *DirectoryHandler) ExportTags(w http.ResponseWriter, r *http.Request) {
	data, err := h.store.ExportTags()
	if err != nil {
		h.fail(w, err)
		return
	}
	writeFile(w, "application/json", "custom-tags.json", data)
}

// POST /directory/api/v1/tags/import
func (h *DirectoryHandler) ImportTags(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r, maxJSONBody)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail("failed to read body"))
		return
	}
	counts, err := h.store.ImportTags(body)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(counts))
}

// SessionBlob session 传输格式
type SessionBlob struct {
	Blob string `json:"blob"`
}

// GET /directory/api/v1/session/export
func (h *DirectoryHandler) ExportSession(w http.ResponseWriter, r *http.Request) {
	blob, err := h.store.ExportSession()
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(SessionBlob{Blob: blob}))
}

// POST /directory/api/v1/session/import  body: {"blob": "..."}
func (h *DirectoryHandler) ImportSession(w http.ResponseWriter, r *http.Request) {
	var req SessionBlob
	if err := readBodyJSON(r, h.maxUpload, &req); err != nil || req.Blob == "" {
		writeJSON(w, http.StatusOK, Fail("blob is required"))
		return
	}
	if err := h.store.ImportSession(req.Blob); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]int{"rooms": h.store.Len()}))
}

// GET /directory/api/v1/sessions
func (h *DirectoryHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		writeJSON(w, http.StatusOK, Fail("session storage is not configured"))
		return
	}
	list, err := h.sessions.List(r.Context())
	if err != nil {
		h.logger.Error("List sessions failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to list sessions"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

// PUT    /directory/api/v1/sessions/{name}  保存当前 session
// POST   /directory/api/v1/sessions/{name}  加载已保存的 session
// DELETE /directory/api/v1/sessions/{name}
func (h *DirectoryHandler) NamedSession(w http.ResponseWriter, r *http.Request, name string) {
	if h.sessions == nil {
		writeJSON(w, http.StatusOK, Fail("session storage is not configured"))
		return
	}
	ctx := r.Context()
	switch r.Method {
	case http.MethodPut:
		blob, err := h.store.ExportSession()
		if err != nil {
			h.fail(w, err)
			return
		}
		if err := h.sessions.Save(ctx, name, blob); err != nil {
			h.logger.Error("Save session failed", zap.String("name", name), zap.Error(err))
			h.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, Ok(repository.SessionInfo{Name: name, Size: len(blob), UpdatedAt: time.Now().UTC()}))
	case http.MethodPost:
		blob, err := h.sessions.Load(ctx, name)
		if err != nil {
			h.fail(w, err)
			return
		}
		if err := h.store.ImportSession(blob); err != nil {
			h.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, Ok(map[string]int{"rooms": h.store.Len()}))
	case http.MethodDelete:
		if err := h.sessions.Delete(ctx, name); err != nil {
			h.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, Ok(name))
	default:
		methodNotAllowed(w)
	}
}

// GET /directory/api/v1/export.xlsx  当前过滤视图
func (h *DirectoryHandler) ExportExcel(w http.ResponseWriter, r *http.Request) {
	data, err := export.GenerateRoomExport(h.store.FilteredData(), h.store)
	if err != nil {
		h.logger.Error("Excel export failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to generate export"))
		return
	}
	writeFile(w, xlsxContentType, "rooms.xlsx", data)
}

// GET /directory/api/v1/import/template.xlsx
func (h *DirectoryHandler) ImportTemplate(w http.ResponseWriter, r *http.Request) {
	data, err := export.GenerateRoomImportTemplate()
	if err != nil {
		writeJSON(w, http.StatusOK, Fail("failed to generate template"))
		return
	}
	writeFile(w, xlsxContentType, "room-import-template.xlsx", data)
}

// fail 业务错误原样返回给调用方；其它错误额外记录日志
func (h *DirectoryHandler) fail(w http.ResponseWriter, err error) {
	if !isClientError(err) {
		h.logger.Warn("Request failed", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, Fail(err.Error()))
}

// isClientError 业务错误（而不是内部错误）
func isClientError(err error) bool {
	return errors.Is(err, directory.ErrRoomNotFound) ||
		errors.Is(err, directory.ErrTagNotFound) ||
		errors.Is(err, directory.ErrDuplicateTag) ||
		errors.Is(err, directory.ErrInvalidTag) ||
		errors.Is(err, codec.ErrNothingToExport) ||
		errors.Is(err, codec.ErrNoLoadedRooms) ||
		errors.Is(err, codec.ErrMissingCustomTags) ||
		errors.Is(err, codec.ErrDecode) ||
		errors.Is(err, codec.ErrSessionType) ||
		errors.Is(err, repository.ErrSessionNotFound) ||
		errors.Is(err, repository.ErrInvalidName)
}
