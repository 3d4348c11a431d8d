package httpapi

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// APIPrefix 目录 API 前缀
const APIPrefix = "/directory/api/v1/"

// Router 使用标准库 http.ServeMux
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler 支持 http.Handler 接口（用于 /metrics 等）
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// only 限定请求方法
func only(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			methodNotAllowed(w)
			return
		}
		h(w, req)
	}
}

// RegisterDirectoryRoutes 注册房间目录路由
func (r *Router) RegisterDirectoryRoutes(h *DirectoryHandler) {
	p := APIPrefix

	r.Handle(p+"import", only(http.MethodPost, h.ImportFiles))
	r.Handle(p+"import/remote", only(http.MethodPost, h.ImportRemote))
	r.Handle(p+"import/template.xlsx", only(http.MethodGet, h.ImportTemplate))

	r.Handle(p+"rooms", only(http.MethodGet, h.ListRooms))
	r.Handle(p+"view", h.View)
	r.Handle(p+"search", only(http.MethodGet, h.Search))
	r.Handle(p+"autocomplete", only(http.MethodGet, h.Autocomplete))
	r.Handle(p+"fuzzy", only(http.MethodGet, h.Fuzzy))
	r.Handle(p+"facets", only(http.MethodGet, h.Facets))
	r.Handle(p+"unmapped", only(http.MethodGet, h.Unmapped))
	r.Handle(p+"export.xlsx", only(http.MethodGet, h.ExportExcel))

	r.Handle(p+"tags/export", only(http.MethodGet, h.ExportTags))
	r.Handle(p+"tags/import", only(http.MethodPost, h.ImportTags))
	r.Handle(p+"session/export", only(http.MethodGet, h.ExportSession))
	r.Handle(p+"session/import", only(http.MethodPost, h.ImportSession))

	r.Handle(p+"sessions", only(http.MethodGet, h.ListSessions))
	r.Handle(p+"sessions/", func(w http.ResponseWriter, req *http.Request) {
		name := strings.TrimPrefix(req.URL.Path, p+"sessions/")
		if name == "" || strings.Contains(name, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.NamedSession(w, req, name)
	})

	// rooms/{id}, rooms/{id}/tags, rooms/{id}/tags/{name}
	r.Handle(p+"rooms/", func(w http.ResponseWriter, req *http.Request) {
		// 按转义后的路径切分，标签名中的 %2F 不会被当成分隔符
		parts := strings.Split(strings.TrimPrefix(req.URL.EscapedPath(), p+"rooms/"), "/")
		id, err := strconv.Atoi(parts[0])
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch {
		case len(parts) == 1:
			only(http.MethodGet, func(w http.ResponseWriter, req *http.Request) { h.GetRoom(w, req, id) })(w, req)
		case len(parts) == 2 && parts[1] == "tags":
			only(http.MethodPost, func(w http.ResponseWriter, req *http.Request) { h.AddTag(w, req, id) })(w, req)
		case len(parts) == 3 && parts[1] == "tags" && parts[2] != "":
			name, err := url.PathUnescape(parts[2])
			if err != nil {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			only(http.MethodDelete, func(w http.ResponseWriter, req *http.Request) { h.RemoveTag(w, req, id, name) })(w, req)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}
