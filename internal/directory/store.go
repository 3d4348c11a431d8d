// Package directory 房间目录数据集的唯一所有者。
//
// Store 持有房间记录、自定义标签、staff 标签、facet 集合和视图状态，
// 并在每次会影响检索 token 的变更之后整体重建检索索引。
// 所有变更在持锁期间完成（包括索引重建），外部回调在释放锁之后触发。
package directory

import (
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"wisefido-directory/internal/abbrev"
	"wisefido-directory/internal/domain"
	"wisefido-directory/internal/metrics"
	"wisefido-directory/internal/notify"
	"wisefido-directory/internal/search"

	"go.uber.org/zap"
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrTagNotFound   = errors.New("tag not found")
	ErrDuplicateTag  = errors.New("tag already exists on room")
	ErrInvalidTag    = errors.New("tag name is required")
	ErrUnknownLayout = errors.New("file is neither a room nor an occupant table")
)

const (
	DefaultViewMode       = "table"
	DefaultResultsPerPage = 50
)

// Options Store 配置与外部协作者
type Options struct {
	AutocompleteLimit int
	ResultsPerPage    int
	ViewMode          string
	// LinkTemplate 房间链接模板，支持 {rmnbr} {rmrecnbr} {building}
	LinkTemplate string

	Notifier notify.Notifier
	Colors   notify.ColorAssigner
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

// Store 进程内数据集
type Store struct {
	mu     sync.RWMutex
	logger *zap.Logger
	norm   *abbrev.Normalizer
	opts   Options

	rooms          []domain.Room
	nextID         int
	customTags     map[int][]domain.CustomTag
	staffTags      map[int][]string
	facets         domain.Facets
	buildingColors map[string]string

	filters        domain.Filters
	searchQuery    string
	viewMode       string
	resultsPerPage int
	currentPage    int

	index      *search.Index
	generation uint64

	filtered      []domain.Room
	filteredValid bool
}

// NewStore 创建空数据集
func NewStore(norm *abbrev.Normalizer, logger *zap.Logger, opts Options) *Store {
	if norm == nil {
		norm = abbrev.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Nop{}
	}
	if opts.Colors == nil {
		opts.Colors = &notify.PaletteAssigner{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ResultsPerPage <= 0 {
		opts.ResultsPerPage = DefaultResultsPerPage
	}
	if opts.ViewMode == "" {
		opts.ViewMode = DefaultViewMode
	}
	return &Store{
		logger:         logger,
		norm:           norm,
		opts:           opts,
		nextID:         1,
		customTags:     map[int][]domain.CustomTag{},
		staffTags:      map[int][]string{},
		buildingColors: map[string]string{},
		viewMode:       opts.ViewMode,
		resultsPerPage: opts.ResultsPerPage,
		currentPage:    1,
		facets:         emptyFacets(),
	}
}

func emptyFacets() domain.Facets {
	return domain.Facets{Buildings: []string{}, Floors: []string{}, Tags: []string{}}
}

// annotations 无锁视图，只在持锁期间传给索引构建
type annotations struct{ s *Store }

func (a annotations) CustomTags(id int) []domain.CustomTag { return a.s.customTags[id] }
func (a annotations) StaffTags(id int) []string            { return a.s.staffTags[id] }

// rebuildLocked 整体重建索引和自动补全词表
func (s *Store) rebuildLocked() {
	start := time.Now()
	s.index = search.Build(s.rooms, annotations{s}, search.Options{AutocompleteLimit: s.opts.AutocompleteLimit})
	s.generation++
	s.filteredValid = false
	s.opts.Metrics.ObserveIndexBuild(start, len(s.rooms))
	if s.opts.Metrics != nil {
		s.opts.Metrics.UnmappedCodes.Set(float64(len(s.norm.Unmapped())))
	}
	s.logger.Debug("Search index rebuilt",
		zap.Int("rooms", len(s.rooms)),
		zap.Int("vocabulary", len(s.index.Vocabulary())),
		zap.Uint64("generation", s.generation),
		zap.Duration("took", time.Since(start)),
	)
}

// Rooms 返回房间副本
func (s *Store) Rooms() []domain.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRooms(s.rooms)
}

// Room 按 id 查找
func (s *Store) Room(id int) (domain.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOfLocked(id); i >= 0 {
		return s.rooms[i].Clone(), true
	}
	return domain.Room{}, false
}

func (s *Store) indexOfLocked(id int) int {
	for i := range s.rooms {
		if s.rooms[i].ID == id {
			return i
		}
	}
	return -1
}

// Len 房间数
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Facets 楼栋/楼层/分类集合
func (s *Store) Facets() domain.Facets {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Facets{
		Buildings: append([]string{}, s.facets.Buildings...),
		Floors:    append([]string{}, s.facets.Floors...),
		Tags:      append([]string{}, s.facets.Tags...),
	}
}

// BuildingColors 楼栋颜色副本
func (s *Store) BuildingColors() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.buildingColors))
	for k, v := range s.buildingColors {
		out[k] = v
	}
	return out
}

// Index 当前索引（构建后只读，可在锁外使用）
func (s *Store) Index() *search.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// Generation 每次索引重建递增
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Unmapped 未映射缩写计数
func (s *Store) Unmapped() map[string]int {
	return s.norm.Unmapped()
}

// UnmappedCodes 未映射缩写，按次数降序
func (s *Store) UnmappedCodes() []abbrev.UnmappedCount {
	return s.norm.UnmappedCodes()
}

// Tags 房间的统一 token
func (s *Store) Tags(roomID int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.index.Tags(roomID)...)
}

func cloneRooms(in []domain.Room) []domain.Room {
	out := make([]domain.Room, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}

// mergeFacetsLocked 把新房间的楼栋/楼层/分类并入 facet 集合（只增不减）
func (s *Store) mergeFacetsLocked(rooms []domain.Room) {
	s.facets.Buildings = mergeSorted(s.facets.Buildings, rooms, func(r domain.Room) []string { return []string{r.Building} }, sort.Strings)
	s.facets.Floors = mergeSorted(s.facets.Floors, rooms, func(r domain.Room) []string { return []string{r.Floor} }, sortFloors)
	s.facets.Tags = mergeSorted(s.facets.Tags, rooms, func(r domain.Room) []string { return r.Tags }, sort.Strings)
}

func mergeSorted(existing []string, rooms []domain.Room, values func(domain.Room) []string, sorter func([]string)) []string {
	seen := make(map[string]bool, len(existing))
	out := append([]string{}, existing...)
	for _, v := range existing {
		seen[v] = true
	}
	for _, r := range rooms {
		for _, v := range values(r) {
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	sorter(out)
	return out
}

// sortFloors 数字楼层按数值升序，其余按字典序排在后面
func sortFloors(floors []string) {
	sort.SliceStable(floors, func(i, j int) bool {
		a, errA := strconv.ParseFloat(floors[i], 64)
		b, errB := strconv.ParseFloat(floors[j], 64)
		switch {
		case errA == nil && errB == nil:
			if a != b {
				return a < b
			}
			return floors[i] < floors[j]
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return floors[i] < floors[j]
		}
	})
}

// assignColorsLocked 为新楼栋分配颜色
func (s *Store) assignColorsLocked(rooms []domain.Room) {
	for _, r := range rooms {
		if _, ok := s.buildingColors[r.Building]; ok || r.Building == "" {
			continue
		}
		s.buildingColors[r.Building] = s.opts.Colors.Assign(r.Building, s.buildingColors)
	}
}
