package annotations

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/reveal-viewer/internal/logger"
)

// Page size bounds applied by Store.List.
const (
	DefaultPageLimit = 100
	MaxPageLimit     = 1000
)

var (
	// ErrInvalidCursor is returned for a cursor the store did not issue.
	ErrInvalidCursor = errors.New("annotations: invalid cursor")
	// ErrDuplicateID is returned when a fixture repeats an annotation id.
	ErrDuplicateID = errors.New("annotations: duplicate annotation id")
	// ErrMissingResourceType is returned for a list filter without a type.
	ErrMissingResourceType = errors.New("annotations: filter requires annotatedResourceType")
)

// fixtureFile is the on-disk layout of a fixture.
type fixtureFile struct {
	Annotations []Annotation `yaml:"annotations"`
}

// Store is an in-memory annotation set ordered by id. It is safe for
// concurrent use and implements Lister, so it can stand in for the service.
type Store struct {
	mu    sync.RWMutex
	items []Annotation

	log *zap.Logger
}

// NewStore creates a store holding items.
func NewStore(items ...Annotation) *Store {
	s := &Store{log: logger.Named("annotations")}
	s.Put(items...)
	return s
}

// LoadStore reads a YAML fixture into a new store.
func LoadStore(path string) (*Store, error) {
	s := NewStore()
	if err := s.Reload(path); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the store contents with the fixture at path. On error the
// previous contents are kept.
func (s *Store) Reload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading fixture: %w", err)
	}

	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing fixture %s: %w", path, err)
	}

	seen := make(map[int64]struct{}, len(f.Annotations))
	for i, a := range f.Annotations {
		if _, dup := seen[a.ID]; dup {
			return fmt.Errorf("%w: %d in %s", ErrDuplicateID, a.ID, path)
		}
		seen[a.ID] = struct{}{}
		// "region: []" and a missing region are the same annotation; Save
		// writes neither.
		if len(a.Data.Region) == 0 {
			f.Annotations[i].Data.Region = nil
		}
	}
	sortByID(f.Annotations)

	s.mu.Lock()
	s.items = f.Annotations
	s.mu.Unlock()

	s.log.Info("fixture loaded", zap.String("path", path), zap.Int("annotations", len(f.Annotations)))
	return nil
}

// Save writes the store contents as a YAML fixture.
func (s *Store) Save(path string) error {
	s.mu.RLock()
	f := fixtureFile{Annotations: append([]Annotation(nil), s.items...)}
	s.mu.RUnlock()

	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("encoding fixture: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	return nil
}

// Put inserts items, replacing any with the same id.
func (s *Store) Put(items ...Annotation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range items {
		i := sort.Search(len(s.items), func(i int) bool { return s.items[i].ID >= a.ID })
		if i < len(s.items) && s.items[i].ID == a.ID {
			s.items[i] = a
			continue
		}
		s.items = append(s.items, Annotation{})
		copy(s.items[i+1:], s.items[i:])
		s.items[i] = a
	}
}

// Get returns the annotation with id.
func (s *Store) Get(id int64) (Annotation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := sort.Search(len(s.items), func(i int) bool { return s.items[i].ID >= id })
	if i < len(s.items) && s.items[i].ID == id {
		return s.items[i], true
	}
	return Annotation{}, false
}

// Len returns the number of stored annotations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// List returns one page of matching annotations. The cursor is the id of the
// last item of the previous page.
func (s *Store) List(_ context.Context, req ListRequest) (ListResponse, error) {
	if req.Filter.AnnotatedResourceType == "" {
		return ListResponse{}, ErrMissingResourceType
	}

	after := int64(math.MinInt64)
	if req.Cursor != "" {
		id, err := strconv.ParseInt(req.Cursor, 10, 64)
		if err != nil {
			return ListResponse{}, fmt.Errorf("%w: %q", ErrInvalidCursor, req.Cursor)
		}
		after = id
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	limit = min(limit, MaxPageLimit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := ListResponse{Items: []Annotation{}}
	start := sort.Search(len(s.items), func(i int) bool { return s.items[i].ID > after })
	for _, a := range s.items[start:] {
		if !req.Filter.Matches(a) {
			continue
		}
		if len(resp.Items) == limit {
			resp.NextCursor = strconv.FormatInt(resp.Items[len(resp.Items)-1].ID, 10)
			break
		}
		resp.Items = append(resp.Items, a)
	}
	return resp, nil
}

func sortByID(items []Annotation) {
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
}
