package objectstore

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/nikolayk812/podstore/internal/domain"
	"github.com/nikolayk812/podstore/internal/port"
)

type memoryObject struct {
	data        []byte
	contentType string
	generation  int64
}

// Memory is an in-process object store with GCS-like generation semantics.
type Memory struct {
	mu      sync.Mutex
	objects map[string]memoryObject
	nextGen int64
	baseURL string
}

func NewMemory(baseURL string) *Memory {
	return &Memory{
		objects: make(map[string]memoryObject),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (m *Memory) Exists(_ context.Context, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.objects[path]
	return ok, nil
}

func (m *Memory) Download(_ context.Context, path string) ([]byte, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.objects[path]
	if !ok {
		return nil, 0, domain.NotFound("path", path+" does not exist")
	}
	return slices.Clone(obj.data), obj.generation, nil
}

func (m *Memory) Upload(_ context.Context, path string, data []byte, contentType string, cond port.Precondition) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, exists := m.objects[path]
	if cond.Enabled {
		var conflict bool
		if cond.Generation == 0 {
			conflict = exists
		} else {
			conflict = !exists || current.generation != cond.Generation
		}
		if conflict {
			return 0, &domain.Error{
				Kind: domain.KindConflict,
				Op:   "objectstore.Upload",
				Msg:  path + " was modified concurrently",
			}
		}
	}

	m.nextGen++
	m.objects[path] = memoryObject{
		data:        slices.Clone(data),
		contentType: contentType,
		generation:  m.nextGen,
	}
	return m.nextGen, nil
}

func (m *Memory) PublicURL(path string) string {
	return m.baseURL + "/" + escapePath(path)
}
