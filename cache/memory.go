package cache

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/use-agent/fetchmcp/fingerprint"
)

// MemoryBackend is an in-memory, process-lifetime LRU backend. Grounded on
// the teacher's map+mutex Cache, with the teacher's "evict one random map
// entry" policy replaced by genuine LRU ordering via container/list.
type MemoryBackend struct {
	mu       sync.Mutex
	byURI    map[string]*list.Element // element.Value is *stored
	byFP     map[fingerprint.Key]string
	order    *list.List // front = most recently used
	totalSz  int64
}

// NewMemoryBackend constructs an empty LRU backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		byURI: make(map[string]*list.Element),
		byFP:  make(map[fingerprint.Key]string),
		order: list.New(),
	}
}

func (m *MemoryBackend) Put(s *stored) (string, error) {
	if s.URI == "" {
		return "", fmt.Errorf("cache: Put requires a non-empty URI")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if oldURI, ok := m.byFP[s.Fingerprint]; ok && oldURI != s.URI {
		if oldEl, ok := m.byURI[oldURI]; ok {
			m.totalSz -= int64(len(oldEl.Value.(*stored).Body))
			m.order.Remove(oldEl)
			delete(m.byURI, oldURI)
		}
	}
	if el, ok := m.byURI[s.URI]; ok {
		old := el.Value.(*stored)
		m.totalSz -= int64(len(old.Body))
		el.Value = s
		m.order.MoveToFront(el)
	} else {
		el := m.order.PushFront(s)
		m.byURI[s.URI] = el
	}
	m.byFP[s.Fingerprint] = s.URI
	m.totalSz += int64(len(s.Body))
	return s.URI, nil
}

func (m *MemoryBackend) Get(fp fingerprint.Key) (*stored, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	uri, ok := m.byFP[fp]
	if !ok {
		return nil, false
	}
	el, ok := m.byURI[uri]
	if !ok {
		return nil, false
	}
	m.order.MoveToFront(el)
	return el.Value.(*stored), true
}

func (m *MemoryBackend) GetByURI(uri string) (*stored, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.byURI[uri]
	if !ok {
		return nil, false
	}
	m.order.MoveToFront(el)
	return el.Value.(*stored), true
}

func (m *MemoryBackend) FindByURL(originURL string) []*stored {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*stored
	for el := m.order.Front(); el != nil; el = el.Next() {
		s := el.Value.(*stored)
		if s.OriginURL == originURL {
			out = append(out, s)
		}
	}
	return out
}

func (m *MemoryBackend) List() []*stored {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*stored, 0, m.order.Len())
	for el := m.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*stored))
	}
	return out
}

func (m *MemoryBackend) Delete(uri string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.byURI[uri]
	if !ok {
		return nil
	}
	s := el.Value.(*stored)
	m.totalSz -= int64(len(s.Body))
	m.order.Remove(el)
	delete(m.byURI, uri)
	if m.byFP[s.Fingerprint] == uri {
		delete(m.byFP, s.Fingerprint)
	}
	return nil
}

func (m *MemoryBackend) Size() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalSz
}

func (m *MemoryBackend) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

func (m *MemoryBackend) EvictOldest() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el := m.order.Back()
	if el == nil {
		return "", false
	}
	s := el.Value.(*stored)
	m.totalSz -= int64(len(s.Body))
	m.order.Remove(el)
	delete(m.byURI, s.URI)
	if m.byFP[s.Fingerprint] == s.URI {
		delete(m.byFP, s.Fingerprint)
	}
	return s.URI, true
}
