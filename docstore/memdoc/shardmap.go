package memdoc

import (
	"sync"

	"github.com/spaolacci/murmur3"

	"github.com/SteffenDE/connect-cloudant-store/docstore"
)

// shardCount is the number of lock shards. Must be a power of 2.
const shardCount = 16

// docMap is a concurrent map of documents, sharded to reduce lock
// contention under many independent session ids.
type docMap struct {
	shards [shardCount]*docShard
}

type docShard struct {
	mu   sync.RWMutex
	docs map[string]*docstore.Document
}

func newDocMap() *docMap {
	m := &docMap{}
	for i := range m.shards {
		m.shards[i] = &docShard{docs: make(map[string]*docstore.Document)}
	}
	return m
}

func (m *docMap) shard(id string) *docShard {
	return m.shards[murmur3.Sum32([]byte(id))&(shardCount-1)]
}

func (m *docMap) get(id string) (*docstore.Document, bool) {
	s := m.shard(id)
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	return doc, ok
}

func (m *docMap) set(id string, doc *docstore.Document) {
	s := m.shard(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[id] = doc
}

func (m *docMap) delete(id string) {
	s := m.shard(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
}

// rangeDocs iterates over all documents. The callback returns false to stop.
func (m *docMap) rangeDocs(fn func(id string, doc *docstore.Document) bool) {
	for _, s := range m.shards {
		s.mu.RLock()
		for id, doc := range s.docs {
			if !fn(id, doc) {
				s.mu.RUnlock()
				return
			}
		}
		s.mu.RUnlock()
	}
}

func (m *docMap) count() int {
	n := 0
	for _, s := range m.shards {
		s.mu.RLock()
		n += len(s.docs)
		s.mu.RUnlock()
	}
	return n
}
