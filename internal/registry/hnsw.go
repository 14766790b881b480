package registry

import (
	"errors"
	"sync"

	"github.com/coder/hnsw"
	"github.com/shot02/face-identifier/internal/identify"
)

// maxNeighbors is the HNSW M parameter controlling graph connectivity.
const maxNeighbors = 16

// Neighbor is a record returned by a nearest-record lookup.
type Neighbor struct {
	Record     Record
	Similarity float64
}

// Index is an optional approximate-nearest-neighbor index over enrolled
// descriptors, for "which records look like this" lookups on large
// collections. It is a convenience on top of the registry and never
// participates in the identification pipeline itself.
type Index struct {
	mu    sync.RWMutex
	graph *hnsw.Graph[string]
	byID  map[string]Record
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{byID: make(map[string]Record)}
}

func newGraph() *hnsw.Graph[string] {
	g := hnsw.NewGraph[string]()
	g.M = maxNeighbors
	g.Ml = 1.0 / float64(maxNeighbors) // standard HNSW formula
	g.Distance = hnsw.CosineDistance
	return g
}

// Build replaces the index contents with the given records.
func (x *Index) Build(records []Record) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if len(records) == 0 {
		x.graph = nil
		x.byID = make(map[string]Record)
		return
	}

	g := newGraph()
	x.byID = make(map[string]Record, len(records))
	for i := range records {
		record := records[i]
		if len(record.Descriptor) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(record.FaceID, []float32(record.Descriptor)))
		x.byID[record.FaceID] = record
	}
	x.graph = g
}

// Add inserts a single record into the index.
func (x *Index) Add(record Record) {
	if len(record.Descriptor) == 0 {
		return
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if x.graph == nil {
		x.graph = newGraph()
	}
	x.graph.Add(hnsw.MakeNode(record.FaceID, []float32(record.Descriptor)))
	x.byID[record.FaceID] = record
}

// Remove drops a record from lookups. The underlying graph keeps the node,
// but it can no longer be returned.
func (x *Index) Remove(faceID string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.byID, faceID)
}

// Count returns the number of searchable records.
func (x *Index) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.byID)
}

// Search returns up to k nearest records to the query descriptor with
// their cosine similarities, most similar first.
func (x *Index) Search(query identify.Descriptor, k int) ([]Neighbor, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.graph == nil {
		return nil, errors.New("index not initialized")
	}

	nodes := x.graph.Search([]float32(query), k)
	neighbors := make([]Neighbor, 0, len(nodes))
	for _, n := range nodes {
		record, ok := x.byID[n.Key]
		if !ok {
			continue // removed after insertion
		}
		neighbors = append(neighbors, Neighbor{
			Record:     record,
			Similarity: identify.CosineSimilarity(query, n.Value),
		})
	}
	return neighbors, nil
}
