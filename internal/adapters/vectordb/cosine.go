// Package vectordb provides ports.VectorIndex adapters: a persistent SQLite
// collection and an in-memory one. Both rank by brute-force cosine distance.
package vectordb

import (
	"math"
	"sort"

	"github.com/0xcro3dile/flowsupport/internal/domain/ports"
)

// cosineDistance returns 1 - cosine similarity. Mismatched or zero vectors are maximally distant.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

// nearest sorts hits by distance, ties by id, and keeps the first n.
func nearest(hits []ports.IndexHit, n int) []ports.IndexHit {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance == hits[j].Distance {
			return hits[i].ID < hits[j].ID
		}
		return hits[i].Distance < hits[j].Distance
	})
	if n >= 0 && len(hits) > n {
		hits = hits[:n]
	}
	return hits
}
