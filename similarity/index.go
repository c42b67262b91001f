// Package similarity provides nearest-neighbor retrieval over case text
// embeddings. The index is flat: an exact full scan with Euclidean distance.
// At the corpus sizes involved (low thousands of cases) the O(n) query cost
// is a better trade than the build complexity of an approximate structure.
package similarity

import (
	"bytes"
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/SandeshGitHub2077/LegalClaimGPT/models"
)

// ErrDimensionMismatch is returned when a query vector does not match the
// dimensionality the index was built with.
var ErrDimensionMismatch = errors.New("similarity: query dimension does not match index")

// EmbedFunc turns text into a fixed-dimension dense vector. It must be
// deterministic for a fixed text and embedding model version.
type EmbedFunc func(ctx context.Context, text string) ([]float64, error)

// Entry is the metadata stored alongside one embedding.
type Entry struct {
	CaseID    int64  `json:"case_id"`
	CaseName  string `json:"case_name"`
	SourceURL string `json:"source_url"`
}

// Result is one query hit, closest first.
type Result struct {
	Entry    Entry   `json:"entry"`
	Distance float64 `json:"distance"`
}

// Index is a flat store of embeddings with positionally aligned metadata.
// vectors[i] always describes meta[i]; every insertion appends to both in
// lockstep. A built index is read-only and safe for concurrent queries.
type Index struct {
	dim     int
	vectors [][]float64
	meta    []Entry
}

// BuildResult reports what happened during an index build. Skips are normal:
// cases without embeddable text are excluded, and a failed embedding drops
// only that case, never the batch.
type BuildResult struct {
	Index       *Index
	EmptySkips  int
	FailedCases int
}

// Build embeds the full text of each case and assembles the index. Cases with
// empty text are skipped silently; embedding failures are logged and counted.
func Build(ctx context.Context, cases []*models.CaseRecord, embed EmbedFunc) (*BuildResult, error) {
	res := &BuildResult{Index: &Index{}}
	for _, c := range cases {
		if c.FullText == "" {
			res.EmptySkips++
			continue
		}
		vec, err := embed(ctx, c.FullText)
		if err != nil {
			log.Printf("Embedding failed for case %d, skipping: %v", c.CaseID, err)
			res.FailedCases++
			continue
		}
		if err := res.Index.append(vec, Entry{
			CaseID:    c.CaseID,
			CaseName:  c.CaseName,
			SourceURL: c.SourceURL,
		}); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (ix *Index) append(vec []float64, e Entry) error {
	if ix.dim == 0 {
		ix.dim = len(vec)
	}
	if len(vec) != ix.dim {
		return fmt.Errorf("similarity: embedding for case %d has dimension %d, index has %d", e.CaseID, len(vec), ix.dim)
	}
	ix.vectors = append(ix.vectors, vec)
	ix.meta = append(ix.meta, e)
	return nil
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int { return len(ix.meta) }

// Dim returns the embedding dimensionality, 0 for an empty index.
func (ix *Index) Dim() int { return ix.dim }

// Query returns the k nearest entries to vec by Euclidean distance,
// ascending. Fewer than k results are returned when the index is smaller.
func (ix *Index) Query(vec []float64, k int) ([]Result, error) {
	if len(ix.vectors) == 0 {
		return nil, nil
	}
	if len(vec) != ix.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), ix.dim)
	}
	results := make([]Result, len(ix.vectors))
	for i, v := range ix.vectors {
		results[i] = Result{Entry: ix.meta[i], Distance: floats.Distance(vec, v, 2)}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// indexBlob is the gob payload for the vector half of the index.
type indexBlob struct {
	Dim     int
	Vectors [][]float64
}

// EncodeVectors serializes the embedding matrix as a binary blob.
func (ix *Index) EncodeVectors() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(indexBlob{Dim: ix.dim, Vectors: ix.vectors}); err != nil {
		return nil, fmt.Errorf("failed to encode index vectors: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeMetadata serializes the metadata list as JSON, parallel to the
// vector blob.
func (ix *Index) EncodeMetadata() ([]byte, error) {
	data, err := json.Marshal(ix.meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode index metadata: %w", err)
	}
	return data, nil
}

// Decode rebuilds an index from its two persisted blobs and validates the
// core invariant: metadata and vectors are the same length and every vector
// has the recorded dimensionality.
func Decode(vectorBlob, metaBlob []byte) (*Index, error) {
	var blob indexBlob
	if err := gob.NewDecoder(bytes.NewReader(vectorBlob)).Decode(&blob); err != nil {
		return nil, fmt.Errorf("failed to decode index vectors: %w", err)
	}
	var meta []Entry
	if err := json.Unmarshal(metaBlob, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode index metadata: %w", err)
	}
	if len(meta) != len(blob.Vectors) {
		return nil, fmt.Errorf("similarity: metadata/vector misalignment: %d entries, %d vectors", len(meta), len(blob.Vectors))
	}
	for i, v := range blob.Vectors {
		if len(v) != blob.Dim {
			return nil, fmt.Errorf("similarity: vector %d has dimension %d, index has %d", i, len(v), blob.Dim)
		}
	}
	return &Index{dim: blob.Dim, vectors: blob.Vectors, meta: meta}, nil
}
