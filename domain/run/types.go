// Package run defines the record kept for every discovery run.
package run

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"gocausal/domain/causal"
	"gocausal/domain/core"
)

// Timings are phase durations in milliseconds.
type Timings struct {
	SkeletonMS    int64 `json:"skeleton_ms"`
	OrientationMS int64 `json:"orientation_ms"`
	TotalMS       int64 `json:"total_ms"`
}

// Record is a finished discovery run.
type Record struct {
	ID           core.RunID     `json:"id"`
	Dataset      string         `json:"dataset"`
	Observations int            `json:"observations"`
	Variables    int            `json:"variables"`
	Params       causal.Params  `json:"params"`
	PAG          *causal.PAG    `json:"pag"`
	Warnings     []string       `json:"warnings,omitempty"`
	Timings      Timings        `json:"timings"`
	Fingerprint  RunFingerprint `json:"fingerprint"`
	CreatedAt    core.Timestamp `json:"created_at"`
}

// Summary is the listing view of a record.
type Summary struct {
	ID          core.RunID     `json:"id"`
	Dataset     string         `json:"dataset"`
	Variables   int            `json:"variables"`
	Edges       int            `json:"edges"`
	Alpha       float64        `json:"alpha"`
	Fingerprint core.Hash      `json:"fingerprint"`
	CreatedAt   core.Timestamp `json:"created_at"`
}

// Summarize returns the listing view
func (r *Record) Summarize() Summary {
	edges := 0
	if r.PAG != nil {
		edges = len(r.PAG.Edges)
	}
	return Summary{
		ID:          r.ID,
		Dataset:     r.Dataset,
		Variables:   r.Variables,
		Edges:       edges,
		Alpha:       r.Params.Alpha,
		Fingerprint: r.Fingerprint.Fingerprint,
		CreatedAt:   r.CreatedAt,
	}
}

// Validate checks that the record can be stored
func (r *Record) Validate() error {
	if r.ID.IsEmpty() {
		return fmt.Errorf("%w: run id cannot be empty", core.ErrInvalidParameter)
	}
	if r.PAG == nil {
		return fmt.Errorf("%w: run %s has no result", core.ErrInvalidParameter, r.ID)
	}
	if r.Fingerprint.Fingerprint.IsEmpty() {
		return fmt.Errorf("%w: run %s has no fingerprint", core.ErrInvalidParameter, r.ID)
	}
	return nil
}

// RunFingerprint ties a result to the exact inputs that produced it
type RunFingerprint struct {
	DatasetHash core.Hash `json:"dataset_hash"`
	ParamsHash  core.Hash `json:"params_hash"`
	EdgesHash   core.Hash `json:"edges_hash"`
	Fingerprint core.Hash `json:"fingerprint"` // Hash of all above
}

// NewRunFingerprint creates a fingerprint from the data, the parameters and the edge list
func NewRunFingerprint(datasetHash core.Hash, params causal.Params, pag *causal.PAG) (RunFingerprint, error) {
	encoded, err := json.Marshal(params)
	if err != nil {
		return RunFingerprint{}, fmt.Errorf("encoding parameters: %w", err)
	}
	paramsHash := core.NewHash(encoded)
	edgesHash := pag.Fingerprint()

	data := fmt.Sprintf("dataset:%s|params:%s|edges:%s", datasetHash, paramsHash, edgesHash)
	hash := sha256.Sum256([]byte(data))

	return RunFingerprint{
		DatasetHash: datasetHash,
		ParamsHash:  paramsHash,
		EdgesHash:   edgesHash,
		Fingerprint: core.Hash(fmt.Sprintf("%x", hash)),
	}, nil
}
