package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alanyoungcy/hashpredict/internal/domain"
)

// TranscriptArchiver writes one JSON document per resolution proposal to
// object storage. The archive is the permanent record of what the models saw
// and said; the Redis pending entry expires, the chain only stores the final
// outcome.
type TranscriptArchiver struct {
	writer domain.BlobWriter
}

// NewTranscriptArchiver creates a TranscriptArchiver on top of a BlobWriter.
func NewTranscriptArchiver(writer domain.BlobWriter) *TranscriptArchiver {
	return &TranscriptArchiver{writer: writer}
}

// transcript is the stored document shape.
type transcript struct {
	ProposalID   string         `json:"proposal_id"`
	PredictionID uint64         `json:"prediction_id"`
	Description  string         `json:"description"`
	Context      string         `json:"context"`
	Verdict      domain.Verdict `json:"verdict"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Archive uploads the transcript for one proposed resolution. Keys are
// partitioned by prediction so all attempts for a market sit together:
//
//	transcripts/{predictionID}/{proposalID}.json
func (a *TranscriptArchiver) Archive(ctx context.Context, f domain.PendingFinalization) error {
	doc := transcript{
		ProposalID:   f.ID,
		PredictionID: f.PredictionID,
		Description:  f.Description,
		Context:      f.Context,
		Verdict:      f.Verdict,
		CreatedAt:    f.CreatedAt,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("s3blob: marshal transcript %s: %w", f.ID, err)
	}

	path := TranscriptPath(f.PredictionID, f.ID)
	if err := a.writer.Put(ctx, path, bytes.NewReader(data), "application/json"); err != nil {
		return fmt.Errorf("s3blob: archive transcript %s: %w", f.ID, err)
	}
	return nil
}

// TranscriptPath builds the object key for a proposal's transcript.
func TranscriptPath(predictionID uint64, proposalID string) string {
	return fmt.Sprintf("transcripts/%d/%s.json", predictionID, proposalID)
}
