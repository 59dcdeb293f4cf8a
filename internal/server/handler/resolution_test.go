package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/hashpredict/internal/domain"
)

func TestFinalizeReturnsVerdictForReview(t *testing.T) {
	stub := &stubResolution{
		parked: domain.PendingFinalization{
			ID:           "abc",
			PredictionID: 7,
			Context:      "latest reporting",
			Verdict:      domain.Verdict{Outcome: 1, Confidence: 0.9, Explanation: "sources agree"},
		},
	}
	h := NewResolutionHandler(stub, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/finalize-prediction/7", nil)
	req.SetPathValue("id", "7")
	rec := httptest.NewRecorder()
	h.FinalizePrediction(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(1), resp["aiOutcome"])
	assert.Equal(t, "latest reporting", resp["currentData"])
	assert.NotContains(t, resp, "transactionHash")
}

func TestFinalizeReportsAutoSubmit(t *testing.T) {
	stub := &stubResolution{
		parked: domain.PendingFinalization{PredictionID: 7, Verdict: domain.Verdict{Outcome: 0}},
		autoTx: &domain.TxResult{Hash: "0xauto"},
	}
	h := NewResolutionHandler(stub, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/finalize-prediction/7", nil)
	req.SetPathValue("id", "7")
	rec := httptest.NewRecorder()
	h.FinalizePrediction(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "0xauto", resp["transactionHash"])
	assert.Equal(t, float64(0), resp["outcome"])
}

func TestFinalizeMapsLifecycleErrors(t *testing.T) {
	h := NewResolutionHandler(&stubResolution{err: domain.ErrPredictionNotEnded}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/finalize-prediction/7", nil)
	req.SetPathValue("id", "7")
	rec := httptest.NewRecorder()
	h.FinalizePrediction(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestExecuteFinalizationForwardsOverride(t *testing.T) {
	stub := &stubResolution{tx: domain.TxResult{Hash: "0xdone"}}
	h := NewResolutionHandler(stub, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/execute-finalization/9",
		strings.NewReader(`{"finalOutcome":0}`))
	req.SetPathValue("id", "9")
	rec := httptest.NewRecorder()
	h.ExecuteFinalization(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []uint64{9}, stub.executed)
	require.NotNil(t, stub.chosen)
	assert.Equal(t, 0, *stub.chosen)
}

func TestExecuteFinalizationAcceptsEmptyBody(t *testing.T) {
	stub := &stubResolution{tx: domain.TxResult{Hash: "0xdone"}}
	h := NewResolutionHandler(stub, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/execute-finalization/9", nil)
	req.SetPathValue("id", "9")
	rec := httptest.NewRecorder()
	h.ExecuteFinalization(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, stub.chosen)
}

func TestExecuteFinalizationRejectsBadOutcome(t *testing.T) {
	h := NewResolutionHandler(&stubResolution{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/execute-finalization/9",
		strings.NewReader(`{"finalOutcome":2}`))
	req.SetPathValue("id", "9")
	rec := httptest.NewRecorder()
	h.ExecuteFinalization(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecuteFinalizationWithoutProposal(t *testing.T) {
	h := NewResolutionHandler(&stubResolution{err: domain.ErrNotFound}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/execute-finalization/9", nil)
	req.SetPathValue("id", "9")
	rec := httptest.NewRecorder()
	h.ExecuteFinalization(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
