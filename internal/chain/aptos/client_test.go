package aptos

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/hashpredict/internal/domain"
)

const testSeed = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := New(Config{
		NodeURL:       url,
		ModuleAddress: "0xmarket",
		ModuleName:    "hashpredictalpha",
		PrivateKey:    testSeed,
	}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return c
}

func TestAccountDerivationIsDeterministic(t *testing.T) {
	a, err := NewAccount(testSeed)
	require.NoError(t, err)
	b, err := NewAccount("0x" + testSeed)
	require.NoError(t, err)

	assert.Equal(t, a.Address(), b.Address())
	assert.Len(t, a.Address(), 66) // 0x + 32-byte sha3 digest
	assert.Len(t, a.PublicKeyHex(), 66)

	_, err = NewAccount("deadbeef")
	require.Error(t, err)
}

func TestFetchPredictionsDecodesViewResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/view", r.URL.Path)

		var req viewRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "0xmarket::hashpredictalpha::get_all_predictions", req.Function)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[[{
			"id": "7",
			"description": "BTC above 100k by Friday",
			"start_time": "1700000000",
			"end_time": "1700600000",
			"state": {"value": 2},
			"yes_votes": "3",
			"no_votes": "1",
			"total_votes": "4",
			"yes_amount": "300",
			"no_amount": "100",
			"total_amount": "400",
			"result": 1,
			"tags": ["crypto"],
			"prediction_type": 0,
			"options_count": 2
		}]]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	preds, err := c.FetchPredictions(context.Background())
	require.NoError(t, err)
	require.Len(t, preds, 1)

	p := preds[0]
	assert.Equal(t, uint64(7), p.ID)
	assert.Equal(t, domain.StateResolved, p.State)
	assert.Equal(t, domain.ResultTrue, p.Result)
	assert.Equal(t, uint64(4), p.TotalVotes)
	assert.Equal(t, uint64(400), p.TotalAmount)
	assert.Equal(t, []string{"crypto"}, p.Tags)
}

func TestFetchPredictionMissingIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.FetchPrediction(context.Background(), 42)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFetchMarketStateReadsBothViews(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req viewRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		w.Header().Set("Content-Type", "application/json")
		switch req.Function {
		case "0xmarket::hashpredictalpha::get_admin":
			_, _ = w.Write([]byte(`["0xadmin"]`))
		case "0xmarket::hashpredictalpha::get_next_prediction_id":
			_, _ = w.Write([]byte(`["12"]`))
		default:
			t.Errorf("unexpected view: %s", req.Function)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	info, err := c.FetchMarketState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0xadmin", info.Admin)
	assert.Equal(t, uint64(12), info.NextPredictionID)
}

func TestViewSurfacesUpstreamErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid function"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.FetchPredictions(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "invalid function")
}

func TestSubmitSignsAndWaitsForConfirmation(t *testing.T) {
	var submitted signedTxRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path != "/v1/transactions/by_hash/0xabc123":
			// Account lookup for the sequence number.
			_, _ = w.Write([]byte(`{"sequence_number": "5"}`))
		case r.URL.Path == "/v1/transactions/encode_submission":
			_, _ = w.Write([]byte(`"0xdeadbeef"`))
		case r.URL.Path == "/v1/transactions":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&submitted))
			_, _ = w.Write([]byte(`{"hash": "0xabc123"}`))
		case r.URL.Path == "/v1/transactions/by_hash/0xabc123":
			_, _ = w.Write([]byte(`{"type": "user_transaction", "hash": "0xabc123", "success": true}`))
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	tx, err := c.PausePrediction(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, "0xabc123", tx.Hash)

	assert.Equal(t, "5", submitted.SequenceNumber)
	assert.Equal(t, c.Address(), submitted.Sender)
	assert.Equal(t, "ed25519_signature", submitted.Signature.Type)
	assert.NotEmpty(t, submitted.Signature.Signature)
	assert.Equal(t, "entry_function_payload", submitted.Payload.Type)
	assert.Contains(t, submitted.Payload.Function, "pause_prediction")
}

func TestSubmitReportsVMFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/transactions/encode_submission":
			_, _ = w.Write([]byte(`"0xdeadbeef"`))
		case r.Method == http.MethodPost && r.URL.Path == "/v1/transactions":
			_, _ = w.Write([]byte(`{"hash": "0xbad"}`))
		case r.URL.Path == "/v1/transactions/by_hash/0xbad":
			_, _ = w.Write([]byte(`{"type": "user_transaction", "hash": "0xbad", "success": false, "vm_status": "ABORTED E_ALREADY_RESOLVED"}`))
		default:
			_, _ = w.Write([]byte(`{"sequence_number": "0"}`))
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.ResolvePrediction(context.Background(), 4, domain.ResultTrue)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E_ALREADY_RESOLVED")
}

func TestIsH2Error(t *testing.T) {
	assert.True(t, isH2Error(errors.New(`http2: unsupported scheme`)))
	assert.True(t, isH2Error(errors.New(`stream error: PROTOCOL_ERROR`)))
	assert.True(t, isH2Error(errors.New(`server sent GOAWAY: h2 is not supported`)))
	assert.False(t, isH2Error(errors.New("connection refused")))
}
