// Package aptos implements domain.ChainClient against an Aptos fullnode REST
// API. Reads go through the module's view functions; writes use the node's
// encode-submission flow: build the transaction JSON, ask the node for the
// signing message, sign it with the server-held ed25519 key, submit, and poll
// until the transaction is confirmed.
package aptos

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/hashpredict/internal/domain"
)

const (
	defaultMaxGasAmount = "20000"
	defaultGasUnitPrice = "100"
	txExpirySecs        = 600

	confirmPollInterval = 500 * time.Millisecond
	confirmTimeout      = 60 * time.Second
)

// Config holds the connection and deployment parameters for one Aptos market
// deployment.
type Config struct {
	NodeURL       string // fullnode root, e.g. "https://fullnode.devnet.aptoslabs.com"
	ModuleAddress string // account that published the market module
	ModuleName    string // e.g. "hashpredictalpha"
	RewardModule  string // e.g. "reward_system"
	PrivateKey    string // hex ed25519 seed for the server-held account
}

// Client is the Aptos chain adapter.
type Client struct {
	baseURL      string
	moduleAddr   string
	moduleName   string
	rewardModule string
	account      *Account
	httpClient   *http.Client
	fallback     *http.Client // HTTP/1.1-only client for the one documented retry
	logger       *slog.Logger
}

// New creates a Client from config and verifies the signing key parses. The
// fallback client forces HTTP/1.1; some fullnode deployments sit behind
// proxies that reject h2 negotiation.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.NodeURL == "" {
		return nil, fmt.Errorf("aptos: node URL is required")
	}
	account, err := NewAccount(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}

	rewardModule := cfg.RewardModule
	if rewardModule == "" {
		rewardModule = "reward_system"
	}

	return &Client{
		baseURL:      strings.TrimSuffix(cfg.NodeURL, "/"),
		moduleAddr:   cfg.ModuleAddress,
		moduleName:   cfg.ModuleName,
		rewardModule: rewardModule,
		account:      account,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		fallback: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				// Empty TLSNextProto disables HTTP/2 negotiation.
				TLSNextProto:      map[string]func(string, *tls.Conn) http.RoundTripper{},
				ForceAttemptHTTP2: false,
			},
		},
		logger: logger.With(slog.String("component", "aptos")),
	}, nil
}

// Name identifies the adapter.
func (c *Client) Name() string { return "aptos" }

// Address returns the server-held account address.
func (c *Client) Address() string { return c.account.Address() }

func (c *Client) fn(module, name string) string {
	return fmt.Sprintf("%s::%s::%s", c.moduleAddr, module, name)
}

// --- Reads ---

// viewRequest is the body for the node's /view endpoint.
type viewRequest struct {
	Function      string   `json:"function"`
	TypeArguments []string `json:"type_arguments"`
	Arguments     []any    `json:"arguments"`
}

// view calls a module view function and decodes the result array into out.
// On an HTTP/2 protocol-negotiation failure it retries exactly once with the
// HTTP/1.1-only client; this is the only retry in the system.
func (c *Client) view(ctx context.Context, function string, args []any, out any) error {
	body, err := json.Marshal(viewRequest{
		Function:      function,
		TypeArguments: []string{},
		Arguments:     args,
	})
	if err != nil {
		return fmt.Errorf("aptos: marshal view request: %w", err)
	}

	respBody, err := c.post(ctx, c.httpClient, "/v1/view", body)
	if err != nil && isH2Error(err) {
		c.logger.WarnContext(ctx, "view failed on h2, retrying over http/1.1",
			slog.String("function", function),
			slog.String("error", err.Error()),
		)
		respBody, err = c.post(ctx, c.fallback, "/v1/view", body)
	}
	if err != nil {
		return fmt.Errorf("aptos: view %s: %w", function, err)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("aptos: decode view %s: %w", function, err)
	}
	return nil
}

// isH2Error reports whether the error looks like an HTTP/2 protocol
// negotiation failure.
func isH2Error(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "h2 is not supported") ||
		strings.Contains(msg, "http2:") ||
		strings.Contains(msg, "protocol_error")
}

// FetchPredictions returns all prediction accounts.
func (c *Client) FetchPredictions(ctx context.Context) ([]domain.Prediction, error) {
	var result [][]apiPrediction
	if err := c.view(ctx, c.fn(c.moduleName, "get_all_predictions"), []any{}, &result); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return []domain.Prediction{}, nil
	}

	preds := make([]domain.Prediction, 0, len(result[0]))
	for _, ap := range result[0] {
		p, err := ap.toDomain()
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, nil
}

// FetchPrediction returns one prediction account by id.
func (c *Client) FetchPrediction(ctx context.Context, id uint64) (domain.Prediction, error) {
	var result []apiPrediction
	if err := c.view(ctx, c.fn(c.moduleName, "get_prediction"), []any{formatU64(id)}, &result); err != nil {
		return domain.Prediction{}, err
	}
	if len(result) == 0 {
		return domain.Prediction{}, domain.ErrNotFound
	}
	return result[0].toDomain()
}

// FetchUserPrediction returns a user's position on a prediction.
func (c *Client) FetchUserPrediction(ctx context.Context, id uint64, user string) (domain.UserPrediction, error) {
	var result []apiUserPrediction
	if err := c.view(ctx, c.fn(c.moduleName, "get_user_prediction"), []any{formatU64(id), user}, &result); err != nil {
		return domain.UserPrediction{}, err
	}
	if len(result) == 0 {
		return domain.UserPrediction{}, domain.ErrNotFound
	}
	return result[0].toDomain()
}

// FetchMarketState returns the deployment's market-state account. The module
// exposes the fields through separate views rather than one struct.
func (c *Client) FetchMarketState(ctx context.Context) (domain.MarketStateInfo, error) {
	var adminResult []string
	if err := c.view(ctx, c.fn(c.moduleName, "get_admin"), []any{}, &adminResult); err != nil {
		return domain.MarketStateInfo{}, err
	}
	if len(adminResult) == 0 {
		return domain.MarketStateInfo{}, domain.ErrNotFound
	}

	var nextResult []string
	if err := c.view(ctx, c.fn(c.moduleName, "get_next_prediction_id"), []any{}, &nextResult); err != nil {
		return domain.MarketStateInfo{}, err
	}
	if len(nextResult) == 0 {
		return domain.MarketStateInfo{}, domain.ErrNotFound
	}
	next, err := parseU64(nextResult[0], "next_prediction_id")
	if err != nil {
		return domain.MarketStateInfo{}, err
	}

	return domain.MarketStateInfo{Admin: adminResult[0], NextPredictionID: next}, nil
}

// FetchPendingClaims returns the pending-claims queue for a prediction.
func (c *Client) FetchPendingClaims(ctx context.Context, id uint64) ([]domain.PendingClaim, error) {
	var result [][]apiPendingClaim
	if err := c.view(ctx, c.fn(c.moduleName, "get_pending_claims"), []any{formatU64(id)}, &result); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return []domain.PendingClaim{}, nil
	}
	claims := make([]domain.PendingClaim, 0, len(result[0]))
	for _, ac := range result[0] {
		cl, err := ac.toDomain()
		if err != nil {
			return nil, err
		}
		claims = append(claims, cl)
	}
	return claims, nil
}

// FetchDailyClaimInfo returns a user's daily-reward claim state.
func (c *Client) FetchDailyClaimInfo(ctx context.Context, user string) (domain.DailyClaimInfo, error) {
	var result []string
	if err := c.view(ctx, c.fn(c.rewardModule, "get_daily_claim_info"), []any{user}, &result); err != nil {
		return domain.DailyClaimInfo{}, err
	}
	if len(result) < 2 {
		return domain.DailyClaimInfo{}, fmt.Errorf("aptos: get_daily_claim_info returned %d values", len(result))
	}
	last, err := parseI64(result[0], "last_claim_time")
	if err != nil {
		return domain.DailyClaimInfo{}, err
	}
	streak, err := parseU64(result[1], "current_streak")
	if err != nil {
		return domain.DailyClaimInfo{}, err
	}
	return domain.DailyClaimInfo{LastClaimTime: last, CurrentStreak: streak}, nil
}

// FetchReferrals returns the addresses referred by a user.
func (c *Client) FetchReferrals(ctx context.Context, user string) ([]string, error) {
	var result [][]string
	if err := c.view(ctx, c.fn(c.rewardModule, "get_referrals"), []any{user}, &result); err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return []string{}, nil
	}
	return result[0], nil
}

// --- Writes ---

// CreatePrediction submits create_prediction as the admin account.
func (c *Client) CreatePrediction(ctx context.Context, p domain.CreatePredictionParams) (domain.TxResult, error) {
	return c.submit(ctx, c.fn(c.moduleName, "create_prediction"), []any{
		p.Description,
		strconv.FormatInt(p.Duration, 10),
		p.Tags,
		p.PredictionType,
		p.OptionsCount,
	})
}

// ResolvePrediction fixes the result and moves the prediction to Resolved.
func (c *Client) ResolvePrediction(ctx context.Context, id uint64, result domain.PredictionResult) (domain.TxResult, error) {
	var outcome uint8
	switch result {
	case domain.ResultTrue:
		outcome = resultTrue
	case domain.ResultFalse:
		outcome = resultFalse
	default:
		return domain.TxResult{}, fmt.Errorf("aptos: cannot resolve to %q", result)
	}
	return c.submit(ctx, c.fn(c.moduleName, "resolve_prediction"), []any{formatU64(id), outcome})
}

// PausePrediction halts betting on a prediction.
func (c *Client) PausePrediction(ctx context.Context, id uint64) (domain.TxResult, error) {
	return c.submit(ctx, c.fn(c.moduleName, "pause_prediction"), []any{formatU64(id)})
}

// InitializeClaims creates the claims account for a prediction.
func (c *Client) InitializeClaims(ctx context.Context, id uint64) (domain.TxResult, error) {
	return c.submit(ctx, c.fn(c.moduleName, "initialize_claims"), []any{formatU64(id)})
}

// DistributeRewards locks in payout shares before approvals.
func (c *Client) DistributeRewards(ctx context.Context, id uint64) (domain.TxResult, error) {
	return c.submit(ctx, c.fn(c.moduleName, "distribute_rewards"), []any{formatU64(id)})
}

// ApproveClaim settles one pending claim entry.
func (c *Client) ApproveClaim(ctx context.Context, id uint64, user string) (domain.TxResult, error) {
	return c.submit(ctx, c.fn(c.moduleName, "approve_claim"), []any{formatU64(id), user})
}

// Predict places a bet on behalf of user through the server-held account.
func (c *Client) Predict(ctx context.Context, id uint64, user string, verdict bool, amount uint64) (domain.TxResult, error) {
	return c.submit(ctx, c.fn(c.moduleName, "predict"), []any{formatU64(id), user, verdict, formatU64(amount)})
}

// SubmitClaim enqueues a pending claim for user.
func (c *Client) SubmitClaim(ctx context.Context, id uint64, user string) (domain.TxResult, error) {
	return c.submit(ctx, c.fn(c.moduleName, "submit_claim"), []any{formatU64(id), user})
}

// ClaimReward pays out a winning position directly.
func (c *Client) ClaimReward(ctx context.Context, id uint64, user string) (domain.TxResult, error) {
	return c.submit(ctx, c.fn(c.moduleName, "claim_reward"), []any{formatU64(id), user})
}

// ClaimDailyReward claims the daily reward for user.
func (c *Client) ClaimDailyReward(ctx context.Context, user string) (domain.TxResult, error) {
	return c.submit(ctx, c.fn(c.rewardModule, "claim_daily_reward"), []any{user})
}

// UseReferralCode applies a referral code for user.
func (c *Client) UseReferralCode(ctx context.Context, user, code string) (domain.TxResult, error) {
	return c.submit(ctx, c.fn(c.rewardModule, "use_referral_code"), []any{user, code})
}

// --- Transaction plumbing ---

type txPayload struct {
	Type          string   `json:"type"`
	Function      string   `json:"function"`
	TypeArguments []string `json:"type_arguments"`
	Arguments     []any    `json:"arguments"`
}

type txRequest struct {
	Sender                  string    `json:"sender"`
	SequenceNumber          string    `json:"sequence_number"`
	MaxGasAmount            string    `json:"max_gas_amount"`
	GasUnitPrice            string    `json:"gas_unit_price"`
	ExpirationTimestampSecs string    `json:"expiration_timestamp_secs"`
	Payload                 txPayload `json:"payload"`
}

type txSignature struct {
	Type      string `json:"type"`
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
}

type signedTxRequest struct {
	txRequest
	Signature txSignature `json:"signature"`
}

type submittedTx struct {
	Hash         string `json:"hash"`
	Success      *bool  `json:"success,omitempty"`
	VMStatus     string `json:"vm_status,omitempty"`
	Type         string `json:"type,omitempty"`
}

// submit runs the full write flow: sequence number, encode_submission, sign,
// submit, and wait for confirmation. Single attempt; program guards own
// double-submission semantics.
func (c *Client) submit(ctx context.Context, function string, args []any) (domain.TxResult, error) {
	seq, err := c.sequenceNumber(ctx)
	if err != nil {
		return domain.TxResult{}, err
	}

	req := txRequest{
		Sender:                  c.account.Address(),
		SequenceNumber:          seq,
		MaxGasAmount:            defaultMaxGasAmount,
		GasUnitPrice:            defaultGasUnitPrice,
		ExpirationTimestampSecs: strconv.FormatInt(time.Now().Unix()+txExpirySecs, 10),
		Payload: txPayload{
			Type:          "entry_function_payload",
			Function:      function,
			TypeArguments: []string{},
			Arguments:     args,
		},
	}

	signingMessage, err := c.encodeSubmission(ctx, req)
	if err != nil {
		return domain.TxResult{}, err
	}

	signed := signedTxRequest{
		txRequest: req,
		Signature: txSignature{
			Type:      "ed25519_signature",
			PublicKey: c.account.PublicKeyHex(),
			Signature: c.account.Sign(signingMessage),
		},
	}

	body, err := json.Marshal(signed)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("aptos: marshal signed tx: %w", err)
	}

	respBody, err := c.post(ctx, c.httpClient, "/v1/transactions", body)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("aptos: submit %s: %w", function, err)
	}

	var tx submittedTx
	if err := json.Unmarshal(respBody, &tx); err != nil {
		return domain.TxResult{}, fmt.Errorf("aptos: decode submit response: %w", err)
	}

	if err := c.waitForTransaction(ctx, tx.Hash); err != nil {
		return domain.TxResult{}, fmt.Errorf("aptos: %s: %w", function, err)
	}

	c.logger.InfoContext(ctx, "transaction confirmed",
		slog.String("function", function),
		slog.String("hash", tx.Hash),
	)
	return domain.TxResult{Hash: tx.Hash}, nil
}

// sequenceNumber fetches the account's next sequence number.
func (c *Client) sequenceNumber(ctx context.Context) (string, error) {
	respBody, err := c.get(ctx, "/v1/accounts/"+c.account.Address())
	if err != nil {
		return "", fmt.Errorf("aptos: fetch account: %w", err)
	}
	var acct struct {
		SequenceNumber string `json:"sequence_number"`
	}
	if err := json.Unmarshal(respBody, &acct); err != nil {
		return "", fmt.Errorf("aptos: decode account: %w", err)
	}
	return acct.SequenceNumber, nil
}

// encodeSubmission asks the node for the exact message the signer must sign.
func (c *Client) encodeSubmission(ctx context.Context, req txRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("aptos: marshal encode request: %w", err)
	}

	respBody, err := c.post(ctx, c.httpClient, "/v1/transactions/encode_submission", body)
	if err != nil {
		return nil, fmt.Errorf("aptos: encode submission: %w", err)
	}

	var msgHex string
	if err := json.Unmarshal(respBody, &msgHex); err != nil {
		return nil, fmt.Errorf("aptos: decode signing message: %w", err)
	}

	msg, err := hex.DecodeString(strings.TrimPrefix(msgHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("aptos: decode signing message hex: %w", err)
	}
	return msg, nil
}

// waitForTransaction polls by hash until the transaction lands or the
// confirmation window elapses.
func (c *Client) waitForTransaction(ctx context.Context, hash string) error {
	deadline := time.Now().Add(confirmTimeout)
	for {
		respBody, err := c.get(ctx, "/v1/transactions/by_hash/"+hash)
		if err == nil {
			var tx submittedTx
			if err := json.Unmarshal(respBody, &tx); err != nil {
				return fmt.Errorf("decode tx status: %w", err)
			}
			if tx.Type != "pending_transaction" && tx.Success != nil {
				if !*tx.Success {
					return fmt.Errorf("transaction %s failed: %s", hash, tx.VMStatus)
				}
				return nil
			}
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("transaction %s not confirmed within %s", hash, confirmTimeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(confirmPollInterval):
		}
	}
}

// --- HTTP plumbing ---

func (c *Client) post(ctx context.Context, client *http.Client, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(client, req)
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return c.do(c.httpClient, req)
}

func (c *Client) do(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func formatU64(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// Compile-time interface check.
var _ domain.ChainClient = (*Client)(nil)
