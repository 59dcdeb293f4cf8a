package evm

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/alanyoungcy/hashpredict/internal/domain"
)

const confirmTimeout = 90 * time.Second

// Config for the EVM adapter.
type Config struct {
	RPCURL          string
	ContractAddress string
	PrivateKey      string // hex, relayer key
	ChainID         int64
}

// Client implements domain.ChainClient against a Solidity deployment of the
// market program.
type Client struct {
	eth      *ethclient.Client
	abi      abi.ABI
	contract common.Address
	key      *ecdsa.PrivateKey
	from     common.Address
	chainID  *big.Int
	logger   *slog.Logger
}

var _ domain.ChainClient = (*Client)(nil)

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	eth, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("evm: dial %s: %w", cfg.RPCURL, err)
	}

	parsed, err := abi.JSON(strings.NewReader(marketABI))
	if err != nil {
		return nil, fmt.Errorf("evm: parse abi: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("evm: parse private key: %w", err)
	}

	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("evm: invalid contract address %q", cfg.ContractAddress)
	}

	return &Client{
		eth:      eth,
		abi:      parsed,
		contract: common.HexToAddress(cfg.ContractAddress),
		key:      key,
		from:     crypto.PubkeyToAddress(key.PublicKey),
		chainID:  big.NewInt(cfg.ChainID),
		logger:   logger.With("component", "evm"),
	}, nil
}

func (c *Client) Name() string { return "evm" }

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// call executes a read-only contract method and returns the raw outputs.
func (c *Client) call(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("evm: pack %s: %w", method, err)
	}
	raw, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &c.contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("evm: call %s: %w", method, err)
	}
	out, err := c.abi.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("evm: unpack %s: %w", method, err)
	}
	return out, nil
}

// send builds, signs, submits a state-changing transaction and waits for it
// to be mined. Reverts surface during gas estimation with the revert reason
// in the error text.
func (c *Client) send(ctx context.Context, method string, args ...any) (domain.TxResult, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("evm: pack %s: %w", method, err)
	}

	nonce, err := c.eth.PendingNonceAt(ctx, c.from)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("evm: nonce: %w", err)
	}
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("evm: gas price: %w", err)
	}
	gasLimit, err := c.eth.EstimateGas(ctx, ethereum.CallMsg{
		From: c.from,
		To:   &c.contract,
		Data: data,
	})
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("evm: estimate %s: %w", method, err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &c.contract,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("evm: sign %s: %w", method, err)
	}
	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return domain.TxResult{}, fmt.Errorf("evm: send %s: %w", method, err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, confirmTimeout)
	defer cancel()
	receipt, err := bind.WaitMined(waitCtx, c.eth, signed)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("evm: wait %s %s: %w", method, signed.Hash(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return domain.TxResult{}, fmt.Errorf("evm: %s reverted in tx %s", method, signed.Hash())
	}

	c.logger.Debug("transaction mined", "method", method, "hash", signed.Hash().Hex(), "gas_used", receipt.GasUsed)
	return domain.TxResult{Hash: signed.Hash().Hex()}, nil
}

// Reads.

func (c *Client) FetchPredictions(ctx context.Context) ([]domain.Prediction, error) {
	out, err := c.call(ctx, "getAllPredictions")
	if err != nil {
		return nil, err
	}
	raw := *abi.ConvertType(out[0], new([]abiPrediction)).(*[]abiPrediction)
	preds := make([]domain.Prediction, 0, len(raw))
	for _, p := range raw {
		preds = append(preds, p.toDomain())
	}
	return preds, nil
}

func (c *Client) FetchPrediction(ctx context.Context, id uint64) (domain.Prediction, error) {
	out, err := c.call(ctx, "getPrediction", id)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			return domain.Prediction{}, fmt.Errorf("evm: prediction %d: %w", id, domain.ErrNotFound)
		}
		return domain.Prediction{}, err
	}
	p := *abi.ConvertType(out[0], new(abiPrediction)).(*abiPrediction)
	return p.toDomain(), nil
}

func (c *Client) FetchUserPrediction(ctx context.Context, id uint64, user string) (domain.UserPrediction, error) {
	if !common.IsHexAddress(user) {
		return domain.UserPrediction{}, fmt.Errorf("evm: invalid user address %q", user)
	}
	out, err := c.call(ctx, "getUserPrediction", id, common.HexToAddress(user))
	if err != nil {
		return domain.UserPrediction{}, err
	}
	u := *abi.ConvertType(out[0], new(abiUserPrediction)).(*abiUserPrediction)
	if u.User == (common.Address{}) {
		return domain.UserPrediction{}, fmt.Errorf("evm: position %d/%s: %w", id, user, domain.ErrNotFound)
	}
	return u.toDomain(), nil
}

func (c *Client) FetchMarketState(ctx context.Context) (domain.MarketStateInfo, error) {
	out, err := c.call(ctx, "admin")
	if err != nil {
		return domain.MarketStateInfo{}, err
	}
	admin := *abi.ConvertType(out[0], new(common.Address)).(*common.Address)

	out, err = c.call(ctx, "nextPredictionId")
	if err != nil {
		return domain.MarketStateInfo{}, err
	}
	next := *abi.ConvertType(out[0], new(uint64)).(*uint64)

	return domain.MarketStateInfo{Admin: admin.Hex(), NextPredictionID: next}, nil
}

func (c *Client) FetchPendingClaims(ctx context.Context, id uint64) ([]domain.PendingClaim, error) {
	out, err := c.call(ctx, "getPendingClaims", id)
	if err != nil {
		return nil, err
	}
	raw := *abi.ConvertType(out[0], new([]abiPendingClaim)).(*[]abiPendingClaim)
	claims := make([]domain.PendingClaim, 0, len(raw))
	for _, pc := range raw {
		claims = append(claims, pc.toDomain())
	}
	return claims, nil
}

func (c *Client) FetchDailyClaimInfo(ctx context.Context, user string) (domain.DailyClaimInfo, error) {
	if !common.IsHexAddress(user) {
		return domain.DailyClaimInfo{}, fmt.Errorf("evm: invalid user address %q", user)
	}
	out, err := c.call(ctx, "getDailyClaimInfo", common.HexToAddress(user))
	if err != nil {
		return domain.DailyClaimInfo{}, err
	}
	last := *abi.ConvertType(out[0], new(int64)).(*int64)
	streak := *abi.ConvertType(out[1], new(uint64)).(*uint64)
	return domain.DailyClaimInfo{LastClaimTime: last, CurrentStreak: streak}, nil
}

func (c *Client) FetchReferrals(ctx context.Context, user string) ([]string, error) {
	if !common.IsHexAddress(user) {
		return nil, fmt.Errorf("evm: invalid user address %q", user)
	}
	out, err := c.call(ctx, "getReferrals", common.HexToAddress(user))
	if err != nil {
		return nil, err
	}
	raw := *abi.ConvertType(out[0], new([]common.Address)).(*[]common.Address)
	refs := make([]string, 0, len(raw))
	for _, a := range raw {
		refs = append(refs, a.Hex())
	}
	return refs, nil
}

// Admin writes.

func (c *Client) CreatePrediction(ctx context.Context, p domain.CreatePredictionParams) (domain.TxResult, error) {
	return c.send(ctx, "createPrediction", p.Description, p.Duration, p.Tags, p.PredictionType, p.OptionsCount)
}

func (c *Client) ResolvePrediction(ctx context.Context, id uint64, result domain.PredictionResult) (domain.TxResult, error) {
	var enc uint8
	switch result {
	case domain.ResultTrue:
		enc = 1
	case domain.ResultFalse:
		enc = 2
	default:
		return domain.TxResult{}, fmt.Errorf("evm: cannot resolve to %q", result)
	}
	return c.send(ctx, "resolvePrediction", id, enc)
}

func (c *Client) PausePrediction(ctx context.Context, id uint64) (domain.TxResult, error) {
	return c.send(ctx, "pausePrediction", id)
}

func (c *Client) InitializeClaims(ctx context.Context, id uint64) (domain.TxResult, error) {
	return c.send(ctx, "initializeClaims", id)
}

func (c *Client) DistributeRewards(ctx context.Context, id uint64) (domain.TxResult, error) {
	return c.send(ctx, "distributeRewards", id)
}

func (c *Client) ApproveClaim(ctx context.Context, id uint64, user string) (domain.TxResult, error) {
	if !common.IsHexAddress(user) {
		return domain.TxResult{}, fmt.Errorf("evm: invalid user address %q", user)
	}
	return c.send(ctx, "approveClaim", id, common.HexToAddress(user))
}

// User writes relayed through the server-held key.

func (c *Client) Predict(ctx context.Context, id uint64, user string, verdict bool, amount uint64) (domain.TxResult, error) {
	if !common.IsHexAddress(user) {
		return domain.TxResult{}, fmt.Errorf("evm: invalid user address %q", user)
	}
	return c.send(ctx, "predictFor", id, common.HexToAddress(user), verdict, amount)
}

func (c *Client) SubmitClaim(ctx context.Context, id uint64, user string) (domain.TxResult, error) {
	if !common.IsHexAddress(user) {
		return domain.TxResult{}, fmt.Errorf("evm: invalid user address %q", user)
	}
	return c.send(ctx, "submitClaimFor", id, common.HexToAddress(user))
}

func (c *Client) ClaimReward(ctx context.Context, id uint64, user string) (domain.TxResult, error) {
	if !common.IsHexAddress(user) {
		return domain.TxResult{}, fmt.Errorf("evm: invalid user address %q", user)
	}
	return c.send(ctx, "claimRewardFor", id, common.HexToAddress(user))
}

func (c *Client) ClaimDailyReward(ctx context.Context, user string) (domain.TxResult, error) {
	if !common.IsHexAddress(user) {
		return domain.TxResult{}, fmt.Errorf("evm: invalid user address %q", user)
	}
	return c.send(ctx, "claimDailyReward", common.HexToAddress(user))
}

func (c *Client) UseReferralCode(ctx context.Context, user, code string) (domain.TxResult, error) {
	if !common.IsHexAddress(user) {
		return domain.TxResult{}, fmt.Errorf("evm: invalid user address %q", user)
	}
	return c.send(ctx, "useReferralCode", common.HexToAddress(user), code)
}
