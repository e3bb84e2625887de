package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/xrp-transfer/backend/internal/chain"
	"github.com/xrp-transfer/backend/internal/events"
	"github.com/xrp-transfer/backend/internal/models"
	"github.com/xrp-transfer/backend/internal/units"
	"github.com/xrp-transfer/backend/internal/wallet"
	"go.uber.org/zap"
)

const defaultPollInterval = 2 * time.Second

// AuditLogger records operation outcomes. *repositories.AuditRepo implements it.
type AuditLogger interface {
	Log(ctx context.Context, entry models.AuditLog) error
}

// Controller owns the transfer form and runs connect and the two transfer
// operations against a wallet provider.
type Controller struct {
	provider     wallet.Provider
	network      chain.Network
	contract     *chain.Contract
	publisher    events.Publisher
	audit        AuditLogger
	pollInterval time.Duration
	log          *zap.Logger

	// pubMu orders publishes by version; it is taken before mu.
	pubMu sync.Mutex
	mu    sync.Mutex
	state State
}

// NewController builds a controller. A nil provider means no wallet is
// present; publisher and audit are optional.
func NewController(
	provider wallet.Provider,
	network chain.Network,
	contract *chain.Contract,
	publisher events.Publisher,
	audit AuditLogger,
	pollInterval time.Duration,
	log *zap.Logger,
) *Controller {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &Controller{
		provider:     provider,
		network:      network,
		contract:     contract,
		publisher:    publisher,
		audit:        audit,
		pollInterval: pollInterval,
		log:          log,
		state:        InitialState(),
	}
}

func (c *Controller) Network() chain.Network {
	return c.network
}

func (c *Controller) Contract() *chain.Contract {
	return c.contract
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) SetRecipient(ctx context.Context, v string) State {
	return c.dispatch(ctx, RecipientChanged{Value: v})
}

func (c *Controller) SetAmount(ctx context.Context, v string) State {
	return c.dispatch(ctx, AmountChanged{Value: v})
}

func (c *Controller) Connect(ctx context.Context) error {
	return c.Run(ctx, OpConnect)
}

func (c *Controller) TransferViaContract(ctx context.Context) error {
	return c.Run(ctx, OpTransferContract)
}

func (c *Controller) TransferDirect(ctx context.Context) error {
	return c.Run(ctx, OpTransferDirect)
}

// Run executes op to completion. It returns ErrInProgress without touching
// state if any operation is already running, otherwise the operation's
// *Error or nil.
func (c *Controller) Run(ctx context.Context, op Operation) error {
	body, err := c.body(op)
	if err != nil {
		return err
	}
	id, err := c.begin(ctx, op)
	if err != nil {
		return err
	}
	return body(ctx, id)
}

// Go starts op in the background. The in-flight guard is taken before Go
// returns, so a call made while anything is running gets ErrInProgress.
func (c *Controller) Go(ctx context.Context, op Operation) error {
	body, err := c.body(op)
	if err != nil {
		return err
	}
	id, err := c.begin(ctx, op)
	if err != nil {
		return err
	}
	go func() {
		_ = body(ctx, id)
	}()
	return nil
}

type operationFunc func(ctx context.Context, id string) error

func (c *Controller) body(op Operation) (operationFunc, error) {
	switch op {
	case OpConnect:
		return c.connect, nil
	case OpTransferContract:
		return func(ctx context.Context, id string) error { return c.transfer(ctx, OpTransferContract, id) }, nil
	case OpTransferDirect:
		return func(ctx context.Context, id string) error { return c.transfer(ctx, OpTransferDirect, id) }, nil
	}
	return nil, fmt.Errorf("unknown operation %q", op)
}

// begin takes the in-flight guard and returns the new operation's ID. One
// operation runs at a time: the snapshot has a single phase, hash and block.
func (c *Controller) begin(ctx context.Context, op Operation) (string, error) {
	msg := ""
	if op == OpConnect {
		msg = msgConnecting
	}
	id := uuid.New().String()

	c.pubMu.Lock()
	defer c.pubMu.Unlock()

	c.mu.Lock()
	if c.state.InFlight.Any() {
		c.mu.Unlock()
		return "", ErrInProgress
	}
	c.state = Reduce(c.state, OperationStarted{Op: op, ID: id, Message: msg})
	s := c.state
	c.mu.Unlock()

	c.publish(ctx, s)
	return id, nil
}

func (c *Controller) dispatch(ctx context.Context, ev Event) State {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()

	c.mu.Lock()
	c.state = Reduce(c.state, ev)
	s := c.state
	c.mu.Unlock()

	c.publish(ctx, s)
	return s
}

func (c *Controller) publish(ctx context.Context, s State) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.Publish(ctx, events.StreamTransfer, events.Event{
		Type:    events.EventStateChanged,
		Payload: s.Payload(),
	}); err != nil {
		c.log.Warn("failed to publish state", zap.Uint64("version", s.Version), zap.Error(err))
	}
}

func (c *Controller) fail(ctx context.Context, op Operation, id string, e *Error) error {
	s := c.dispatch(ctx, OperationFailed{Op: op, Err: e, Message: statusFor(op, e)})

	c.log.Info("operation failed",
		zap.String("operation", string(op)),
		zap.String("operation_id", id),
		zap.String("kind", string(e.Kind)),
		zap.Error(e),
	)
	c.record(ctx, s, op, id, "operation_failed", map[string]any{
		"kind":   e.Kind,
		"detail": e.Message(),
	})
	return e
}

func (c *Controller) connect(ctx context.Context, id string) error {
	if c.provider == nil {
		return c.fail(ctx, OpConnect, id, newError(KindWalletNotFound, msgWalletNotFound, nil))
	}

	if _, err := c.provider.RequestAccounts(ctx); err != nil {
		return c.fail(ctx, OpConnect, id, newError(KindProvider, "", err))
	}
	accounts, err := c.provider.Accounts(ctx)
	if err != nil {
		return c.fail(ctx, OpConnect, id, newError(KindProvider, "", err))
	}
	if len(accounts) == 0 {
		return c.fail(ctx, OpConnect, id, newError(KindProvider, "wallet returned no accounts", nil))
	}
	account := accounts[0]

	c.dispatch(ctx, PhaseChanged{Op: OpConnect, Phase: PhaseSwitching})
	if e := c.ensureChain(ctx); e != nil {
		return c.fail(ctx, OpConnect, id, e)
	}

	s := c.dispatch(ctx, Connected{Account: account.Hex(), Message: msgConnected})
	c.log.Info("wallet connected",
		zap.String("account", s.Account),
		zap.String("chain_id", c.network.ChainIDHex()),
	)
	c.record(ctx, s, OpConnect, id, "wallet_connected", map[string]any{"chain_id": c.network.ChainIDHex()})
	return nil
}

// ensureChain switches the wallet to the configured network, registering
// it first when the wallet reports the chain as unknown.
func (c *Controller) ensureChain(ctx context.Context) *Error {
	chainID := c.network.ChainIDHex()

	err := c.provider.SwitchChain(ctx, chainID)
	if err == nil {
		return nil
	}
	if !wallet.IsUnrecognizedChain(err) {
		return newError(KindChainSwitch, "", err)
	}

	c.log.Info("chain unknown to wallet, adding it",
		zap.String("chain_id", chainID),
		zap.String("rpc_url", c.network.RPCURL),
	)
	if err := c.provider.AddChain(ctx, c.network.AddChainParams()); err != nil {
		return newError(KindProvider, "", err)
	}
	return nil
}

type transferRequest struct {
	from       common.Address
	recipient  common.Address
	value      *big.Int
	amountText string
}

// validate checks the form before any network access.
func (c *Controller) validate(s State) (*transferRequest, *Error) {
	recipient := strings.TrimSpace(s.Recipient)
	amount := strings.TrimSpace(s.Amount)
	if recipient == "" || amount == "" {
		return nil, newError(KindValidation, msgMissingFields, nil)
	}
	if !common.IsHexAddress(recipient) {
		return nil, newError(KindValidation, fmt.Sprintf("Invalid recipient address: %s", recipient), nil)
	}

	value, err := units.ParseUnits(amount, c.network.Currency.Decimals)
	if err != nil {
		return nil, newError(KindValidation, fmt.Sprintf("Invalid amount: %v", err), err)
	}

	if !s.IsConnected {
		return nil, newError(KindNotConnected, msgNotConnected, nil)
	}

	return &transferRequest{
		from:       common.HexToAddress(s.Account),
		recipient:  common.HexToAddress(recipient),
		value:      value,
		amountText: amount,
	}, nil
}

func (c *Controller) transfer(ctx context.Context, op Operation, id string) error {
	req, e := c.validate(c.State())
	if e != nil {
		return c.fail(ctx, op, id, e)
	}

	c.log.Info("transfer requested",
		zap.String("operation", string(op)),
		zap.String("from", req.from.Hex()),
		zap.String("to", req.recipient.Hex()),
		zap.String("amount", req.amountText),
		zap.String("value", req.value.String()),
	)

	var hash common.Hash
	if op == OpTransferContract {
		hash, e = c.submitViaContract(ctx, req)
	} else {
		hash, e = c.submitDirect(ctx, req)
	}
	if e != nil {
		return c.fail(ctx, op, id, e)
	}

	return c.confirm(ctx, op, id, hash, req)
}

func (c *Controller) submitViaContract(ctx context.Context, req *transferRequest) (common.Hash, *Error) {
	op := OpTransferContract
	if c.contract == nil {
		return common.Hash{}, newError(KindProvider, "transfer contract is not configured", nil)
	}
	data, err := c.contract.PackTransfer(req.recipient)
	if err != nil {
		return common.Hash{}, newError(KindProvider, "", err)
	}
	to := c.contract.Address

	c.dispatch(ctx, PhaseChanged{Op: op, Phase: PhaseEstimating})
	estimated, err := c.provider.EstimateGas(ctx, ethereum.CallMsg{
		From:  req.from,
		To:    &to,
		Value: req.value,
		Data:  data,
	})
	if err != nil {
		return common.Hash{}, newError(KindProvider, "", err)
	}
	gasLimit := chain.PadGasLimit(estimated)
	c.log.Debug("estimated gas", zap.Uint64("estimated", estimated), zap.Uint64("gas_limit", gasLimit))

	c.dispatch(ctx, PhaseChanged{Op: op, Phase: PhasePricing})
	gasPrice, err := c.provider.GasPrice(ctx)
	if err != nil {
		return common.Hash{}, newError(KindProvider, "", err)
	}
	c.log.Debug("current gas price", zap.String("gwei", units.FormatUnits(gasPrice, 9)))

	c.dispatch(ctx, PhaseChanged{
		Op:      op,
		Phase:   PhaseSubmitting,
		Message: msgSending(op, req.amountText, c.network.Currency.Symbol),
	})
	hash, err := c.provider.SendTransaction(ctx, ethereum.CallMsg{
		From:     req.from,
		To:       &to,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Value:    req.value,
		Data:     data,
	})
	if err != nil {
		return common.Hash{}, newError(KindProvider, "", err)
	}
	return hash, nil
}

func (c *Controller) submitDirect(ctx context.Context, req *transferRequest) (common.Hash, *Error) {
	op := OpTransferDirect
	to := req.recipient

	c.dispatch(ctx, PhaseChanged{
		Op:      op,
		Phase:   PhaseSubmitting,
		Message: msgSending(op, req.amountText, c.network.Currency.Symbol),
	})
	hash, err := c.provider.SendTransaction(ctx, ethereum.CallMsg{
		From:  req.from,
		To:    &to,
		Gas:   chain.DirectTransferGas,
		Value: req.value,
	})
	if err != nil {
		return common.Hash{}, newError(KindProvider, "", err)
	}
	return hash, nil
}

func (c *Controller) confirm(ctx context.Context, op Operation, id string, hash common.Hash, req *transferRequest) error {
	s := c.dispatch(ctx, TxSubmitted{Op: op, Hash: hash.Hex(), Message: msgTxHash(hash.Hex())})
	c.log.Info("transaction submitted", zap.String("operation", string(op)), zap.String("hash", hash.Hex()))
	c.record(ctx, s, op, id, "transfer_submitted", map[string]any{
		"hash":   hash.Hex(),
		"to":     req.recipient.Hex(),
		"amount": req.amountText,
	})

	receipt, err := c.waitMined(ctx, hash)
	if err != nil {
		return c.fail(ctx, op, id, newError(KindProvider, "", err))
	}
	if receipt.BlockNumber == nil {
		return c.fail(ctx, op, id, newError(KindProvider, "", fmt.Errorf("receipt for %s has no block number", hash.Hex())))
	}
	block := receipt.BlockNumber.Uint64()
	if receipt.Status == types.ReceiptStatusFailed {
		return c.fail(ctx, op, id, newError(KindProvider, "", fmt.Errorf("transaction %s reverted in block %d", hash.Hex(), block)))
	}

	s = c.dispatch(ctx, TxConfirmed{
		Op:          op,
		BlockNumber: block,
		Message:     msgSucceeded(req.amountText, c.network.Currency.Symbol, block),
	})
	c.log.Info("transaction confirmed",
		zap.String("hash", hash.Hex()),
		zap.Uint64("block", block),
		zap.Uint64("gas_used", receipt.GasUsed),
	)
	c.record(ctx, s, op, id, "transfer_confirmed", map[string]any{
		"hash":  hash.Hex(),
		"block": block,
	})
	return nil
}

// waitMined polls for the receipt until it exists or ctx is done. Lookup
// errors other than NotFound are logged and retried.
func (c *Controller) waitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.provider.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			c.log.Debug("receipt lookup failed", zap.String("hash", hash.Hex()), zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// record journals one step of the operation id. The ID comes from begin,
// never from the snapshot.
func (c *Controller) record(ctx context.Context, s State, op Operation, id, action string, meta map[string]any) {
	if c.audit == nil {
		return
	}

	entry := models.AuditLog{
		Actor:      s.Account,
		ActorType:  "wallet",
		Action:     action,
		EntityType: string(op),
		Meta:       meta,
	}
	if parsed, err := uuid.Parse(id); err == nil {
		entry.EntityID = &parsed
	}
	if err := c.audit.Log(ctx, entry); err != nil {
		c.log.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}

// Payload is the snapshot as a generic map for event payloads.
func (s State) Payload() map[string]any {
	data, _ := json.Marshal(s)
	var m map[string]any
	_ = json.Unmarshal(data, &m)
	return m
}
