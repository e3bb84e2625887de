package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

const codeInvalidParams = -32602

// Backend is the node API a KeyProvider needs. *ethclient.Client satisfies it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	Close()
}

type DialFunc func(ctx context.Context, url string) (Backend, error)

func dialEthclient(ctx context.Context, url string) (Backend, error) {
	return ethclient.DialContext(ctx, url)
}

type knownChain struct {
	id      *big.Int
	params  AddChainParams
	backend Backend
}

// KeyProvider is a wallet backed by a single local private key. Like a
// browser wallet it only knows chains that were added to it, and reports
// CodeUnrecognizedChain when asked to switch to anything else.
type KeyProvider struct {
	key     *ecdsa.PrivateKey
	address common.Address
	dial    DialFunc
	log     *zap.Logger

	mu     sync.RWMutex
	chains map[string]*knownChain
	active *knownChain
}

type KeyProviderOption func(*KeyProvider)

// WithDialer replaces the ethclient dialer used by AddChain.
func WithDialer(dial DialFunc) KeyProviderOption {
	return func(p *KeyProvider) { p.dial = dial }
}

func NewKeyProvider(key *ecdsa.PrivateKey, log *zap.Logger, opts ...KeyProviderOption) *KeyProvider {
	p := &KeyProvider{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		dial:    dialEthclient,
		log:     log,
		chains:  make(map[string]*knownChain),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewKeyProviderFromHex parses a hex private key, with or without 0x prefix.
func NewKeyProviderFromHex(hexKey string, log *zap.Logger, opts ...KeyProviderOption) (*KeyProvider, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return NewKeyProvider(key, log, opts...), nil
}

func (p *KeyProvider) Address() common.Address {
	return p.address
}

func (p *KeyProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	return []common.Address{p.address}, nil
}

func (p *KeyProvider) Accounts(ctx context.Context) ([]common.Address, error) {
	return []common.Address{p.address}, nil
}

func (p *KeyProvider) SwitchChain(ctx context.Context, chainID string) error {
	key, _, err := canonicalChainID(chainID)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	chain, ok := p.chains[key]
	if !ok {
		return &ProviderError{
			Code:    CodeUnrecognizedChain,
			Message: fmt.Sprintf("Unrecognized chain ID %q. Try adding the chain using wallet_addEthereumChain first.", chainID),
		}
	}
	p.active = chain
	p.log.Info("switched chain", zap.String("chain_id", key), zap.String("name", chain.params.ChainName))
	return nil
}

// AddChain dials the first reachable RPC URL, checks that it serves the
// declared chain ID, then registers the chain and makes it active.
func (p *KeyProvider) AddChain(ctx context.Context, params AddChainParams) error {
	key, id, err := canonicalChainID(params.ChainID)
	if err != nil {
		return err
	}

	p.mu.RLock()
	existing, ok := p.chains[key]
	p.mu.RUnlock()
	if ok {
		p.mu.Lock()
		p.active = existing
		p.mu.Unlock()
		return nil
	}

	if len(params.RPCURLs) == 0 {
		return &ProviderError{Code: codeInvalidParams, Message: "rpcUrls must not be empty"}
	}

	var backend Backend
	var lastErr error
	for _, url := range params.RPCURLs {
		b, err := p.dial(ctx, url)
		if err != nil {
			lastErr = err
			p.log.Warn("chain rpc unreachable", zap.String("url", url), zap.Error(err))
			continue
		}

		remoteID, err := b.ChainID(ctx)
		if err != nil {
			b.Close()
			lastErr = err
			continue
		}
		if remoteID.Cmp(id) != 0 {
			b.Close()
			lastErr = &ProviderError{
				Code:    codeInvalidParams,
				Message: fmt.Sprintf("rpc %s returned chain ID %s, expected %s", url, remoteID, id),
			}
			continue
		}
		backend = b
		break
	}
	if backend == nil {
		return fmt.Errorf("add chain %s: %w", key, lastErr)
	}

	chain := &knownChain{id: id, params: params, backend: backend}

	p.mu.Lock()
	p.chains[key] = chain
	p.active = chain
	p.mu.Unlock()

	p.log.Info("chain added",
		zap.String("chain_id", key),
		zap.String("name", params.ChainName),
		zap.Strings("rpc_urls", params.RPCURLs),
	)
	return nil
}

func (p *KeyProvider) activeChain() (*knownChain, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.active == nil {
		return nil, &ProviderError{Code: CodeChainDisconnected, Message: "no active chain"}
	}
	return p.active, nil
}

func (p *KeyProvider) SendTransaction(ctx context.Context, msg ethereum.CallMsg) (common.Hash, error) {
	chain, err := p.activeChain()
	if err != nil {
		return common.Hash{}, err
	}
	if msg.From != (common.Address{}) && msg.From != p.address {
		return common.Hash{}, &ProviderError{
			Code:    CodeUnauthorized,
			Message: fmt.Sprintf("account %s is not managed by this wallet", msg.From.Hex()),
		}
	}
	msg.From = p.address

	nonce, err := chain.backend.PendingNonceAt(ctx, p.address)
	if err != nil {
		return common.Hash{}, fmt.Errorf("get nonce: %w", err)
	}

	gasPrice := msg.GasPrice
	if gasPrice == nil {
		if gasPrice, err = chain.backend.SuggestGasPrice(ctx); err != nil {
			return common.Hash{}, fmt.Errorf("suggest gas price: %w", err)
		}
	}

	gas := msg.Gas
	if gas == 0 {
		if gas, err = chain.backend.EstimateGas(ctx, msg); err != nil {
			return common.Hash{}, fmt.Errorf("estimate gas: %w", err)
		}
	}

	value := msg.Value
	if value == nil {
		value = new(big.Int)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gas,
		To:       msg.To,
		Value:    value,
		Data:     msg.Data,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chain.id), p.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign tx: %w", err)
	}
	if err := chain.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, err
	}

	p.log.Debug("transaction broadcast",
		zap.String("hash", signed.Hash().Hex()),
		zap.Uint64("nonce", nonce),
		zap.Uint64("gas", gas),
	)
	return signed.Hash(), nil
}

func (p *KeyProvider) GasPrice(ctx context.Context) (*big.Int, error) {
	chain, err := p.activeChain()
	if err != nil {
		return nil, err
	}
	return chain.backend.SuggestGasPrice(ctx)
}

func (p *KeyProvider) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	chain, err := p.activeChain()
	if err != nil {
		return 0, err
	}
	if msg.From == (common.Address{}) {
		msg.From = p.address
	}
	return chain.backend.EstimateGas(ctx, msg)
}

func (p *KeyProvider) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	chain, err := p.activeChain()
	if err != nil {
		return nil, err
	}
	return chain.backend.TransactionReceipt(ctx, hash)
}

// canonicalChainID normalizes "0x1DF8" to "0x1df8".
func canonicalChainID(chainID string) (string, *big.Int, error) {
	id, err := hexutil.DecodeBig(strings.ToLower(strings.TrimSpace(chainID)))
	if err != nil || id.Sign() <= 0 {
		return "", nil, &ProviderError{
			Code:    codeInvalidParams,
			Message: fmt.Sprintf("invalid chain ID %q", chainID),
		}
	}
	return hexutil.EncodeBig(id), id, nil
}
