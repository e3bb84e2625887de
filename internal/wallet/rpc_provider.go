package wallet

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// RPCProvider drives an external wallet that exposes the EIP-1193 request
// methods over JSON-RPC (a signer daemon or a browser-wallet bridge).
type RPCProvider struct {
	client *rpc.Client
	log    *zap.Logger
}

func DialRPCProvider(ctx context.Context, url string, log *zap.Logger) (*RPCProvider, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial wallet rpc %s: %w", url, err)
	}
	log.Info("wallet rpc connected", zap.String("url", url))
	return NewRPCProvider(client, log), nil
}

func NewRPCProvider(client *rpc.Client, log *zap.Logger) *RPCProvider {
	return &RPCProvider{client: client, log: log}
}

func (p *RPCProvider) Close() {
	p.client.Close()
}

func (p *RPCProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := p.client.CallContext(ctx, &accounts, "eth_requestAccounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (p *RPCProvider) Accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := p.client.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (p *RPCProvider) SwitchChain(ctx context.Context, chainID string) error {
	param := struct {
		ChainID string `json:"chainId"`
	}{ChainID: chainID}
	return p.client.CallContext(ctx, nil, "wallet_switchEthereumChain", param)
}

func (p *RPCProvider) AddChain(ctx context.Context, params AddChainParams) error {
	return p.client.CallContext(ctx, nil, "wallet_addEthereumChain", params)
}

// txArgs mirrors the eth_sendTransaction object; unset fields are omitted so
// the wallet fills them.
type txArgs struct {
	From     *common.Address `json:"from,omitempty"`
	To       *common.Address `json:"to,omitempty"`
	Gas      *hexutil.Uint64 `json:"gas,omitempty"`
	GasPrice *hexutil.Big    `json:"gasPrice,omitempty"`
	Value    *hexutil.Big    `json:"value,omitempty"`
	Data     hexutil.Bytes   `json:"data,omitempty"`
}

func toTxArgs(msg ethereum.CallMsg) txArgs {
	args := txArgs{To: msg.To, Data: msg.Data}
	if msg.From != (common.Address{}) {
		from := msg.From
		args.From = &from
	}
	if msg.Gas != 0 {
		gas := hexutil.Uint64(msg.Gas)
		args.Gas = &gas
	}
	if msg.GasPrice != nil {
		args.GasPrice = (*hexutil.Big)(msg.GasPrice)
	}
	if msg.Value != nil {
		args.Value = (*hexutil.Big)(msg.Value)
	}
	return args
}

func (p *RPCProvider) SendTransaction(ctx context.Context, msg ethereum.CallMsg) (common.Hash, error) {
	var hash common.Hash
	if err := p.client.CallContext(ctx, &hash, "eth_sendTransaction", toTxArgs(msg)); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

func (p *RPCProvider) GasPrice(ctx context.Context) (*big.Int, error) {
	var price hexutil.Big
	if err := p.client.CallContext(ctx, &price, "eth_gasPrice"); err != nil {
		return nil, err
	}
	return (*big.Int)(&price), nil
}

func (p *RPCProvider) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	var gas hexutil.Uint64
	if err := p.client.CallContext(ctx, &gas, "eth_estimateGas", toTxArgs(msg)); err != nil {
		return 0, err
	}
	return uint64(gas), nil
}

func (p *RPCProvider) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt
	if err := p.client.CallContext(ctx, &receipt, "eth_getTransactionReceipt", hash); err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}
