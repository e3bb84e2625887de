package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
)

// EIP-1193 / EIP-3326 provider error codes.
const (
	CodeUserRejected      = 4001
	CodeUnauthorized      = 4100
	CodeUnsupportedMethod = 4200
	CodeDisconnected      = 4900
	CodeChainDisconnected = 4901
	CodeUnrecognizedChain = 4902
)

// Provider is the wallet boundary: account custody, signing and chain
// selection. Implementations talk to the chain on behalf of the caller.
type Provider interface {
	// RequestAccounts asks the wallet to authorize accounts (eth_requestAccounts).
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	// Accounts lists already authorized accounts (eth_accounts).
	Accounts(ctx context.Context) ([]common.Address, error)
	// SwitchChain selects the active chain by hex chain ID (wallet_switchEthereumChain).
	SwitchChain(ctx context.Context, chainID string) error
	// AddChain registers a chain with the wallet (wallet_addEthereumChain).
	AddChain(ctx context.Context, params AddChainParams) error
	// SendTransaction signs and broadcasts msg, returning the tx hash.
	// Gas or GasPrice left zero/nil are filled in by the wallet.
	SendTransaction(ctx context.Context, msg ethereum.CallMsg) (common.Hash, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	// TransactionReceipt returns ethereum.NotFound while the tx is pending.
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// AddChainParams is the EIP-3085 wallet_addEthereumChain parameter object.
type AddChainParams struct {
	ChainID           string         `json:"chainId"`
	ChainName         string         `json:"chainName"`
	RPCURLs           []string       `json:"rpcUrls"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls,omitempty"`
}

type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// ProviderError is a coded wallet error. It satisfies rpc.Error so codes
// coming from a remote wallet and from KeyProvider are matched the same way.
type ProviderError struct {
	Code    int
	Message string
}

var _ rpc.Error = (*ProviderError)(nil)

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

func (e *ProviderError) ErrorCode() int { return e.Code }

// ErrorCode extracts a provider error code from anywhere in err's chain.
func ErrorCode(err error) (int, bool) {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.ErrorCode(), true
	}
	return 0, false
}

// IsUnrecognizedChain reports whether the wallet does not know the requested chain.
func IsUnrecognizedChain(err error) bool {
	code, ok := ErrorCode(err)
	return ok && code == CodeUnrecognizedChain
}
