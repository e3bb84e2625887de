package chain

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/xrp-transfer/backend/internal/wallet"
)

// DirectTransferGas is the intrinsic gas of a plain value transfer.
const DirectTransferGas uint64 = 21000

// GasMarginPercent is added on top of every contract-call gas estimate.
const GasMarginPercent = 20

type Currency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// Network identifies the target chain. It is only used to configure the
// wallet and is not checked against live node responses here.
type Network struct {
	ChainID     uint64   `json:"chain_id"`
	Name        string   `json:"name"`
	RPCURL      string   `json:"rpc_url"`
	ExplorerURL string   `json:"explorer_url"`
	Currency    Currency `json:"currency"`
}

// Porcini is The Root Network testnet.
var Porcini = Network{
	ChainID:     7672,
	Name:        "The Root Network Testnet (Porcini)",
	RPCURL:      "https://porcini.rootnet.app/archive",
	ExplorerURL: "https://explorer.porcini.rootnet.app",
	Currency:    Currency{Name: "XRP", Symbol: "XRP", Decimals: 18},
}

// ChainIDHex returns the chain ID in the 0x-prefixed form wallets expect ("0x1df8").
func (n Network) ChainIDHex() string {
	return hexutil.EncodeUint64(n.ChainID)
}

func (n Network) AddChainParams() wallet.AddChainParams {
	params := wallet.AddChainParams{
		ChainID:   n.ChainIDHex(),
		ChainName: n.Name,
		RPCURLs:   []string{n.RPCURL},
		NativeCurrency: wallet.NativeCurrency{
			Name:     n.Currency.Name,
			Symbol:   n.Currency.Symbol,
			Decimals: n.Currency.Decimals,
		},
	}
	if n.ExplorerURL != "" {
		params.BlockExplorerURLs = []string{n.ExplorerURL}
	}
	return params
}

// PadGasLimit returns ceil(estimate * (100+GasMarginPercent) / 100).
func PadGasLimit(estimate uint64) uint64 {
	const scale = 100 + GasMarginPercent
	return (estimate*scale + 99) / 100
}
