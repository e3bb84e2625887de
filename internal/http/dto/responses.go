package dto

import "github.com/xrp-transfer/backend/internal/chain"

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type CurrencyResponse struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

type ContractResponse struct {
	Address string `json:"address"`
	Method  string `json:"method"`
	Event   string `json:"event"`
}

type NetworkResponse struct {
	ChainID     uint64            `json:"chain_id"`
	ChainIDHex  string            `json:"chain_id_hex"`
	Name        string            `json:"name"`
	RPCURL      string            `json:"rpc_url"`
	ExplorerURL string            `json:"explorer_url,omitempty"`
	Currency    CurrencyResponse  `json:"currency"`
	Contract    *ContractResponse `json:"contract,omitempty"`
}

func NewNetworkResponse(n chain.Network, c *chain.Contract) NetworkResponse {
	resp := NetworkResponse{
		ChainID:     n.ChainID,
		ChainIDHex:  n.ChainIDHex(),
		Name:        n.Name,
		RPCURL:      n.RPCURL,
		ExplorerURL: n.ExplorerURL,
		Currency: CurrencyResponse{
			Name:     n.Currency.Name,
			Symbol:   n.Currency.Symbol,
			Decimals: n.Currency.Decimals,
		},
	}
	if c != nil {
		resp.Contract = &ContractResponse{
			Address: c.Address.Hex(),
			Method:  chain.TransferMethod,
			Event:   chain.TransferEvent,
		}
	}
	return resp
}
