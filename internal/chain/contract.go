package chain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const (
	TransferMethod = "transferXRP"
	TransferEvent  = "XRPTransferred"
)

// DefaultTransferContract is the SimpleXRPTransfer deployment on Porcini.
const DefaultTransferContract = "0xb9E605B6650Eee651698d03767736d8967c25365"

// TransferABI is the SimpleXRPTransfer interface.
const TransferABI = `[
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "internalType": "address", "name": "from", "type": "address"},
			{"indexed": true, "internalType": "address", "name": "to", "type": "address"},
			{"indexed": false, "internalType": "uint256", "name": "amount", "type": "uint256"}
		],
		"name": "XRPTransferred",
		"type": "event"
	},
	{
		"inputs": [
			{"internalType": "address payable", "name": "_recipient", "type": "address"}
		],
		"name": "transferXRP",
		"outputs": [],
		"stateMutability": "payable",
		"type": "function"
	}
]`

type Contract struct {
	Address common.Address
	ABI     abi.ABI
}

func NewTransferContract(address string) (*Contract, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid contract address: %q", address)
	}
	parsed, err := abi.JSON(strings.NewReader(TransferABI))
	if err != nil {
		return nil, fmt.Errorf("parse transfer abi: %w", err)
	}
	return &Contract{Address: common.HexToAddress(address), ABI: parsed}, nil
}

// PackTransfer encodes the calldata for transferXRP(recipient).
func (c *Contract) PackTransfer(recipient common.Address) ([]byte, error) {
	return c.ABI.Pack(TransferMethod, recipient)
}
