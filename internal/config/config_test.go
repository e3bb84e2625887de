package config

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/xrp-transfer/backend/internal/chain"
	"go.uber.org/zap"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"NETWORK_RPC_URL", "NETWORK_CHAIN_ID", "NATIVE_CURRENCY_DECIMALS",
		"TRANSFER_CONTRACT_ADDRESS", "WALLET_PRIVATE_KEY", "RECEIPT_POLL_INTERVAL_MS",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Network() != chain.Porcini {
		t.Errorf("network = %+v, want Porcini", cfg.Network())
	}
	if cfg.ReceiptPollInterval != 2*time.Second {
		t.Errorf("poll interval = %s", cfg.ReceiptPollInterval)
	}
	contract, err := cfg.TransferContract()
	if err != nil {
		t.Fatal(err)
	}
	if contract.Address != common.HexToAddress(chain.DefaultTransferContract) {
		t.Errorf("contract = %s", contract.Address.Hex())
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("NETWORK_CHAIN_ID", "7668")
	t.Setenv("NATIVE_CURRENCY_DECIMALS", "6")
	t.Setenv("WALLET_PRIVATE_KEY", "0xabcdef")
	t.Setenv("RECEIPT_POLL_INTERVAL_MS", "250")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, ,https://b.example")

	cfg := Load()
	if cfg.NetworkChainID != 7668 || cfg.Network().ChainIDHex() != "0x1df4" {
		t.Errorf("chain id = %d", cfg.NetworkChainID)
	}
	if cfg.CurrencyDecimals != 6 {
		t.Errorf("decimals = %d", cfg.CurrencyDecimals)
	}
	if cfg.WalletPrivateKey != "abcdef" {
		t.Errorf("private key prefix not stripped: %q", cfg.WalletPrivateKey)
	}
	if cfg.ReceiptPollInterval != 250*time.Millisecond {
		t.Errorf("poll interval = %s", cfg.ReceiptPollInterval)
	}
	if len(cfg.CORSAllowOrigins) != 2 {
		t.Errorf("origins = %v", cfg.CORSAllowOrigins)
	}
}

func TestTransferContract_Invalid(t *testing.T) {
	cfg := &Config{TransferContractAddress: "not-an-address"}
	if _, err := cfg.TransferContract(); err == nil {
		t.Fatal("expected error")
	}
}

func TestValidate_FixesRanges(t *testing.T) {
	cfg := &Config{CurrencyDecimals: 99}
	cfg.Validate(zap.NewNop())
	if cfg.CurrencyDecimals != 18 {
		t.Errorf("decimals = %d", cfg.CurrencyDecimals)
	}
	if cfg.NetworkChainID != chain.Porcini.ChainID {
		t.Errorf("chain id = %d", cfg.NetworkChainID)
	}
}

func TestLoad_ChainIDForms(t *testing.T) {
	tests := []struct {
		value string
		want  uint64
	}{
		{"7672", 7672},
		{"0x1df8", 7672},
		{"0X1DF8", 7672},
		{"-1", chain.Porcini.ChainID},
		{"porcini", chain.Porcini.ChainID},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("NETWORK_CHAIN_ID", tt.value)
			cfg := Load()
			cfg.Validate(zap.NewNop())
			if cfg.NetworkChainID != tt.want {
				t.Errorf("chain id = %d, want %d", cfg.NetworkChainID, tt.want)
			}
		})
	}
}
