package wallet

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

type fakeBackend struct {
	chainID  *big.Int
	nonce    uint64
	gasPrice *big.Int
	estimate uint64
	sent     []*types.Transaction
	receipts map[common.Hash]*types.Receipt
	closed   int
}

func (b *fakeBackend) Close() { b.closed++ }

func (b *fakeBackend) ChainID(ctx context.Context) (*big.Int, error) { return b.chainID, nil }

func (b *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return b.nonce, nil
}

func (b *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) { return b.gasPrice, nil }

func (b *fakeBackend) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return b.estimate, nil
}

func (b *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	b.sent = append(b.sent, tx)
	return nil
}

func (b *fakeBackend) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	if r, ok := b.receipts[hash]; ok {
		return r, nil
	}
	return nil, ethereum.NotFound
}

func newTestKeyProvider(t *testing.T, backend *fakeBackend) *KeyProvider {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	return NewKeyProvider(key, zap.NewNop(), WithDialer(func(ctx context.Context, url string) (Backend, error) {
		if url == "http://unreachable" {
			return nil, errors.New("connection refused")
		}
		return backend, nil
	}))
}

func porciniParams() AddChainParams {
	return AddChainParams{
		ChainID:   "0x1df8",
		ChainName: "The Root Network Testnet (Porcini)",
		RPCURLs:   []string{"https://porcini.rootnet.app/archive"},
		NativeCurrency: NativeCurrency{
			Name: "XRP", Symbol: "XRP", Decimals: 18,
		},
	}
}

func TestKeyProvider_SwitchUnknownChain(t *testing.T) {
	p := newTestKeyProvider(t, &fakeBackend{chainID: big.NewInt(7672)})

	err := p.SwitchChain(context.Background(), "0x1df8")
	if err == nil {
		t.Fatal("expected error for unknown chain")
	}
	if !IsUnrecognizedChain(err) {
		t.Fatalf("expected code %d, got %v", CodeUnrecognizedChain, err)
	}
}

func TestKeyProvider_AddThenSwitch(t *testing.T) {
	p := newTestKeyProvider(t, &fakeBackend{chainID: big.NewInt(7672)})
	ctx := context.Background()

	if err := p.AddChain(ctx, porciniParams()); err != nil {
		t.Fatalf("add chain: %v", err)
	}
	if err := p.SwitchChain(ctx, "0x1DF8"); err != nil {
		t.Fatalf("switch after add: %v", err)
	}
}

func TestKeyProvider_AddChainIDMismatch(t *testing.T) {
	backend := &fakeBackend{chainID: big.NewInt(1)}
	p := newTestKeyProvider(t, backend)

	err := p.AddChain(context.Background(), porciniParams())
	if err == nil {
		t.Fatal("expected error for mismatched chain ID")
	}
	if code, ok := ErrorCode(err); !ok || code != codeInvalidParams {
		t.Fatalf("expected invalid params code, got %v", err)
	}
	if backend.closed != 1 {
		t.Errorf("rejected backend closed %d times, want 1", backend.closed)
	}
}

func TestKeyProvider_AddChainClosesRejectedBackends(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	wrong := &fakeBackend{chainID: big.NewInt(1)}
	right := &fakeBackend{chainID: big.NewInt(7672)}
	p := NewKeyProvider(key, zap.NewNop(), WithDialer(func(ctx context.Context, url string) (Backend, error) {
		if url == "https://wrong.example" {
			return wrong, nil
		}
		return right, nil
	}))

	params := porciniParams()
	params.RPCURLs = []string{"https://wrong.example", "https://porcini.rootnet.app/archive"}
	if err := p.AddChain(context.Background(), params); err != nil {
		t.Fatal(err)
	}
	if wrong.closed != 1 {
		t.Errorf("mismatched backend closed %d times, want 1", wrong.closed)
	}
	if right.closed != 0 {
		t.Error("registered backend must stay open")
	}
}

func TestKeyProvider_AddChainFallsBackToNextURL(t *testing.T) {
	p := newTestKeyProvider(t, &fakeBackend{chainID: big.NewInt(7672)})

	params := porciniParams()
	params.RPCURLs = []string{"http://unreachable", "https://porcini.rootnet.app/archive"}
	if err := p.AddChain(context.Background(), params); err != nil {
		t.Fatalf("expected second url to be used, got %v", err)
	}
}

func TestKeyProvider_InvalidChainID(t *testing.T) {
	p := newTestKeyProvider(t, &fakeBackend{chainID: big.NewInt(7672)})

	for _, id := range []string{"", "7672", "0x", "0x0", "0xzz"} {
		if err := p.SwitchChain(context.Background(), id); err == nil {
			t.Errorf("SwitchChain(%q) expected error", id)
		}
	}
}

func TestKeyProvider_SendWithoutChain(t *testing.T) {
	p := newTestKeyProvider(t, &fakeBackend{chainID: big.NewInt(7672)})

	_, err := p.SendTransaction(context.Background(), ethereum.CallMsg{})
	if code, ok := ErrorCode(err); !ok || code != CodeChainDisconnected {
		t.Fatalf("expected chain disconnected, got %v", err)
	}
}

func TestKeyProvider_SendSignsForActiveChain(t *testing.T) {
	backend := &fakeBackend{
		chainID:  big.NewInt(7672),
		nonce:    7,
		gasPrice: big.NewInt(1_000_000_000),
		estimate: 30000,
	}
	p := newTestKeyProvider(t, backend)
	ctx := context.Background()
	if err := p.AddChain(ctx, porciniParams()); err != nil {
		t.Fatal(err)
	}

	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	hash, err := p.SendTransaction(ctx, ethereum.CallMsg{
		From:  p.Address(),
		To:    &to,
		Value: big.NewInt(15),
		Gas:   21000,
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(backend.sent) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(backend.sent))
	}

	tx := backend.sent[0]
	if tx.Hash() != hash {
		t.Errorf("returned hash %s != tx hash %s", hash.Hex(), tx.Hash().Hex())
	}
	if tx.Gas() != 21000 {
		t.Errorf("gas = %d, want 21000", tx.Gas())
	}
	if tx.Nonce() != 7 {
		t.Errorf("nonce = %d, want 7", tx.Nonce())
	}
	if tx.GasPrice().Cmp(backend.gasPrice) != 0 {
		t.Errorf("gas price = %s, want suggested %s", tx.GasPrice(), backend.gasPrice)
	}
	if tx.ChainId().Cmp(big.NewInt(7672)) != 0 {
		t.Errorf("chain id = %s, want 7672", tx.ChainId())
	}

	sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(7672)), tx)
	if err != nil {
		t.Fatal(err)
	}
	if sender != p.Address() {
		t.Errorf("sender = %s, want %s", sender.Hex(), p.Address().Hex())
	}
}

func TestKeyProvider_EstimatesWhenGasUnset(t *testing.T) {
	backend := &fakeBackend{chainID: big.NewInt(7672), gasPrice: big.NewInt(1), estimate: 25800}
	p := newTestKeyProvider(t, backend)
	ctx := context.Background()
	_ = p.AddChain(ctx, porciniParams())

	to := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	if _, err := p.SendTransaction(ctx, ethereum.CallMsg{To: &to, Value: big.NewInt(1)}); err != nil {
		t.Fatal(err)
	}
	if got := backend.sent[0].Gas(); got != 25800 {
		t.Errorf("gas = %d, want estimate 25800", got)
	}
}

func TestKeyProvider_RejectsForeignSender(t *testing.T) {
	p := newTestKeyProvider(t, &fakeBackend{chainID: big.NewInt(7672), gasPrice: big.NewInt(1)})
	ctx := context.Background()
	_ = p.AddChain(ctx, porciniParams())

	_, err := p.SendTransaction(ctx, ethereum.CallMsg{From: common.HexToAddress("0x01"), Gas: 21000})
	if code, ok := ErrorCode(err); !ok || code != CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestNewKeyProviderFromHex(t *testing.T) {
	key, _ := crypto.GenerateKey()
	hexKey := "0x" + common.Bytes2Hex(crypto.FromECDSA(key))

	p, err := NewKeyProviderFromHex(hexKey, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if p.Address() != crypto.PubkeyToAddress(key.PublicKey) {
		t.Error("address mismatch")
	}

	if _, err := NewKeyProviderFromHex("not-a-key", zap.NewNop()); err == nil {
		t.Error("expected error for invalid key")
	}
}
