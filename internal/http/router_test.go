package http

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/xrp-transfer/backend/internal/chain"
	"github.com/xrp-transfer/backend/internal/config"
	"github.com/xrp-transfer/backend/internal/events"
	"github.com/xrp-transfer/backend/internal/http/handlers"
	"github.com/xrp-transfer/backend/internal/models"
	"github.com/xrp-transfer/backend/internal/transfer"
	"github.com/xrp-transfer/backend/internal/wallet"
	"go.uber.org/zap"
)

// blockingWallet holds eth_requestAccounts until release is closed.
type blockingWallet struct {
	release chan struct{}
}

func (w *blockingWallet) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	select {
	case <-w.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return w.Accounts(ctx)
}

func (w *blockingWallet) Accounts(ctx context.Context) ([]common.Address, error) {
	return []common.Address{common.HexToAddress("0x1111111111111111111111111111111111111111")}, nil
}

func (w *blockingWallet) SwitchChain(ctx context.Context, chainID string) error { return nil }

func (w *blockingWallet) AddChain(ctx context.Context, params wallet.AddChainParams) error {
	return nil
}

func (w *blockingWallet) SendTransaction(ctx context.Context, msg ethereum.CallMsg) (common.Hash, error) {
	return common.Hash{}, nil
}

func (w *blockingWallet) GasPrice(ctx context.Context) (*big.Int, error) { return big.NewInt(1), nil }

func (w *blockingWallet) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return 21000, nil
}

func (w *blockingWallet) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return nil, ethereum.NotFound
}

type stubAudit struct {
	byOperation uuid.UUID
	offset      int
}

func (s *stubAudit) ListByOperation(ctx context.Context, id uuid.UUID, limit int) ([]models.AuditLog, error) {
	s.byOperation = id
	return []models.AuditLog{{Action: "transfer_confirmed", EntityID: &id}}, nil
}

func (s *stubAudit) Recent(ctx context.Context, limit, offset int) ([]models.AuditLog, error) {
	s.offset = offset
	return []models.AuditLog{{Action: "wallet_connected"}}, nil
}

type testEnv struct {
	app   *fiber.App
	ctrl  *transfer.Controller
	audit *stubAudit
}

func newTestEnv(t *testing.T, provider wallet.Provider) *testEnv {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := zap.NewNop()
	cfg := &config.Config{CORSAllowOrigins: []string{"*"}}
	contract, err := chain.NewTransferContract(chain.DefaultTransferContract)
	if err != nil {
		t.Fatal(err)
	}
	bus := events.NewMemoryBus(log)
	ctrl := transfer.NewController(provider, chain.Porcini, contract, bus, nil, time.Millisecond, log)
	audit := &stubAudit{}

	app := fiber.New()
	SetupRouter(app, cfg, log, nil,
		handlers.NewTransferHandler(ctx, ctrl, log),
		handlers.NewAuditHandler(audit, log),
		handlers.NewWSHub(cfg, bus, nil, log),
	)
	return &testEnv{app: app, ctrl: ctrl, audit: audit}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestRouter_NetworkAndState(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body := env.do(t, "GET", "/api/v1/network", "")
	if status != fiber.StatusOK {
		t.Fatalf("status = %d", status)
	}
	data := body["data"].(map[string]any)
	if data["chain_id_hex"] != "0x1df8" {
		t.Errorf("chain_id_hex = %v", data["chain_id_hex"])
	}
	if data["contract"] == nil {
		t.Error("contract missing")
	}

	status, body = env.do(t, "GET", "/api/v1/state", "")
	if status != fiber.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body["data"].(map[string]any)["is_connected"] != false {
		t.Errorf("state = %v", body["data"])
	}
}

func TestRouter_UpdateForm(t *testing.T) {
	env := newTestEnv(t, nil)

	status, _ := env.do(t, "PUT", "/api/v1/form", `{"recipient":"0x2222222222222222222222222222222222222222","amount":"1.5"}`)
	if status != fiber.StatusOK {
		t.Fatalf("status = %d", status)
	}
	s := env.ctrl.State()
	if s.Amount != "1.5" || s.Recipient == "" {
		t.Errorf("form not updated: %+v", s)
	}

	status, _ = env.do(t, "PUT", "/api/v1/form", `{"amount":"2"}`)
	if status != fiber.StatusOK || env.ctrl.State().Recipient == "" || env.ctrl.State().Amount != "2" {
		t.Errorf("partial update failed: %d %+v", status, env.ctrl.State())
	}

	if status, _ := env.do(t, "PUT", "/api/v1/form", `{}`); status != fiber.StatusBadRequest {
		t.Errorf("empty update status = %d", status)
	}
}

func TestRouter_ConnectWithoutWallet(t *testing.T) {
	env := newTestEnv(t, nil)

	status, _ := env.do(t, "POST", "/api/v1/wallet/connect", "")
	if status != fiber.StatusAccepted {
		t.Fatalf("status = %d", status)
	}

	deadline := time.Now().Add(2 * time.Second)
	for env.ctrl.State().InFlight.Connect {
		if time.Now().After(deadline) {
			t.Fatal("connect did not finish")
		}
		time.Sleep(time.Millisecond)
	}
	s := env.ctrl.State()
	if s.LastError == nil || s.LastError.Kind != transfer.KindWalletNotFound {
		t.Errorf("last error = %+v", s.LastError)
	}
}

func TestRouter_ConflictWhileInFlight(t *testing.T) {
	w := &blockingWallet{release: make(chan struct{})}
	env := newTestEnv(t, w)
	defer close(w.release)

	if status, _ := env.do(t, "POST", "/api/v1/wallet/connect", ""); status != fiber.StatusAccepted {
		t.Fatalf("first connect status = %d", status)
	}
	if status, _ := env.do(t, "POST", "/api/v1/wallet/connect", ""); status != fiber.StatusConflict {
		t.Fatalf("second connect status = %d", status)
	}
}

func TestRouter_Audit(t *testing.T) {
	env := newTestEnv(t, nil)

	if status, _ := env.do(t, "GET", "/api/v1/audit", ""); status != fiber.StatusOK {
		t.Errorf("recent status = %d", status)
	}

	id := uuid.New()
	if status, _ := env.do(t, "GET", "/api/v1/audit?operation_id="+id.String(), ""); status != fiber.StatusOK {
		t.Errorf("by operation status = %d", status)
	}
	if env.audit.byOperation != id {
		t.Errorf("queried %s, want %s", env.audit.byOperation, id)
	}

	if status, _ := env.do(t, "GET", "/api/v1/audit?operation_id=nope", ""); status != fiber.StatusBadRequest {
		t.Errorf("bad id status = %d", status)
	}
}

func TestRouter_AuditNegativeOffset(t *testing.T) {
	env := newTestEnv(t, nil)

	if status, _ := env.do(t, "GET", "/api/v1/audit?offset=-5", ""); status != fiber.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if env.audit.offset != 0 {
		t.Errorf("offset = %d, want 0", env.audit.offset)
	}
}

func TestRouter_WSRequiresUpgrade(t *testing.T) {
	env := newTestEnv(t, nil)
	if status, _ := env.do(t, "GET", "/ws", ""); status != fiber.StatusUpgradeRequired {
		t.Errorf("status = %d", status)
	}
}
