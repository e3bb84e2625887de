package wallet

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Open picks the provider from configuration: a remote wallet endpoint when
// rpcURL is set, otherwise a local key signer. With neither it returns a nil
// Provider, which callers treat as "no wallet present".
func Open(ctx context.Context, rpcURL, privateKeyHex string, log *zap.Logger) (Provider, func(), error) {
	switch {
	case rpcURL != "":
		p, err := DialRPCProvider(ctx, rpcURL, log)
		if err != nil {
			return nil, func() {}, fmt.Errorf("dial wallet endpoint: %w", err)
		}
		log.Info("using remote wallet", zap.String("url", rpcURL))
		return p, p.Close, nil
	case privateKeyHex != "":
		p, err := NewKeyProviderFromHex(privateKeyHex, log)
		if err != nil {
			return nil, func() {}, err
		}
		log.Info("using local key wallet", zap.String("account", p.Address().Hex()))
		return p, func() {}, nil
	}
	return nil, func() {}, nil
}
