package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/xrp-transfer/backend/internal/events"
	"github.com/xrp-transfer/backend/internal/transfer"
	"github.com/xrp-transfer/backend/internal/wallet"
)

var (
	sendTo     string
	sendAmount string
	sendDirect bool
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Authorize the wallet and switch it to the configured network",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, done, err := newController(cmd)
		if err != nil {
			return err
		}
		defer done()

		if err := ctrl.Connect(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ctrl.State().Account)
		return nil
	},
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send XRP through the transfer contract, or directly with --direct",
	Example: `  xrp-transfer send --to 0x2222...2222 --amount 1.5
  xrp-transfer send --to 0x2222...2222 --amount 0.01 --direct`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, done, err := newController(cmd)
		if err != nil {
			return err
		}
		defer done()

		ctx := cmd.Context()
		if err := ctrl.Connect(ctx); err != nil {
			return err
		}
		ctrl.SetRecipient(ctx, sendTo)
		ctrl.SetAmount(ctx, sendAmount)

		op := transfer.OpTransferContract
		if sendDirect {
			op = transfer.OpTransferDirect
		}
		if err := ctrl.Run(ctx, op); err != nil {
			return err
		}

		s := ctrl.State()
		if url := ctrl.Network().ExplorerURL; url != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "%s/tx/%s\n", url, s.TxHash)
		}
		return nil
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendTo, "to", "", "recipient address")
	sendCmd.Flags().StringVar(&sendAmount, "amount", "", "amount in whole XRP, e.g. 1.5")
	sendCmd.Flags().BoolVar(&sendDirect, "direct", false, "plain value transfer instead of the contract call")
	_ = sendCmd.MarkFlagRequired("to")
	_ = sendCmd.MarkFlagRequired("amount")
}

// newController wires a controller whose status lines go to stderr.
func newController(cmd *cobra.Command) (*transfer.Controller, func(), error) {
	contract, err := cfg.TransferContract()
	if err != nil {
		return nil, nil, err
	}

	provider, closeWallet, err := wallet.Open(cmd.Context(), cfg.WalletRPCURL, cfg.WalletPrivateKey, log)
	if err != nil {
		return nil, nil, err
	}

	status := &statusPrinter{w: cmd.ErrOrStderr()}
	ctrl := transfer.NewController(provider, cfg.Network(), contract, status, nil, cfg.ReceiptPollInterval, log)
	return ctrl, closeWallet, nil
}

// statusPrinter prints the status line whenever it changes.
type statusPrinter struct {
	w    io.Writer
	last string
}

func (p *statusPrinter) Publish(ctx context.Context, stream string, event events.Event) error {
	msg, _ := event.Payload["status_message"].(string)
	if msg == "" || msg == p.last {
		return nil
	}
	p.last = msg
	if _, err := fmt.Fprintln(p.w, msg); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	return nil
}
