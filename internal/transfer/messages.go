package transfer

import "fmt"

const (
	msgWalletNotFound = "Wallet not found! Configure a wallet provider first."
	msgConnecting     = "Connecting to wallet..."
	msgConnected      = "Wallet connected successfully!"
	msgMissingFields  = "Please enter both a recipient address and an amount!"
	msgNotConnected   = "Please connect your wallet first!"
)

func msgSending(op Operation, amount, symbol string) string {
	if op == OpTransferDirect {
		return fmt.Sprintf("Sending %s %s directly, confirm in your wallet...", amount, symbol)
	}
	return fmt.Sprintf("Sending %s %s, confirm in your wallet...", amount, symbol)
}

func msgTxHash(hash string) string {
	return fmt.Sprintf("Transaction Hash: %s", hash)
}

func msgSucceeded(amount, symbol string, block uint64) string {
	return fmt.Sprintf("Transfer succeeded! Sent %s %s. Block: %d", amount, symbol, block)
}

// statusFor renders the status line for a failed operation.
func statusFor(op Operation, e *Error) string {
	switch e.Kind {
	case KindWalletNotFound, KindValidation, KindNotConnected:
		return e.Message()
	}
	if op == OpConnect {
		return "Connection error: " + e.Message()
	}
	return "Error: " + e.Message()
}
