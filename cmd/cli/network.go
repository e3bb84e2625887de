package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/xrp-transfer/backend/internal/auth"
	"github.com/xrp-transfer/backend/internal/http/dto"
)

var (
	tokenOperator string
	tokenTTL      time.Duration
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Print the configured network and transfer contract",
	RunE: func(cmd *cobra.Command, args []string) error {
		contract, err := cfg.TransferContract()
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(dto.NewNetworkResponse(cfg.Network(), contract))
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an API token signed with API_JWT_SECRET",
	RunE: func(cmd *cobra.Command, args []string) error {
		ttl := tokenTTL
		if ttl <= 0 {
			ttl = cfg.JWTExpiration
		}
		token, err := auth.GenerateJWT(cfg.APIJWTSecret, tokenOperator, ttl)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
		return err
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenOperator, "operator", "cli", "operator name written to the token")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime, defaults to JWT_EXPIRATION_HOURS")
}
