package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-letters/app/auth"
	"github.com/vibast-solutions/ms-go-letters/config"
)

var (
	tokenUID      string
	tokenEmail    string
	tokenAdmin    bool
	tokenValidity time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token signed with AUTH_JWT_SECRET",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.LoadAuth()
		if cfg.JWTSecret == "" {
			return errors.New("AUTH_JWT_SECRET is not set")
		}

		token, err := auth.NewAuthenticator(cfg.JWTSecret, false).GenerateToken(&auth.User{
			UID:   tokenUID,
			Email: tokenEmail,
			Admin: tokenAdmin,
		}, tokenValidity)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
		return err
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().StringVar(&tokenUID, "uid", "", "Subject user id")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "User email")
	tokenCmd.Flags().BoolVar(&tokenAdmin, "admin", false, "Grant the admin claim")
	tokenCmd.Flags().DurationVar(&tokenValidity, "ttl", time.Hour, "Token validity")
	_ = tokenCmd.MarkFlagRequired("uid")
}
