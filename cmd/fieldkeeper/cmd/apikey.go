package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solatis/fieldkeeper/internal/core/auth"
	"github.com/solatis/fieldkeeper/internal/core/config"
)

var apiKeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Issue and revoke API keys",
}

var apiKeyCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Issue a new API key signed with the newest HMAC secret",
	Args:  cobra.ExactArgs(1),
	RunE:  runAPIKeyCreate,
}

var apiKeyRevokeCmd = &cobra.Command{
	Use:   "revoke <api-key-id>",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runAPIKeyRevoke,
}

func init() {
	rootCmd.AddCommand(apiKeyCmd)
	apiKeyCmd.AddCommand(apiKeyCreateCmd, apiKeyRevokeCmd)
}

func newAuthenticator(ctx context.Context) (*auth.Authenticator, func(), error) {
	secrets, err := config.HMACSecrets()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	database, queries, err := openDatabase()
	if err != nil {
		return nil, nil, err
	}
	if err := requireMigrated(ctx, database); err != nil {
		database.Close()
		return nil, nil, err
	}
	return auth.NewAuthenticator(secrets, queries), func() { database.Close() }, nil
}

func runAPIKeyCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	authenticator, closeDB, err := newAuthenticator(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	issued, err := authenticator.IssueKey(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "api_key_id: %s\napi_key:    %s\n", issued.ID, issued.Key)
	fmt.Fprintln(cmd.ErrOrStderr(), "store the key now; it cannot be shown again")
	return nil
}

func runAPIKeyRevoke(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	authenticator, closeDB, err := newAuthenticator(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := authenticator.RevokeKey(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "revoked %s\n", args[0])
	return nil
}
