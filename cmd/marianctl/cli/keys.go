package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/marian-search/marian/internal/auth/apikey"
	"github.com/marian-search/marian/pkg/config"
	"github.com/marian-search/marian/pkg/postgres"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage API keys",
}

var keysCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new API key and print it once",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysCreate,
}

var keysRevokeCmd = &cobra.Command{
	Use:   "revoke <raw-key>",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysRevoke,
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active API keys",
	RunE:  runKeysList,
}

func init() {
	keysCreateCmd.Flags().Int("rate-limit", 60, "requests per minute allowed for this key")
	keysCreateCmd.Flags().Duration("ttl", 0, "key lifetime; zero means it never expires")
	keysCreateCmd.Flags().String("properties", "", "comma-separated searchProperty tags this key may refresh; empty means unrestricted")

	keysCmd.AddCommand(keysCreateCmd)
	keysCmd.AddCommand(keysRevokeCmd)
	keysCmd.AddCommand(keysListCmd)
}

func openValidator(cmd *cobra.Command) (*apikey.Validator, *postgres.Client, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return apikey.NewValidator(db), db, nil
}

func runKeysCreate(cmd *cobra.Command, args []string) error {
	validator, db, err := openValidator(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	rateLimit, _ := cmd.Flags().GetInt("rate-limit")
	ttl, _ := cmd.Flags().GetDuration("ttl")
	propertiesFlag, _ := cmd.Flags().GetString("properties")

	var expiresAt *time.Time
	if ttl > 0 {
		t := time.Now().Add(ttl)
		expiresAt = &t
	}

	var allowedProperties []string
	if propertiesFlag != "" {
		for _, p := range strings.Split(propertiesFlag, ",") {
			if p = strings.TrimSpace(p); p != "" {
				allowedProperties = append(allowedProperties, p)
			}
		}
	}

	rawKey, err := validator.CreateKey(context.Background(), args[0], rateLimit, expiresAt, allowedProperties)
	if err != nil {
		return fmt.Errorf("creating key: %w", err)
	}

	fmt.Println("key created, this is the only time it will be shown:")
	fmt.Println(rawKey)
	return nil
}

func runKeysRevoke(cmd *cobra.Command, args []string) error {
	validator, db, err := openValidator(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := validator.RevokeKey(context.Background(), args[0]); err != nil {
		return fmt.Errorf("revoking key: %w", err)
	}
	fmt.Println("key revoked")
	return nil
}

func runKeysList(cmd *cobra.Command, args []string) error {
	validator, db, err := openValidator(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	keys, err := validator.ListKeys(context.Background())
	if err != nil {
		return fmt.Errorf("listing keys: %w", err)
	}

	if len(keys) == 0 {
		fmt.Println("no active keys")
		return nil
	}
	for _, k := range keys {
		expiry := "never"
		if k.ExpiresAt != nil {
			expiry = k.ExpiresAt.Format(time.RFC3339)
		}
		properties := "*"
		if len(k.AllowedProperties) > 0 {
			properties = strings.Join(k.AllowedProperties, ",")
		}
		fmt.Printf("%-36s %-20s limit=%-5d properties=%-20s created=%s expires=%s\n",
			k.ID, k.Name, k.RateLimit, properties, k.CreatedAt.Format(time.RFC3339), expiry)
	}
	return nil
}
