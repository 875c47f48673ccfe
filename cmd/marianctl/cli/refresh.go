package cli

import (
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Trigger a manifest sync cycle",
	RunE:  runRefresh,
}

func init() {
	refreshCmd.Flags().String("property", "", "searchProperty tag this refresh is scoped to (must be in the key's allowed_properties claim, if any)")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	baseURL, _ := cmd.Flags().GetString("url")
	apiKey, _ := cmd.Flags().GetString("api-key")
	property, _ := cmd.Flags().GetString("property")

	target := baseURL + "/refresh"
	if property != "" {
		target += "?property=" + url.QueryEscape(property)
	}

	req, err := http.NewRequest(http.MethodPost, target, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("requesting refresh: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("%d %s\n", resp.StatusCode, string(body))
	return nil
}
