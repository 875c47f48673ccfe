package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the coordinator's manifest and worker pool status",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	baseURL, _ := cmd.Flags().GetString("url")

	resp, err := http.Get(baseURL + "/status")
	if err != nil {
		return fmt.Errorf("requesting status: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading status response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(cmd.ErrOrStderr(), "status endpoint returned %d\n", resp.StatusCode)
	}

	var pretty map[string]any
	if err := json.Unmarshal(body, &pretty); err != nil {
		fmt.Println(string(body))
		return nil
	}
	out, _ := json.MarshalIndent(pretty, "", "  ")
	fmt.Println(string(out))
	return nil
}
