package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type historyPayload struct {
	Entries []struct {
		ID         int64  `json:"id"`
		SQL        string `json:"sql"`
		Status     string `json:"status"`
		DurationMs int64  `json:"durationMs"`
		RowCount   int    `json:"rowCount"`
		CreatedAt  string `json:"createdAt"`
	} `json:"entries"`
	Total int64 `json:"total"`
}

func newHistoryCmd() *cobra.Command {
	var status string
	var maxResults int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded query executions",
		Example: `  gridsync history
  gridsync history --status ERROR --max-results 20`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params := url.Values{}
			if status != "" {
				params.Set("status", status)
			}
			if maxResults > 0 {
				params.Set("maxResults", fmt.Sprint(maxResults))
			}

			u := serverURL(cmd) + "/v1/history"
			if len(params) > 0 {
				u += "?" + params.Encode()
			}
			resp, err := http.Get(u)
			if err != nil {
				return err
			}
			defer resp.Body.Close() //nolint:errcheck

			payload, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("server returned %s: %s", resp.Status, payload)
			}

			if outputFormat(cmd) == "json" {
				fmt.Println(string(payload))
				return nil
			}

			var out historyPayload
			if err := json.Unmarshal(payload, &out); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tROWS\tMS\tCREATED\tSQL")
			for _, e := range out.Entries {
				sqlText := e.SQL
				if len(sqlText) > 60 {
					sqlText = sqlText[:57] + "..."
				}
				fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\t%s\n",
					e.ID, e.Status, e.RowCount, e.DurationMs, e.CreatedAt, sqlText)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Printf("(%d total)\n", out.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (OK, ERROR, CANCELLED)")
	cmd.Flags().IntVar(&maxResults, "max-results", 0, "Maximum entries to return")

	return cmd
}
