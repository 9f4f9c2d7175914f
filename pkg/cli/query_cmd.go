package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type queryResultPayload struct {
	ID     string `json:"id"`
	Result struct {
		Columns   []string                 `json:"columns"`
		Rows      []map[string]interface{} `json:"rows"`
		RowCount  int                      `json:"rowCount"`
		ElapsedMs int64                    `json:"elapsedMs"`
		Truncated bool                     `json:"truncated"`
		Cancelled bool                     `json:"cancelled"`
		Error     *struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	} `json:"result"`
}

func newQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <sql>",
		Short: "Run one SQL statement against the configured server",
		Example: `  gridsync query "SELECT * FROM users LIMIT 10"
  gridsync query "UPDATE flags SET enabled = true" --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := json.Marshal(map[string]string{"sql": args[0]})
			if err != nil {
				return err
			}

			resp, err := http.Post(serverURL(cmd)+"/v1/query", "application/json", bytes.NewReader(body))
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

			var out queryResultPayload
			if err := json.Unmarshal(payload, &out); err != nil {
				return err
			}
			res := out.Result
			if res.Error != nil {
				if res.Cancelled {
					return fmt.Errorf("%s", res.Error.Message)
				}
				return fmt.Errorf("%s (code %s)", res.Error.Message, res.Error.Code)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, c := range res.Columns {
				fmt.Fprintf(w, "%s\t", c)
			}
			fmt.Fprintln(w)
			for _, row := range res.Rows {
				for _, c := range res.Columns {
					v := row[c]
					if v == nil {
						v = "NULL"
					}
					fmt.Fprintf(w, "%v\t", v)
				}
				fmt.Fprintln(w)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Printf("(%d rows", res.RowCount)
			if res.Truncated {
				fmt.Printf(", showing first %d", len(res.Rows))
			}
			fmt.Printf(", %dms)\n", res.ElapsedMs)
			return nil
		},
	}
}
