package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

var (
	nodeURL   string
	authToken string
)

var rootCmd = &cobra.Command{
	Use:   "medledger",
	Short: "medledger client CLI",
	Long:  "A command-line tool for validating and submitting transactions and blocks against a medledger node.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&nodeURL, "node", "http://localhost:8080", "node API base URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "bearer token for submission endpoints")
	rootCmd.AddCommand(txValidateCmd, blockValidateCmd, txSubmitCmd, healthCmd)
}

func post(path string, body []byte, withAuth bool) (int, []byte, error) {
	req, err := http.NewRequest(http.MethodPost, nodeURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if withAuth && authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	return resp.StatusCode, data, err
}

func readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(args[0])
}

func printResponse(status int, body []byte) {
	var pretty bytes.Buffer
	if json.Indent(&pretty, body, "", "  ") == nil {
		fmt.Println(pretty.String())
	} else {
		fmt.Println(string(body))
	}
	if status >= 400 {
		os.Exit(1)
	}
}

var txValidateCmd = &cobra.Command{
	Use:   "tx-validate [file]",
	Short: "Validate a transaction JSON file (or stdin) against the node",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := readInput(args)
		if err != nil {
			return err
		}
		status, resp, err := post("/api/v1/tx/validate", body, false)
		if err != nil {
			return err
		}
		printResponse(status, resp)
		return nil
	},
}

var blockValidateCmd = &cobra.Command{
	Use:   "block-validate [file]",
	Short: "Validate a block JSON file (or stdin) against the node",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := readInput(args)
		if err != nil {
			return err
		}
		status, resp, err := post("/api/v1/block/validate", body, false)
		if err != nil {
			return err
		}
		printResponse(status, resp)
		return nil
	},
}

var txSubmitCmd = &cobra.Command{
	Use:   "tx-submit [file]",
	Short: "Submit a signed transaction to the node mempool",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := readInput(args)
		if err != nil {
			return err
		}
		status, resp, err := post("/api/v1/tx", body, true)
		if err != nil {
			return err
		}
		printResponse(status, resp)
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Query node health and metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Get(nodeURL + "/metrics")
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		printResponse(resp.StatusCode, data)
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
