package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
	actor   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dealerpool-cli",
		Short: "DealerPool CLI tool",
		Long:  `A command line interface for operating the DealerPool API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the DealerPool API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", "", "Operator identity recorded in the audit trail")

	// Pool commands
	poolCmd := &cobra.Command{
		Use:   "pool",
		Short: "Assignment pool operations",
	}

	poolListCmd := &cobra.Command{
		Use:   "list",
		Short: "List withdrawals waiting for assignment",
		Run: func(cmd *cobra.Command, args []string) {
			get("/api/v1/admin/pool/")
		},
	}

	assignCmd := &cobra.Command{
		Use:   "assign <transaction-id> <dealer-id>",
		Short: "Assign a pooled withdrawal to a dealer",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			post("/api/v1/admin/pool/"+args[0]+"/assign", map[string]any{"dealer_id": args[1]})
		},
	}

	poolCmd.AddCommand(poolListCmd, assignCmd)
	rootCmd.AddCommand(poolCmd)

	// Transaction commands
	txCmd := &cobra.Command{
		Use:   "tx",
		Short: "Transaction operations",
	}

	approveCmd := &cobra.Command{
		Use:   "approve <transaction-id>",
		Short: "Approve a pending transaction",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			payoutAccount, _ := cmd.Flags().GetString("payout-account")
			receiptRef, _ := cmd.Flags().GetString("receipt")
			post("/api/v1/admin/transactions/"+args[0]+"/approve", map[string]any{
				"payout_account": payoutAccount,
				"receipt_ref":    receiptRef,
			})
		},
	}
	approveCmd.Flags().String("payout-account", "", "Bank account the payout was sent from")
	approveCmd.Flags().String("receipt", "", "Reference to the payout receipt")

	rejectCmd := &cobra.Command{
		Use:   "reject <transaction-id> <reason>",
		Short: "Reject a pending transaction",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			post("/api/v1/admin/transactions/"+args[0]+"/reject", map[string]any{"reason": args[1]})
		},
	}

	requeueCmd := &cobra.Command{
		Use:   "requeue <transaction-id>",
		Short: "Reopen a rejected transaction for a fresh decision",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			post("/api/v1/admin/transactions/"+args[0]+"/requeue", nil)
		},
	}

	returnCmd := &cobra.Command{
		Use:   "return <transaction-id>",
		Short: "Return a pending withdrawal to the assignment pool",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			post("/api/v1/admin/transactions/"+args[0]+"/return-to-pool", nil)
		},
	}

	txCmd.AddCommand(approveCmd, rejectCmd, requeueCmd, returnCmd)
	rootCmd.AddCommand(txCmd)

	// Dealer commands
	dealerCmd := &cobra.Command{
		Use:   "dealer",
		Short: "Dealer operations",
	}

	dealerListCmd := &cobra.Command{
		Use:   "list",
		Short: "List dealers",
		Run: func(cmd *cobra.Command, args []string) {
			get("/api/v1/dealers/")
		},
	}

	dealerGetCmd := &cobra.Command{
		Use:   "get <dealer-id>",
		Short: "Show a dealer",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			get("/api/v1/dealers/" + args[0])
		},
	}

	refreshCmd := &cobra.Command{
		Use:   "refresh-balance <dealer-id>",
		Short: "Recompute a dealer's balance from its approved transactions",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			post("/api/v1/dealers/"+args[0]+"/refresh-balance", nil)
		},
	}

	dealerCmd.AddCommand(dealerListCmd, dealerGetCmd, refreshCmd)
	rootCmd.AddCommand(dealerCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func get(path string) {
	client := &http.Client{Timeout: timeout}
	req, err := http.NewRequest(http.MethodGet, baseURL+path, nil)
	if err != nil {
		fmt.Printf("Error building request: %v\n", err)
		os.Exit(1)
	}

	do(client, req)
}

func post(path string, payload map[string]any) {
	client := &http.Client{Timeout: timeout}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			fmt.Printf("Error encoding request: %v\n", err)
			os.Exit(1)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+path, body)
	if err != nil {
		fmt.Printf("Error building request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")

	do(client, req)
}

func do(client *http.Client, req *http.Request) {
	if actor != "" {
		req.Header.Set("X-Actor-ID", actor)
	}

	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		fmt.Printf("Request FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	printBody(body)
}

// printBody pretty-prints JSON responses and falls back to raw output
// for anything that does not parse.
func printBody(body []byte) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return
	}

	fmt.Println(pretty.String())
}
