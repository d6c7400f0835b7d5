package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/akib4796/omnishop-manager-sub000/internal/adapter/http/dto"
	"github.com/akib4796/omnishop-manager-sub000/internal/domain"
	"github.com/akib4796/omnishop-manager-sub000/internal/infrastructure/config"
	"github.com/akib4796/omnishop-manager-sub000/internal/infrastructure/logger"
	"github.com/akib4796/omnishop-manager-sub000/internal/infrastructure/postgres"
)

var (
	baseURL string
	tenant  string
	timeout time.Duration
)

// migration runners, swapped in tests
var (
	migrateUp   = postgres.RunMigrations
	migrateDown = postgres.RunMigrationsDown
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "omnishop-cli",
		Short:         "Omnishop ledger CLI tool",
		Long:          `A command line interface for the Omnishop credit ledger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the ledger API")
	rootCmd.PersistentFlags().StringVar(&tenant, "tenant", "", "Tenant ID")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		allocateCmd(),
		classifyCmd(),
		balanceCmd(),
		statementCmd(),
		payCmd(),
		shiftCmd(),
		migrateCmd(),
	)
	return rootCmd
}

// allocateCmd runs the FIFO allocator over a local JSON file shaped like the
// preview request body.
func allocateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "allocate <file>",
		Short: "Preview a FIFO payment allocation offline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			var req dto.PreviewAllocationRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			if err := req.Validate(); err != nil {
				return err
			}

			result, err := domain.Allocate(req.ToDomain(), req.Payment)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dto.AllocationResultFromDomain(result))
		},
	}
}

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <amount-paid> <total>",
		Short: "Classify the payment status of an obligation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			paid, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("invalid amount paid: %w", err)
			}
			total, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid total: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), domain.ClassifyPayment(paid, total))
			return nil
		},
	}
}

func balanceCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "balance <entity-id>",
		Short: "Show the outstanding balance of a customer or supplier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{"kind": {kind}}
			return apiCall(cmd, http.MethodGet, entityPath(args[0], "balance")+"?"+q.Encode(), nil)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "sale", "Obligation kind: sale or purchase_order")
	return cmd
}

func statementCmd() *cobra.Command {
	var (
		kind   string
		strict bool
	)
	cmd := &cobra.Command{
		Use:   "statement <entity-id>",
		Short: "Show the open obligations behind an entity balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{"kind": {kind}}
			if strict {
				q.Set("strict", "true")
			}
			return apiCall(cmd, http.MethodGet, entityPath(args[0], "statement")+"?"+q.Encode(), nil)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "sale", "Obligation kind: sale or purchase_order")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on ambiguous fuzzy matches")
	return cmd
}

func payCmd() *cobra.Command {
	var req dto.ReceivePaymentRequest
	var amount string
	cmd := &cobra.Command{
		Use:   "pay <entity-id>",
		Short: "Record a payment and allocate it to open obligations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid amount: %w", err)
			}
			req.Amount = parsed
			return apiCall(cmd, http.MethodPost, entityPath(args[0], "payments"), req)
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "Payment amount")
	cmd.Flags().StringVar(&req.Method, "method", domain.MethodCash, "Payment method")
	cmd.Flags().StringVar(&req.Kind, "kind", "sale", "Obligation kind: sale or purchase_order")
	cmd.Flags().StringVar(&req.Note, "note", "", "Free-form note")
	cmd.Flags().BoolVar(&req.RequireFullyApplied, "require-fully-applied", false, "Reject payments that exceed the open balance")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func shiftCmd() *cobra.Command {
	shift := &cobra.Command{
		Use:   "shift",
		Short: "Cash shift operations",
	}

	var userID, opening string
	open := &cobra.Command{
		Use:   "open",
		Short: "Open a cash shift",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			balance, err := decimal.NewFromString(opening)
			if err != nil {
				return fmt.Errorf("invalid opening balance: %w", err)
			}
			return apiCall(cmd, http.MethodPost, tenantPath("shifts"), dto.OpenShiftRequest{
				UserID:         userID,
				OpeningBalance: balance,
			})
		},
	}
	open.Flags().StringVar(&userID, "user", "", "Cashier user ID")
	open.Flags().StringVar(&opening, "opening-balance", "0", "Cash in the drawer at open")
	_ = open.MarkFlagRequired("user")

	var actual string
	closeCmd := &cobra.Command{
		Use:   "close <shift-id>",
		Short: "Close a cash shift with the counted cash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			counted, err := decimal.NewFromString(actual)
			if err != nil {
				return fmt.Errorf("invalid actual balance: %w", err)
			}
			return apiCall(cmd, http.MethodPost, tenantPath("shifts", args[0], "close"), dto.CloseShiftRequest{
				ActualBalance: counted,
			})
		},
	}
	closeCmd.Flags().StringVar(&actual, "actual", "", "Counted cash in the drawer")
	_ = closeCmd.MarkFlagRequired("actual")

	shift.AddCommand(open, closeCmd)
	return shift
}

func migrateCmd() *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Database schema migrations",
	}

	run := func(fn func(string, zerolog.Logger) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logr := logger.NewWithWriter(logger.Config{Level: cfg.LogLevel, Format: "console"}, cmd.ErrOrStderr())
			return fn(cfg.DatabaseURL, logr)
		}
	}

	migrate.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply all pending migrations", Args: cobra.NoArgs, RunE: run(migrateUp)},
		&cobra.Command{Use: "down", Short: "Revert all migrations", Args: cobra.NoArgs, RunE: run(migrateDown)},
	)
	return migrate
}

func tenantPath(parts ...string) string {
	p := "/api/v1/tenants/" + url.PathEscape(tenant)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

func entityPath(entityID, action string) string {
	return tenantPath("entities", entityID, action)
}

// apiCall sends body as JSON and pretty-prints the response.
func apiCall(cmd *cobra.Command, method, path string, body any) error {
	if tenant == "" {
		return fmt.Errorf("--tenant is required")
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(cmd.Context(), method, baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), out)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
