package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vibast-solutions/ms-go-letters/app/client"
	"github.com/vibast-solutions/ms-go-letters/app/clientstore"
	"github.com/vibast-solutions/ms-go-letters/app/lifecycle"
	"github.com/vibast-solutions/ms-go-letters/app/types"
	"github.com/vibast-solutions/ms-go-letters/config"
)

var (
	draft          types.CreateOrderRequest
	letterFile     string
	payAfterCreate bool
	statusOrderID  string
)

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Order, pay for and track a letter against a running letters API",
}

var clientCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Submit a letter and remember it as the last order",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withClient(cmd, func(ctx context.Context, api *client.Client, store *clientstore.Store, _ *config.ClientConfig) error {
			req := draft
			if letterFile != "" {
				raw, err := readLetter(cmd.InOrStdin(), letterFile)
				if err != nil {
					return err
				}
				req.LetterText = raw
			}

			sub, err := lifecycle.NewComposer(api, store).Submit(ctx, &req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sipariş oluşturuldu.\nSipariş no: %s\nTakip kodu: %s\nSonraki adım: %s\n", sub.OrderID, sub.TrackingCode, sub.Next)
			if !payAfterCreate {
				return nil
			}
			return startCheckout(ctx, cmd, api, sub.OrderID)
		})
	},
}

var clientPayCmd = &cobra.Command{
	Use:   "pay [order_id]",
	Short: "Start checkout for an order (defaults to the last order)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, api *client.Client, store *clientstore.Store, _ *config.ClientConfig) error {
			ref, err := lifecycle.ResolveReference(ctx, firstArg(args), store)
			if err != nil {
				return err
			}
			return startCheckout(ctx, cmd, api, ref.OrderID)
		})
	},
}

var clientStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Wait for the payment result of an order (defaults to the last order)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withClient(cmd, func(ctx context.Context, api *client.Client, store *clientstore.Store, cfg *config.ClientConfig) error {
			ref, err := lifecycle.ResolveReference(ctx, statusOrderID, store)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			poller := lifecycle.NewPoller(api, lifecycle.SystemClock(), cfg.PollInterval, cfg.PollTimeout)
			outcome := poller.Run(ctx, ref, func(s lifecycle.Snapshot) {
				if s.Err != nil {
					fmt.Fprintf(out, "[%s] Sorgulama hatası: %s\n", s.Elapsed.Truncate(time.Second), s.Err)
					return
				}
				fmt.Fprintf(out, "[%s] %s\n", s.Elapsed.Truncate(time.Second), stateLabel(s.State))
			})
			return printOutcome(out, outcome)
		})
	},
}

var clientTrackCmd = &cobra.Command{
	Use:   "track [tracking_code]",
	Short: "Look up an order by tracking code (prompts when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, api *client.Client, _ *clientstore.Store, _ *config.ClientConfig) error {
			code := firstArg(args)
			if code == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Takip kodu: ")
				line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				code = line
			}

			res := lifecycle.NewTracker(api).Lookup(ctx, code)
			switch res.State {
			case lifecycle.TrackNotAttempted:
				return errors.New("Takip kodu girilmedi")
			case lifecycle.TrackFailed:
				return res.Err
			}
			return printJSON(cmd.OutOrStdout(), res.Order)
		})
	},
}

var clientLastCmd = &cobra.Command{
	Use:   "last",
	Short: "Print the remembered last order",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withClient(cmd, func(ctx context.Context, _ *client.Client, store *clientstore.Store, _ *config.ClientConfig) error {
			ref, err := store.LastOrder(ctx)
			if err != nil {
				return err
			}
			if ref == nil {
				return errors.New("Bu cihazda oluşturulmuş sipariş yok")
			}
			return printJSON(cmd.OutOrStdout(), ref)
		})
	},
}

func init() {
	rootCmd.AddCommand(clientCmd)
	clientCmd.AddCommand(clientCreateCmd, clientPayCmd, clientStatusCmd, clientTrackCmd, clientLastCmd)

	f := clientCreateCmd.Flags()
	f.StringVar(&draft.LetterText, "letter", "", "Letter text")
	f.StringVar(&letterFile, "letter-file", "", "Read the letter text from a file (- for stdin)")
	f.StringVar(&draft.RecipientName, "recipient", "", "Recipient name")
	f.StringVar(&draft.PrisonName, "prison", "", "Prison name")
	f.StringVar(&draft.City, "city", "", "City")
	f.StringVar(&draft.AddressLine, "address", "", "Address line")
	f.StringVar(&draft.SenderName, "sender", "", "Sender name")
	f.StringVar(&draft.SenderCity, "sender-city", "", "Sender city")
	f.BoolVar(&payAfterCreate, "pay", false, "Start checkout right after creating the order")

	clientStatusCmd.Flags().StringVar(&statusOrderID, "order-id", "", "Order id (as returned to /pay/return?orderId=)")
}

type clientFunc func(ctx context.Context, api *client.Client, store *clientstore.Store, cfg *config.ClientConfig) error

// withClient wires the API client and the local reference store. Ctrl-C
// cancels the context.
func withClient(cmd *cobra.Command, fn clientFunc) error {
	cfg := config.LoadClient()
	configureClientLogging(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := clientstore.Open(ctx, cfg.StatePath)
	if err != nil {
		return err
	}
	defer store.Close()

	cmd.SilenceUsage = true
	return fn(ctx, client.New(cfg.APIBaseURL, cfg.HTTPTimeout), store, cfg)
}

func startCheckout(ctx context.Context, cmd *cobra.Command, api lifecycle.API, orderID string) error {
	nav := lifecycle.PrintNavigator{W: cmd.OutOrStdout()}
	if _, err := lifecycle.NewCheckout(api, nav).Start(ctx, orderID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Ödeme sonrası: letters client status --order-id %s\n", orderID)
	return nil
}

func printOutcome(out io.Writer, outcome lifecycle.Outcome) error {
	switch outcome.State {
	case lifecycle.StatePaid:
		fmt.Fprintf(out, "Ödeme Onaylandı! Sipariş takibi: %s\n", outcome.Next)
		return nil
	case lifecycle.StateFailed:
		fmt.Fprintf(out, "Ödeme Başarısız. Tekrar deneyin: %s\n", outcome.Next)
		return nil
	case lifecycle.StateTimedOut:
		fmt.Fprintln(out, outcome.Err)
		for _, option := range outcome.Options {
			fmt.Fprintf(out, "  %s\n", option)
		}
		return nil
	}
	if outcome.Err != nil {
		return outcome.Err
	}
	return nil
}

func stateLabel(state lifecycle.PaymentState) string {
	switch state {
	case lifecycle.StatePaid:
		return "Ödeme Onaylandı"
	case lifecycle.StateFailed:
		return "Ödeme Başarısız"
	case lifecycle.StateTimedOut:
		return "Zaman aşımı"
	default:
		return "Ödeme doğrulanıyor..."
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readLetter(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		raw, err := io.ReadAll(stdin)
		return string(raw), err
	}
	raw, err := os.ReadFile(path)
	return string(raw), err
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return strings.TrimSpace(args[0])
}
