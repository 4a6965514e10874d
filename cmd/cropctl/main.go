package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/agroledger/cropchain/pkg/client"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

var (
	exchangeURL string
	cfgFile     string
	format      string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cropctl",
	Short: "CropChain exchange CLI",
	Long: `cropctl is the command-line interface for a CropChain exchange.

It registers harvest lots, lists and trades their tokens, and inspects
the settlement ledger and the tamper-evident audit trail.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.cropctl")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if exchangeURL == "" {
			exchangeURL = viper.GetString("exchange_url")
		}
		if exchangeURL == "" {
			exchangeURL = "http://localhost:8080"
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.cropctl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&exchangeURL, "exchange", "", "Exchange base URL (default http://localhost:8080)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "text", "Output format: text or json")

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(cropsCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(tokensCmd)
	rootCmd.AddCommand(tradeCmd)
	rootCmd.AddCommand(settlementsCmd)
	rootCmd.AddCommand(trailCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(versionCmd)
}

func newClient() *client.Client {
	return client.New(exchangeURL)
}

// printJSON renders v as indented JSON on stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// apiMessage unwraps *client.APIError so the user sees the server's
// explanation ("Token not found") instead of a wrapped HTTP error.
func apiMessage(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s", apiErr.Message)
	}
	return err
}

// ── register ─────────────────────────────────────────────────────────────────

var (
	regType     string
	regQuantity float64
	regGrade    string
	regMarket   string
	regFarmer   string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a harvest lot and mint its token",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newClient().RegisterCrop(context.Background(), client.RegisterCropRequest{
			CropType:     regType,
			Quantity:     regQuantity,
			QualityGrade: regGrade,
			MarketID:     regMarket,
			FarmerID:     regFarmer,
		})
		if err != nil {
			return apiMessage(err)
		}

		if format == "json" {
			return printJSON(res)
		}
		fmt.Printf("✓ Crop registered and tokenized\n\n")
		fmt.Printf("  Crop:  %s\n", res.Crop.CropID)
		fmt.Printf("  Token: %s  (status %s)\n", res.Token.TokenID, res.Token.Status)
		fmt.Printf("  Hash:  %s\n\n", res.Token.AuditHash)
		fmt.Println("Next: cropctl list <token_id> --seller " + regFarmer + " to put it up for sale")
		return nil
	},
}

func init() {
	registerCmd.Flags().StringVar(&regType, "type", "", "Crop type (e.g. wheat)")
	registerCmd.Flags().Float64Var(&regQuantity, "quantity", 0, "Quantity in kilograms")
	registerCmd.Flags().StringVar(&regGrade, "grade", "", "Quality grade: A, B, or C")
	registerCmd.Flags().StringVar(&regMarket, "market", "", "Market identifier (e.g. MANDI_DELHI)")
	registerCmd.Flags().StringVar(&regFarmer, "farmer", "", "Registering farmer identifier")

	_ = registerCmd.MarkFlagRequired("type")
	_ = registerCmd.MarkFlagRequired("quantity")
	_ = registerCmd.MarkFlagRequired("grade")
	_ = registerCmd.MarkFlagRequired("market")
	_ = registerCmd.MarkFlagRequired("farmer")
}

// ── crops ────────────────────────────────────────────────────────────────────

var cropsCmd = &cobra.Command{
	Use:   "crops",
	Short: "List registered crops",
	RunE: func(cmd *cobra.Command, args []string) error {
		crops, err := newClient().Crops(context.Background())
		if err != nil {
			return apiMessage(err)
		}
		if format == "json" {
			return printJSON(crops)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CROP ID\tTYPE\tQTY (KG)\tGRADE\tMARKET\tFARMER")
		for _, c := range crops {
			fmt.Fprintf(w, "%s\t%s\t%.0f\t%s\t%s\t%s\n",
				c.CropID, c.CropType, c.Quantity, c.QualityGrade, c.MarketID, c.FarmerID)
		}
		return w.Flush()
	},
}

// ── list (put a token up for sale) ───────────────────────────────────────────

var listSeller string

var listCmd = &cobra.Command{
	Use:   "list <token_id>",
	Short: "Put a token up for sale (owner only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().ListToken(context.Background(), args[0], listSeller); err != nil {
			return apiMessage(err)
		}
		fmt.Printf("✓ Token %s listed for sale\n", args[0])
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listSeller, "seller", "", "Selling farmer identifier (must own the token)")
	_ = listCmd.MarkFlagRequired("seller")
}

// ── tokens ───────────────────────────────────────────────────────────────────

var tokensStatus string

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "List tokens, optionally filtered by status",
	RunE: func(cmd *cobra.Command, args []string) error {
		tokens, err := newClient().Tokens(context.Background(), tokensStatus)
		if err != nil {
			return apiMessage(err)
		}
		if format == "json" {
			return printJSON(tokens)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TOKEN ID\tCROP\tOWNER\tSTATUS")
		for _, t := range tokens {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.TokenID, t.LinkedCropID, t.OwnerID, t.Status)
		}
		return w.Flush()
	},
}

func init() {
	tokensCmd.Flags().StringVar(&tokensStatus, "status", "", "Filter by status: created, listed, or settled")
}

// ── trade ────────────────────────────────────────────────────────────────────

var tradeBuyer string

var tradeCmd = &cobra.Command{
	Use:   "trade <token_id>",
	Short: "Buy a listed token and settle the trade",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newClient().ExecuteTrade(context.Background(), args[0], tradeBuyer)
		if err != nil {
			return apiMessage(err)
		}

		if format == "json" {
			return printJSON(s)
		}
		fmt.Printf("✓ Trade settled\n\n")
		fmt.Printf("  Settlement: %s\n", s.SettlementID)
		fmt.Printf("  Seller:     %s\n", s.SellerID)
		fmt.Printf("  Buyer:      %s\n", s.BuyerID)
		fmt.Printf("  Price:      %.2f/kg × %.0f kg = %.2f\n", s.PricePerKg, s.Quantity, s.TotalAmount)
		fmt.Printf("  Status:     %s\n", s.Status)
		return nil
	},
}

func init() {
	tradeCmd.Flags().StringVar(&tradeBuyer, "buyer", "", "Buyer identifier")
	_ = tradeCmd.MarkFlagRequired("buyer")
}

// ── settlements ──────────────────────────────────────────────────────────────

var settlementsCmd = &cobra.Command{
	Use:   "settlements",
	Short: "List settlement records",
	RunE: func(cmd *cobra.Command, args []string) error {
		settlements, err := newClient().Settlements(context.Background())
		if err != nil {
			return apiMessage(err)
		}
		if format == "json" {
			return printJSON(settlements)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SETTLEMENT ID\tTOKEN\tSELLER\tBUYER\tTOTAL\tSTATUS")
		for _, s := range settlements {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%s\n",
				s.SettlementID, s.TokenID, s.SellerID, s.BuyerID, s.TotalAmount, s.Status)
		}
		return w.Flush()
	},
}

// ── trail / verify ───────────────────────────────────────────────────────────

var trailCmd = &cobra.Command{
	Use:   "trail",
	Short: "Show the complete audit trail in chain order",
	RunE: func(cmd *cobra.Command, args []string) error {
		trail, err := newClient().AuditTrail(context.Background())
		if err != nil {
			return apiMessage(err)
		}
		if format == "json" {
			return printJSON(trail)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tEVENT ID\tTYPE\tACTOR\tTIMESTAMP\tHASH")
		for i, e := range trail {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%.12s…\n",
				i, e.EventID, e.EventType, e.Actor, e.Timestamp.Format("2006-01-02 15:04:05"), e.CurrentHash)
		}
		return w.Flush()
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the integrity of the audit chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := newClient().VerifyAudit(context.Background())
		if err != nil {
			return apiMessage(err)
		}
		if format == "json" {
			return printJSON(res)
		}

		if res.Valid {
			fmt.Printf("✓ %s (%d entries)\n", res.Message, res.Entries)
			return nil
		}
		fmt.Printf("✗ %s\n", res.Message)
		if res.EntryID != "" {
			fmt.Printf("  first bad entry: %s (index %d)\n", res.EntryID, res.Index)
		}
		os.Exit(1)
		return nil
	},
}

// ── stats / report ───────────────────────────────────────────────────────────

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show exchange activity counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := newClient().Stats(context.Background())
		if err != nil {
			return apiMessage(err)
		}
		if format == "json" {
			return printJSON(stats)
		}

		fmt.Printf("Crops:        %d\n", stats.TotalCrops)
		fmt.Printf("Tokens:       %d\n", stats.TotalTokens)
		for status, n := range stats.TokenStatusBreakdown {
			fmt.Printf("  %-10s  %d\n", status, n)
		}
		fmt.Printf("Settlements:  %d\n", stats.TotalSettlements)
		fmt.Printf("Volume:       %.2f\n", stats.TotalSettlementVolume)
		fmt.Printf("Avg trade:    %.2f\n", stats.AvgSettlementValue)
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the regulator-facing compliance report",
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := newClient().ComplianceReport(context.Background())
		if err != nil {
			return apiMessage(err)
		}
		if format == "json" {
			return printJSON(report)
		}

		fmt.Printf("Farmers:             %d\n", report.TotalRegisteredFarmers)
		fmt.Printf("Active tokens:       %d\n", report.TotalActiveTokens)
		fmt.Printf("Settlements:         %d\n", report.TotalCompletedSettlements)
		if integ := report.AuditTrailIntegrity; integ != nil {
			fmt.Printf("Audit chain valid:   %v (%d entries)\n", integ.Valid, integ.Entries)
		}
		fmt.Println("\nRegulatory notes:")
		for _, note := range report.RegulatoryNotes {
			fmt.Printf("  - %s\n", note)
		}
		return nil
	},
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the cropctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("cropctl", version)
	},
}
