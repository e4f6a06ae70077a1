package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stwalsh4118/proptax/internal/models"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("TAXCTL")
	v.AutomaticEnv()
	v.SetDefault("url", "http://localhost:8080")
	v.SetDefault("timeout", "60s")

	rootCmd := &cobra.Command{
		Use:          "taxctl",
		Short:        "Command-line client for the property tax API",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("url", "", "API base URL (env TAXCTL_URL)")
	rootCmd.PersistentFlags().String("token", "", "Bearer token (env TAXCTL_TOKEN)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Response header timeout (env TAXCTL_TIMEOUT)")
	_ = v.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))
	_ = v.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
	_ = v.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))

	client := func() *apiClient {
		return newAPIClient(v.GetString("url"), v.GetString("token"), v.GetDuration("timeout"))
	}

	rootCmd.AddCommand(loginCmd(client), askCmd(client), estimateCmd(client))
	return rootCmd
}

func loginCmd(client func() *apiClient) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client().Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", result.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func askCmd(client func() *apiClient) *cobra.Command {
	var includeRecords bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the tax assistant and stream the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			_, err := client().Ask(cmd.Context(), strings.Join(args, " "), includeRecords, func(delta string) {
				fmt.Fprint(out, delta)
			})
			fmt.Fprintln(out)
			return err
		},
	}
	cmd.Flags().BoolVar(&includeRecords, "records", false, "Let the server include your stored properties and calculations")
	return cmd
}

func estimateCmd(client func() *apiClient) *cobra.Command {
	var (
		attrs    models.PropertyAttributes
		propType string
		builtUp  float64
		year     int
		floors   int
		showRaw  bool
	)

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate annual property tax for a property",
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs.Type = models.PropertyType(propType)
			if cmd.Flags().Changed("built-up") {
				attrs.BuiltUpAreaSqft = &builtUp
			}
			if cmd.Flags().Changed("year") {
				attrs.ConstructionYear = &year
			}
			if cmd.Flags().Changed("floors") {
				attrs.FloorCount = &floors
			}

			estimate, err := client().Estimate(cmd.Context(), attrs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			b := estimate.Breakdown
			if showRaw {
				fmt.Fprintf(out, "%+v\n", b)
			} else {
				fmt.Fprintf(out, "Base tax:             %.2f\n", b.BaseTax)
				fmt.Fprintf(out, "Location factor:      %.2f\n", b.LocationFactor)
				fmt.Fprintf(out, "Property type factor: %.2f\n", b.PropertyTypeFactor)
				fmt.Fprintf(out, "Age depreciation:     %.0f%%\n", b.AgeDepreciation)
				fmt.Fprintf(out, "Total tax:            %.2f\n", b.TotalTax)
				if b.Reasoning != "" {
					fmt.Fprintf(out, "\n%s\n", b.Reasoning)
				}
			}
			for _, w := range estimate.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&propType, "type", string(models.PropertyTypeResidential), "Property type")
	f.StringVar(&attrs.City, "city", models.DefaultCity, "City")
	f.Float64Var(&attrs.AreaSqft, "area", 0, "Total area in sq.ft")
	f.Float64Var(&attrs.Value, "value", 0, "Property value in INR")
	f.Float64Var(&builtUp, "built-up", 0, "Built-up area in sq.ft")
	f.IntVar(&year, "year", 0, "Construction year")
	f.IntVar(&floors, "floors", 0, "Number of floors")
	f.BoolVar(&showRaw, "raw", false, "Print the breakdown struct as-is")
	_ = cmd.MarkFlagRequired("area")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}
