package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Jacksonmativo/SiteOrigin-Checker/internal/trust"
)

var checkCmd = &cobra.Command{
	Use:   "check <domain> [domain...]",
	Short: "Run a full trust check against one or more domains",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		rateLimit, _ := cmd.Flags().GetInt("rate-limit")
		if cmd.Flags().Changed("timeout") {
			cliConfig.Check.TimeoutSecs, _ = cmd.Flags().GetInt("timeout")
		}

		svc, err := newTrustService()
		if err != nil {
			return err
		}

		runner := trust.Runner{Concurrency: concurrency, RateLimit: rateLimit}
		start := time.Now()
		entries := runner.Run(cmd.Context(), args, svc)

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}

		for _, entry := range entries {
			printEntry(entry)
		}
		fmt.Printf("%s Checked %d domain(s) in %.1fs\n",
			colorInfo("→"), len(entries), time.Since(start).Seconds())
		return nil
	},
}

func printEntry(entry trust.BatchEntry) {
	if entry.Err != "" {
		fmt.Printf("%s %s: %s\n", colorError("✗"), entry.Target, entry.Err)
		return
	}
	r := entry.Report

	fmt.Printf("\n%s %s — score %.1f (%s)\n", colorInfo("■"), r.Domain, r.Score, colorTrustLevel(r.TrustLevel))
	fmt.Printf("  domain age:  %.2f years (score %.0f)\n", r.DomainAgeYears, r.ScoreDetails.DomainAgeScore)
	if r.Registrar != "" {
		fmt.Printf("  registrar:   %s\n", r.Registrar)
	}

	certLabel := colorError("invalid")
	if r.SSLValid {
		certLabel = colorSuccess("valid")
	}
	fmt.Printf("  certificate: %s, %d days remaining (score %.0f)\n",
		certLabel, r.SSLDaysRemaining, r.ScoreDetails.CertificateScore)
	if r.SSLIssuer != "" {
		fmt.Printf("  issuer:      %s\n", r.SSLIssuer)
	}

	fmt.Printf("  tls:         %s, %s (score %.0f)\n",
		valueOr(r.ProtocolVersion, "unknown"), r.CipherStrength, r.ScoreDetails.CipherScore)
	if len(r.WeakCiphersFound) > 0 {
		fmt.Printf("  weak ciphers: %s\n", colorWarn(strings.Join(r.WeakCiphersFound, ", ")))
	}

	fmt.Printf("  dns:         %s reliability (score %.0f)\n", r.DNSReliability, r.ScoreDetails.DNSScore)

	for _, rec := range r.Recommendations {
		fmt.Printf("  %s %s\n", colorWarn("!"), rec)
	}
	for name, msg := range r.Errors {
		fmt.Printf("  %s %s: %s\n", colorError("✗"), name, msg)
	}
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func init() {
	checkCmd.Flags().Bool("json", false, "Emit results as JSON")
	checkCmd.Flags().Int("concurrency", defaultConcurrency, "Maximum concurrent domains")
	checkCmd.Flags().Int("rate-limit", defaultRateLimit, "Domains started per second")
	checkCmd.Flags().Int("timeout", defaultCheckTimeoutSecs, "Per-probe timeout in seconds")
}
