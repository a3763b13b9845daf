package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Jacksonmativo/SiteOrigin-Checker/internal/checker"
	"github.com/Jacksonmativo/SiteOrigin-Checker/internal/scoring"
	"github.com/Jacksonmativo/SiteOrigin-Checker/internal/trust"
)

const (
	defaultCheckTimeoutSecs = 10
	defaultTLSTimeoutSecs   = 5
	defaultDNSTimeoutSecs   = 5
	defaultConcurrency      = 3
	defaultRateLimit        = 3
)

// CLIConfig captures runtime configuration shared across commands.
type CLIConfig struct {
	Weights scoring.Weights
	Check   CheckRuntimeConfig
	DNS     DNSConfig
}

// CheckRuntimeConfig consolidates flag-driven settings for check commands.
type CheckRuntimeConfig struct {
	Concurrency int
	RateLimit   int
	TimeoutSecs int
}

// DNSConfig groups DNS probe options.
type DNSConfig struct {
	Resolver      string
	TimeoutSecs   int
	DKIMSelectors []string
}

var cliConfig = newCLIConfig()

func newCLIConfig() *CLIConfig {
	return &CLIConfig{
		Weights: scoring.DefaultWeights(),
		Check: CheckRuntimeConfig{
			Concurrency: defaultConcurrency,
			RateLimit:   defaultRateLimit,
			TimeoutSecs: defaultCheckTimeoutSecs,
		},
		DNS: DNSConfig{
			TimeoutSecs: defaultDNSTimeoutSecs,
		},
	}
}

// applyConfigDefaults merges config file values into the runtime config when
// the user did not explicitly override the corresponding flag.
func applyConfigDefaults(cmd *cobra.Command) {
	if viper.IsSet("weights.domain_age") {
		cliConfig.Weights.DomainAge = viper.GetFloat64("weights.domain_age")
	}
	if viper.IsSet("weights.certificate") {
		cliConfig.Weights.Certificate = viper.GetFloat64("weights.certificate")
	}
	if viper.IsSet("weights.cipher") {
		cliConfig.Weights.Cipher = viper.GetFloat64("weights.cipher")
	}
	if viper.IsSet("weights.dns") {
		cliConfig.Weights.DNS = viper.GetFloat64("weights.dns")
	}

	if viper.IsSet("check.timeout_secs") {
		applyIntDefault(checkCmd.Flags(), "timeout", viper.GetInt("check.timeout_secs"), func(v int) {
			cliConfig.Check.TimeoutSecs = v
		})
	}
	if viper.IsSet("check.concurrency") {
		applyIntDefault(checkCmd.Flags(), "concurrency", viper.GetInt("check.concurrency"), func(v int) {
			cliConfig.Check.Concurrency = v
		})
	}
	if viper.IsSet("check.rate_limit") {
		applyIntDefault(checkCmd.Flags(), "rate-limit", viper.GetInt("check.rate_limit"), func(v int) {
			cliConfig.Check.RateLimit = v
		})
	}

	if viper.IsSet("dns.resolver") {
		cliConfig.DNS.Resolver = viper.GetString("dns.resolver")
	}
	if viper.IsSet("dns.timeout_secs") {
		cliConfig.DNS.TimeoutSecs = viper.GetInt("dns.timeout_secs")
	}
	if viper.IsSet("dns.dkim_selectors") {
		cliConfig.DNS.DKIMSelectors = viper.GetStringSlice("dns.dkim_selectors")
	}
}

// newTrustService builds the probe pipeline from the merged configuration.
func newTrustService() (*trust.Service, error) {
	checkTimeout := time.Duration(cliConfig.Check.TimeoutSecs) * time.Second
	tlsTimeout := defaultTLSTimeoutSecs * time.Second
	dnsTimeout := time.Duration(cliConfig.DNS.TimeoutSecs) * time.Second

	dnsChecker := checker.NewDNSChecker(dnsTimeout)
	dnsChecker.Server = cliConfig.DNS.Resolver
	dnsChecker.DKIMSelectors = cliConfig.DNS.DKIMSelectors

	return trust.New(trust.Options{
		Checkers: []checker.Checker{
			checker.NewDomainAgeChecker(checkTimeout),
			checker.NewCertificateChecker(checkTimeout),
			checker.NewCipherChecker(tlsTimeout),
			dnsChecker,
		},
		Weights:      cliConfig.Weights,
		CheckTimeout: checkTimeout,
		Logger:       logger,
	})
}

func applyIntDefault(flags *pflag.FlagSet, name string, value int, setter func(int)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}
