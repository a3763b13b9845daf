package checker

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// defaultDKIMSelectors are the selectors probed when none are configured.
// They cover the common hosted-email setups (Google Workspace, Microsoft
// 365, generic mail platforms).
var defaultDKIMSelectors = []string{
	"default", "google", "k1", "dkim", "mail",
	"selector1", "selector2", "s1", "s2",
}

// DNSChecker gathers the record sets and email-security posture of a
// domain: A/AAAA/MX/NS/TXT plus SPF, DMARC, and DKIM probes. Each record
// type is queried independently; one failing lookup does not abort the
// others. An NXDOMAIN answer on the initial A query short-circuits the
// whole probe, since the remaining lookups cannot succeed either.
type DNSChecker struct {
	// Server is the resolver address (host:port). Empty means the first
	// nameserver from /etc/resolv.conf, falling back to 8.8.8.8:53.
	Server        string
	Timeout       time.Duration
	DKIMSelectors []string
}

// NewDNSChecker returns a checker with the system resolver and the
// default DKIM selector list.
func NewDNSChecker(timeout time.Duration) *DNSChecker {
	return &DNSChecker{Timeout: timeout}
}

func (d *DNSChecker) Name() string { return "dns" }

func (d *DNSChecker) Check(ctx context.Context, domain string) CheckResult {
	result := newResult(domain)
	out := &DNSResult{}
	result.DNS = out

	client := &dns.Client{Timeout: d.timeout()}
	server := d.server()
	fqdn := dns.Fqdn(domain)

	// A first: it doubles as the existence probe.
	aMsg, err := d.query(ctx, client, server, fqdn, dns.TypeA)
	if err == nil && aMsg.Rcode == dns.RcodeNameError {
		out.NXDomain = true
		result.fail(NotFoundf("domain does not exist (NXDOMAIN)"))
		return result
	}
	var lastErr error
	if err != nil {
		lastErr = err
	} else {
		for _, rr := range aMsg.Answer {
			if a, ok := rr.(*dns.A); ok {
				out.ARecords = append(out.ARecords, a.A.String())
			}
		}
	}

	if msg, err := d.query(ctx, client, server, fqdn, dns.TypeAAAA); err != nil {
		lastErr = err
	} else {
		for _, rr := range msg.Answer {
			if aaaa, ok := rr.(*dns.AAAA); ok {
				out.AAAARecords = append(out.AAAARecords, aaaa.AAAA.String())
			}
		}
	}

	if msg, err := d.query(ctx, client, server, fqdn, dns.TypeMX); err != nil {
		lastErr = err
	} else {
		for _, rr := range msg.Answer {
			if mx, ok := rr.(*dns.MX); ok {
				out.MXRecords = append(out.MXRecords, MXRecord{
					Priority: int(mx.Preference),
					Host:     strings.TrimSuffix(mx.Mx, "."),
				})
			}
		}
		sort.Slice(out.MXRecords, func(i, j int) bool {
			return out.MXRecords[i].Priority < out.MXRecords[j].Priority
		})
	}

	if msg, err := d.query(ctx, client, server, fqdn, dns.TypeNS); err != nil {
		lastErr = err
	} else {
		for _, rr := range msg.Answer {
			if ns, ok := rr.(*dns.NS); ok {
				out.NSRecords = append(out.NSRecords, strings.TrimSuffix(ns.Ns, "."))
			}
		}
	}

	if msg, err := d.query(ctx, client, server, fqdn, dns.TypeTXT); err != nil {
		lastErr = err
	} else {
		for _, rr := range msg.Answer {
			if txt, ok := rr.(*dns.TXT); ok {
				joined := strings.Join(txt.Txt, "")
				out.TXTRecords = append(out.TXTRecords, joined)
				if strings.HasPrefix(joined, "v=spf1") && out.SPFRecord == "" {
					out.SPFRecord = joined
				}
			}
		}
	}

	out.DMARCRecord = d.lookupDMARC(ctx, client, server, domain)
	out.DKIMConfigured = d.lookupDKIM(ctx, client, server, domain)

	// Report a failure only when nothing at all was resolved; partial
	// answers are still a usable signal.
	if lastErr != nil && len(out.ARecords) == 0 && len(out.AAAARecords) == 0 &&
		len(out.NSRecords) == 0 && len(out.MXRecords) == 0 {
		result.fail(Classify(lastErr))
	}
	return result
}

// lookupDMARC fetches the _dmarc TXT record and returns the first value
// with a v=DMARC1 tag (case-insensitive).
func (d *DNSChecker) lookupDMARC(ctx context.Context, client *dns.Client, server, domain string) string {
	msg, err := d.query(ctx, client, server, dns.Fqdn("_dmarc."+domain), dns.TypeTXT)
	if err != nil {
		return ""
	}
	for _, rr := range msg.Answer {
		if txt, ok := rr.(*dns.TXT); ok {
			joined := strings.Join(txt.Txt, "")
			if strings.HasPrefix(strings.ToUpper(joined), "V=DMARC1") {
				return joined
			}
		}
	}
	return ""
}

// lookupDKIM probes the selector list for a <selector>._domainkey TXT
// record and reports whether any selector answered.
func (d *DNSChecker) lookupDKIM(ctx context.Context, client *dns.Client, server, domain string) bool {
	selectors := d.DKIMSelectors
	if len(selectors) == 0 {
		selectors = defaultDKIMSelectors
	}
	for _, selector := range selectors {
		name := dns.Fqdn(selector + "._domainkey." + domain)
		msg, err := d.query(ctx, client, server, name, dns.TypeTXT)
		if err != nil || msg.Rcode != dns.RcodeSuccess {
			continue
		}
		for _, rr := range msg.Answer {
			if txt, ok := rr.(*dns.TXT); ok && len(txt.Txt) > 0 {
				return true
			}
		}
	}
	return false
}

func (d *DNSChecker) query(ctx context.Context, client *dns.Client, server, name string, qtype uint16) (*dns.Msg, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(name, qtype)
	msg.RecursionDesired = true

	resp, _, err := client.ExchangeContext(ctx, msg, server)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (d *DNSChecker) timeout() time.Duration {
	if d.Timeout > 0 {
		return d.Timeout
	}
	return 5 * time.Second
}

func (d *DNSChecker) server() string {
	if d.Server != "" {
		return d.Server
	}
	if cfg, err := dns.ClientConfigFromFile("/etc/resolv.conf"); err == nil && len(cfg.Servers) > 0 {
		return cfg.Servers[0] + ":" + cfg.Port
	}
	return "8.8.8.8:53"
}
