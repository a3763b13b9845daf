package checker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultWhoDatURL = "https://who-dat.as93.net"
	defaultRDAPURL   = "https://rdap.net"
	fallbackRDAPURL  = "https://rdap.org"

	// daysPerYear accounts for leap years when converting a registration
	// delta to fractional years.
	daysPerYear = 365.25

	maxProviderBody = 1 << 20
)

// RegistrationRecord is what an AgeProvider returns on success.
type RegistrationRecord struct {
	CreationDate time.Time
	Registrar    string
}

// AgeProvider looks up registration metadata for a domain. Implementations
// wrap a single WHOIS/RDAP endpoint.
type AgeProvider interface {
	Lookup(ctx context.Context, domain string) (RegistrationRecord, error)
	Name() string
}

// DomainAgeChecker resolves a domain's registration age through an ordered
// provider chain. Providers are tried in order; the first success wins. If
// every provider fails the result carries no age and the error from the
// last provider tried.
type DomainAgeChecker struct {
	Providers []AgeProvider
	Timeout   time.Duration
	Now       func() time.Time // test hook, defaults to time.Now
}

// NewDomainAgeChecker builds the default provider chain: who-dat first,
// then RDAP, then a rate-limited RDAP fallback (the public rdap.org
// bootstrap throttles aggressively, so the limiter keeps us polite).
func NewDomainAgeChecker(timeout time.Duration) *DomainAgeChecker {
	client := &http.Client{Timeout: timeout}
	return &DomainAgeChecker{
		Providers: []AgeProvider{
			&WhoDatProvider{BaseURL: defaultWhoDatURL, Client: client},
			&RDAPProvider{BaseURL: defaultRDAPURL, Client: client},
			RateLimited(
				&RDAPProvider{BaseURL: fallbackRDAPURL, Client: client},
				rate.NewLimiter(rate.Every(2*time.Second), 1),
			),
		},
		Timeout: timeout,
	}
}

func (d *DomainAgeChecker) Name() string { return "domain-age" }

// Check queries the provider chain and converts the creation date into
// fractional years. All provider failures are absorbed; an unknown age is
// reported via AgeKnown=false plus the error string.
func (d *DomainAgeChecker) Check(ctx context.Context, domain string) CheckResult {
	result := newResult(domain)
	result.DomainAge = &DomainAgeResult{}

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	var lastErr error
	for _, provider := range d.Providers {
		lookupCtx, cancel := context.WithTimeout(ctx, timeout)
		rec, err := provider.Lookup(lookupCtx, domain)
		cancel()
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", provider.Name(), err)
			continue
		}

		now := time.Now()
		if d.Now != nil {
			now = d.Now()
		}
		result.DomainAge = &DomainAgeResult{
			AgeKnown:     true,
			AgeYears:     ageYears(rec.CreationDate, now),
			CreationDate: rec.CreationDate,
			Registrar:    rec.Registrar,
		}
		return result
	}

	if lastErr == nil {
		lastErr = Protocolf("no registration providers configured")
	}
	result.fail(Classify(lastErr))
	return result
}

// ageYears converts a creation date to fractional years, rounded to two
// decimals. Future-dated registrations count as zero.
func ageYears(created, now time.Time) float64 {
	if created.After(now) {
		return 0
	}
	years := now.Sub(created).Hours() / 24 / daysPerYear
	return math.Round(years*100) / 100
}

// WhoDatProvider queries a who-dat style WHOIS JSON API
// (GET {base}/{domain}).
type WhoDatProvider struct {
	BaseURL string
	Client  *http.Client
}

func (p *WhoDatProvider) Name() string { return "who-dat" }

func (p *WhoDatProvider) Lookup(ctx context.Context, domain string) (RegistrationRecord, error) {
	body, err := fetchJSON(ctx, p.Client, p.BaseURL+"/"+domain)
	if err != nil {
		return RegistrationRecord{}, err
	}

	var payload struct {
		CreationDate string `json:"creation_date"`
		Created      string `json:"created"`
		Registered   string `json:"registered"`
		Registration string `json:"registration"`
		Registrar    struct {
			Name string `json:"name"`
		} `json:"registrar"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return RegistrationRecord{}, Protocolf("who-dat: invalid response: %v", err)
	}

	for _, raw := range []string{payload.CreationDate, payload.Created, payload.Registered, payload.Registration} {
		if raw == "" {
			continue
		}
		if created, ok := parseCreationDate(raw); ok {
			return RegistrationRecord{CreationDate: created, Registrar: payload.Registrar.Name}, nil
		}
	}
	return RegistrationRecord{}, NotFoundf("who-dat: no creation date for %s", domain)
}

// RDAPProvider queries an RDAP endpoint (GET {base}/domain/{domain}) and
// extracts the registration event plus the registrar entity name.
type RDAPProvider struct {
	BaseURL string
	Client  *http.Client
}

func (p *RDAPProvider) Name() string { return "rdap" }

func (p *RDAPProvider) Lookup(ctx context.Context, domain string) (RegistrationRecord, error) {
	body, err := fetchJSON(ctx, p.Client, p.BaseURL+"/domain/"+domain)
	if err != nil {
		return RegistrationRecord{}, err
	}

	var payload struct {
		Events []struct {
			EventAction string `json:"eventAction"`
			EventDate   string `json:"eventDate"`
		} `json:"events"`
		Entities []struct {
			Roles      []string `json:"roles"`
			VCardArray []any    `json:"vcardArray"`
		} `json:"entities"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return RegistrationRecord{}, Protocolf("rdap: invalid response: %v", err)
	}

	rec := RegistrationRecord{}
	for _, entity := range payload.Entities {
		for _, role := range entity.Roles {
			if role == "registrar" {
				rec.Registrar = vcardFullName(entity.VCardArray)
			}
		}
	}

	for _, event := range payload.Events {
		if event.EventAction != "registration" {
			continue
		}
		if created, ok := parseCreationDate(event.EventDate); ok {
			rec.CreationDate = created
			return rec, nil
		}
	}
	return RegistrationRecord{}, NotFoundf("rdap: no registration event for %s", domain)
}

// vcardFullName digs the "fn" property out of a jCard array. RDAP nests the
// registrar name four levels deep; any shape mismatch yields "".
func vcardFullName(vcard []any) string {
	if len(vcard) < 2 {
		return ""
	}
	props, ok := vcard[1].([]any)
	if !ok {
		return ""
	}
	for _, raw := range props {
		prop, ok := raw.([]any)
		if !ok || len(prop) < 4 {
			continue
		}
		if name, ok := prop[0].(string); !ok || name != "fn" {
			continue
		}
		if value, ok := prop[3].(string); ok {
			return value
		}
	}
	return ""
}

// rateLimitedProvider waits on a limiter before delegating, so a
// rate-restricted upstream is never hammered by concurrent checks.
type rateLimitedProvider struct {
	inner   AgeProvider
	limiter *rate.Limiter
}

// RateLimited wraps a provider with a token-bucket limiter.
func RateLimited(inner AgeProvider, limiter *rate.Limiter) AgeProvider {
	return &rateLimitedProvider{inner: inner, limiter: limiter}
}

func (p *rateLimitedProvider) Name() string { return p.inner.Name() + "-limited" }

func (p *rateLimitedProvider) Lookup(ctx context.Context, domain string) (RegistrationRecord, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return RegistrationRecord{}, Classify(err)
	}
	return p.inner.Lookup(ctx, domain)
}

// fetchJSON performs a GET and returns the body, classifying transport and
// HTTP-level failures.
func fetchJSON(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, Protocolf("build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "SiteOrigin-Checker/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, Classify(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, NotFoundf("domain not found (%s)", resp.Status)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, Protocolf("rate limited by provider")
	case resp.StatusCode != http.StatusOK:
		return nil, Protocolf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProviderBody))
	if err != nil {
		return nil, Classify(err)
	}
	return body, nil
}

// creationDateFormats covers the date shapes seen across WHOIS and RDAP
// responses in the wild.
var creationDateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-01-2006",
	"01/02/2006",
	"2006.01.02",
	"02-Jan-2006",
}

func parseCreationDate(raw string) (time.Time, bool) {
	for _, layout := range creationDateFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
