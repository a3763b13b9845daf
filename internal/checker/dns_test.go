package checker

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
)

// startDNSServer starts an in-process UDP DNS server on a random port.
// The provided handler is called for every incoming query. The server
// is shut down automatically when the test ends.
func startDNSServer(t *testing.T, handler func(dns.ResponseWriter, *dns.Msg)) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	srv := &dns.Server{PacketConn: pc, Handler: dns.HandlerFunc(handler)}
	go func() { _ = srv.ActivateAndServe() }()
	t.Cleanup(func() { _ = srv.Shutdown() })
	return pc.LocalAddr().String()
}

func mustRR(t *testing.T, s string) dns.RR {
	t.Helper()
	rr, err := dns.NewRR(s)
	if err != nil {
		t.Fatalf("bad RR %q: %v", s, err)
	}
	return rr
}

// fullZoneHandler answers for a domain with every record type the probe
// looks at, including DMARC and a DKIM selector.
func fullZoneHandler(t *testing.T) func(dns.ResponseWriter, *dns.Msg) {
	return func(w dns.ResponseWriter, req *dns.Msg) {
		resp := new(dns.Msg)
		resp.SetReply(req)
		q := req.Question[0]
		switch {
		case q.Name == "example.com." && q.Qtype == dns.TypeA:
			resp.Answer = append(resp.Answer, mustRR(t, "example.com. 300 IN A 93.184.216.34"))
		case q.Name == "example.com." && q.Qtype == dns.TypeAAAA:
			resp.Answer = append(resp.Answer, mustRR(t, "example.com. 300 IN AAAA 2606:2800:220:1::1"))
		case q.Name == "example.com." && q.Qtype == dns.TypeMX:
			resp.Answer = append(resp.Answer,
				mustRR(t, "example.com. 300 IN MX 20 backup.mail.example.com."),
				mustRR(t, "example.com. 300 IN MX 10 mail.example.com."))
		case q.Name == "example.com." && q.Qtype == dns.TypeNS:
			resp.Answer = append(resp.Answer,
				mustRR(t, "example.com. 300 IN NS ns1.example.com."),
				mustRR(t, "example.com. 300 IN NS ns2.example.com."))
		case q.Name == "example.com." && q.Qtype == dns.TypeTXT:
			resp.Answer = append(resp.Answer,
				mustRR(t, `example.com. 300 IN TXT "v=spf1 include:_spf.example.com ~all"`),
				mustRR(t, `example.com. 300 IN TXT "some-verification=abc123"`))
		case q.Name == "_dmarc.example.com." && q.Qtype == dns.TypeTXT:
			resp.Answer = append(resp.Answer,
				mustRR(t, `_dmarc.example.com. 300 IN TXT "v=DMARC1; p=reject"`))
		case q.Name == "default._domainkey.example.com." && q.Qtype == dns.TypeTXT:
			resp.Answer = append(resp.Answer,
				mustRR(t, `default._domainkey.example.com. 300 IN TXT "v=DKIM1; k=rsa; p=MIGf"`))
		default:
			resp.Rcode = dns.RcodeNameError
		}
		_ = w.WriteMsg(resp)
	}
}

func TestDNSCheckerFullZone(t *testing.T) {
	addr := startDNSServer(t, fullZoneHandler(t))

	chk := &DNSChecker{Server: addr, Timeout: 2 * time.Second}
	res := chk.Check(context.Background(), "example.com")
	if res.Status != StatusOK {
		t.Fatalf("status = %q, error = %q", res.Status, res.Error)
	}
	out := res.DNS

	if len(out.ARecords) != 1 || out.ARecords[0] != "93.184.216.34" {
		t.Errorf("a records = %v", out.ARecords)
	}
	if len(out.AAAARecords) != 1 {
		t.Errorf("aaaa records = %v", out.AAAARecords)
	}
	if len(out.MXRecords) != 2 {
		t.Fatalf("mx records = %v", out.MXRecords)
	}
	if out.MXRecords[0].Priority != 10 || out.MXRecords[0].Host != "mail.example.com" {
		t.Errorf("mx not sorted by priority: %v", out.MXRecords)
	}
	if len(out.NSRecords) != 2 {
		t.Errorf("ns records = %v", out.NSRecords)
	}
	if out.SPFRecord != "v=spf1 include:_spf.example.com ~all" {
		t.Errorf("spf = %q", out.SPFRecord)
	}
	if out.DMARCRecord != "v=DMARC1; p=reject" {
		t.Errorf("dmarc = %q", out.DMARCRecord)
	}
	if !out.DKIMConfigured {
		t.Error("expected DKIM to be detected via default selector")
	}
}

func TestDNSCheckerNXDomain(t *testing.T) {
	addr := startDNSServer(t, func(w dns.ResponseWriter, req *dns.Msg) {
		resp := new(dns.Msg)
		resp.SetReply(req)
		resp.Rcode = dns.RcodeNameError
		_ = w.WriteMsg(resp)
	})

	chk := &DNSChecker{Server: addr, Timeout: 2 * time.Second}
	res := chk.Check(context.Background(), "nosuchdomain.example")
	if res.Status != StatusError {
		t.Fatal("expected error status for NXDOMAIN")
	}
	if !res.DNS.NXDomain {
		t.Error("expected NXDomain flag set")
	}
	if res.Error == "" {
		t.Error("expected NXDOMAIN error message")
	}
	if len(res.DNS.ARecords) != 0 {
		t.Errorf("unexpected records: %v", res.DNS.ARecords)
	}
}

// TestDNSCheckerPartialZone verifies that a zone with only some record
// types still produces a usable result, with the missing types simply
// absent.
func TestDNSCheckerPartialZone(t *testing.T) {
	addr := startDNSServer(t, func(w dns.ResponseWriter, req *dns.Msg) {
		resp := new(dns.Msg)
		resp.SetReply(req)
		q := req.Question[0]
		if q.Name == "bare.example." {
			switch q.Qtype {
			case dns.TypeA:
				resp.Answer = append(resp.Answer, mustRR(t, "bare.example. 300 IN A 10.0.0.1"))
			case dns.TypeNS:
				resp.Answer = append(resp.Answer, mustRR(t, "bare.example. 300 IN NS ns1.bare.example."))
			}
		}
		_ = w.WriteMsg(resp)
	})

	chk := &DNSChecker{Server: addr, Timeout: 2 * time.Second}
	res := chk.Check(context.Background(), "bare.example")
	if res.Status != StatusOK {
		t.Fatalf("status = %q, error = %q", res.Status, res.Error)
	}
	out := res.DNS
	if len(out.ARecords) != 1 || len(out.NSRecords) != 1 {
		t.Errorf("a=%v ns=%v", out.ARecords, out.NSRecords)
	}
	if len(out.MXRecords) != 0 || out.SPFRecord != "" || out.DMARCRecord != "" || out.DKIMConfigured {
		t.Errorf("expected empty mail posture, got %+v", out)
	}
}

func TestDNSCheckerDMARCCaseInsensitive(t *testing.T) {
	addr := startDNSServer(t, func(w dns.ResponseWriter, req *dns.Msg) {
		resp := new(dns.Msg)
		resp.SetReply(req)
		q := req.Question[0]
		if q.Name == "_dmarc.example.com." && q.Qtype == dns.TypeTXT {
			resp.Answer = append(resp.Answer,
				mustRR(t, `_dmarc.example.com. 300 IN TXT "V=dmarc1; p=none"`))
		}
		_ = w.WriteMsg(resp)
	})

	chk := &DNSChecker{Server: addr, Timeout: 2 * time.Second}
	client := &dns.Client{Timeout: 2 * time.Second}
	got := chk.lookupDMARC(context.Background(), client, addr, "example.com")
	if got != "V=dmarc1; p=none" {
		t.Errorf("dmarc = %q", got)
	}
}

func TestDNSCheckerCustomDKIMSelectors(t *testing.T) {
	addr := startDNSServer(t, func(w dns.ResponseWriter, req *dns.Msg) {
		resp := new(dns.Msg)
		resp.SetReply(req)
		q := req.Question[0]
		if q.Name == "mycorp._domainkey.example.com." && q.Qtype == dns.TypeTXT {
			resp.Answer = append(resp.Answer,
				mustRR(t, `mycorp._domainkey.example.com. 300 IN TXT "v=DKIM1; p=abc"`))
		}
		_ = w.WriteMsg(resp)
	})

	chk := &DNSChecker{Server: addr, Timeout: 2 * time.Second, DKIMSelectors: []string{"mycorp"}}
	client := &dns.Client{Timeout: 2 * time.Second}
	if !chk.lookupDKIM(context.Background(), client, addr, "example.com") {
		t.Error("expected DKIM detection with custom selector")
	}
}
