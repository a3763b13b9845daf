package checker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: KindTimeout},
		{name: "canceled", err: context.Canceled, want: KindTimeout},
		{name: "wrapped deadline", err: fmt.Errorf("lookup: %w", context.DeadlineExceeded), want: KindTimeout},
		{name: "dns not found", err: &net.DNSError{Err: "no such host", IsNotFound: true}, want: KindNotFound},
		{name: "dns timeout", err: &net.DNSError{Err: "i/o timeout", IsTimeout: true}, want: KindTimeout},
		{name: "plain error", err: errors.New("connection refused"), want: KindProtocol},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := Classify(tt.err)
			if ce.Kind != tt.want {
				t.Errorf("Classify(%v).Kind = %v, want %v", tt.err, ce.Kind, tt.want)
			}
		})
	}
}

func TestClassifyPassesThroughCheckError(t *testing.T) {
	original := NotFoundf("domain gone")
	ce := Classify(fmt.Errorf("wrapped: %w", original))
	if ce != original {
		t.Errorf("expected original CheckError to pass through, got %v", ce)
	}
}

func TestIsKind(t *testing.T) {
	err := Timeoutf("probe timed out after %ds", 5)
	if !IsKind(err, KindTimeout) {
		t.Error("expected KindTimeout")
	}
	if IsKind(err, KindProtocol) {
		t.Error("did not expect KindProtocol")
	}
	if IsKind(errors.New("plain"), KindTimeout) {
		t.Error("plain error should not match any kind")
	}
}

func TestKindString(t *testing.T) {
	if got := KindNotFound.String(); got != "not_found" {
		t.Errorf("KindNotFound.String() = %q", got)
	}
	if got := KindConfig.String(); got != "config" {
		t.Errorf("KindConfig.String() = %q", got)
	}
}
