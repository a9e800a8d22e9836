package natsutil

import (
	"testing"

	"github.com/nats-io/nats.go"
)

func TestHeaderCarrierSetGet(t *testing.T) {
	msg := &nats.Msg{}
	carrier := (*natsHeaderCarrier)(msg)

	carrier.Set("traceparent", "00-abc-def-01")
	if got := carrier.Get("traceparent"); got != "00-abc-def-01" {
		t.Fatalf("Get = %q", got)
	}
	if keys := carrier.Keys(); len(keys) != 1 || keys[0] != "Traceparent" {
		t.Fatalf("Keys = %v", keys)
	}
}

func TestHeaderCarrierNilHeader(t *testing.T) {
	carrier := (*natsHeaderCarrier)(&nats.Msg{})

	if got := carrier.Get("missing"); got != "" {
		t.Fatalf("Get on empty header = %q", got)
	}
	if keys := carrier.Keys(); keys != nil {
		t.Fatalf("Keys on empty header = %v", keys)
	}
}
