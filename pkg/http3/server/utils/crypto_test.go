package utils

import (
	"crypto/tls"
	"testing"

	"h3wire/pkg/http3/server/version"
)

func TestConfigureTLSConfigForcesALPN(t *testing.T) {
	base := &tls.Config{NextProtos: []string{"h2"}}

	conf, err := ConfigureTLSConfig(base).GetConfigForClient(&tls.ClientHelloInfo{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conf.NextProtos) != 1 || conf.NextProtos[0] != version.ALPNH3Protocol {
		t.Fatalf("expected ALPN [%s], got %v", version.ALPNH3Protocol, conf.NextProtos)
	}

	// the caller's config is cloned, not rewritten
	if len(base.NextProtos) != 1 || base.NextProtos[0] != "h2" {
		t.Fatalf("base config mutated: %v", base.NextProtos)
	}
}

func TestConfigureTLSConfigKeepsClientHook(t *testing.T) {
	hookConf := &tls.Config{ServerName: "from-hook"}
	called := false
	base := &tls.Config{
		GetConfigForClient: func(ch *tls.ClientHelloInfo) (*tls.Config, error) {
			called = true
			return hookConf, nil
		},
	}

	conf, err := ConfigureTLSConfig(base).GetConfigForClient(&tls.ClientHelloInfo{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("expected the installed GetConfigForClient hook to run")
	}
	if conf.ServerName != "from-hook" {
		t.Fatalf("expected the hook's config to win, got ServerName %q", conf.ServerName)
	}
	if len(conf.NextProtos) != 1 || conf.NextProtos[0] != version.ALPNH3Protocol {
		t.Fatalf("expected ALPN [%s], got %v", version.ALPNH3Protocol, conf.NextProtos)
	}
}
