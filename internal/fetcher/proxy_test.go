package fetcher

import (
	"testing"
)

func TestProxyManagerRoundRobin(t *testing.T) {
	pm := NewProxyManager([]string{"http://p1:8080", "::bad", "http://p2:8080"}, "round_robin", testLogger)
	if pm.Count() != 2 {
		t.Fatalf("expected invalid proxy to be skipped, got %d", pm.Count())
	}

	got := []string{pm.Next().Host, pm.Next().Host, pm.Next().Host}
	want := []string{"p1:8080", "p2:8080", "p1:8080"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("rotation %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestProxyManagerRandomStaysInSet(t *testing.T) {
	pm := NewProxyManager([]string{"http://p1:8080", "http://p2:8080"}, "random", testLogger)
	for i := 0; i < 20; i++ {
		h := pm.Next().Host
		if h != "p1:8080" && h != "p2:8080" {
			t.Fatalf("unexpected proxy %s", h)
		}
	}
}

func TestProxyManagerEmpty(t *testing.T) {
	pm := NewProxyManager(nil, "round_robin", testLogger)
	u, err := pm.ProxyFunc()(nil)
	if u != nil || err != nil {
		t.Errorf("expected direct connection, got %v %v", u, err)
	}
}
