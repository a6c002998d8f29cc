package config

import (
	"reflect"
	"testing"
)

func TestTrustedProxyList(t *testing.T) {
	cases := map[string][]string{
		"":                          nil,
		" , ":                       nil,
		"10.0.0.1":                  {"10.0.0.1"},
		"10.0.0.0/8, 192.168.1.1 ,": {"10.0.0.0/8", "192.168.1.1"},
	}
	for raw, want := range cases {
		c := Config{TrustedProxies: raw}
		if got := c.TrustedProxyList(); !reflect.DeepEqual(got, want) {
			t.Errorf("TrustedProxyList(%q) = %v, want %v", raw, got, want)
		}
	}
}
