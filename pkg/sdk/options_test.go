package smartdesk

import (
	"slices"
	"testing"
)

func applyAll(opts ...Option) *clientConfig {
	cfg := &clientConfig{server: server{driver: driverMemory}}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

func TestServerOptions(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want server
	}{
		{"default", nil, server{driver: driverMemory}},
		{
			"valkey cluster with acl",
			[]Option{WithValkey("a:6379", "b:6379"), WithCredentials("triage", "s3cret")},
			server{driver: driverValkey, addrs: []string{"a:6379", "b:6379"}, username: "triage", password: "s3cret"},
		},
		{
			"redis db",
			[]Option{WithRedis("localhost:6379"), WithDatabase(2)},
			server{driver: driverRedis, addrs: []string{"localhost:6379"}, db: 2},
		},
		{
			"memory resets remote",
			[]Option{WithRedis("localhost:6379"), WithCredentials("", "pw"), WithMemory()},
			server{driver: driverMemory},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applyAll(tt.opts...).server
			if got.driver != tt.want.driver || !slices.Equal(got.addrs, tt.want.addrs) ||
				got.username != tt.want.username || got.password != tt.want.password || got.db != tt.want.db {
				t.Errorf("server = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestWithValkey_CopiesAddrs(t *testing.T) {
	addrs := []string{"a:6379"}
	cfg := applyAll(WithValkey(addrs...))
	addrs[0] = "changed"
	if cfg.server.addrs[0] != "a:6379" {
		t.Errorf("addrs aliased caller slice: %v", cfg.server.addrs)
	}
}

func TestWithAccount_Accumulates(t *testing.T) {
	cfg := applyAll(
		WithAccount("u1", Settings{Plan: "Free"}),
		WithAccount("u2", Settings{Plan: "Pro Monthly"}),
	)
	if len(cfg.accounts) != 2 || cfg.accounts["u2"].Plan != "Pro Monthly" {
		t.Errorf("accounts = %+v", cfg.accounts)
	}
}
