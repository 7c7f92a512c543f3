package smartdesk

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Client.
type Option func(*clientConfig)

// Storage backends.
const (
	driverMemory = "memory"
	driverValkey = "valkey"
	driverRedis  = "redis"
)

// server is where state lives. Addresses are ignored for the memory driver.
type server struct {
	driver   string
	addrs    []string
	username string
	password string
	db       int
}

type clientConfig struct {
	server server

	embedder  Embedder
	knowledge []KnowledgeEntry
	accounts  map[string]Settings

	maxDistance   float64
	upgradePlan   string
	defaultUserID string
	keyPrefix     string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithMemory keeps all state in process. This is the default.
func WithMemory() Option {
	return func(c *clientConfig) { c.server = server{driver: driverMemory} }
}

// WithValkey stores state in Valkey with the valkey-search module.
// Several addresses select a cluster.
func WithValkey(addrs ...string) Option {
	return remote(driverValkey, addrs)
}

// WithRedis stores state in Redis 8 or Redis Stack (RediSearch).
func WithRedis(addrs ...string) Option {
	return remote(driverRedis, addrs)
}

func remote(driver string, addrs []string) Option {
	return func(c *clientConfig) {
		c.server.driver = driver
		c.server.addrs = append([]string(nil), addrs...)
	}
}

// WithCredentials sets the ACL user and password for WithValkey or WithRedis.
// An empty username authenticates as the default user.
func WithCredentials(username, password string) Option {
	return func(c *clientConfig) {
		c.server.username = username
		c.server.password = password
	}
}

// WithDatabase selects a logical database (SELECT n). Standalone servers only.
func WithDatabase(n int) Option {
	return func(c *clientConfig) { c.server.db = n }
}

// WithEmbedder sets the text embedding provider.
// Defaults to an offline TF-IDF embedder fitted on the knowledge base.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) { c.embedder = e }
}

// WithKnowledge replaces the built-in knowledge base.
func WithKnowledge(entries ...KnowledgeEntry) Option {
	return func(c *clientConfig) {
		c.knowledge = append([]KnowledgeEntry(nil), entries...)
	}
}

// WithAccount seeds an account unless the store already has one for userID.
// Without any WithAccount the client seeds the default user on the Free plan.
func WithAccount(userID string, s Settings) Option {
	return func(c *clientConfig) {
		if c.accounts == nil {
			c.accounts = make(map[string]Settings)
		}
		c.accounts[userID] = s
	}
}

// WithMaxDistance sets the exclusive squared-L2 bound for a knowledge match.
// Default: 1.0.
func WithMaxDistance(d float64) Option {
	return func(c *clientConfig) { c.maxDistance = d }
}

// WithUpgradePlan sets the plan written by the upgrade rule.
// Default: "Pro Monthly".
func WithUpgradePlan(plan string) Option {
	return func(c *clientConfig) { c.upgradePlan = plan }
}

// WithDefaultUser sets the user id applied to tickets submitted without one.
// Default: "user123".
func WithDefaultUser(userID string) Option {
	return func(c *clientConfig) { c.defaultUserID = userID }
}

// WithKeyPrefix namespaces every stored key. Default: "smartdesk:".
func WithKeyPrefix(prefix string) Option {
	return func(c *clientConfig) { c.keyPrefix = prefix }
}

// WithLogger logs every operation at debug level and failures at warn.
// Nil, the default, disables logging.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}

// WithPrometheus registers operation counters and latency histograms on reg.
// Nil, the default, disables metrics.
func WithPrometheus(reg prometheus.Registerer) Option {
	return func(c *clientConfig) { c.metricsReg = reg }
}
