package smartdesk

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/smartdesk/internal/db"
	"github.com/kailas-cloud/smartdesk/internal/db/memory"
	dbRedis "github.com/kailas-cloud/smartdesk/internal/db/redis"
	"github.com/kailas-cloud/smartdesk/internal/domain"
	domacct "github.com/kailas-cloud/smartdesk/internal/domain/account"
	domkb "github.com/kailas-cloud/smartdesk/internal/domain/knowledge"
	"github.com/kailas-cloud/smartdesk/internal/domain/ticket"
	domtriage "github.com/kailas-cloud/smartdesk/internal/domain/triage"
	accountrepo "github.com/kailas-cloud/smartdesk/internal/repository/account"
	knowledgerepo "github.com/kailas-cloud/smartdesk/internal/repository/knowledge"
	"github.com/kailas-cloud/smartdesk/internal/transport/local"
	accountuc "github.com/kailas-cloud/smartdesk/internal/usecase/account"
	healthuc "github.com/kailas-cloud/smartdesk/internal/usecase/health"
	knowledgeuc "github.com/kailas-cloud/smartdesk/internal/usecase/knowledge"
	triageuc "github.com/kailas-cloud/smartdesk/internal/usecase/triage"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "smartdesk:"
	defaultUserID           = "user123"
)

// Internal interfaces, swapped for fakes in tests.
type triageUseCase interface {
	Triage(ctx context.Context, t ticket.Ticket) (domtriage.Result, error)
}

type accountUseCase interface {
	Get(ctx context.Context, userID string) (domacct.Settings, error)
	Put(ctx context.Context, userID string, s domacct.Settings) error
	SetPlan(ctx context.Context, userID, plan string) error
}

type knowledgeUseCase interface {
	Entries() []domkb.Entry
}

// Client is the smartdesk SDK entry point.
type Client struct {
	store         db.Store
	triageSvc     triageUseCase
	accountSvc    accountUseCase
	knowledgeSvc  knowledgeUseCase
	healthSvc     healthUseCase
	defaultUserID string
	obs           *observer
}

// New creates a Client, indexes the knowledge base and seeds accounts.
// The provided context is used for the readiness check and indexing.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		server:        server{driver: driverMemory},
		keyPrefix:     defaultKeyPrefix,
		defaultUserID: defaultUserID,
	}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.accounts == nil {
		cfg.accounts = map[string]Settings{
			defaultUserID: {Plan: "Free", Email: defaultUserID + "@example.com"},
		}
	}

	if cfg.server.driver != driverMemory && len(cfg.server.addrs) == 0 {
		return nil, errors.New("smartdesk: database address required for " + cfg.server.driver)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("smartdesk: database not ready: %w", err)
	}

	c, err := wireClient(ctx, store, cfg, obs)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	srv := cfg.server
	switch srv.driver {
	case driverMemory:
		return memory.NewStore(), nil
	case driverValkey, driverRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    srv.addrs,
			Username: srv.username,
			Password: srv.password,
			DB:       srv.db,
		})
		if err != nil {
			return nil, fmt.Errorf("smartdesk: create %s store: %w", srv.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("smartdesk: unknown driver %q", srv.driver)
	}
}

func wireClient(ctx context.Context, store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	var embedder domain.Embedder = local.NewEmbedder()
	if cfg.embedder != nil {
		embedder = &embedderAdapter{inner: cfg.embedder}
	}

	entries := domkb.Defaults()
	if len(cfg.knowledge) > 0 {
		var err error
		if entries, err = knowledgeFromPublic(cfg.knowledge); err != nil {
			return nil, err
		}
	}

	knowledgeSvc := knowledgeuc.New(knowledgerepo.New(store, cfg.keyPrefix), embedder, zap.NewNop())
	if err := knowledgeSvc.Build(ctx, entries); err != nil {
		return nil, fmt.Errorf("smartdesk: index knowledge: %w", err)
	}

	accountSvc := accountuc.New(accountrepo.New(store, cfg.keyPrefix))
	seed := make(map[string]domacct.Settings, len(cfg.accounts))
	for id, s := range cfg.accounts {
		seed[id] = domacct.Settings{Plan: s.Plan, Email: s.Email}
	}
	if _, err := accountSvc.Seed(ctx, seed); err != nil {
		return nil, fmt.Errorf("smartdesk: seed accounts: %w", err)
	}

	triageSvc := triageuc.New(knowledgeSvc, accountSvc, triageuc.Config{
		MaxDistance: cfg.maxDistance,
		UpgradePlan: cfg.upgradePlan,
	}, zap.NewNop())

	var embCheck healthuc.EmbeddingChecker
	if hc, ok := embedder.(domain.HealthChecker); ok {
		embCheck = hc
	}

	return &Client{
		store:         store,
		triageSvc:     triageSvc,
		accountSvc:    accountSvc,
		knowledgeSvc:  knowledgeSvc,
		healthSvc:     healthuc.New(store, embCheck, knowledgeSvc),
		defaultUserID: cfg.defaultUserID,
		obs:           obs,
	}, nil
}

func knowledgeFromPublic(in []KnowledgeEntry) ([]domkb.Entry, error) {
	out := make([]domkb.Entry, len(in))
	for i, e := range in {
		entry, err := domkb.New(e.ID, e.Title, e.Content)
		if err != nil {
			return nil, fmt.Errorf("smartdesk: %w: %v", domain.ErrInvalidKnowledge, err)
		}
		out[i] = entry
	}
	return out, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	defer c.obs.track("ping")(&err)

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Triage runs the decision rules over one ticket.
// Upgrade requests update the account store as a side effect.
func (c *Client) Triage(ctx context.Context, in Ticket) (res Result, err error) {
	defer c.obs.track("triage")(&err)

	userID := in.UserID
	if strings.TrimSpace(userID) == "" {
		userID = c.defaultUserID
	}
	t, err := ticket.New(userID, in.Title, in.Description)
	if err != nil {
		return Result{}, fmt.Errorf("triage: %w: %v", domain.ErrInvalidTicket, err)
	}

	r, err := c.triageSvc.Triage(ctx, t)
	if err != nil {
		return Result{}, fmt.Errorf("triage: %w", err)
	}
	return resultFromDomain(r), nil
}

// Knowledge lists the indexed knowledge entries.
func (c *Client) Knowledge() []KnowledgeEntry {
	entries := c.knowledgeSvc.Entries()
	out := make([]KnowledgeEntry, len(entries))
	for i, e := range entries {
		out[i] = KnowledgeEntry{ID: e.ID(), Title: e.Title(), Content: e.Content()}
	}
	return out
}

// Accounts returns the account settings service.
func (c *Client) Accounts() *AccountService {
	return &AccountService{svc: c.accountSvc, obs: c.obs}
}

func resultFromDomain(r domtriage.Result) Result {
	out := Result{
		TicketID:       r.Ticket().ID(),
		UserID:         r.Ticket().UserID(),
		Status:         Status(r.Status()),
		Rule:           string(r.Rule()),
		Reply:          r.Reply(),
		Draft:          r.Draft(),
		Reason:         r.Reason(),
		EscalationNote: r.EscalationNote(),
		Logs:           append([]string(nil), r.Logs()...),
	}
	if m, ok := r.Match(); ok {
		out.Match = &Match{EntryID: m.EntryID, Title: m.Title, Distance: m.Distance}
	}
	return out
}
