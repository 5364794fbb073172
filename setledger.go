package setledger

import (
	"context"
	"log/slog"

	redisadapter "github.com/aretw0/setledger/internal/adapters/redis"
	"github.com/aretw0/setledger/internal/logging"
	"github.com/aretw0/setledger/internal/repository"
	"github.com/aretw0/setledger/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Version is the release version reported by the CLI.
const Version = "0.1.0"

// Service is the high-level entry point for the setledger library. It wires
// the repositories over one record store and exposes the operations the
// request handler consumes.
type Service struct {
	store    *redisadapter.Store
	sessions *repository.SessionRepository
	sets     *repository.SetRepository
}

// Option defines a functional option for configuring the Service.
type Option func(*settings)

type settings struct {
	prefix string
	logger *slog.Logger
	clock  repository.Clock
}

// WithLogger injects the application logger; repositories log best-effort
// compensation failures through it.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithKeyPrefix sets the store key namespace.
func WithKeyPrefix(prefix string) Option {
	return func(s *settings) {
		s.prefix = prefix
	}
}

// WithClock overrides the time source. Tests use this to control createdAt
// ordering.
func WithClock(clock repository.Clock) Option {
	return func(s *settings) {
		s.clock = clock
	}
}

// New connects to Redis and builds the service.
func New(address, password string, db int, opts ...Option) *Service {
	return NewFromClient(backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	}), opts...)
}

// NewFromClient builds the service from an existing Redis client.
func NewFromClient(client *backend.Client, opts ...Option) *Service {
	cfg := settings{
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	var storeOpts []redisadapter.Option
	if cfg.prefix != "" {
		storeOpts = append(storeOpts, redisadapter.WithPrefix(cfg.prefix))
	}
	store := redisadapter.NewFromClient(client, storeOpts...)

	sessions := repository.NewSessionRepository(store, cfg.logger, cfg.clock)
	sets := repository.NewSetRepository(store, sessions, cfg.logger, cfg.clock)

	return &Service{
		store:    store,
		sessions: sessions,
		sets:     sets,
	}
}

// CreateSession starts a new workout session for the owner.
func (s *Service) CreateSession(ctx context.Context, ownerID, note string) (domain.Session, error) {
	return s.sessions.Create(ctx, ownerID, note)
}

// ListSessions returns the owner's sessions, newest first.
func (s *Service) ListSessions(ctx context.Context, ownerID string, limit int) ([]domain.Session, error) {
	return s.sessions.List(ctx, ownerID, limit)
}

// DeleteSession removes a session and all of its sets. Idempotent.
func (s *Service) DeleteSession(ctx context.Context, ownerID, sessionID string) (domain.DeleteSessionResult, error) {
	return s.sessions.Delete(ctx, ownerID, sessionID)
}

// AppendSet records a set at the session's next sequence number.
func (s *Service) AppendSet(ctx context.Context, ownerID, sessionID string, weight float64, reps int64, note string) (domain.AppendReceipt, error) {
	return s.sets.Append(ctx, ownerID, sessionID, weight, reps, note)
}

// ListSets returns the session's sets, newest first.
func (s *Service) ListSets(ctx context.Context, ownerID, sessionID string, limit int) ([]domain.Set, error) {
	return s.sets.List(ctx, ownerID, sessionID, limit)
}

// DeleteSet removes one set and best-effort compensates the session
// aggregate.
func (s *Service) DeleteSet(ctx context.Context, ownerID, sessionID string, seq int64) error {
	return s.sets.Delete(ctx, ownerID, sessionID, seq)
}

// GetSession loads one session record, aggregate counters included.
func (s *Service) GetSession(ctx context.Context, ownerID, sessionID string) (domain.Session, error) {
	return s.sessions.Get(ctx, ownerID, sessionID)
}

// Close releases the underlying store connection.
func (s *Service) Close() error {
	return s.store.Close()
}
