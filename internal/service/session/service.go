package session

import (
	"context"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/seu-repo/autospace/internal/adapter/queue"
	"github.com/seu-repo/autospace/internal/domain"
	"github.com/seu-repo/autospace/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/autospace/internal/observability/telemetry"
	"github.com/seu-repo/autospace/internal/ports"
	"github.com/seu-repo/autospace/internal/service/billing"
	"github.com/seu-repo/autospace/internal/service/rates"
)

// Config tunes the lifecycle manager.
type Config struct {
	// OperationTimeout bounds an operation whose context has no deadline.
	OperationTimeout time.Duration
}

// Service owns the open → closed lifecycle of parking sessions.
type Service struct {
	vehicles ports.VehicleRepository
	sessions ports.SessionRepository
	rates    *rates.Resolver
	billing  *billing.Service
	locker   ports.Locker
	numbers  *NumberGenerator
	guard    *circuitbreaker.Guard
	mq       queue.MessageQueue
	cfg      Config
	tracer   trace.Tracer
	log      *zap.Logger
}

func NewService(
	vehicles ports.VehicleRepository,
	sessions ports.SessionRepository,
	resolver *rates.Resolver,
	billingSvc *billing.Service,
	locker ports.Locker,
	numbers *NumberGenerator,
	guard *circuitbreaker.Guard,
	mq queue.MessageQueue,
	cfg Config,
	log *zap.Logger,
) *Service {
	return &Service{
		vehicles: vehicles,
		sessions: sessions,
		rates:    resolver,
		billing:  billingSvc,
		locker:   locker,
		numbers:  numbers,
		guard:    guard,
		mq:       mq,
		cfg:      cfg,
		tracer:   otel.Tracer("github.com/seu-repo/autospace/internal/service/session"),
		log:      log,
	}
}

var _ ports.SessionService = (*Service)(nil)

func (s *Service) begin(ctx context.Context, name string) (context.Context, context.CancelFunc, trace.Span) {
	cancel := context.CancelFunc(func() {})
	if _, ok := ctx.Deadline(); !ok && s.cfg.OperationTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.cfg.OperationTimeout)
	}
	ctx, span := s.tracer.Start(ctx, "session."+name)
	return ctx, cancel, span
}

func (s *Service) finish(span trace.Span, op string, err error) {
	telemetry.SessionOperationsTotal.WithLabelValues(op, telemetry.Outcome(err)).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Service) publish(eventType string, sess *domain.Session, at time.Time) {
	if s.mq == nil {
		return
	}
	data, err := json.Marshal(domain.NewSessionEvent(eventType, sess, at))
	if err != nil {
		s.log.Error("Failed to encode session event", zap.String("session_id", sess.ID), zap.Error(err))
		return
	}
	if err := s.mq.Publish(eventType, data); err != nil {
		s.log.Warn("Failed to publish session event",
			zap.String("event", eventType),
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)
	}
}
