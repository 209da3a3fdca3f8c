package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/seu-repo/autospace/internal/adapter/grpc/interceptors"
	"github.com/seu-repo/autospace/internal/domain"
	"github.com/seu-repo/autospace/internal/ports"
)

const SessionServiceName = "autospace.session.v1.SessionService"

type OpenSessionRequest struct {
	VehicleID     string `json:"vehicle_id,omitempty"`
	Plate         string `json:"plate,omitempty"`
	SessionNumber string `json:"session_number,omitempty"`
}

type CloseSessionRequest struct {
	SessionID     string `json:"session_id,omitempty"`
	SessionNumber string `json:"session_number,omitempty"`
}

type GetSessionRequest struct {
	ID     string `json:"id,omitempty"`
	Number string `json:"number,omitempty"`
}

type ListSessionsRequest struct {
	ActiveOnly bool       `json:"active_only,omitempty"`
	From       *time.Time `json:"from,omitempty"`
	To         *time.Time `json:"to,omitempty"`
}

type ListSessionsResponse struct {
	Sessions []domain.Session `json:"sessions"`
}

type QuoteSessionRequest struct {
	ID string     `json:"id"`
	At *time.Time `json:"at,omitempty"`
}

// SessionServer exposes the session lifecycle to internal callers such as
// gate controllers.
type SessionServer interface {
	OpenSession(ctx context.Context, req *OpenSessionRequest) (*domain.Session, error)
	CloseSession(ctx context.Context, req *CloseSessionRequest) (*domain.Session, error)
	GetSession(ctx context.Context, req *GetSessionRequest) (*domain.Session, error)
	ListSessions(ctx context.Context, req *ListSessionsRequest) (*ListSessionsResponse, error)
	QuoteSession(ctx context.Context, req *QuoteSessionRequest) (*domain.Invoice, error)
}

type sessionGrpcService struct {
	sessions ports.SessionService
	now      func() time.Time
	log      *zap.Logger
}

func newSessionGrpcService(sessions ports.SessionService, log *zap.Logger) *sessionGrpcService {
	return &sessionGrpcService{
		sessions: sessions,
		now:      time.Now,
		log:      log,
	}
}

func (s *sessionGrpcService) OpenSession(ctx context.Context, req *OpenSessionRequest) (*domain.Session, error) {
	hasID := strings.TrimSpace(req.VehicleID) != ""
	hasPlate := strings.TrimSpace(req.Plate) != ""
	if hasID == hasPlate {
		return nil, fmt.Errorf("%w: exactly one of vehicle_id or plate is required", domain.ErrInvalidArgument)
	}

	open := ports.OpenSessionRequest{
		VehicleID:     req.VehicleID,
		SessionNumber: req.SessionNumber,
		Now:           s.now(),
	}
	if id := interceptors.OperatorID(ctx); id != "" {
		open.OperatorID = &id
	}

	if hasPlate {
		return s.sessions.OpenSessionByPlate(ctx, req.Plate, open)
	}
	return s.sessions.OpenSession(ctx, open)
}

func (s *sessionGrpcService) CloseSession(ctx context.Context, req *CloseSessionRequest) (*domain.Session, error) {
	return s.sessions.CloseSession(ctx, ports.CloseSessionRequest{
		SessionID:     req.SessionID,
		SessionNumber: req.SessionNumber,
		OperatorID:    interceptors.OperatorID(ctx),
		Now:           s.now(),
	})
}

func (s *sessionGrpcService) GetSession(ctx context.Context, req *GetSessionRequest) (*domain.Session, error) {
	if req.Number != "" {
		return s.sessions.GetSessionByNumber(ctx, req.Number)
	}
	return s.sessions.GetSession(ctx, req.ID)
}

func (s *sessionGrpcService) ListSessions(ctx context.Context, req *ListSessionsRequest) (*ListSessionsResponse, error) {
	var (
		list []domain.Session
		err  error
	)
	if req.ActiveOnly {
		list, err = s.sessions.ListActiveSessions(ctx)
	} else {
		list, err = s.sessions.ListSessions(ctx, req.From, req.To)
	}
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.Session{}
	}
	return &ListSessionsResponse{Sessions: list}, nil
}

func (s *sessionGrpcService) QuoteSession(ctx context.Context, req *QuoteSessionRequest) (*domain.Invoice, error) {
	at := s.now()
	if req.At != nil {
		at = *req.At
	}
	return s.sessions.QuoteSession(ctx, req.ID, at)
}

// unaryHandler adapts a typed method to grpc.MethodDesc.
func unaryHandler[Req any, Resp any](method string, call func(SessionServer, context.Context, *Req) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(SessionServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + SessionServiceName + "/" + method,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(SessionServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// SessionServiceDesc describes the session service for grpc.Server.
var SessionServiceDesc = grpc.ServiceDesc{
	ServiceName: SessionServiceName,
	HandlerType: (*SessionServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("OpenSession", SessionServer.OpenSession),
		unaryHandler("CloseSession", SessionServer.CloseSession),
		unaryHandler("GetSession", SessionServer.GetSession),
		unaryHandler("ListSessions", SessionServer.ListSessions),
		unaryHandler("QuoteSession", SessionServer.QuoteSession),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "autospace/session/v1/session.json",
}
