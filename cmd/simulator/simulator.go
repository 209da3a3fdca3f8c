package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/seu-repo/autospace/internal/adapter/grpc/server"
	"github.com/seu-repo/autospace/internal/domain"
)

// SimulatorConfig holds gate simulator configuration
type SimulatorConfig struct {
	APIURL   string
	GRPCAddr string
	Email    string
	PIN      string
	Plates   []string
	Interval time.Duration
}

// Simulator drives entry and exit gates against the session service
type Simulator struct {
	config *SimulatorConfig
	log    *zap.Logger

	token string
	conn  *grpc.ClientConn
	feed  *websocket.Conn

	mu     sync.Mutex
	inside map[string]string // plate -> session id

	wg sync.WaitGroup
}

// NewSimulator creates a new gate simulator
func NewSimulator(config *SimulatorConfig, log *zap.Logger) *Simulator {
	return &Simulator{
		config: config,
		log:    log,
		inside: make(map[string]string),
	}
}

// Connect logs the operator in and dials the gRPC endpoint
func (s *Simulator) Connect(ctx context.Context) error {
	token, err := s.login(ctx)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	s.token = token

	conn, err := grpc.NewClient(s.config.GRPCAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(server.CodecName)),
	)
	if err != nil {
		return fmt.Errorf("failed to dial gRPC: %w", err)
	}
	s.conn = conn

	s.log.Info("Connected to AutoSpace",
		zap.String("api", s.config.APIURL),
		zap.String("grpc", s.config.GRPCAddr),
	)

	return nil
}

// Stop closes the feed and the gRPC connection
func (s *Simulator) Stop() {
	if s.feed != nil {
		s.feed.Close()
	}
	s.wg.Wait()
	if s.conn != nil {
		s.conn.Close()
	}
}

func (s *Simulator) login(ctx context.Context) (string, error) {
	body, err := json.Marshal(map[string]string{"email": s.config.Email, "pin": s.config.PIN})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIURL+"/api/v1/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", errors.New("empty access token")
	}
	return out.AccessToken, nil
}

// WatchFeed follows /ws/sessions and logs every event
func (s *Simulator) WatchFeed(ctx context.Context) error {
	u, err := url.Parse(s.config.APIURL)
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws/sessions"
	u.RawQuery = url.Values{"access_token": {s.token}}.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect feed: %w", err)
	}
	s.feed = conn

	s.wg.Add(1)
	go s.readFeed()
	return nil
}

func (s *Simulator) readFeed() {
	defer s.wg.Done()
	for {
		_, data, err := s.feed.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("Feed closed", zap.Error(err))
			}
			return
		}
		var event domain.SessionEvent
		if err := json.Unmarshal(data, &event); err != nil {
			s.log.Warn("Unreadable feed message", zap.ByteString("data", data))
			continue
		}
		s.log.Info("Feed event",
			zap.String("type", event.EventType),
			zap.String("session_number", event.SessionNumber),
			zap.String("vehicle_id", event.VehicleID),
		)
	}
}

func (s *Simulator) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+s.token)
	return context.WithTimeout(ctx, 10*time.Second)
}

func (s *Simulator) invoke(ctx context.Context, method string, req, resp interface{}) error {
	ctx, cancel := s.callCtx(ctx)
	defer cancel()
	return s.conn.Invoke(ctx, "/"+server.SessionServiceName+"/"+method, req, resp)
}

// Enter opens a session for plate
func (s *Simulator) Enter(ctx context.Context, plate string) (*domain.Session, error) {
	var sess domain.Session
	if err := s.invoke(ctx, "OpenSession", &server.OpenSessionRequest{Plate: plate}, &sess); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.inside[plate] = sess.ID
	s.mu.Unlock()
	return &sess, nil
}

// Exit closes the session held by plate
func (s *Simulator) Exit(ctx context.Context, plate string) (*domain.Session, error) {
	id, ok := s.sessionFor(plate)
	if !ok {
		return nil, fmt.Errorf("plate %s is not inside", plate)
	}
	var sess domain.Session
	if err := s.invoke(ctx, "CloseSession", &server.CloseSessionRequest{SessionID: id}, &sess); err != nil {
		return nil, err
	}
	s.mu.Lock()
	delete(s.inside, plate)
	s.mu.Unlock()
	return &sess, nil
}

// Quote returns the fee plate would pay right now
func (s *Simulator) Quote(ctx context.Context, plate string) (*domain.Invoice, error) {
	id, ok := s.sessionFor(plate)
	if !ok {
		return nil, fmt.Errorf("plate %s is not inside", plate)
	}
	var inv domain.Invoice
	if err := s.invoke(ctx, "QuoteSession", &server.QuoteSessionRequest{ID: id}, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *Simulator) listActive(ctx context.Context) ([]domain.Session, error) {
	var out server.ListSessionsResponse
	if err := s.invoke(ctx, "ListSessions", &server.ListSessionsRequest{ActiveOnly: true}, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

func (s *Simulator) sessionFor(plate string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.inside[plate]
	return id, ok
}

// Run toggles random plates in and out until ctx is done
func (s *Simulator) Run(ctx context.Context) {
	if len(s.config.Plates) == 0 {
		s.log.Warn("No plates configured")
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			plate := s.config.Plates[rand.Intn(len(s.config.Plates))]
			s.toggle(ctx, plate)
		}
	}
}

func (s *Simulator) toggle(ctx context.Context, plate string) {
	if _, inside := s.sessionFor(plate); inside {
		sess, err := s.Exit(ctx, plate)
		if err != nil {
			s.log.Error("Exit failed", zap.String("plate", plate), zap.Error(err))
			return
		}
		s.log.Info("Vehicle left",
			zap.String("plate", plate),
			zap.String("session_number", sess.SessionNumber),
			zap.Float64p("amount", sess.Amount),
		)
		return
	}

	sess, err := s.Enter(ctx, plate)
	if err != nil {
		s.log.Error("Entry failed", zap.String("plate", plate), zap.Error(err))
		return
	}
	s.log.Info("Vehicle entered",
		zap.String("plate", plate),
		zap.String("session_number", sess.SessionNumber),
	)
}

// RunInteractive reads gate commands from stdin
func (s *Simulator) RunInteractive(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		parts := strings.Fields(strings.TrimSpace(scanner.Text()))
		if len(parts) == 0 {
			fmt.Print("> ")
			continue
		}

		cmd := parts[0]
		var plate string
		if len(parts) > 1 {
			plate = strings.ToUpper(parts[1])
		}

		switch cmd {
		case "enter", "exit", "quote":
			if plate == "" {
				fmt.Printf("Usage: %s <plate>\n", cmd)
				break
			}
			s.runPlateCommand(ctx, cmd, plate)

		case "active":
			open, err := s.listActive(ctx)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				break
			}
			if len(open) == 0 {
				fmt.Println("No open sessions")
			}
			for _, sess := range open {
				fmt.Printf("  %s  vehicle=%s  since=%s\n", sess.SessionNumber, sess.VehicleID, sess.EntryTime.Format(time.RFC3339))
			}

		case "quit":
			return

		default:
			fmt.Printf("Unknown command: %s\n", cmd)
		}
		fmt.Print("> ")
	}
}

func (s *Simulator) runPlateCommand(ctx context.Context, cmd, plate string) {
	switch cmd {
	case "enter":
		sess, err := s.Enter(ctx, plate)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("Opened %s for %s\n", sess.SessionNumber, plate)
	case "exit":
		sess, err := s.Exit(ctx, plate)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		amount := 0.0
		if sess.Amount != nil {
			amount = *sess.Amount
		}
		fmt.Printf("Closed %s for %s, amount %.2f\n", sess.SessionNumber, plate, amount)
	case "quote":
		inv, err := s.Quote(ctx, plate)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("%s: %d min, %.2f %s\n", inv.SessionNumber, inv.ElapsedMinutes, inv.TotalAmount, inv.Currency)
	}
}
