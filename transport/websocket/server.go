package websocket

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-arcade/internal/entity"
	"github.com/rocketscienceinc/tictactoe-arcade/internal/pkg"
)

type gameManager interface {
	StartSession(ctx context.Context, id, mode string) (*entity.GameSession, error)
	ApplyMove(ctx context.Context, id string, cell int) (*entity.GameSession, error)
	RestartBoard(ctx context.Context, id string) (*entity.GameSession, error)
	ResetScore(ctx context.Context, id string) (*entity.GameSession, *entity.ScoreTally, error)
	Session(ctx context.Context, id string) (*entity.GameSession, error)
	Score(ctx context.Context, id string) (*entity.ScoreTally, error)
	CleanupSession(ctx context.Context, id string) error
}

// connection is one upgraded client connection. Responses from the
// message loop and pushed bot moves write to the same buffered stream
// from different goroutines, so every frame write takes writeMu.
type connection struct {
	bufrw *bufio.ReadWriter

	writeMu sync.Mutex
}

// Server is the command/query surface the presentation layer talks to. It
// also keeps a registry of live connections per session so that scripted
// moves applied after the pacing delay can be pushed to the client.
type Server struct {
	logger  *slog.Logger
	manager gameManager

	handlers map[string]func(ctx context.Context, message *Message, conn *connection) error

	connectionsMutex sync.RWMutex
	connections      map[string]*connection
}

func New(logger *slog.Logger, manager gameManager) *Server {
	server := &Server{
		logger:  logger,
		manager: manager,

		handlers:    make(map[string]func(context.Context, *Message, *connection) error),
		connections: make(map[string]*connection),
	}

	server.handlers["session:start"] = server.handleStartSession
	server.handlers["session:end"] = server.handleEndSession
	server.handlers["game:state"] = server.handleGameState
	server.handlers["game:turn"] = server.handleGameTurn
	server.handlers["game:restart"] = server.handleGameRestart
	server.handlers["score:get"] = server.handleScoreGet
	server.handlers["score:reset"] = server.handleScoreReset

	return server
}

// Start - starts the WebSocket server and blocks until it fails or the
// context is cancelled.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// PushUpdate delivers a session changed outside a request/response cycle,
// i.e. the scripted opponent's delayed move, to the session's connection.
func (that *Server) PushUpdate(session *entity.GameSession) {
	log := that.logger.With("method", "PushUpdate", "sessionID", session.ID)

	that.connectionsMutex.RLock()
	conn, ok := that.connections[session.ID]
	that.connectionsMutex.RUnlock()

	if !ok {
		log.Debug("no live connection for session, update dropped")
		return
	}

	payload := Payload{Session: session}

	if session.IsFinished() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		tally, err := that.manager.Score(ctx, session.ID)
		if err != nil {
			log.Error("failed to load score tally for update", "error", err)
		} else {
			payload.Score = tally
		}
	}

	if err := that.sendMessage(conn, "game:update", payload); err != nil {
		log.Error("failed to push update", "error", err)
	}
}

// upgradeToWebSocket - upgrades the connection to WebSocket per RFC 6455.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	if req.Header.Get("Upgrade") != "websocket" {
		http.Error(writer, "not a websocket upgrade", http.StatusBadRequest)
		return
	}

	key := req.Header.Get("Sec-WebSocket-Key")
	acceptKey := pkg.GenerateAcceptKey(key)

	writer.Header().Set("Upgrade", "websocket")
	writer.Header().Set("Connection", "Upgrade")
	writer.Header().Set("Sec-WebSocket-Accept", acceptKey)
	writer.WriteHeader(http.StatusSwitchingProtocols)

	hijacker, ok := writer.(http.Hijacker)
	if !ok {
		log.Error("web server does not support hijacking")
		return
	}

	netConn, bufrw, err := hijacker.Hijack()
	if err != nil {
		log.Error("failed to hijack connection", "error", err)
		return
	}

	defer netConn.Close()

	clientConn := &connection{bufrw: bufrw}
	defer that.dropConnection(clientConn)

	log.Info("WebSocket connection established")

	if err = that.handleMessages(ctx, clientConn); err != nil {
		log.Error("error handling messages", "error", err)
	}
}

// handleMessages - processes messages from the client until the
// connection closes.
func (that *Server) handleMessages(ctx context.Context, conn *connection) error {
	log := that.logger.With("method", "handleMessages")

	for {
		reqBody, err := that.readRequest(conn.bufrw)
		if errors.Is(err, errConnectionClosed) {
			log.Info("connection closed by peer")
			return nil
		}

		if err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}

		var message Message
		if err = json.Unmarshal(reqBody, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Error("unknown action", "action", message.Action)

			if err = that.sendErrorResponse(conn, message.Action, "unknown action"); err != nil {
				return err
			}

			continue
		}

		if err = handler(ctx, &message, conn); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

// registerConnection binds a session id to its live connection so pushed
// updates can find it.
func (that *Server) registerConnection(sessionID string, conn *connection) {
	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	that.connections[sessionID] = conn
}

func (that *Server) unregisterConnection(sessionID string) {
	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	delete(that.connections, sessionID)
}

// dropConnection removes every session bound to a closed connection.
func (that *Server) dropConnection(conn *connection) {
	that.connectionsMutex.Lock()
	defer that.connectionsMutex.Unlock()

	for sessionID, registered := range that.connections {
		if registered == conn {
			delete(that.connections, sessionID)
		}
	}
}
