package ws

import (
	"log/slog"
	"net/http"
	"time"

	"direct-chat/contract"
	"direct-chat/runtime"
	"direct-chat/services"

	"github.com/gorilla/websocket"
)

// Config holds the transport tunables.
type Config struct {
	ConnectionBufferSize int
	JoinTimeout          time.Duration
	WriteWait            time.Duration
	PongWait             time.Duration
}

// Server upgrades HTTP requests and runs the connection lifecycle.
type Server struct {
	verifier    contract.IVerifier
	broadcaster *runtime.Broadcaster
	messages    services.IMessageService
	typing      services.ITypingService
	upgrader    websocket.Upgrader
	cfg         Config
	log         *slog.Logger
}

func NewServer(
	verifier contract.IVerifier,
	broadcaster *runtime.Broadcaster,
	messages services.IMessageService,
	typing services.ITypingService,
	cfg Config,
	log *slog.Logger,
) *Server {
	return &Server{
		verifier:    verifier,
		broadcaster: broadcaster,
		messages:    messages,
		typing:      typing,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from a separately served frontend.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		cfg: cfg,
		log: log,
	}
}

// Handle is the websocket endpoint. It blocks for the lifetime of the
// connection.
func (s *Server) Handle(w http.ResponseWriter, r *http.Request) {
	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Websocket upgrade failed", "error", err)
		return
	}
	newConnection(wsConn, s).run(r.Context())
}
