package server

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/escapeplan/config"
	"github.com/wfunc/escapeplan/logger"
	"github.com/wfunc/escapeplan/monitor"
	"github.com/wfunc/escapeplan/network"
	"github.com/wfunc/escapeplan/room"
	escape_rpc "github.com/wfunc/escapeplan/rpc"
	"github.com/wfunc/escapeplan/services"
	"github.com/wfunc/escapeplan/session"
)

type GameServer struct {
	cfg            config.ServerConfig
	upgrader       websocket.Upgrader
	router         chi.Router
	httpServer     *http.Server
	room           *room.Room
	sessionManager *session.Manager
	stats          *services.StatsService
	monitor        *monitor.Monitor
	rpcServer      *escape_rpc.Server
	healthServer   *escape_rpc.HealthServer
	shutdownOnce   sync.Once
	shutdownChan   chan struct{}
}

// NewGameServer wires the HTTP surface and, when their addresses are set, the
// net/rpc admin service and the gRPC health service.
func NewGameServer(cfg config.ServerConfig, rm *room.Room, sessions *session.Manager, stats *services.StatsService, mon *monitor.Monitor) (*GameServer, error) {
	s := &GameServer{
		cfg:            cfg,
		room:           rm,
		sessionManager: sessions,
		stats:          stats,
		monitor:        mon,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	if cfg.RPCAddress != "" {
		rpcServer, err := escape_rpc.NewServer(cfg.RPCAddress)
		if err != nil {
			return nil, err
		}
		if err := rpcServer.Register(escape_rpc.NewEscapeService(stats)); err != nil {
			rpcServer.Stop()
			return nil, err
		}
		s.rpcServer = rpcServer
	}

	if cfg.GRPCAddress != "" {
		healthServer, err := escape_rpc.NewHealthServer(cfg.GRPCAddress)
		if err != nil {
			if s.rpcServer != nil {
				s.rpcServer.Stop()
			}
			return nil, err
		}
		s.healthServer = healthServer
	}

	s.router = s.routes()
	s.httpServer = &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *GameServer) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/ws", s.handleWebSocket)
	r.Get("/healthz", s.handleHealth)
	r.Get("/stats", s.handleStats)
	r.Post("/admin/reset", s.handleReset)
	r.Method(http.MethodGet, "/metrics", s.monitor.Handler())
	r.Method(http.MethodGet, "/debug/vars", expvar.Handler())
	return r
}

// Handler exposes the router, mainly for tests.
func (s *GameServer) Handler() http.Handler {
	return s.router
}

func (s *GameServer) Start() error {
	if s.rpcServer != nil {
		go s.rpcServer.Start()
	}
	if s.healthServer != nil {
		go s.healthServer.Start()
		s.healthServer.SetServing(true)
	}

	logger.Log.Infof("Game server listening on %s", s.cfg.HTTPAddress)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and closes every live websocket.
func (s *GameServer) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		close(s.shutdownChan)
		if s.healthServer != nil {
			s.healthServer.SetServing(false)
		}
		err = s.httpServer.Shutdown(ctx)
		for _, sess := range s.sessionManager.All() {
			sess.Close()
		}
		if s.rpcServer != nil {
			s.rpcServer.Stop()
		}
		if s.healthServer != nil {
			s.healthServer.Stop()
		}
	})
	return err
}

func (s *GameServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *GameServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats.Stats(r.Context())
	if err != nil {
		logger.Log.Errorw("stats unavailable", "request_id", middleware.GetReqID(r.Context()), "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "stats unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *GameServer) handleReset(w http.ResponseWriter, r *http.Request) {
	cleared := s.stats.Reset()
	logger.Log.Infow("scores reset over HTTP", "request_id", middleware.GetReqID(r.Context()),
		"warden", cleared.Warden, "prisoner", cleared.Prisoner)
	writeJSON(w, http.StatusOK, map[string]interface{}{"cleared": cleared})
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn, s.cfg.SendQueue)
	sess := session.NewSession(uuid.New().String(), wsConn)

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
	if !s.room.Join(sess) {
		wsConn.Close()
		return
	}

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.room.Leave(sess.GetID())
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
		}

		data, err := wsConn.ReadMessage()
		if err != nil {
			return
		}
		s.monitor.IncMessagesReceived()
		sess.Touch()
		s.handleMessage(sess, data)
	}
}

// handleMessage routes one client frame. Malformed frames and refused moves are
// dropped without a reply.
func (s *GameServer) handleMessage(sess *session.Session, data []byte) {
	in, err := network.DecodeIntent(data)
	if err != nil {
		logger.Log.Debugw("dropping frame", "session", sess.GetID(), "error", err)
		return
	}

	switch in.Type {
	case network.MsgTypeNick:
		s.room.SetNickname(sess.GetID(), in.Name)
	case network.MsgTypeMove:
		if err := s.room.Move(sess.GetID(), in.Role, in.Target()); err != nil {
			logger.Log.Debugw("move ignored", "session", sess.GetID(), "role", in.Role,
				"target", in.Target().String(), "reason", err)
		}
	case network.MsgTypeReset:
		s.room.Reset()
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Warnw("write response failed", "error", err)
	}
}
