package rpc

import (
	"context"
	"errors"
	"net"
	"net/rpc"
	"time"

	"github.com/wfunc/escapeplan/game"
	"github.com/wfunc/escapeplan/logger"
	"github.com/wfunc/escapeplan/services"
)

const callTimeout = 5 * time.Second

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
	rpc      *rpc.Server
}

// NewServer creates a new RPC server.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  listener.Addr().String(),
		rpc:      rpc.NewServer(),
	}, nil
}

// Register exposes rcvr's exported methods.
func (s *Server) Register(rcvr interface{}) error {
	return s.rpc.Register(rcvr)
}

func (s *Server) Addr() string {
	return s.address
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// EscapeService is the struct that exposes RPC methods.
type EscapeService struct {
	stats *services.StatsService
}

func NewEscapeService(stats *services.StatsService) *EscapeService {
	return &EscapeService{stats: stats}
}

// Methods follow the net/rpc signature: exported method, exported arguments,
// second argument is a pointer, return type is error.
type StatsArgs struct{}

type StatsReply struct {
	Stats services.Stats
}

func (es *EscapeService) Stats(args *StatsArgs, reply *StatsReply) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	stats, err := es.stats.Stats(ctx)
	if err != nil {
		return err
	}
	reply.Stats = *stats
	return nil
}

type ResetArgs struct{}

type ResetReply struct {
	Cleared game.Scores
}

// Reset clears the score ledger and starts a fresh round.
func (es *EscapeService) Reset(args *ResetArgs, reply *ResetReply) error {
	reply.Cleared = es.stats.Reset()
	logger.Log.Infow("scores reset over RPC", "warden", reply.Cleared.Warden, "prisoner", reply.Cleared.Prisoner)
	return nil
}
