package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xplshn/tracerr2"

	"github.com/nhdewitt/fileserver-from-tcp/internal/accesslog"
	"github.com/nhdewitt/fileserver-from-tcp/internal/request"
	"github.com/nhdewitt/fileserver-from-tcp/internal/response"
)

type Config struct {
	Addr string
	// Workers caps concurrently served connections. Zero means one
	// goroutine per connection with no limit.
	Workers int
	// ReadTimeout bounds the single request read. Zero waits forever.
	ReadTimeout time.Duration
	ServerName  string
	Logger      *slog.Logger
	AccessLog   *accesslog.Logger
}

type Server struct {
	listener    net.Listener
	isListening atomic.Bool
	handler     Handler
	cfg         Config
	logger      *slog.Logger
	slots       chan struct{}
	done        chan struct{}
	conns       sync.WaitGroup
	loop        sync.WaitGroup
}

// Serve binds cfg.Addr and starts accepting in the background.
func Serve(cfg Config, handler Handler) (*Server, error) {
	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, tracerr.Wrapf(err, "failed to listen on %s", cfg.Addr)
	}
	return New(listener, cfg, handler), nil
}

// New serves on an existing listener.
func New(listener net.Listener, cfg Config, handler Handler) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		listener: listener,
		handler:  handler,
		cfg:      cfg,
		logger:   logger,
		done:     make(chan struct{}),
	}
	if cfg.Workers > 0 {
		s.slots = make(chan struct{}, cfg.Workers)
	}
	s.isListening.Store(true)

	s.loop.Add(1)
	go s.listen()

	return s
}

func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Close stops accepting. Connections already being served run to completion.
func (s *Server) Close() error {
	if !s.isListening.CompareAndSwap(true, false) {
		return nil
	}
	close(s.done)

	err := s.listener.Close()
	s.loop.Wait()
	return err
}

// Shutdown closes the listener and waits for in-flight connections or ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.Close()

	finished := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) listen() {
	defer s.loop.Done()

	for {
		if s.slots != nil {
			select {
			case s.slots <- struct{}{}:
			case <-s.done:
				return
			}
		}

		conn, err := s.listener.Accept()
		if err != nil {
			s.release()
			if !s.isListening.Load() {
				return
			}
			s.logger.Error("error accepting connection", "error", err)
			continue
		}

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			defer s.release()
			s.serve(conn)
		}()
	}
}

func (s *Server) release() {
	if s.slots != nil {
		<-s.slots
	}
}

func (s *Server) serve(conn net.Conn) {
	defer conn.Close()

	if s.cfg.ReadTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
			s.logger.Warn("error setting read deadline", "remote", conn.RemoteAddr(), "error", err)
		}
	}

	if _, err := s.HandleConn(conn); err != nil {
		s.logger.Warn("connection abandoned", "remote", conn.RemoteAddr(), "error", err)
	}
}

// HandleConn runs one read, parse, resolve, respond exchange on rw. The
// returned error is a transport failure; the outcome is still reported.
func (s *Server) HandleConn(rw io.ReadWriter) (response.Outcome, error) {
	raw, err := request.ReadRaw(rw)
	if err != nil {
		return response.Outcome{}, tracerr.Wrapf(err, "error reading request")
	}

	var outcome response.Outcome
	req, err := request.Parse(raw)
	if err != nil {
		s.logger.Debug("rejecting request", "error", err)
		outcome = response.BadRequest()
	} else {
		outcome = s.handler(req)
	}
	if outcome.Status == response.StatusOK && outcome.ServerName == "" {
		outcome.ServerName = s.cfg.ServerName
	}

	n, werr := outcome.WriteTo(rw)
	s.record(request.FirstLine(raw), outcome.Status, n)
	if werr != nil {
		return outcome, tracerr.Wrapf(werr, "error writing response")
	}
	return outcome, nil
}

func (s *Server) record(line string, status response.StatusCode, size int64) {
	s.logger.Debug("request served", "request", line, "status", int(status), "bytes", size)
	if s.cfg.AccessLog == nil {
		return
	}
	err := s.cfg.AccessLog.Log(accesslog.Record{
		Time:        time.Now(),
		RequestLine: line,
		Status:      int(status),
		Size:        size,
	})
	if err != nil {
		s.logger.Warn("error writing access log", "error", err)
	}
}
