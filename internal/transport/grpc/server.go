// transport/grpc поднимает gRPC-сервер только со стандартным grpc.health.v1
// для оркестратора. Статус health следует за доступностью базы данных.
package grpc

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/pribylovaa/playlist-transfer-api/internal/interceptors"
)

// Pinger проверяет доступность зависимости (storage.Storage).
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options — параметры сборки сервера.
type Options struct {
	Logger     *slog.Logger
	Timeout    time.Duration // deadline unary-вызова, если клиент его не задал
	Reflection bool          // только local/dev
}

// Server — gRPC health-сервер.
type Server struct {
	srv    *grpc.Server
	health *health.Server
	log    *slog.Logger
	ready  atomic.Bool
}

// New собирает сервер с интерсепторами и health-сервисом в статусе NOT_SERVING.
func New(opts Options) *Server {
	l := opts.Logger
	if l == nil {
		l = slog.Default()
	}

	grpc_prometheus.EnableHandlingTimeHistogram()

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptors.Recover(l),
			interceptors.UnaryLoggingInterceptor(l),
			interceptors.WithTimeout(opts.Timeout),
			grpc_prometheus.UnaryServerInterceptor,
		),
		grpc.ChainStreamInterceptor(
			grpc_prometheus.StreamServerInterceptor,
		),
	)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	if opts.Reflection {
		reflection.Register(srv)
	}

	grpc_prometheus.Register(srv)

	return &Server{srv: srv, health: hs, log: l}
}

// Serve блокируется до остановки сервера.
func (s *Server) Serve(lis net.Listener) error {
	s.log.Info("grpc_listen_start", slog.String("addr", lis.Addr().String()))

	if err := s.srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}

	return nil
}

// SetServing переключает статус health. Смена статуса логируется.
func (s *Server) SetServing(ok bool) {
	if s.ready.Swap(ok) == ok {
		return
	}

	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)

	s.log.Info("grpc_health_changed", slog.String("status", st.String()))
}

// Ready сообщает текущий статус (для HTTP /healthz).
func (s *Server) Ready() bool {
	return s.ready.Load()
}

// WatchReadiness сразу и затем раз в interval проверяет p и выставляет статус.
// Возвращается при отмене ctx.
func (s *Server) WatchReadiness(ctx context.Context, p Pinger, interval time.Duration) {
	check := func() {
		pctx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()

		err := p.Ping(pctx)
		if err != nil && ctx.Err() == nil {
			s.log.Warn("readiness_ping_failed", slog.String("err", err.Error()))
		}
		s.SetServing(err == nil)
	}

	check()

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			check()
		}
	}
}

// Shutdown переводит health в NOT_SERVING и останавливает сервер;
// по истечении ctx соединения рвутся принудительно.
func (s *Server) Shutdown(ctx context.Context) {
	s.health.Shutdown()
	s.ready.Store(false)

	done := make(chan struct{})
	go func() {
		s.srv.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("grpc_stopped")
	case <-ctx.Done():
		s.log.Warn("grpc_force_stop")
		s.srv.Stop()
	}
}
