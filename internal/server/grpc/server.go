// Package grpc exposes the entry and principal services over gRPC using
// a hand-written service descriptor with google.protobuf.Struct messages.
package grpc

import (
	"context"
	"net"

	"github.com/ShubhamGupta2412/vaultboard/internal/expiry"
	"github.com/ShubhamGupta2412/vaultboard/internal/logging"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/metrics"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/models"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type EntryAPI interface {
	Create(ctx context.Context, p models.Principal, in services.CreateInput) (*models.Entry, error)
	Get(ctx context.Context, p models.Principal, id string) (*models.Entry, error)
	Update(ctx context.Context, p models.Principal, id string, patch models.EntryPatch) (*models.Entry, error)
	Delete(ctx context.Context, p models.Principal, id string) error
	List(ctx context.Context, p models.Principal, filter models.ListFilter, sort models.Sort, page models.Page) (*services.ListResult, error)
	Export(ctx context.Context, p models.Principal, id string) ([]byte, error)
	Stats(ctx context.Context, p models.Principal, id string, recentLimit int) (*services.EntryStats, error)
	Expiring(ctx context.Context, p models.Principal, horizonDays int) ([]expiry.Item, error)
	AttachFile(ctx context.Context, p models.Principal, id, name, contentType string, data []byte) (*models.FileRef, error)
	FileURL(ctx context.Context, p models.Principal, id string) (string, error)
}

type PrincipalAPI interface {
	SelfSignup(ctx context.Context, email, displayName, role string) (*services.SignupResult, error)
}

// PrincipalResolver turns the authenticated id on a context into a principal.
type PrincipalResolver interface {
	Current(ctx context.Context) (models.Principal, error)
}

type GRPCServer struct {
	address    string
	principals PrincipalAPI
	entries    EntryAPI
	resolver   PrincipalResolver
	logger     logging.Logger
	metrics    *metrics.Metrics
	jwtSecret  []byte
}

func NewGRPCServer(a string, l logging.Logger, ps PrincipalAPI, es EntryAPI, r PrincipalResolver,
	secretKey string, m *metrics.Metrics) *GRPCServer {
	return &GRPCServer{
		address:    a,
		logger:     l.With("module", "grpc_server"),
		principals: ps,
		entries:    es,
		resolver:   r,
		metrics:    m,
		jwtSecret:  []byte(secretKey),
	}
}

// MaxMessageSize admits a base64 encoded attachment at the upload ceiling.
const MaxMessageSize = 20 << 20

// NewServer builds a grpc.Server with the vault and health services
// registered. The returned health server is already SERVING.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	opts = append(opts,
		grpc.MaxRecvMsgSize(MaxMessageSize),
		grpc.ChainUnaryInterceptor(s.metricsInterceptor, s.accessTokenInterceptor),
	)
	srv := grpc.NewServer(opts...)

	srv.RegisterService(&VaultServiceDesc, s)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	return srv, hs
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv, hs := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		hs.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
