package grpc

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ShubhamGupta2412/vaultboard/internal/audit"
	"github.com/ShubhamGupta2412/vaultboard/internal/common"
	"github.com/ShubhamGupta2412/vaultboard/internal/netx"
	"github.com/ShubhamGupta2412/vaultboard/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

func firstValue(md metadata.MD, key string) string {
	if v := md.Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}

// requiresToken reports whether method needs an access token. Everything
// on the vault service except Signup does; other services (health) do not.
func requiresToken(fullMethod string) bool {
	if !strings.HasPrefix(fullMethod, "/"+ServiceName+"/") {
		return false
	}
	return fullMethod != FullMethod(MethodSignup)
}

func originFrom(ctx context.Context, md metadata.MD) audit.Origin {
	var peerAddr string
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		peerAddr = p.Addr.String()
	}
	return audit.Origin{
		Address:   netx.ClientOrigin(firstValue(md, common.ForwardedForHeaderName), peerAddr),
		UserAgent: firstValue(md, common.UserAgentHeaderName),
	}
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	ctx = audit.WithOrigin(ctx, originFrom(ctx, md))

	if !requiresToken(info.FullMethod) {
		return handler(ctx, req)
	}

	accessToken := firstValue(md, common.AccessTokenHeaderName)
	if accessToken == "" {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	principalID, err := auth.GetPrincipalIDFromToken(accessToken, s.jwtSecret)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, status.Error(codes.Unauthenticated, "token expired")
		}
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	return handler(auth.WithPrincipalID(ctx, principalID), req)
}

func (s *GRPCServer) metricsInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.metrics.ObserveRPC(info.FullMethod, status.Code(err).String(), time.Since(start))
	return resp, err
}
