package common

const (
	// AccessTokenHeaderName is the gRPC metadata key carrying the access token.
	AccessTokenHeaderName = "access_token"

	// ForwardedForHeaderName carries the original client address when the
	// gRPC endpoint sits behind a proxy.
	ForwardedForHeaderName = "x-forwarded-for"

	// UserAgentHeaderName is the metadata key grpc-go fills from the client.
	UserAgentHeaderName = "user-agent"
)
