package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "vaultboard.v1.Vault"

const (
	MethodSignup          = "Signup"
	MethodCreateEntry     = "CreateEntry"
	MethodGetEntry        = "GetEntry"
	MethodUpdateEntry     = "UpdateEntry"
	MethodDeleteEntry     = "DeleteEntry"
	MethodListEntries     = "ListEntries"
	MethodExportEntry     = "ExportEntry"
	MethodEntryStats      = "EntryStats"
	MethodExpiringEntries = "ExpiringEntries"
	MethodAttachFile      = "AttachFile"
	MethodFileURL         = "FileURL"
)

// FullMethod returns the wire path of method, e.g. "/vaultboard.v1.Vault/GetEntry".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// VaultServer is implemented by *GRPCServer. Every message is a
// google.protobuf.Struct.
type VaultServer interface {
	Signup(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateEntry(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetEntry(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateEntry(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteEntry(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListEntries(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportEntry(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EntryStats(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExpiringEntries(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AttachFile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FileURL(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(VaultServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryMethod(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(VaultServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(VaultServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// VaultServiceDesc is registered in place of generated protobuf stubs.
var VaultServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VaultServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(MethodSignup, VaultServer.Signup),
		unaryMethod(MethodCreateEntry, VaultServer.CreateEntry),
		unaryMethod(MethodGetEntry, VaultServer.GetEntry),
		unaryMethod(MethodUpdateEntry, VaultServer.UpdateEntry),
		unaryMethod(MethodDeleteEntry, VaultServer.DeleteEntry),
		unaryMethod(MethodListEntries, VaultServer.ListEntries),
		unaryMethod(MethodExportEntry, VaultServer.ExportEntry),
		unaryMethod(MethodEntryStats, VaultServer.EntryStats),
		unaryMethod(MethodExpiringEntries, VaultServer.ExpiringEntries),
		unaryMethod(MethodAttachFile, VaultServer.AttachFile),
		unaryMethod(MethodFileURL, VaultServer.FileURL),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "vaultboard/v1/vault",
}

// Client is a thin caller for VaultServiceDesc.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method with a request built from fields.
func (c *Client) Call(ctx context.Context, method string, fields map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
