// Package grpc implements the daemon control-plane RPC surface
// (daemon.proto in this directory): Tick, DoCommand, GetVehicle, carried
// over google.protobuf.Struct payloads rather than a purpose-generated
// message package, since the command surface underneath (C12's tile/p1/
// p2/flags/cmd_id tuple) is itself generic. Grounded on the teacher's
// `adapters/grpc/daemon_client_grpc.go` (a Unix-socket gRPC client
// wrapping a generated `DaemonServiceClient`) and
// `internal/domain/daemon` (the service's domain-facing contract),
// adapted from a container-management RPC surface to a tick/command
// surface; the ServiceDesc here is the same shape protoc-gen-go-grpc
// would emit for daemon.proto, written by hand since this workspace
// does not run a protoc/buf codegen step.
package grpc

import (
	"context"
	"fmt"

	grpclib "google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Server is the interface the daemon's simulation loop implements; the
// gRPC layer only marshals/unmarshals and forwards.
type Server interface {
	Tick(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DoCommand(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetVehicle(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RegisterDaemonServiceServer wires srv into a *grpc.Server via a
// hand-written ServiceDesc matching daemon.proto's DaemonService.
func RegisterDaemonServiceServer(s *grpclib.Server, srv Server) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpclib.ServiceDesc{
	ServiceName: "simcore.daemon.DaemonService",
	HandlerType: (*Server)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "Tick", Handler: tickHandler},
		{MethodName: "DoCommand", Handler: doCommandHandler},
		{MethodName: "GetVehicle", Handler: getVehicleHandler},
	},
	Streams:  []grpclib.StreamDesc{},
	Metadata: "internal/adapters/grpc/daemon.proto",
}

func tickHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).Tick(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: "/simcore.daemon.DaemonService/Tick"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(Server).Tick(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func doCommandHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).DoCommand(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: "/simcore.daemon.DaemonService/DoCommand"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(Server).DoCommand(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getVehicleHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).GetVehicle(ctx, in)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: "/simcore.daemon.DaemonService/GetVehicle"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(Server).GetVehicle(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Client wraps a grpc.ClientConn bound to the DaemonService, mirroring
// the teacher's DaemonClientGRPC Unix-socket dialing shape.
type Client struct {
	conn *grpclib.ClientConn
}

// Dial connects to a Unix-socket-hosted daemon at socketPath.
func Dial(socketPath string, opts ...grpclib.DialOption) (*Client, error) {
	conn, err := grpclib.NewClient("unix:"+socketPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon socket: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) call(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, "/simcore.daemon.DaemonService/"+method, req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Tick asks the daemon to advance the simulation by one tick.
func (c *Client) Tick(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return c.call(ctx, "Tick", req)
}

// DoCommand dispatches one command through the daemon's command
// dispatcher (C12).
func (c *Client) DoCommand(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return c.call(ctx, "DoCommand", req)
}

// GetVehicle reads back one vehicle's current state.
func (c *Client) GetVehicle(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return c.call(ctx, "GetVehicle", req)
}
