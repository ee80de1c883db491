package marketplace

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "marketplace.v1.MarketplaceService"

// Full method names.
const (
	PostListingMethod   = "/" + ServiceName + "/PostListing"
	CancelListingMethod = "/" + ServiceName + "/CancelListing"
	BuyMethod           = "/" + ServiceName + "/Buy"
	ReviewMethod        = "/" + ServiceName + "/Review"
	GetNextIDMethod     = "/" + ServiceName + "/GetNextId"
	GetListingMethod    = "/" + ServiceName + "/GetListing"
	GetReputationMethod = "/" + ServiceName + "/GetReputation"
)

// IsMutation reports whether fullMethod changes marketplace state and so
// needs an authenticated caller.
func IsMutation(fullMethod string) bool {
	switch fullMethod {
	case PostListingMethod, CancelListingMethod, BuyMethod, ReviewMethod:
		return true
	default:
		return false
	}
}

// MarketplaceServer is the server API for the marketplace service. Requests
// and responses are google.protobuf.Struct values.
type MarketplaceServer interface {
	PostListing(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CancelListing(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Buy(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Review(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetNextId(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetListing(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetReputation(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterMarketplaceServer registers srv on s.
func RegisterMarketplaceServer(s grpc.ServiceRegistrar, srv MarketplaceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type unaryCall func(MarketplaceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		server := srv.(MarketplaceServer)
		if interceptor == nil {
			return call(server, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(server, ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc describes the marketplace service for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MarketplaceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "PostListing", Handler: unaryHandler(PostListingMethod, MarketplaceServer.PostListing)},
		{MethodName: "CancelListing", Handler: unaryHandler(CancelListingMethod, MarketplaceServer.CancelListing)},
		{MethodName: "Buy", Handler: unaryHandler(BuyMethod, MarketplaceServer.Buy)},
		{MethodName: "Review", Handler: unaryHandler(ReviewMethod, MarketplaceServer.Review)},
		{MethodName: "GetNextId", Handler: unaryHandler(GetNextIDMethod, MarketplaceServer.GetNextId)},
		{MethodName: "GetListing", Handler: unaryHandler(GetListingMethod, MarketplaceServer.GetListing)},
		{MethodName: "GetReputation", Handler: unaryHandler(GetReputationMethod, MarketplaceServer.GetReputation)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "marketplace/v1/marketplace.proto",
}
