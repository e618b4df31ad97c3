package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/vibast-solutions/ms-go-letters/app/entity"
	"github.com/vibast-solutions/ms-go-letters/app/mapper"
	"github.com/vibast-solutions/ms-go-letters/app/service"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type trackingService interface {
	TrackOrder(ctx context.Context, trackingCode string) (*entity.OrderPublic, error)
	GetPaymentStatus(ctx context.Context, orderID string) (*entity.Order, error)
}

type Server struct {
	tracking trackingService
}

func NewServer(tracking trackingService) *Server {
	return &Server{tracking: tracking}
}

func (s *Server) TrackOrder(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	code := strings.TrimSpace(req.GetValue())
	if code == "" {
		return nil, status.Error(codes.InvalidArgument, "tracking code is required")
	}

	public, err := s.tracking.TrackOrder(ctx, code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTrackingNotFound):
			return nil, status.Error(codes.NotFound, "Tracking code not found")
		case errors.Is(err, service.ErrInvalidRequest):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		default:
			loggerWithContext(ctx).WithError(err).Error("Track order failed")
			return nil, status.Error(codes.Internal, "internal server error")
		}
	}

	resp := mapper.OrderPublicToTrackResponse(public)
	fields := map[string]interface{}{
		"tracking_code":     resp.TrackingCode,
		"status":            resp.Status,
		"public_step_label": resp.PublicStepLabel,
		"created_at":        resp.CreatedAt,
	}
	setOptional(fields, "recipient_name", resp.RecipientName)
	setOptional(fields, "prison_name", resp.PrisonName)
	setOptional(fields, "label", resp.Label)

	return newStruct(ctx, fields)
}

func (s *Server) GetPaymentStatus(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	orderID := strings.TrimSpace(req.GetValue())
	if orderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order id is required")
	}

	order, err := s.tracking.GetPaymentStatus(ctx, orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			return nil, status.Error(codes.NotFound, "Order not found")
		}
		loggerWithContext(ctx).WithError(err).Error("Get payment status failed")
		return nil, status.Error(codes.Internal, "internal server error")
	}

	resp := mapper.OrderToPaymentStatusResponse(order)
	return newStruct(ctx, map[string]interface{}{
		"order_id":       resp.OrderId,
		"payment_status": resp.PaymentStatus,
	})
}

func setOptional(fields map[string]interface{}, key string, v *string) {
	if v != nil {
		fields[key] = *v
	}
}

func newStruct(ctx context.Context, fields map[string]interface{}) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		loggerWithContext(ctx).WithError(err).Error("Encoding response failed")
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return out, nil
}
