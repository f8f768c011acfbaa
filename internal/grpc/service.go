package grpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/mr1hm/go-campus-alerts/internal/alerting"
	"github.com/mr1hm/go-campus-alerts/internal/models"
)

const serviceName = "campusalerts.v1.AlertService"

const (
	methodListAlerts     = "/" + serviceName + "/ListAlerts"
	methodCreateAlert    = "/" + serviceName + "/CreateAlert"
	methodSetAlertActive = "/" + serviceName + "/SetAlertActive"
)

type ListAlertsRequest struct {
	IncludeInactive bool `json:"includeInactive"`
}

type ListAlertsResponse struct {
	Alerts []models.Alert `json:"alerts"`
}

type CreateAlertRequest struct {
	Alert alerting.CreateAlertInput `json:"alert"`
}

type SetAlertActiveRequest struct {
	ID     string `json:"id"`
	Active bool   `json:"active"`
}

type AlertResponse struct {
	Alert *models.Alert `json:"alert"`
}

// AlertServiceServer is implemented by Server.
type AlertServiceServer interface {
	ListAlerts(context.Context, *ListAlertsRequest) (*ListAlertsResponse, error)
	CreateAlert(context.Context, *CreateAlertRequest) (*AlertResponse, error)
	SetAlertActive(context.Context, *SetAlertActiveRequest) (*AlertResponse, error)
}

var alertServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*AlertServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListAlerts", Handler: listAlertsHandler},
		{MethodName: "CreateAlert", Handler: createAlertHandler},
		{MethodName: "SetAlertActive", Handler: setAlertActiveHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func registerAlertServiceServer(s grpc.ServiceRegistrar, srv AlertServiceServer) {
	s.RegisterService(&alertServiceDesc, srv)
}

func listAlertsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListAlertsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AlertServiceServer).ListAlerts(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodListAlerts}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AlertServiceServer).ListAlerts(ctx, req.(*ListAlertsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func createAlertHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CreateAlertRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AlertServiceServer).CreateAlert(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodCreateAlert}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AlertServiceServer).CreateAlert(ctx, req.(*CreateAlertRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func setAlertActiveHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SetAlertActiveRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AlertServiceServer).SetAlertActive(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodSetAlertActive}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AlertServiceServer).SetAlertActive(ctx, req.(*SetAlertActiveRequest))
	}
	return interceptor(ctx, in, info, handler)
}
