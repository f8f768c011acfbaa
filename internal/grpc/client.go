package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/mr1hm/go-campus-alerts/internal/alerting"
	"github.com/mr1hm/go-campus-alerts/internal/models"
)

// Client calls the AlertService with a fixed bearer token.
type Client struct {
	conn  *grpc.ClientConn
	token string
}

// Dial connects without transport security; opts are applied after the defaults.
func Dial(target, token string, opts ...grpc.DialOption) (*Client, error) {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}, opts...)

	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, token: token}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) ListAlerts(ctx context.Context, includeInactive bool) ([]models.Alert, error) {
	resp := new(ListAlertsResponse)
	if err := c.conn.Invoke(c.withToken(ctx), methodListAlerts, &ListAlertsRequest{IncludeInactive: includeInactive}, resp); err != nil {
		return nil, err
	}
	return resp.Alerts, nil
}

func (c *Client) CreateAlert(ctx context.Context, in alerting.CreateAlertInput) (*models.Alert, error) {
	resp := new(AlertResponse)
	if err := c.conn.Invoke(c.withToken(ctx), methodCreateAlert, &CreateAlertRequest{Alert: in}, resp); err != nil {
		return nil, err
	}
	return resp.Alert, nil
}

func (c *Client) SetAlertActive(ctx context.Context, id string, active bool) (*models.Alert, error) {
	resp := new(AlertResponse)
	if err := c.conn.Invoke(c.withToken(ctx), methodSetAlertActive, &SetAlertActiveRequest{ID: id, Active: active}, resp); err != nil {
		return nil, err
	}
	return resp.Alert, nil
}

func (c *Client) withToken(ctx context.Context) context.Context {
	if c.token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
}
