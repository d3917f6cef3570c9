package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/labamart/labamart/internal/models"
)

// Client is the order repository client both action surfaces share. It holds
// no business logic: every rule lives behind the backend of record.
type Client struct {
	client  *http.Client
	baseURL string
	token   string
}

// New creates new Client instance. token is the serialized session token and
// is sent as the auth cookie on every request.
func New(baseURL, token string) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		baseURL: baseURL,
		token:   token,
	}
}

type paymentPayload struct {
	Status      string     `json:"status"`
	Method      string     `json:"method"`
	ProofImage  string     `json:"proof_image"`
	Reason      string     `json:"reason"`
	Waived      bool       `json:"waived"`
	ConfirmedAt *time.Time `json:"confirmed_at"`
}

type orderPayload struct {
	OrderID         string         `json:"order_id"`
	CustomerID      string         `json:"customer_id"`
	ShopID          string         `json:"shop_id"`
	Status          string         `json:"status"`
	ProcessStatus   string         `json:"process_status"`
	RejectionReason string         `json:"rejection_reason"`
	RejectionNote   string         `json:"rejection_note"`
	TotalAmount     float64        `json:"total_amount"`
	DeliveryAmount  float64        `json:"delivery_amount"`
	Invoice         paymentPayload `json:"invoice"`
	DeliveryPayment paymentPayload `json:"delivery_payment"`
	HandoverAt      *time.Time     `json:"handover_at"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (p paymentPayload) toModel() models.PaymentLedger {
	return models.PaymentLedger{
		Status:      models.PaymentStatus(p.Status),
		Method:      p.Method,
		ProofImage:  p.ProofImage,
		Reason:      p.Reason,
		Waived:      p.Waived,
		ConfirmedAt: p.ConfirmedAt,
	}
}

func (p orderPayload) toModel() models.Order {
	return models.Order{
		OrderID:         p.OrderID,
		CustomerID:      p.CustomerID,
		ShopID:          p.ShopID,
		Status:          models.OrderStatus(p.Status),
		ProcessStatus:   p.ProcessStatus,
		RejectionReason: p.RejectionReason,
		RejectionNote:   p.RejectionNote,
		TotalAmount:     p.TotalAmount,
		DeliveryAmount:  p.DeliveryAmount,
		Invoice:         p.Invoice.toModel(),
		DeliveryPayment: p.DeliveryPayment.toModel(),
		HandoverAt:      p.HandoverAt,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	u, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return err
	}
	if len(query) > 0 {
		u = u + "?" + query.Encode()
	}

	var reqBody *bytes.Buffer
	if body != nil {
		reqBody = &bytes.Buffer{}
		if err := json.NewEncoder(reqBody).Encode(body); err != nil {
			return err
		}
	}

	var req *http.Request
	if reqBody != nil {
		req, err = http.NewRequestWithContext(ctx, method, u, reqBody)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, u, nil)
	}
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: c.token})

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil
	case resp.StatusCode < http.StatusBadRequest:
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: %v", models.ErrNetworkFailure, err)
		}
		return nil
	default:
		errResp := errorPayload{}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Code == "" {
			return models.ErrInternalError
		}
		return fmt.Errorf("%w: %s", models.ErrorFromCode(errResp.Code), errResp.Message)
	}
}

// CreateOrder places a new order.
func (c *Client) CreateOrder(ctx context.Context, shopID string, dropOff bool) (*models.Order, error) {
	payload := orderPayload{}
	body := map[string]any{"shop_id": shopID, "drop_off": dropOff}
	if err := c.do(ctx, http.MethodPost, "/api/orders", nil, body, &payload); err != nil {
		return nil, err
	}
	order := payload.toModel()
	return &order, nil
}

// ListOrders returns the orders visible to the session actor. shopID is
// optional; staff default to their own shop.
func (c *Client) ListOrders(ctx context.Context, shopID string) ([]models.Order, error) {
	query := url.Values{}
	if shopID != "" {
		query.Set("shop_id", shopID)
	}

	payloads := []orderPayload{}
	if err := c.do(ctx, http.MethodGet, "/api/orders", query, nil, &payloads); err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0, len(payloads))
	for _, p := range payloads {
		orders = append(orders, p.toModel())
	}
	return orders, nil
}

// GetOrder returns a single order.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	payload := orderPayload{}
	if err := c.do(ctx, http.MethodGet, "/api/orders/"+orderID, nil, nil, &payload); err != nil {
		return nil, err
	}
	order := payload.toModel()
	return &order, nil
}

// StatusUpdate is a requested order status transition. Basis echoes the
// status the caller's view was based on so stale requests are fenced.
type StatusUpdate struct {
	Status models.OrderStatus
	Reason string
	Note   string
	Basis  models.OrderStatus
}

// UpdateStatus requests an order status transition.
func (c *Client) UpdateStatus(ctx context.Context, orderID string, upd StatusUpdate) (*models.Order, error) {
	payload := orderPayload{}
	body := map[string]any{
		"status":       string(upd.Status),
		"reason":       upd.Reason,
		"note":         upd.Note,
		"basis_status": string(upd.Basis),
	}
	if err := c.do(ctx, http.MethodPatch, "/api/orders/"+orderID+"/status", nil, body, &payload); err != nil {
		return nil, err
	}
	order := payload.toModel()
	return &order, nil
}

// PaymentUpdate is a requested sub-ledger transition.
type PaymentUpdate struct {
	Kind       models.PaymentKind
	Status     models.PaymentStatus
	Method     string
	ProofImage string
	Reason     string
}

// UpdatePayment requests a payment sub-ledger transition.
func (c *Client) UpdatePayment(ctx context.Context, orderID string, upd PaymentUpdate) (*models.Order, error) {
	payload := orderPayload{}
	body := map[string]any{
		"ledger":      string(upd.Kind),
		"status":      string(upd.Status),
		"method":      upd.Method,
		"proof_image": upd.ProofImage,
		"reason":      upd.Reason,
	}
	if err := c.do(ctx, http.MethodPatch, "/api/orders/"+orderID+"/payment", nil, body, &payload); err != nil {
		return nil, err
	}
	order := payload.toModel()
	return &order, nil
}

// UpdateQuote sets the order amounts.
func (c *Client) UpdateQuote(ctx context.Context, orderID string, total, delivery float64) (*models.Order, error) {
	payload := orderPayload{}
	body := map[string]any{"total_amount": total, "delivery_amount": delivery}
	if err := c.do(ctx, http.MethodPatch, "/api/orders/"+orderID+"/quote", nil, body, &payload); err != nil {
		return nil, err
	}
	order := payload.toModel()
	return &order, nil
}

// UpdateProcessStep records a processing sub-step.
func (c *Client) UpdateProcessStep(ctx context.Context, orderID, step string) (*models.Order, error) {
	payload := orderPayload{}
	body := map[string]any{"step": step}
	if err := c.do(ctx, http.MethodPatch, "/api/orders/"+orderID+"/process", nil, body, &payload); err != nil {
		return nil, err
	}
	order := payload.toModel()
	return &order, nil
}

// RecordHandover stamps the pickup/delivery and runs the completion check.
func (c *Client) RecordHandover(ctx context.Context, orderID string) (*models.Order, error) {
	payload := orderPayload{}
	if err := c.do(ctx, http.MethodPost, "/api/orders/"+orderID+"/handover", nil, nil, &payload); err != nil {
		return nil, err
	}
	order := payload.toModel()
	return &order, nil
}

// ShopFullDetails returns the shop bundle.
func (c *Client) ShopFullDetails(ctx context.Context, shopID string) (*models.ShopDetails, error) {
	details := models.ShopDetails{}
	if err := c.do(ctx, http.MethodGet, "/api/shops/"+shopID+"/full-details", nil, nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}
