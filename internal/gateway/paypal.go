package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/plutov/paypal/v4"

	"github.com/studybud-app/room-service/internal/config"
)

// PayPalGateway implements PaymentGateway against the PayPal Orders API.
type PayPalGateway struct {
	client *paypal.Client
	config config.PayPalConfig
}

// NewPayPalGateway builds the client and fetches an initial access token;
// the SDK refreshes it on expiry.
func NewPayPalGateway(ctx context.Context, cfg config.PayPalConfig) (*PayPalGateway, error) {
	apiBase := paypal.APIBaseLive
	if cfg.Sandbox {
		apiBase = paypal.APIBaseSandBox
	}

	client, err := paypal.NewClient(cfg.ClientID, cfg.Secret, apiBase)
	if err != nil {
		return nil, fmt.Errorf("failed to create paypal client: %w", err)
	}

	if _, err := client.GetAccessToken(ctx); err != nil {
		return nil, fmt.Errorf("failed to get paypal access token: %w", err)
	}

	return &PayPalGateway{client: client, config: cfg}, nil
}

func (g *PayPalGateway) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*CreatedPayment, error) {
	value := strconv.FormatFloat(req.Amount, 'f', 2, 64)

	units := []paypal.PurchaseUnitRequest{
		{
			ReferenceID: req.SKU,
			CustomID:    req.SKU,
			Description: req.Description,
			Amount: &paypal.PurchaseUnitAmount{
				Currency: req.Currency,
				Value:    value,
				Breakdown: &paypal.PurchaseUnitAmountBreakdown{
					ItemTotal: &paypal.Money{
						Currency: req.Currency,
						Value:    value,
					},
				},
			},
			Items: []paypal.Item{
				{
					Name:     req.Name,
					SKU:      req.SKU,
					Quantity: "1",
					UnitAmount: &paypal.Money{
						Currency: req.Currency,
						Value:    value,
					},
				},
			},
		},
	}

	order, err := g.client.CreateOrder(ctx, paypal.OrderIntentCapture, units, nil, &paypal.ApplicationContext{
		ReturnURL: req.ReturnURL,
		CancelURL: req.CancelURL,
	})
	if err != nil {
		return nil, &Error{Op: "create", Err: err}
	}

	approvalURL := ""
	for _, link := range order.Links {
		if link.Rel == "approve" {
			approvalURL = link.Href
			break
		}
	}
	if approvalURL == "" {
		return nil, &Error{Op: "create", Err: fmt.Errorf("order %s has no approval link", order.ID)}
	}

	raw, _ := json.Marshal(order)

	return &CreatedPayment{
		OrderID:     order.ID,
		ApprovalURL: approvalURL,
		Raw:         raw,
	}, nil
}

func (g *PayPalGateway) ExecutePayment(ctx context.Context, orderID, payerID string) (*CapturedPayment, error) {
	capture, err := g.client.CaptureOrder(ctx, orderID, paypal.CaptureOrderRequest{})
	if err != nil {
		return nil, &Error{Op: "capture", Err: err}
	}

	if capture.Status != "COMPLETED" {
		return nil, &Error{Op: "capture", Err: fmt.Errorf("order %s not completed: %s", orderID, capture.Status)}
	}

	sku := ""
	if len(capture.PurchaseUnits) > 0 {
		sku = capture.PurchaseUnits[0].ReferenceID
	}
	if sku == "" {
		// Older orders may omit reference ids from the capture response.
		order, err := g.client.GetOrder(ctx, orderID)
		if err != nil {
			return nil, &Error{Op: "lookup", Err: err}
		}
		if len(order.PurchaseUnits) > 0 {
			sku = order.PurchaseUnits[0].ReferenceID
		}
	}
	if sku == "" {
		return nil, &Error{Op: "capture", Err: fmt.Errorf("order %s carries no item reference", orderID)}
	}

	if payerID == "" && capture.Payer != nil {
		payerID = capture.Payer.PayerID
	}

	raw, _ := json.Marshal(capture)

	return &CapturedPayment{
		OrderID: orderID,
		SKU:     sku,
		PayerID: payerID,
		Raw:     raw,
	}, nil
}
