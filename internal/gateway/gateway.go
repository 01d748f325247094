package gateway

import (
	"context"
	"fmt"
)

// CreatePaymentRequest describes the checkout to open at the gateway. The
// SKU is the stable item key; this service always uses the room id.
type CreatePaymentRequest struct {
	SKU         string
	Name        string
	Description string
	Amount      float64
	Currency    string
	ReturnURL   string
	CancelURL   string
}

// CreatedPayment is the synchronous result of opening a checkout: the
// gateway's order id plus the URL the buyer must approve the payment at.
type CreatedPayment struct {
	OrderID     string
	ApprovalURL string
	Raw         []byte
}

// CapturedPayment is the result of executing an approved checkout.
type CapturedPayment struct {
	OrderID string
	SKU     string
	PayerID string
	Raw     []byte
}

// PaymentGateway is the external payment processor collaborator.
type PaymentGateway interface {
	// CreatePayment opens a checkout and returns the approval redirect.
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (*CreatedPayment, error)

	// ExecutePayment captures a previously approved checkout. Called from
	// the gateway's return redirect.
	ExecutePayment(ctx context.Context, orderID, payerID string) (*CapturedPayment, error)
}

// Error wraps any failure talking to the gateway so callers can tell
// gateway trouble apart from local errors.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("payment gateway %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
