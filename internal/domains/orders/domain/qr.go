package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// QRAction is the staff action encoded in a line item QR code.
type QRAction string

const (
	QRActionAccept QRAction = "accept"
	QRActionReject QRAction = "reject"
)

var ErrInvalidQRPayload = errors.New("qr payload is invalid")

// LineItemQR is the JSON payload encoded in a line item QR code.
type LineItemQR struct {
	OrderID   string   `json:"orderId"`
	ProductID string   `json:"productId"`
	Action    QRAction `json:"action"`
}

// OrderQRPayload is the payload of an order QR code: the bare order id.
func OrderQRPayload(orderID string) (string, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return "", fmt.Errorf("%w: order id is required", ErrInvalidQRPayload)
	}
	return orderID, nil
}

// Encode renders the line item payload as JSON.
func (q LineItemQR) Encode() ([]byte, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(q)
}

// Validate checks every field is present and the action is known.
func (q LineItemQR) Validate() error {
	if strings.TrimSpace(q.OrderID) == "" || strings.TrimSpace(q.ProductID) == "" {
		return fmt.Errorf("%w: orderId and productId are required", ErrInvalidQRPayload)
	}
	switch q.Action {
	case QRActionAccept, QRActionReject:
		return nil
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidQRPayload, q.Action)
	}
}

// ParseLineItemQR decodes a scanned line item payload.
func ParseLineItemQR(raw []byte) (LineItemQR, error) {
	var q LineItemQR
	if err := json.Unmarshal(raw, &q); err != nil {
		return LineItemQR{}, fmt.Errorf("%w: %w", ErrInvalidQRPayload, err)
	}
	if err := q.Validate(); err != nil {
		return LineItemQR{}, err
	}
	return q, nil
}
