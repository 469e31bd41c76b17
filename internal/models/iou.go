package models

import (
	"strings"
	"time"
)

// Identity is an opaque participant id (an address in the original network).
type Identity string

// IOU represents one accepted debt record: Debtor owes Creditor Amount.
type IOU struct {
	ID             string
	IdempotencyKey string
	Debtor         Identity
	Creditor       Identity
	Amount         Amount
	Path           []Identity // validated creditor -> ... -> debtor chain, nil for a plain increment
	CreatedAt      time.Time
}

// Edge is an outstanding debt from Debtor to Creditor. Amount is always positive.
type Edge struct {
	Debtor   Identity `json:"debtor"`
	Creditor Identity `json:"creditor"`
	Amount   Amount   `json:"amount"`
}

// DebtRequest is the intent to record that Debtor owes Creditor Amount.
// Path is an optional, unverified hint: a chain Creditor -> ... -> Debtor
// of currently outstanding debts.
type DebtRequest struct {
	IdempotencyKey string
	Debtor         Identity
	Creditor       Identity
	Amount         int64
	Path           []Identity
}

// ParseIdentity normalizes an identity received over the wire. Addresses
// are compared case-insensitively.
func ParseIdentity(s string) Identity {
	return Identity(strings.ToLower(strings.TrimSpace(s)))
}
