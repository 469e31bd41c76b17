package ledger

import "errors"

var (
	// ErrInvalidAmount covers non-positive, non-representable and overflowing amounts.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrSelfDebt is returned when debtor and creditor are the same identity.
	ErrSelfDebt = errors.New("debtor and creditor must differ")
	// ErrInvalidIdentity is returned for an empty debtor or creditor.
	ErrInvalidIdentity = errors.New("identity must not be empty")
	// ErrUnauthorized is raised by the authentication layer when the caller
	// is not the claimed debtor. The ledger itself never returns it.
	ErrUnauthorized = errors.New("caller is not the debtor")
)

// IsRejection reports whether err is a validation rejection rather than an
// infrastructure failure.
func IsRejection(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrSelfDebt) ||
		errors.Is(err, ErrInvalidIdentity)
}
