package enums

// CartStatus tracks the lifecycle of a persisted cart record.
type CartStatus string

const (
	// CartStatusActive is the single mutable cart a user holds.
	CartStatusActive CartStatus = "active"
	// CartStatusOrdered marks a cart consumed by a successful checkout.
	CartStatusOrdered CartStatus = "ordered"
	// CartStatusAbandoned marks a cart wiped by logout or explicit clear.
	CartStatusAbandoned CartStatus = "abandoned"
)

func (s CartStatus) IsValid() bool {
	switch s {
	case CartStatusActive, CartStatusOrdered, CartStatusAbandoned:
		return true
	default:
		return false
	}
}
