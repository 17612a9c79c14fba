package domain

type ReservationKind string

const (
	ReservationItem    ReservationKind = "item"
	ReservationService ReservationKind = "service"
)

// Reservation is the kind-agnostic view of a Booking/ServiceBooking
// that the state machine, settlement engine and review gate operate
// on. Owner side is the lender/provider, client side the
// borrower/client.
type Reservation struct {
	Kind         ReservationKind
	ID           int64
	OwnerSideID  int64
	ClientSideID int64
	Status       BookingStatus
	Amount       float64
}

func (r Reservation) IsOwnerSide(userID int64) bool  { return r.OwnerSideID == userID }
func (r Reservation) IsClientSide(userID int64) bool { return r.ClientSideID == userID }

func (r Reservation) IsParty(userID int64) bool {
	return r.IsOwnerSide(userID) || r.IsClientSide(userID)
}

// Counterparty returns the other side of the reservation relative to
// the acting user. Callers must have checked IsParty first.
func (r Reservation) Counterparty(userID int64) int64 {
	if r.OwnerSideID == userID {
		return r.ClientSideID
	}
	return r.OwnerSideID
}
