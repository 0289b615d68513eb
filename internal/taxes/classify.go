package taxes

// Status is the payment status of a parcel.
type Status string

const (
	StatusPaid         Status = "PAID"
	StatusPartial      Status = "PARTIAL"
	StatusUnpaid       Status = "UNPAID"
	StatusNoTaxHistory Status = "NO_TAX_HISTORY"
)

// Classify maps a ledger to a status.
//
// The most recent assessment year decides between PAID, PARTIAL and UNPAID:
// no period with a positive due is PAID, a zero first period followed by a
// positive later period is PARTIAL, anything else with a balance is UNPAID.
// A positive balance on any prior year makes the parcel UNPAID regardless.
// Balances are judged per period; a credit on one period never offsets
// another period's balance.
func Classify(l Ledger) Status {
	bills := l.Sorted()
	if len(bills) == 0 {
		return StatusNoTaxHistory
	}
	for _, prior := range bills[1:] {
		if prior.HasBalance() {
			return StatusUnpaid
		}
	}
	return classifyBill(bills[0])
}

func classifyBill(b Bill) Status {
	if len(b.Periods) == 0 {
		return StatusNoTaxHistory
	}
	if !b.HasBalance() {
		return StatusPaid
	}
	if b.Periods[0].Due.Positive() {
		return StatusUnpaid
	}
	for _, p := range b.Periods[1:] {
		if p.Due.Positive() {
			return StatusPartial
		}
	}
	return StatusPaid
}
