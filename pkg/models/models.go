package models

// Delinquency is the parcel-level delinquency flag reported on a record.
type Delinquency string

const (
	DelinquentYes     Delinquency = "YES"
	DelinquentNone    Delinquency = "NONE"
	DelinquentNA      Delinquency = "N/A"
	DelinquentUnknown Delinquency = "UNKNOWN"
)

// NotAvailable is the sentinel used for valuation fields the site does not publish.
const NotAvailable = "N/A"

// ParcelTaxRecord is the canonical, jurisdiction-independent result of one acquisition.
//
// Downstream renderers and the PDF export depend on the JSON field names verbatim.
type ParcelTaxRecord struct {
	ProcessedDate      string            `json:"processed_date"`
	OrderNumber        string            `json:"order_number"`
	BorrowerName       string            `json:"borrower_name"`
	OwnerName          []string          `json:"owner_name"`
	PropertyAddress    string            `json:"property_address"`
	ParcelNumber       string            `json:"parcel_number"`
	LandValue          string            `json:"land_value"`
	Improvements       string            `json:"improvements"`
	TotalAssessedValue string            `json:"total_assessed_value"`
	Exemption          string            `json:"exemption"`
	TotalTaxableValue  string            `json:"total_taxable_value"`
	TaxingAuthority    string            `json:"taxing_authority"`
	Notes              string            `json:"notes"`
	Delinquent         Delinquency       `json:"delinquent"`
	TaxHistory         []TaxHistoryEntry `json:"tax_history"`
}

// TaxHistoryEntry is one billing period (or one annual bill) of a parcel.
type TaxHistoryEntry struct {
	Jurisdiction    string `json:"jurisdiction"`
	Year            string `json:"year"`
	PaymentType     string `json:"payment_type"`
	Status          string `json:"status"`
	BaseAmount      string `json:"base_amount"`
	AmountPaid      string `json:"amount_paid"`
	AmountDue       string `json:"amount_due"`
	MailingDate     string `json:"mailing_date"`
	DueDate         string `json:"due_date"`
	DelqDate        string `json:"delq_date"`
	PaidDate        string `json:"paid_date"`
	GoodThroughDate string `json:"good_through_date,omitempty"`
}

// Entry status values.
const (
	StatusPaid   = "Paid"
	StatusUnpaid = "Unpaid"
)

// Payment type labels.
const (
	PaymentAnnual            = "Annual"
	PaymentSemiAnnual        = "Semi-Annual"
	PaymentFirstInstallment  = "First Installment"
	PaymentSecondInstallment = "Second Installment"
)

// Clone returns a deep copy so callers can never alias a handed-out record.
func (r ParcelTaxRecord) Clone() ParcelTaxRecord {
	out := r
	out.OwnerName = append([]string(nil), r.OwnerName...)
	out.TaxHistory = append([]TaxHistoryEntry{}, r.TaxHistory...)
	if out.OwnerName == nil {
		out.OwnerName = []string{}
	}
	return out
}

// FetchType selects the response shape for a request.
type FetchType string

const (
	FetchHTML FetchType = "html"
	FetchAPI  FetchType = "api"
)

// Valid reports whether the fetch type is one the service understands.
func (f FetchType) Valid() bool {
	return f == FetchHTML || f == FetchAPI
}
