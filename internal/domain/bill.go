package domain

import "time"

// BillStatus is the normalized status of a title across providers.
type BillStatus string

const (
	BillOpen    BillStatus = "open"
	BillPaid    BillStatus = "paid"
	BillExpired BillStatus = "expired"
)

// Bill is a title as normalized from a bank provider. It is fetched
// fresh on every lookup and lives only inside the active session.
type Bill struct {
	ID              string     `json:"id"`
	OurNumber       string     `json:"our_number"`
	ContractNumber  string     `json:"contract_number,omitempty"`
	BeneficiaryCode string     `json:"beneficiary_code,omitempty"`
	Amount          float64    `json:"amount,omitempty"`
	DueDate         time.Time  `json:"due_date,omitempty"`
	Status          BillStatus `json:"status"`
}

// DuplicateData carries the textual payment encodings of a reissued bill.
type DuplicateData struct {
	DigitLine string
	Barcode   string
	Amount    float64
	DueDate   time.Time
}
