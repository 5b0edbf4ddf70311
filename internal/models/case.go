package models

// Case is identified by its crime number and report reference (the NCRP acknowledgement number). Cases are never
// modified once stored.
type Case struct {
	ID          int64  `db:"id"`
	CrimeNumber string `db:"crime_number"`
	ReportRef   string `db:"report_ref"`
	Created     string `db:"created"`
}

type LetterType string

const (
	LetterTypeBank         LetterType = "bank"
	LetterTypeIntermediary LetterType = "inter"
	LetterTypeTSP          LetterType = "tsp"
)

// Notice records one generated document.
type Notice struct {
	ID     int64 `db:"id"`
	CaseID int64 `db:"case_id"`
	// OfficerID is nil once the officer account has been deleted.
	OfficerID  *int64     `db:"officer_id"`
	BatchID    string     `db:"batch_id"`
	LetterType LetterType `db:"letter_type"`
	// Recipient is the bank, platform or provider the notice is addressed to.
	Recipient  string `db:"recipient"`
	OutputPath string `db:"output_path"`
	Created    string `db:"created"`
}
