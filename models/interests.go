package models

// InterestRow is one row-level record from a register-of-interests category,
// normalised to the fields the per-MP aggregator needs.
type InterestRow struct {
	RecordID    string
	MemberID    int
	Value       float64
	Description string
	Donor       string
	DonorID     string // company identifier, where published
	Category    string // donor category label, assigned during collation
}

// EarningsRef is one category-1 reference entry: a declared outside
// employment relationship. The reconciled Value is the sum of its ad-hoc and
// normalised ongoing child payments.
type EarningsRef struct {
	RecordID string
	MemberID int
	Payer    string
	Role     string
	Value    float64
}
