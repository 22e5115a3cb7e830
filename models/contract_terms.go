package models

// ContractTerms is the structured reading of a contract's key terms,
// grouped by the same six areas the risk taxonomy covers. Terms
// extraction runs before classification; the extracted terms sharpen
// the document context a classifier sees and ride along on the final
// report.
type ContractTerms struct {
	Compensation         CompensationTerms    `json:"compensation"`
	Termination          TerminationTerms     `json:"termination"`
	IntellectualProperty IPTerms              `json:"intellectualProperty"`
	RestrictiveCovenants RestrictiveCovenants `json:"restrictiveCovenants"`
	Confidentiality      ConfidentialityTerms `json:"confidentiality"`
	Liability            LiabilityTerms       `json:"liability"`
}

// BaseCompensation describes the fixed component of pay, if any
type BaseCompensation struct {
	Type         string   `json:"type,omitempty"` // salary, hourly, retainer, none
	Amount       *float64 `json:"amount,omitempty"`
	Currency     string   `json:"currency,omitempty"`
	Frequency    string   `json:"frequency,omitempty"` // annual, monthly, hourly
	IsGuaranteed bool     `json:"isGuaranteed"`
}

// Commission describes the variable component of pay, if any
type Commission struct {
	Present  bool     `json:"present"`
	BaseRate *float64 `json:"baseRate,omitempty"` // decimal, e.g. 0.20
	Capped   bool     `json:"capped"`
}

type CompensationTerms struct {
	BaseCompensation BaseCompensation `json:"baseCompensation"`
	Commission       Commission       `json:"commission"`
}

type TerminationTerms struct {
	NoticeDays                  *int     `json:"noticeDays,omitempty"`
	ImmediateTerminationClauses []string `json:"immediateTerminationClauses,omitempty"`
	PostTerminationObligations  []string `json:"postTerminationObligations,omitempty"`
}

type IPTerms struct {
	Ownership         string   `json:"ownership,omitempty"` // company, contractor, shared
	AssignmentScope   []string `json:"assignmentScope,omitempty"`
	MoralRightsWaived bool     `json:"moralRightsWaived"`
}

// Covenant describes one restrictive covenant (non-compete or
// non-solicitation)
type Covenant struct {
	Present        bool   `json:"present"`
	DurationMonths *int   `json:"durationMonths,omitempty"`
	Scope          string `json:"scope,omitempty"`
}

type RestrictiveCovenants struct {
	NonCompete      Covenant `json:"nonCompete"`
	NonSolicitation Covenant `json:"nonSolicitation"`
}

type ConfidentialityTerms struct {
	Scope          []string `json:"scope,omitempty"`
	Perpetual      bool     `json:"perpetual"`
	DurationMonths *int     `json:"durationMonths,omitempty"`
	Exceptions     []string `json:"exceptions,omitempty"`
}

type LiabilityTerms struct {
	IndemnificationRequired bool   `json:"indemnificationRequired"`
	IndemnificationScope    string `json:"indemnificationScope,omitempty"`
	Capped                  bool   `json:"capped"`
	CapDescription          string `json:"capDescription,omitempty"`
}
