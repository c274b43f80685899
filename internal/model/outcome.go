package model

import "fmt"

// Kind identifies a sub-resource kind.
type Kind string

const (
	KindDescription     Kind = "description"
	KindTemplates       Kind = "templates"
	KindOfficialAnswer  Kind = "officialAnswer"
	KindCommunityAnswer Kind = "communityAnswer"
)

// Outcome records expected and achieved parts for one sub-resource kind.
//
// For templates and community answers Total starts at the number of
// discovered variants. A variant without an authored community answer lowers
// Total instead of counting as a failure.
type Outcome struct {
	Kind     Kind `json:"kind"`
	Total    int  `json:"total"`
	Achieved int  `json:"achieved"`
}

// Complete reports whether every expected part was achieved.
func (o Outcome) Complete() bool {
	return o.Achieved >= o.Total
}

// String renders the outcome as "<kind> <achieved>/<total>".
func (o Outcome) String() string {
	return fmt.Sprintf("%s %d/%d", o.Kind, o.Achieved, o.Total)
}
