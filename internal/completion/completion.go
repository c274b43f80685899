// Package completion decides whether an item was fully archived.
package completion

import (
	"fmt"

	"github.com/handiism/problem-archiver/internal/model"
)

// Status is the verdict for one item.
type Status string

const (
	StatusComplete Status = "complete"
	StatusPartial  Status = "partial"
	StatusFailed   Status = "failed"
)

// Requested lists the optional sub-resource kinds a run asked for. The
// description is always requested.
type Requested struct {
	Templates        bool
	CommunityAnswers bool
	OfficialAnswer   bool
}

// All requests every sub-resource kind.
func All() Requested {
	return Requested{Templates: true, CommunityAnswers: true, OfficialAnswer: true}
}

// Includes reports whether kind takes part in the verdict.
func (r Requested) Includes(kind model.Kind) bool {
	switch kind {
	case model.KindDescription:
		return true
	case model.KindTemplates:
		return r.Templates
	case model.KindCommunityAnswer:
		return r.CommunityAnswers
	case model.KindOfficialAnswer:
		return r.OfficialAnswer
	default:
		return false
	}
}

// Verdict is the result of Evaluate.
type Verdict struct {
	Status  Status
	Reasons []string
}

// Evaluate computes the verdict for one item.
//
// A failed description fails the item. Otherwise the item is complete when
// every requested kind achieved its total, and partial when any fell short.
// Outcomes for kinds that were not requested are ignored entirely.
func Evaluate(descriptionOK bool, outcomes []model.Outcome, req Requested) Verdict {
	if !descriptionOK {
		return Verdict{Status: StatusFailed, Reasons: []string{"description unavailable"}}
	}

	var reasons []string
	for _, o := range outcomes {
		if o.Kind == model.KindDescription || !req.Includes(o.Kind) {
			continue
		}
		if !o.Complete() {
			reasons = append(reasons, fmt.Sprintf("%s incomplete: %d/%d", o.Kind, o.Achieved, o.Total))
		}
	}
	if len(reasons) > 0 {
		return Verdict{Status: StatusPartial, Reasons: reasons}
	}
	return Verdict{Status: StatusComplete}
}
