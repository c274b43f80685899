package catalog

import (
	"context"
	"iter"

	"github.com/handiism/problem-archiver/internal/credential"
	"github.com/handiism/problem-archiver/internal/model"
)

// Source is the remote catalog capability consumed by the scheduler.
//
// Every method requires a credential. An empty or rejected credential yields
// *AuthError.
type Source interface {
	// UserStatus reports what the credential is entitled to.
	UserStatus(ctx context.Context, cred credential.Credential) (Entitlement, error)

	// ListAll lazily pages through the whole catalog. Iteration stops after
	// the first error is yielded.
	ListAll(ctx context.Context, cred credential.Credential) iter.Seq2[model.Item, error]

	// FetchDetail returns the description document and discovered variants.
	FetchDetail(ctx context.Context, cred credential.Credential, slug string) (Detail, error)

	// FetchTemplate returns the starter code for a variant, or ErrNotFound.
	FetchTemplate(ctx context.Context, cred credential.Credential, slug string, variant model.Variant) (string, error)

	// FetchCommunityAnswer returns the top community answer for a variant,
	// or ErrNoAnswer.
	FetchCommunityAnswer(ctx context.Context, cred credential.Credential, slug string, variant model.Variant) (model.Document, error)

	// FetchOfficialAnswer returns the official answer, or ErrNoAnswer.
	FetchOfficialAnswer(ctx context.Context, cred credential.Credential, slug string) (model.Document, error)
}

// Entitlement describes what a credential may access.
type Entitlement struct {
	SignedIn bool
	Premium  bool
	Username string
}

// CanAccess reports whether the entitlement covers item.
func (e Entitlement) CanAccess(item model.Item) bool {
	return !item.Locked || e.Premium
}

// Detail is the result of FetchDetail.
type Detail struct {
	Document model.Document
	Variants []model.Variant
	Metadata Metadata
}

// Metadata carries detail fields that are written alongside the description.
type Metadata struct {
	QuestionID string
	Title      string
	Difficulty string
	Tags       []string
	Hints      []string
	Likes      int
	Dislikes   int
	Locked     bool
}
