package catalog

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/handiism/problem-archiver/internal/catalog/dto"
	"github.com/handiism/problem-archiver/internal/credential"
	apphttp "github.com/handiism/problem-archiver/internal/http"
	"github.com/handiism/problem-archiver/internal/model"
)

const (
	// DefaultEndpoint is the GraphQL endpoint queried by default.
	DefaultEndpoint = "https://leetcode.com/graphql"

	// DefaultPageSize is the listing page size.
	DefaultPageSize = 100

	// DefaultSessionCookie carries Credential.Token.
	DefaultSessionCookie = "LEETCODE_SESSION"

	// DefaultCSRFCookie carries Credential.CSRFToken.
	DefaultCSRFCookie = "csrftoken"
)

// Config configures a Client.
type Config struct {
	Endpoint      string
	PageSize      int
	SessionCookie string
	CSRFCookie    string
}

// Client is the GraphQL implementation of Source.
//
// Example usage:
//
//	client := catalog.NewClient(apphttp.NewClient(apphttp.Options{}), catalog.Config{}, logger)
//	for item, err := range client.ListAll(ctx, cred) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(item.ID, item.Title)
//	}
type Client struct {
	http   *apphttp.Client
	cfg    Config
	origin string
	logger *zap.Logger
}

var _ Source = (*Client)(nil)

// NewClient builds a Client. Zero Config fields fall back to the defaults.
func NewClient(httpClient *apphttp.Client, cfg Config, logger *zap.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.SessionCookie == "" {
		cfg.SessionCookie = DefaultSessionCookie
	}
	if cfg.CSRFCookie == "" {
		cfg.CSRFCookie = DefaultCSRFCookie
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:   httpClient,
		cfg:    cfg,
		origin: strings.TrimSuffix(cfg.Endpoint, "/graphql"),
		logger: logger,
	}
}

// UserStatus implements Source.
func (c *Client) UserStatus(ctx context.Context, cred credential.Credential) (Entitlement, error) {
	data, err := runQuery[dto.UserStatusData](ctx, c, cred, "userStatus", userStatusQuery, map[string]any{})
	if err != nil {
		return Entitlement{}, err
	}
	if !data.UserStatus.IsSignedIn {
		return Entitlement{}, &AuthError{Reason: "session is not signed in"}
	}
	return Entitlement{
		SignedIn: true,
		Premium:  data.UserStatus.IsPremium,
		Username: data.UserStatus.Username,
	}, nil
}

// ListAll implements Source.
//
// Pages of Config.PageSize are requested until the reported total is
// reached or a page comes back empty. Items already yielded are not yielded
// again if the listing shifts between pages.
func (c *Client) ListAll(ctx context.Context, cred credential.Credential) iter.Seq2[model.Item, error] {
	return func(yield func(model.Item, error) bool) {
		seen := make(map[int]struct{})
		for skip := 0; ; {
			vars := map[string]any{
				"categorySlug": "",
				"skip":         skip,
				"limit":        c.cfg.PageSize,
				"filters":      map[string]any{},
			}
			data, err := runQuery[dto.ListData](ctx, c, cred, "problemsetQuestionList", listQuery, vars)
			if err != nil {
				yield(model.Item{}, fmt.Errorf("list page at %d: %w", skip, err))
				return
			}

			page := data.List.Questions
			c.logger.Debug("listed catalog page",
				zap.Int("skip", skip),
				zap.Int("count", len(page)),
				zap.Int("total", data.List.Total),
			)
			for _, q := range page {
				item, ok := q.ToItem()
				if !ok {
					continue
				}
				if _, dup := seen[item.ID]; dup {
					continue
				}
				seen[item.ID] = struct{}{}
				if !yield(item, nil) {
					return
				}
			}

			skip += len(page)
			if len(page) == 0 || skip >= data.List.Total {
				return
			}
		}
	}
}

// FetchDetail implements Source.
//
// An empty document for an item that is not paid-only means the session
// degraded without the catalog rejecting it, so it is reported as
// *AuthError rather than ErrNotFound.
func (c *Client) FetchDetail(ctx context.Context, cred credential.Credential, slug string) (Detail, error) {
	data, err := runQuery[dto.QuestionData](ctx, c, cred, "questionData", detailQuery, map[string]any{"titleSlug": slug})
	if err != nil {
		return Detail{}, err
	}
	if data.Question == nil {
		return Detail{}, fmt.Errorf("question %s: %w", slug, ErrNotFound)
	}

	q := data.Question
	doc := model.Document{Body: q.Body()}
	if doc.IsEmpty() {
		if !q.IsPaidOnly {
			return Detail{}, &AuthError{Reason: fmt.Sprintf("empty content for %s, session likely expired", slug)}
		}
		return Detail{}, fmt.Errorf("question %s has no visible content: %w", slug, ErrNotFound)
	}

	return Detail{
		Document: doc,
		Variants: q.Variants(),
		Metadata: Metadata{
			QuestionID: q.QuestionID,
			Title:      q.Title,
			Difficulty: q.Difficulty,
			Tags:       q.Tags(),
			Hints:      q.Hints,
			Likes:      q.Likes,
			Dislikes:   q.Dislikes,
			Locked:     q.IsPaidOnly,
		},
	}, nil
}

// FetchTemplate implements Source.
func (c *Client) FetchTemplate(ctx context.Context, cred credential.Credential, slug string, variant model.Variant) (string, error) {
	data, err := runQuery[dto.QuestionData](ctx, c, cred, "questionEditorData", editorQuery, map[string]any{"titleSlug": slug})
	if err != nil {
		return "", err
	}
	if data.Question == nil {
		return "", fmt.Errorf("question %s: %w", slug, ErrNotFound)
	}
	code, ok := data.Question.Snippet(variant.Slug)
	if !ok || strings.TrimSpace(code) == "" {
		return "", fmt.Errorf("template %s/%s: %w", slug, variant.Slug, ErrNotFound)
	}
	return code, nil
}

// FetchCommunityAnswer implements Source. The most voted answer tagged with
// the variant is returned.
func (c *Client) FetchCommunityAnswer(
	ctx context.Context,
	cred credential.Credential,
	slug string,
	variant model.Variant,
) (model.Document, error) {
	vars := map[string]any{
		"questionSlug": slug,
		"skip":         0,
		"first":        1,
		"orderBy":      "most_votes",
		"languageTags": []string{variant.Slug},
	}
	data, err := runQuery[dto.CommunityData](ctx, c, cred, "communitySolutions", communityQuery, vars)
	if err != nil {
		return model.Document{}, err
	}
	solutions := data.Solutions.Solutions
	if len(solutions) == 0 || strings.TrimSpace(solutions[0].Post.Content) == "" {
		return model.Document{}, fmt.Errorf("community answer %s/%s: %w", slug, variant.Slug, ErrNoAnswer)
	}
	return model.Document{Body: solutions[0].Post.Content}, nil
}

// FetchOfficialAnswer implements Source.
func (c *Client) FetchOfficialAnswer(ctx context.Context, cred credential.Credential, slug string) (model.Document, error) {
	data, err := runQuery[dto.OfficialData](ctx, c, cred, "officialSolution", officialQuery, map[string]any{"titleSlug": slug})
	if err != nil {
		return model.Document{}, err
	}
	if data.Question == nil {
		return model.Document{}, fmt.Errorf("question %s: %w", slug, ErrNotFound)
	}
	sol := data.Question.Solution
	if sol == nil || strings.TrimSpace(sol.Content) == "" {
		if sol != nil && sol.PaidOnly && !sol.CanSeeDetail {
			return model.Document{}, fmt.Errorf("official answer %s requires premium: %w", slug, ErrNoAnswer)
		}
		return model.Document{}, fmt.Errorf("official answer %s: %w", slug, ErrNoAnswer)
	}
	return model.Document{Body: sol.Content}, nil
}

// runQuery runs one GraphQL operation and classifies failures.
//
// The returned data is never nil on success.
func runQuery[T any](
	ctx context.Context,
	c *Client,
	cred credential.Credential,
	operation string,
	query string,
	vars map[string]any,
) (*T, error) {
	if cred.Empty() {
		return nil, &AuthError{Reason: "no credential"}
	}

	headers := map[string]string{
		"Referer": c.origin + "/",
		"Origin":  c.origin,
	}
	cookies := []*http.Cookie{{Name: c.cfg.SessionCookie, Value: cred.Token}}
	if cred.CSRFToken != "" {
		headers["X-Csrftoken"] = cred.CSRFToken
		cookies = append(cookies, &http.Cookie{Name: c.cfg.CSRFCookie, Value: cred.CSRFToken})
	}

	req := dto.GraphQLRequest{OperationName: operation, Query: query, Variables: vars}
	var envelope dto.Envelope[T]
	if err := c.http.PostJSON(ctx, c.cfg.Endpoint, headers, cookies, req, &envelope); err != nil {
		var statusErr *apphttp.StatusError
		if errors.As(err, &statusErr) {
			switch statusErr.Code {
			case http.StatusUnauthorized, http.StatusForbidden:
				return nil, &AuthError{Reason: "credential rejected", Cause: err}
			case http.StatusNotFound:
				return nil, fmt.Errorf("%s: %w", operation, ErrNotFound)
			}
		}
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	if len(envelope.Errors) > 0 {
		msgs := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, classifyQueryErrors(operation, msgs)
	}
	if envelope.Data == nil {
		return new(T), nil
	}
	return envelope.Data, nil
}

func classifyQueryErrors(operation string, msgs []string) error {
	for _, msg := range msgs {
		lower := strings.ToLower(msg)
		switch {
		case strings.Contains(lower, "login"),
			strings.Contains(lower, "authenticat"),
			strings.Contains(lower, "permission"):
			return &AuthError{Reason: msg}
		case strings.Contains(lower, "not exist"),
			strings.Contains(lower, "not found"):
			return fmt.Errorf("%s: %s: %w", operation, msg, ErrNotFound)
		}
	}
	return &QueryError{Operation: operation, Messages: msgs}
}
