// Package dto holds the JSON shapes returned by the catalog's GraphQL API and
// their conversions to model types.
package dto

import (
	"strconv"
	"strings"

	"github.com/handiism/problem-archiver/internal/model"
)

// GraphQLRequest is the body POSTed for every query.
type GraphQLRequest struct {
	OperationName string         `json:"operationName"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
}

// GraphQLError is one entry of a GraphQL "errors" array.
type GraphQLError struct {
	Message string `json:"message"`
}

// Envelope wraps every GraphQL reply.
type Envelope[T any] struct {
	Data   *T             `json:"data"`
	Errors []GraphQLError `json:"errors"`
}

// JSONTag is a topic tag.
type JSONTag struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// JSONListQuestion is a question as it appears in a listing page.
type JSONListQuestion struct {
	FrontendID string    `json:"frontendQuestionId"`
	Title      string    `json:"title"`
	TitleSlug  string    `json:"titleSlug"`
	Difficulty string    `json:"difficulty"`
	PaidOnly   bool      `json:"paidOnly"`
	TopicTags  []JSONTag `json:"topicTags"`
}

// ToItem converts a listing entry to a model.Item.
//
// Entries without a numeric frontend id are reported with ok == false.
func (q JSONListQuestion) ToItem() (model.Item, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(q.FrontendID))
	if err != nil || id <= 0 || q.TitleSlug == "" {
		return model.Item{}, false
	}
	return model.Item{
		ID:         id,
		Title:      q.Title,
		Slug:       q.TitleSlug,
		Difficulty: q.Difficulty,
		Tags:       tagNames(q.TopicTags),
		Locked:     q.PaidOnly,
	}, true
}

// ListData is the data of the listing query.
type ListData struct {
	List struct {
		Total     int                `json:"total"`
		Questions []JSONListQuestion `json:"questions"`
	} `json:"problemsetQuestionList"`
}

// JSONCodeSnippet is one starter template.
type JSONCodeSnippet struct {
	Lang     string `json:"lang"`
	LangSlug string `json:"langSlug"`
	Code     string `json:"code"`
}

// JSONQuestion is the full detail of a question.
type JSONQuestion struct {
	QuestionID   string            `json:"questionId"`
	FrontendID   string            `json:"questionFrontendId"`
	Title        string            `json:"title"`
	TitleSlug    string            `json:"titleSlug"`
	Content      *string           `json:"content"`
	IsPaidOnly   bool              `json:"isPaidOnly"`
	Difficulty   string            `json:"difficulty"`
	Likes        int               `json:"likes"`
	Dislikes     int               `json:"dislikes"`
	Hints        []string          `json:"hints"`
	TopicTags    []JSONTag         `json:"topicTags"`
	CodeSnippets []JSONCodeSnippet `json:"codeSnippets"`
}

// QuestionData is the data of the detail and editor queries.
type QuestionData struct {
	Question *JSONQuestion `json:"question"`
}

// Body returns the content, or "" when the catalog withheld it.
func (q JSONQuestion) Body() string {
	if q.Content == nil {
		return ""
	}
	return *q.Content
}

// Variants returns the distinct variants in catalog order.
func (q JSONQuestion) Variants() []model.Variant {
	seen := make(map[string]struct{}, len(q.CodeSnippets))
	variants := make([]model.Variant, 0, len(q.CodeSnippets))
	for _, s := range q.CodeSnippets {
		if s.LangSlug == "" {
			continue
		}
		if _, ok := seen[s.LangSlug]; ok {
			continue
		}
		seen[s.LangSlug] = struct{}{}
		variants = append(variants, model.Variant{Slug: s.LangSlug, Name: s.Lang})
	}
	return variants
}

// Snippet returns the template for a variant.
func (q JSONQuestion) Snippet(variant string) (string, bool) {
	for _, s := range q.CodeSnippets {
		if s.LangSlug == variant {
			return s.Code, true
		}
	}
	return "", false
}

// Tags returns the topic tag names.
func (q JSONQuestion) Tags() []string {
	return tagNames(q.TopicTags)
}

func tagNames(tags []JSONTag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		if t.Name != "" {
			names = append(names, t.Name)
		}
	}
	return names
}
