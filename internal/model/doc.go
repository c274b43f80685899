// Package model defines the core data structures used throughout
// the problem-archiver application.
//
// # Item
//
// Item is one catalog entry (a problem) as read from the catalog listing.
// Its first tag selects the category folder it is archived under:
//
//	item := model.Item{ID: 1, Title: "Two Sum", Slug: "two-sum", Difficulty: "Easy", Tags: []string{"Array"}}
//	paths := model.NewItemPaths("/archive", item)
//	fmt.Println(paths.Dir) // /archive/Array/0001_Easy_two-sum
//
// # Variant
//
// Variant is a language selection discovered from an item's detail response.
// Templates and community answers are fetched once per variant:
//
//	v := model.Variant{Slug: "python3", Name: "Python3"}
//	fmt.Println(v.Extension()) // py
//
// # Document
//
// Document holds rich markup plus the ordered, distinct media references it
// embeds. Media references are discovered by the media package.
//
// # Outcome
//
// Outcome records how many parts of a sub-resource kind were expected and
// how many were actually archived:
//
//	model.Outcome{Kind: model.KindTemplates, Total: 3, Achieved: 2}
//
// # Format
//
// Format selects the representation a description is written in:
// structured (.html), lightweight (.md) or raw (.txt).
package model
