// Package catalog talks to the remote problem catalog over GraphQL.
//
// The package exposes the Source interface consumed by the download
// scheduler and Client, its GraphQL implementation. It handles:
//
//  1. Paging through the full catalog listing
//  2. Fetching descriptions, starter templates and answers per item
//  3. Classifying failures into fatal, permanent and transient errors
//
// # Listing
//
// ListAll returns a lazy sequence. Pages are only requested while the
// caller keeps iterating:
//
//	client := catalog.NewClient(apphttp.NewClient(apphttp.Options{}), catalog.Config{}, logger)
//	for item, err := range client.ListAll(ctx, cred) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Printf("%d %s\n", item.ID, item.Title)
//	}
//
// # Errors
//
// A rejected or expired credential is reported as *AuthError and must halt
// the whole run (see IsFatal). ErrNoAnswer marks content that genuinely does
// not exist and is not a failure. IsRetryable decides which errors the retry
// executor may try again.
package catalog
