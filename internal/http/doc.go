// Package http provides the HTTP client used for catalog queries and media
// downloads.
//
// The Client in this package handles:
//   - User-Agent headers
//   - JSON POST requests with extra headers and cookies
//   - In-memory downloads with a per-call timeout
//   - Timeout handling
//   - Typed status errors (*StatusError) that know whether they are retryable
//
// # Basic Usage
//
//	client := http.NewClient(http.Options{UserAgent: "problem-archiver/1.0"})
//
//	// Download an embedded image
//	data, err := client.DownloadBytes(ctx, "https://example.com/a.png", 10*time.Second)
//
//	// Issue a GraphQL query
//	err = client.PostJSON(ctx, endpoint, nil, cookies, query, &reply)
//
// # Errors
//
// Non-2xx replies are returned as *StatusError:
//
//	var se *http.StatusError
//	if errors.As(err, &se) && se.Temporary() {
//	    // 429 or 5xx
//	}
package http
