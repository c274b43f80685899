// Package media localises images embedded in fetched documents.
//
// A Rewriter scans a document body for remote image references, downloads
// each distinct URL once, stores it next to the document and rewrites every
// occurrence to the local copy:
//
//	rw := media.NewRewriter(afero.NewOsFs(), httpClient,
//	    media.WithRetry(retry.New(3, time.Second)),
//	    media.WithTimeout(10*time.Second),
//	)
//	doc, mapping := rw.Rewrite(ctx, doc, "out/0001_Easy_two-sum/description/images", "images")
//
// Both HTML <img src="..."> and markdown ![alt](url) references are
// recognised. Downloads that fail are left pointing at the remote URL; a
// broken image never fails the surrounding item.
package media
