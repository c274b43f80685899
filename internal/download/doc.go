// Package download runs the archive: it decides which items still need
// fetching and drives each through its pipeline.
//
// # Manager
//
// For every pending item the Manager:
//
//  1. Fetches the detail (description and discovered variants)
//  2. Localises description media and writes every configured format
//  3. Fetches templates, community answers and the official answer
//  4. Evaluates completion and records it in the progress store
//
// # Basic Usage
//
//	store := progress.NewStore(fs, settings.OutputDir)
//	if err := store.Load(); err != nil {
//	    return err
//	}
//	manager, err := download.NewManager(settings, client, store,
//	    download.WithFs(fs),
//	    download.WithProgress(func(event download.ProgressEvent) {
//	        fmt.Println(event.Message)
//	    }),
//	)
//	if err != nil {
//	    return err
//	}
//	summary, err := manager.Run(ctx, cred)
//
// # Concurrency
//
// Pending items are split into chunks of Settings.Concurrency. Items of a
// chunk run at the same time; chunks run one after another. Items completed
// by an earlier run and locked items the credential cannot open are never
// dispatched.
//
// # Abort
//
// An authentication failure anywhere sets a shared abort flag. Items already
// dispatched finish and are recorded; no further chunk starts, and Run
// returns the authentication error.
//
// # Retry Logic
//
// Every catalog call goes through a retry executor built from
// Settings.Retry. Only transient errors (network failures, 429 and 5xx) are
// retried; missing content and authentication failures are not.
package download
