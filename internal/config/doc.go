// Package config loads archiver settings.
//
// Settings come from three layers, highest precedence first:
//
//  1. Environment variables prefixed with ARCHIVER_ (dots become
//     underscores, so retry.max_attempts is ARCHIVER_RETRY_MAX_ATTEMPTS)
//     and any command-line flags bound to the viper instance
//  2. An optional YAML, JSON or TOML file
//  3. DefaultSettings
//
// # Loading
//
//	v := config.NewViper()
//	_ = v.BindPFlag("concurrency", cmd.Flags().Lookup("concurrency"))
//	settings, err := config.Load(v, "archiver.yaml")
//	if err != nil {
//	    return err
//	}
//
// Load validates the result with struct tags, so a returned *Settings always
// has a positive concurrency, at least one known output format and a
// parseable catalog endpoint.
//
// # Configuration Options
//
//	output_dir               archive root, also holds progress.json
//	item_id                  restrict the run to one item (0 = all)
//	formats                  structured, lightweight, raw
//	fetch_templates          fetch starter code per variant
//	fetch_community_answers  fetch the top community answer per variant
//	fetch_official_answer    fetch the official answer
//	concurrency              items processed at once (chunk size)
//	retry.max_attempts       attempts per remote call
//	retry.base_delay         linear backoff unit
//	media.timeout            per-download timeout for embedded images
//	catalog.*                endpoint, page_size, user_agent, timeout, session_cookie
//	auth.*                   token_env, csrf_env, env_file
//	logging.development      human readable logs
//	metrics.textfile         Prometheus textfile written at the end of a run
package config
