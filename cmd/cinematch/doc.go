// Command cinematch matches movie files to TMDB entries and makes sure each
// matched movie is tracked by Radarr.
//
// Commands:
//
//	run <dir>            scan a directory and process every video file
//	resolve <filename>   dry-run one filename and show the ranked candidates
//	normalize <name>...  show the title and year extracted from filenames
//	check                verify TMDB, the reasoning service and Radarr
//	test-notify          send a test ntfy notification
//	config init|validate manage the TOML configuration file
package main
