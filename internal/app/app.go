package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "health":
		return runHealth(args[1:])
	case "collect", "run", "run-once":
		return runCollect(args[1:])
	case "search":
		return runSearch(args[1:])
	case "score":
		return runScore(args[1:])
	case "articles":
		return runArticles(args[1:])
	case "runs":
		return runRuns(args[1:])
	case "report":
		return runReport(args[1:])
	case "validate":
		return runValidate(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "adwatch CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  adwatch <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  collect   Run the full collection pipeline: search, parse, score, report, notify")
	fmt.Fprintln(os.Stderr, "  run-once  Alias for collect (run works too)")
	fmt.Fprintln(os.Stderr, "  search    Run search queries and print discovered articles without persisting")
	fmt.Fprintln(os.Stderr, "  score     Score a title and text against the relevance term table")
	fmt.Fprintln(os.Stderr, "  articles  List persisted articles")
	fmt.Fprintln(os.Stderr, "  runs      List persisted run summaries")
	fmt.Fprintln(os.Stderr, "  report    Regenerate the HTML report from persisted articles")
	fmt.Fprintln(os.Stderr, "  validate  Validate article record JSON files against the export schema")
	fmt.Fprintln(os.Stderr, "  serve     Start the Echo API server")
	fmt.Fprintln(os.Stderr, "  health    Verify storage backend connectivity")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"adwatch <command> -h\" for command-specific flags.")
}
