package runner

import (
	"errors"

	"github.com/projectdiscovery/phishingrod"
	"github.com/projectdiscovery/phishingrod/internal/scanner"
)

// Process exit codes
const (
	ExitOK = 0
	// ExitFailure covers flag errors, fatal logs and any other failure
	ExitFailure = 1
	// ExitWatchlistMissing is returned when the watchlist file does not exist
	ExitWatchlistMissing = 3
	// ExitNoZoneFiles is returned when the zone directory is absent or empty
	ExitNoZoneFiles = 4
)

// ExitCode maps the error returned by Run to a process exit code
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, phishingrod.ErrWatchlistMissing):
		return ExitWatchlistMissing
	case errors.Is(err, scanner.ErrNoZoneFiles):
		return ExitNoZoneFiles
	default:
		return ExitFailure
	}
}
