// Package shared is the parent of helpers used across packages.
//
// The testutil subpackage provides the indicator table fixtures loaded through
// MapFetcher and slog test loggers that capture records for assertions:
//
//	func TestSomething(t *testing.T) {
//	    fetcher := files.NewMapFetcher(testutil.WorldSources())
//	    logger, records := testutil.NewTestLogger(t)
//	    ...
//	}
package shared
