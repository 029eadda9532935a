// Package shared holds helpers used by more than one package of orderprep.
//
// The testutil subpackage provides:
//
//   - BufferedSlogHandler and NewTestLogger for asserting on log output
//   - Sample raw order files in the source export format
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//		logger, handler := testutil.NewTestLogger(t)
//		input := testutil.WriteSampleOrders(t, t.TempDir())
//		// ...
//		testutil.AssertLogContains(t, handler, slog.LevelInfo, "Orders loaded")
//	}
package shared
