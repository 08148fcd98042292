// Package shared holds helpers used by more than one layer of the ridership service.
//
// The testutil subpackage provides:
//
//   - a buffered slog handler for asserting on log output
//   - ridership CSV fixtures written in the encodings the ingestor accepts
//
// Example usage:
//
//	func TestLoad(t *testing.T) {
//	    path := testutil.WriteCP949CSV(t, "ridership.csv", testutil.SampleMonth()...)
//	    logger, _ := testutil.NewTestLogger(t)
//	    // ...
//	}
package shared
