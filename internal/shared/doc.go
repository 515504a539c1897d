// Package shared holds helpers used across salespulse packages that belong to
// no single layer.
//
// The testutil subpackage provides a buffered slog handler for asserting on
// log output and sales export fixtures (CSV text with the preamble line real
// exports carry before the header).
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    path := testutil.WriteSalesExport(t, "sales.csv", testutil.ThreeRowExport()...)
//	    // ...
//	    assert.True(t, logs.ContainsMessage("report generated"))
//	}
//
// Nothing here may import business packages, so every other package can use it.
package shared
