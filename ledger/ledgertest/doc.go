// Package ledgertest provides the behavioral test suite every ledger.Store implementation must pass.
//
// Engines call RunConformance from their own tests with a factory that returns an empty Store:
//
//	func Test_Conformance(t *testing.T) {
//		ledgertest.RunConformance(t, func(t *testing.T) ledger.Store {
//			return memoryengine.New()
//		})
//	}
package ledgertest
