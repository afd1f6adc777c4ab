// Package domain implements the NFPA 291 fire-flow calculations used to rate
// fire hydrants from field flow tests.
//
// # Field Measurements
//
// A flow test opens one or more outlets on nearby "flow" hydrants while a gauge
// on the "test" hydrant records pressure in the main:
//
//	static pressure    pressure in the main before any outlet is opened (psi)
//	residual pressure  pressure in the main while the outlets are flowing (psi)
//	pitot pressure     velocity pressure measured in each flowing stream (psi)
//
// # Formulas
//
// Outlet flow (orifice equation):
//
//	Q = 29.83 × c × d² × √P
//
// where c is the discharge coefficient, d the outlet diameter in inches and P
// the pitot pressure. When no coefficient is measured, a default is looked up by
// outlet size: 2.5" → 0.90, 4.5" → 0.85, 5.0" → 0.85, 6.0" → 0.80, otherwise 0.85.
//
// Available fire flow at a target residual pressure (normally 20 psi):
//
//	Q_R = Q_F × ((S − R_target) / (S − R_test))^0.54
//
// The 0.54 exponent is the Hazen-Williams derived value mandated by NFPA 291.
//
// # Rounding
//
// Outlet flows are displayed to the whole GPM but summed at full precision in
// input order. The total and the available flow are rounded once, to two
// decimal places. Supply curve points and distances are rounded to whole units.
//
// # Classification
//
//	AA  ≥ 1500 GPM   blue
//	A   ≥ 1000 GPM   green
//	B   ≥  500 GPM   orange
//	C   <  500 GPM   red
//
// Bounds are inclusive and evaluated highest first against the unrounded
// available flow, so 1499.996 GPM is class A even though it reports as 1500.00.
//
// # Diagnostics
//
// Domain errors (impossible input) stop the evaluation and are returned as
// strings in [FlowTestResult.Errors]. Warnings (suspect but usable input) ride
// along with the numeric result and lower [FlowTestResult.QualityScore].
// Nothing is logged; diagnostics are part of the return value.
package domain
