// Package servicedef contains the wire model of the Beer API that the contract tests verify:
// the Beer record, its enumerated style, and the resource paths.
//
// The package is used both by the scenarios, which send and decode these records, and by the
// mock brewery, which serves them.
package servicedef
