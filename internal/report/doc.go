// Package report renders the outcome of a reconciliation pass.
//
// Every expectation becomes one Entry with its identifiers, registration
// time, and either the time to arrival in whole seconds or the
// "did not arrive" marker. WriteFile picks the output format from the file
// extension: .html renders the embedded template, .json and .yaml encode the
// Report, anything else is a plain text table.
package report
