// Package shared holds helpers used by more than one package.
//
// The testutil subpackage provides a capturing slog handler and fixtures
// for the sales pipeline (CSV writers, sample tables). It must only be
// imported from _test.go files.
package shared
