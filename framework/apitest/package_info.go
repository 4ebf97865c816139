// Package apitest is the test-scope runner for the contract tests. It resembles the standard
// testing package: scenarios receive a *T, call Run to create subtests, and fail through
// Errorf/FailNow, so testify assertions work unchanged. Unlike testing.T, a *T is not safe
// to use from other goroutines; callbacks running on transport goroutines must record their
// failures elsewhere and replay them onto the *T.
package apitest
