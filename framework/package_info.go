// Package framework contains the low-level implementation of the contract-test harness that
// is independent of the Beer API itself. The base package contains shared types such as Logger;
// other components are in the subpackages harness, apitest, helpers, and opt.
//
// The general model is:
//
// 1. The harness talks to a service under test over HTTP. Every request is dispatched without
// blocking the caller and produces a future (harness.Call) whose single outcome is either a
// response or an error.
//
// 2. A scenario (harness.Scenario) wires validation callbacks to those futures and counts down a
// completion gate from them. The test goroutine waits on the gate with a deadline and fails
// explicitly if any expected completion is missing.
//
// 3. There is a general notion of a test scope which is similar to Go's testing.T, allowing
// pieces of test logic to be associated with a test identifier and to accumulate success or
// failure results (package apitest).
//
// The domain-specific code that knows what is being tested is responsible for building the
// requests, deciding which callback of each call is expected to fire, and validating payloads.
package framework
