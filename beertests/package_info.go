// Package beertests contains the Beer API contract scenarios.
//
// Tests in this package use other packages as follows:
//
// apitest: the basic test scope framework
//
// harness: the asynchronous client, completion gates, and scenarios
//
// data: the fixture of ids, UPCs, payloads and deadlines
//
// servicedef: the Beer record and API paths
package beertests
