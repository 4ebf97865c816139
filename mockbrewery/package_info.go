// Package mockbrewery is an in-process implementation of the Beer API, used to run the contract
// tests without an external service and to test the harness itself.
//
// The HTTP surface is BreweryService. Beers are kept in a BeerStore, which can be backed by
// memory, a Bolt file, SQLite, Redis, DynamoDB, or Consul; see OpenStore.
package mockbrewery
