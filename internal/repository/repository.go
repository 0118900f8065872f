// Package repository handles all interactions with the database.
//
// It contains raw SQL queries and methods to fetch, persist,
// or update data, abstracting SQL logic away from the service layer.
// Every method issues a single statement on a connection acquired
// through database.Database, so a request never waits unbounded for
// the pool.
package repository
