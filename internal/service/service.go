// Package service sits between the handlers and the repositories.
//
// Services receive payloads the handlers already bound and validated,
// resolve path ids and pass the work to a repository interface, so the
// same logic runs against Postgres in production and an in-memory store
// in tests (see servicetest).
package service
