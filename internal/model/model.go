// Package model holds the domain types persisted by the repositories.
//
// Each entity lives in its own sub-package (model/desire) together with
// its request payloads and row mapping, so handlers, services and
// repositories share one definition of its shape.
package model
