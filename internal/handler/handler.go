// Package handler turns HTTP requests into service calls.
//
// Every desire endpoint runs through the generic Handle pipeline in
// base.go: bind and validate the payload, call the service, write JSON.
// Errors are returned untouched and formatted by the global error handler.
package handler
