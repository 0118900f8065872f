// Package validation contains the logic for validating
// request data.
//
// It binds request bodies with echo, runs the payload's own Validate
// method (usually backed by the `validator` library's struct tags) and
// converts failures into a 400 errs.HTTPError listing the offending fields.
package validation
