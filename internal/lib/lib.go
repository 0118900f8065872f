// Package lib acts as a library for modules that do not fit
// strictly into other layers.
//
// It contains shared utilities (utils) and the Redis backed
// rate limit store (ratelimit).
package lib
