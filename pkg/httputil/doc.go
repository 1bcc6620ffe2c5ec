// Package httputil carries the small HTTP helpers shared by anything
// in the runtime that serves HTTP: JSON response writers and the
// logging and recovery middleware the built-in web server wraps its
// routes with.
package httputil
