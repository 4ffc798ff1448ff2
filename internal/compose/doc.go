// Package compose implements the directive interpreter.
//
// A page is processed line by line. Directives are replaced by the text they
// produce, includes are expanded recursively, named sections accumulate
// text for layouts, and a requested layout re-runs the interpreter over the
// layout file once the page's own pass is complete. Faults never abort a
// page: they are recorded as Diagnostics and rendered inline.
//
// All mutable composition state lives in a Context threaded through each
// recursive call, so an Engine holds only configuration.
package compose
