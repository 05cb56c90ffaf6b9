// Package route defines the Route record and the guarded, always-sorted
// Route Collection shared by the network and console surfaces.
//
// Every mutation runs under the collection's mutex and replaces the backing
// slice instead of editing it, so a reader that grabbed the slice before the
// mutation keeps a consistent view. When a commit function is configured the
// mutation is handed to it inside the same critical section, before the new
// slice is published; a commit failure leaves the collection untouched.
package route
