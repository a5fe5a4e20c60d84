// Package jobs runs batches of rotation jobs on a bounded worker pool.
//
// Every request is validated and given a reserved output path before any
// work starts. Each job then reports exactly one Result on the channel
// returned by Submit; a failing or panicking job never takes the process
// or its siblings down with it.
package jobs
