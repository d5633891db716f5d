//go:build quaddebug

package quadbatch

// checkViews turns stale View use into a panic.
const checkViews = true
