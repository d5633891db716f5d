//go:build !quaddebug

package quadbatch

const checkViews = false
