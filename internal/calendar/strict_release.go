//go:build !plannerdebug

package calendar

const strictInvariants = false
