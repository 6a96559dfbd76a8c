//go:build plannerdebug

package calendar

const strictInvariants = true
