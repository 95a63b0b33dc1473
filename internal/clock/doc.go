// Package clock lets the hub and relay loops run against an injectable time
// source.
//
// The broadcast ticker, the relay's retry delay and its socket poll delay all
// go through Clock. Production wiring passes Real(); tests pass Fake() and
// drive time forward with Advance, using WaitForTimers to wait until the loop
// under test has parked on a timer.
package clock
