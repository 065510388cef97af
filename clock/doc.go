// Package clock drives the per-frame animation loop.
//
// A Clock advances animation time by the wall-clock delta between frame
// callbacks, clamped to MaxDelta, and hands each Frame to a render step.
// Callbacks come from a Scheduler. Hosts that have no display-refresh
// callback of their own use FrameQueue and pump it with Dispatch or Run.
package clock
