/*
Package subsim runs the subject simulator loop.

# Concept

The simulator turns a 2-D control input into an N-channel signal and
streams it. Every tick the loop executes the same sequence:

	read input     - the pointer position, or the previous sample if absent;
	project        - z = W·x + k·e with fresh noise;
	transmit       - input payload first, signal payload second;
	raster         - advance the cursor and write one column;
	trace          - record the period at the same cursor;
	sinks          - feed optional sinks with the signal frame;
	render         - hand an immutable snapshot to the renderer.

Ticks never overlap. The next tick starts no sooner than the configured
interval after the previous one started, so the interval is a floor and the
trace shows the actual cadence.

# Errors

Transmission is best effort. Send and sink errors are logged and counted,
the tick completes and the loop continues. Resolution errors of a new
destination are returned to the caller of Connect and the previous
destination stays active.

# Mutations

Components that can change at runtime expose mutations (see package
mutable). Mutations pushed to the loop are applied at the beginning of the
next tick, so a tick never observes a half-applied change.
*/
package subsim
