// Package flowctl
// Author: momentics <momentics@gmail.com>
//
// Producer-side flow control around the pools and rings: a rate gate that
// engages while a backpressure signal is raised, a spill backlog for
// payloads a full ring rejected, and allocation credits bounding the number
// of blocks in flight.
package flowctl
