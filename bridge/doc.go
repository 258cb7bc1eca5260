// Package bridge adapts an asynchronous, callback-driven debug-protocol
// session into blocking request/response and notification-wait calls for
// straight-line test code. Replies (messages carrying an "id" field) and
// notifications (everything else) land in two independently ordered FIFO
// queues with no cross-queue ordering guarantee.
package bridge
