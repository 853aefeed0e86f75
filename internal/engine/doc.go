// Package engine is the collaborative stroke synchronization engine. An
// Engine is one participant's session: it turns local pointer events into
// strokes and outbound messages, applies inbound messages from peers, and
// keeps the participant's undo and redo history.
//
// The engine is single-threaded. Hosts deliver local input and inbound
// transport frames from one execution context; the engine itself holds no
// locks and registers no callbacks.
package engine
