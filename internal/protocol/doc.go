// Package protocol defines the board sync messages exchanged between
// participants, the codecs that put them on the wire, and the reliability
// class each message is sent with.
//
// A message is either a DrawPoint, one point of a stroke carrying the
// stroke's full style, or a Clear. Messages carry no sender identity; the
// transport supplies it out of band. Decoding validates the payload and
// rejects anything malformed before it reaches the board, so callers never
// see a half-formed message.
package protocol
