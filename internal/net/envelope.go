package net

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"SyncBoard/internal/protocol"
)

// Envelope kinds carried between the relay hub and its clients.
const (
	KindData    = "data"
	KindWelcome = "welcome"
	KindJoin    = "join"
	KindLeave   = "leave"
	KindOffer   = "offer"
	KindAnswer  = "answer"
)

// Envelope is one relay frame. From is always stamped by the hub; clients
// cannot choose it.
type Envelope struct {
	Kind        string               `cbor:"kind"`
	From        string               `cbor:"from,omitempty"`
	To          string               `cbor:"to,omitempty"`
	Reliability protocol.Reliability `cbor:"reliability,omitempty"`
	Payload     []byte               `cbor:"payload,omitempty"`
}

var envelopeEnc cbor.EncMode

func init() {
	var err error
	envelopeEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("net: CBOR encoder initialization failed: " + err.Error())
	}
}

func encodeEnvelope(e Envelope) ([]byte, error) {
	data, err := envelopeEnc.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encoding %s envelope: %w", e.Kind, err)
	}
	return data, nil
}

func decodeEnvelope(data []byte) (Envelope, error) {
	var e Envelope
	if err := cbor.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("decoding envelope: %w", err)
	}
	if e.Kind == "" {
		return Envelope{}, fmt.Errorf("decoding envelope: missing kind")
	}
	return e, nil
}
