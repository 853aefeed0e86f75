package net

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SyncBoard/internal/protocol"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	in := Envelope{
		Kind:        KindData,
		From:        "peer-a",
		Reliability: protocol.Reliable,
		Payload:     []byte(`{"type":"clear"}`),
	}
	data, err := encodeEnvelope(in)
	require.NoError(t, err)

	out, err := decodeEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeEnvelopeRejectsGarbage(t *testing.T) {
	_, err := decodeEnvelope([]byte("not cbor at all"))
	assert.Error(t, err)

	data, err := encodeEnvelope(Envelope{From: "x"})
	require.NoError(t, err)
	_, err = decodeEnvelope(data)
	assert.Error(t, err, "missing kind")
}
