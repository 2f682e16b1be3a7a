package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-zmq/pkg/types"
)

func TestZapRequest_Curve(t *testing.T) {
	key := types.Key{7}
	req := ZapRequest{
		Version:     ZapVersion,
		RequestID:   "1",
		Domain:      "test",
		Address:     "127.0.0.1:5000",
		Mechanism:   MechanismCurve,
		Credentials: [][]byte{key.Bytes()},
	}

	parsed, err := ParseZapRequest(req.Message())
	require.NoError(t, err)
	assert.Equal(t, "test", parsed.Domain)
	assert.Equal(t, key, parsed.ClientKey())
}

func TestZapRequest_Malformed(t *testing.T) {
	_, err := ParseZapRequest(types.NewStringMessage("1.0", "1"))
	assert.ErrorIs(t, err, ErrMalformedZap)

	_, err = ParseZapRequest(types.NewStringMessage("2.0", "1", "d", "a", "", "NULL"))
	assert.ErrorIs(t, err, ErrMalformedZap)

	_, err = ParseZapRequest(types.NewStringMessage("1.0", "1", "d", "a", "", "CURVE", "short"))
	assert.ErrorIs(t, err, ErrMalformedZap)
}

func TestZapReply(t *testing.T) {
	req := ZapRequest{Version: ZapVersion, RequestID: "42", Mechanism: MechanismNull}
	reply, err := ParseZapReply(req.ReplyTo(StatusReject, "denied", "").Message())
	require.NoError(t, err)
	assert.Equal(t, "42", reply.RequestID)
	assert.Equal(t, StatusReject, reply.StatusCode)
	assert.True(t, req.ClientKey().IsZero())

	_, err = ParseZapReply(types.NewStringMessage("1.0", "1", "999", "", "", ""))
	assert.ErrorIs(t, err, ErrMalformedZap)
}
