package transport

import (
	"bytes"
	"testing"

	"github.com/multiformats/go-varint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-zmq/pkg/types"
)

func TestCodec_Message(t *testing.T) {
	var buf bytes.Buffer
	cd := newCodec(&buf, 1024)

	msgs := []types.Message{
		types.NewStringMessage("hello"),
		types.NewMessage([]byte{}, []byte("body"), bytes.Repeat([]byte{7}, 300)),
	}
	for _, msg := range msgs {
		require.NoError(t, cd.WriteMessage(msg))
	}
	for _, want := range msgs {
		got, err := cd.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestCodec_FrameTooLarge(t *testing.T) {
	var buf bytes.Buffer
	cd := newCodec(&buf, 4)

	err := cd.WriteMessage(types.NewStringMessage("12345"))
	assert.ErrorIs(t, err, ErrFrameTooLarge)

	// 对端不受本地上限约束时，读取端拒绝
	big := newCodec(&buf, 0)
	require.NoError(t, big.WriteMessage(types.NewStringMessage("12345")))
	_, err = cd.ReadMessage()
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestCodec_TooManyFrames(t *testing.T) {
	buf := bytes.NewBuffer(varint.ToUvarint(maxFrames + 1))
	cd := newCodec(buf, 0)

	_, err := cd.ReadMessage()
	assert.ErrorIs(t, err, ErrTooManyFrames)
}
