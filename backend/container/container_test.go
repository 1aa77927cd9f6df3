package container

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/wdl/values"
)

// dockerFrame builds one Docker multiplexed-log-stream frame: a 1-byte
// stream selector (1=stdout, 2=stderr), 3 reserved bytes, a 4-byte
// big-endian payload length, then the payload.
func dockerFrame(stream byte, payload string) []byte {
	header := make([]byte, 8)
	header[0] = stream
	size := len(payload)
	header[4] = byte(size >> 24)
	header[5] = byte(size >> 16)
	header[6] = byte(size >> 8)
	header[7] = byte(size)
	return append(header, []byte(payload)...)
}

func TestDemuxCopySplitsStdoutAndStderr(t *testing.T) {
	var frames []byte
	frames = append(frames, dockerFrame(1, "out line\n")...)
	frames = append(frames, dockerFrame(2, "err line\n")...)
	frames = append(frames, dockerFrame(1, "more out\n")...)

	var stdout, stderr bytes.Buffer
	n, err := demuxCopy(&stdout, &stderr, bytes.NewReader(frames))
	require.NoError(t, err)
	assert.Equal(t, int64(len("out line\n")+len("err line\n")+len("more out\n")), n)
	assert.Equal(t, "out line\nmore out\n", stdout.String())
	assert.Equal(t, "err line\n", stderr.String())
}

func TestDemuxCopyHandlesEmptyStream(t *testing.T) {
	var stdout, stderr bytes.Buffer
	n, err := demuxCopy(&stdout, &stderr, bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, stdout.String())
	assert.Empty(t, stderr.String())
}

func TestMapGuestPathUsesFixedMountPointAndBasename(t *testing.T) {
	p := values.Path{Kind: values.KindFile, Localized: "/tmp/wdl-inputs/sample.txt"}
	assert.Equal(t, "/inputs/sample.txt", MapGuestPath(p))
}
