package cluster

import (
	"testing"

	"github.com/fieldbridge/driver/pkg/telem"
	influx "github.com/influxdata/line-protocol/v2/lineprotocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeFrameRoundTrip(t *testing.T) {
	temp := telem.Channel{Key: 1, Name: "temp", DataType: telem.Float64}
	idx := telem.Channel{Key: 2, Name: "idx", DataType: telem.TimestampType, IsIndex: true}

	tempSeries := telem.NewSeries(telem.Float64, 2)
	require.NoError(t, tempSeries.AppendFloat64(21.5))
	require.NoError(t, tempSeries.AppendFloat64(22.0))
	idxSeries := telem.NewSeries(telem.TimestampType, 2)
	require.NoError(t, idxSeries.AppendInt64(1000))
	require.NoError(t, idxSeries.AppendInt64(2000))

	frame, err := telem.NewFrame([]uint32{1, 2}, []*telem.Series{tempSeries, idxSeries})
	require.NoError(t, err)

	channelsByKey := map[uint32]telem.Channel{1: temp, 2: idx}
	var enc influx.Encoder
	data, err := EncodeFrame(&enc, frame, channelsByKey, "acquisition", 2)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	out := telem.NewFrameForChannels([]telem.Channel{temp, idx}, channelsByKey, 2)
	channelsByName := map[string]telem.Channel{"temp": temp, "idx": idx}
	dec := influx.NewDecoderWithBytes(data)
	require.NoError(t, DecodeFrame(dec, channelsByName, out))

	assert.Equal(t, 2, out.Get(1).Len())
	v0, _ := out.Get(1).Float64At(0)
	v1, _ := out.Get(1).Float64At(1)
	assert.Equal(t, 21.5, v0)
	assert.Equal(t, 22.0, v1)

	ts0, _ := out.Get(2).Int64At(0)
	ts1, _ := out.Get(2).Int64At(1)
	assert.Equal(t, int64(1000), ts0)
	assert.Equal(t, int64(2000), ts1)
}
