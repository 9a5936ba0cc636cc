package discord_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/concord-labs/concord/concordjson"
	"github.com/concord-labs/concord/discord"
)

func TestSnowflakeWireFormat(t *testing.T) {
	t.Parallel()

	id := discord.Snowflake(175928847299117063)

	data, err := concordjson.Marshal(id)
	assert.NoError(t, err)
	assert.Equal(t, `"175928847299117063"`, string(data))

	var parsed discord.Snowflake

	err = concordjson.Unmarshal(data, &parsed)
	assert.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestSnowflakeUnmarshalNumber(t *testing.T) {
	t.Parallel()

	var parsed discord.Snowflake

	err := concordjson.Unmarshal([]byte(`175928847299117063`), &parsed)
	assert.NoError(t, err)
	assert.Equal(t, discord.Snowflake(175928847299117063), parsed)
}

func TestSnowflakeUnmarshalNull(t *testing.T) {
	t.Parallel()

	parsed := discord.Snowflake(123)

	err := parsed.UnmarshalJSON([]byte(`null`))
	assert.NoError(t, err)
	assert.True(t, parsed.IsNil())
}

func TestSnowflakeComponents(t *testing.T) {
	t.Parallel()

	// Reference snowflake from the public documentation.
	id := discord.Snowflake(175928847299117063)

	assert.Equal(t, int64(1462015105796), id.Time().UnixMilli())
	assert.Equal(t, uint8(1), id.Worker())
	assert.Equal(t, uint8(0), id.Process())
	assert.Equal(t, uint16(7), id.Increment())
}

func TestSnowflakeRoundTrip(t *testing.T) {
	t.Parallel()

	timestamp := time.Date(2023, time.June, 1, 12, 0, 0, 0, time.UTC)

	id := discord.NewSnowflake(timestamp, 3, 7, 1024)

	assert.Equal(t, timestamp.UnixMilli(), id.Time().UnixMilli())
	assert.Equal(t, uint8(3), id.Worker())
	assert.Equal(t, uint8(7), id.Process())
	assert.Equal(t, uint16(1024), id.Increment())
}

func TestParseSnowflake(t *testing.T) {
	t.Parallel()

	id, err := discord.ParseSnowflake("175928847299117063")
	assert.NoError(t, err)
	assert.Equal(t, discord.Snowflake(175928847299117063), id)

	_, err = discord.ParseSnowflake("not a snowflake")
	assert.Error(t, err)
}

func TestInt64AcceptsBothWireForms(t *testing.T) {
	t.Parallel()

	var fromString discord.Int64

	err := concordjson.Unmarshal([]byte(`"2147483648"`), &fromString)
	assert.NoError(t, err)
	assert.Equal(t, discord.Int64(2147483648), fromString)

	var fromNumber discord.Int64

	err = concordjson.Unmarshal([]byte(`2147483648`), &fromNumber)
	assert.NoError(t, err)
	assert.Equal(t, fromString, fromNumber)

	data, err := concordjson.Marshal(fromString)
	assert.NoError(t, err)
	assert.Equal(t, `"2147483648"`, string(data))
}

func TestListMarshalsEmptyAsArray(t *testing.T) {
	t.Parallel()

	var roles discord.SnowflakeList

	data, err := concordjson.Marshal(roles)
	assert.NoError(t, err)
	assert.Equal(t, `[]`, string(data))
}
