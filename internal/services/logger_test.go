package services

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	base := newServiceLogger(zerolog.New(&buf), "aggregator-service")
	pool := solana.PublicKey{0xa0, 1}

	base.Pool("alpha", pool).Route("stake").Info().Msg("updated")

	var event map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "aggregator-service", event["service"])
	assert.Equal(t, pool.String(), event["pool"])
	assert.Equal(t, "alpha", event["label"])
	assert.Equal(t, "stake", event["route"])
	assert.Equal(t, "updated", event["message"])

	buf.Reset()
	base.Warn().Msg("plain")
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.NotContains(t, buf.String(), `"pool"`, "derived loggers must not leak fields into the parent")
}
