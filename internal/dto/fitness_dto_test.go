package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTestEntryRequestDecodesNumbersAndStrings(t *testing.T) {
	var payload TestEntryRequest
	require.NoError(t, json.Unmarshal([]byte(`{"height_cm":170.5,"weight_kg":" 70.25 ","vo2_max":null,"strength":""}`), &payload))

	require.Equal(t, "170.50", payload.HeightCM.StringFixed(2))
	require.Equal(t, "70.25", payload.WeightKG.StringFixed(2))
	require.Nil(t, payload.VO2Max)
	require.Nil(t, payload.Strength)
	require.Nil(t, payload.Endurance)
	require.Empty(t, payload.Malformed)
}

func TestTestEntryRequestRecordsMalformedMetrics(t *testing.T) {
	var payload TestEntryRequest
	require.NoError(t, json.Unmarshal([]byte(`{"height_cm":170,"strength":"abc","agility":{"v":1},"speed":false}`), &payload))

	require.NotNil(t, payload.HeightCM)
	require.Nil(t, payload.Strength)
	require.Equal(t, map[string]string{
		"strength": MessageNotANumber,
		"agility":  MessageNotANumber,
		"speed":    MessageNotANumber,
	}, payload.Malformed)
}

func TestTestEntryRequestRejectsNonObjectBody(t *testing.T) {
	var payload TestEntryRequest
	require.Error(t, json.Unmarshal([]byte(`[1,2]`), &payload))
}
