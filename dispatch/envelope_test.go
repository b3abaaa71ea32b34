package dispatch

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseMarshalKeepsInsertionOrder(t *testing.T) {
	resp := OK().
		WithNewID("Receipt", 42).
		WithData(map[string]any{"ReceiptNo": "RCT-000042"}).
		WithField("isValid", true)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Equal(t,
		`{"Status":1,"Message":"Success","NewReceiptID":42,"data":{"ReceiptNo":"RCT-000042"},"isValid":true}`,
		string(raw))
}

func TestResponseWithFieldOverwritesWithoutDuplicating(t *testing.T) {
	resp := OK().WithField("exists", false).WithField("exists", true)
	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Equal(t, `{"Status":1,"Message":"Success","exists":true}`, string(raw))
}

func TestResponseRoundTrip(t *testing.T) {
	raw := []byte(`{"Status":0,"Message":"period is closed","canClose":false,"validationMessages":["1 unposted receipt"]}`)

	var resp Response
	require.NoError(t, json.Unmarshal(raw, &resp))
	assert.Equal(t, StatusFailure, resp.Status)
	assert.Equal(t, "period is closed", resp.Message)

	var canClose bool
	require.NoError(t, resp.DecodeField("canClose", &canClose))
	assert.False(t, canClose)

	var messages []string
	require.NoError(t, resp.DecodeField("validationMessages", &messages))
	assert.Equal(t, []string{"1 unposted receipt"}, messages)

	require.Error(t, resp.DecodeField("table1", &messages))
	assert.False(t, resp.HasField("table1"))
}

func TestParamsIntToleratesStringScalars(t *testing.T) {
	params := Params{
		"PropertyID": "17",
		"Padded":     " 9 ",
		"Float":      float64(23),
		"Bad":        "seventeen",
		"Nil":        nil,
	}

	v, ok := params.Int("PropertyID")
	require.True(t, ok)
	assert.Equal(t, 17, v)

	v, ok = params.Int("Padded")
	require.True(t, ok)
	assert.Equal(t, 9, v)

	v, ok = params.Int("Float")
	require.True(t, ok)
	assert.Equal(t, 23, v)

	_, ok = params.Int("Bad")
	assert.False(t, ok)
	_, ok = params.Int("Nil")
	assert.False(t, ok)
	_, ok = params.Int("Missing")
	assert.False(t, ok)
}

func TestParamsBoolAndDecimalCoercions(t *testing.T) {
	params := Params{
		"Flag":       "true",
		"NumFlag":    float64(1),
		"Amount":     "7850.50",
		"FloatAmt":   float64(350),
		"BadAmount":  "lots",
		"StringBool": false,
	}

	b, ok := params.Bool("Flag")
	require.True(t, ok)
	assert.True(t, b)

	b, ok = params.Bool("NumFlag")
	require.True(t, ok)
	assert.True(t, b)

	b, ok = params.Bool("StringBool")
	require.True(t, ok)
	assert.False(t, b)

	d, ok := params.Decimal("Amount")
	require.True(t, ok)
	assert.True(t, d.Equal(decimal.RequireFromString("7850.50")))

	d, ok = params.Decimal("FloatAmt")
	require.True(t, ok)
	assert.True(t, d.Equal(decimal.NewFromInt(350)))

	_, ok = params.Decimal("BadAmount")
	assert.False(t, ok)
}

func TestParamsDateAcceptsBothLayouts(t *testing.T) {
	params := Params{
		"ReceiptDate": "2026-04-09",
		"LegacyDate":  "2026-04-09T13:45:00",
		"BadDate":     "09/04/2026",
	}

	d, ok := params.Date("ReceiptDate")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC), d)

	d, ok = params.Date("LegacyDate")
	require.True(t, ok)
	assert.Equal(t, 13, d.Hour())

	_, ok = params.Date("BadDate")
	assert.False(t, ok)
}

func TestParamsIntSlice(t *testing.T) {
	params := Params{
		"Ids":      []any{float64(1), "2", float64(3)},
		"BadIds":   []any{"x"},
		"NotSlice": "1,2,3",
	}

	ids, ok := params.IntSlice("Ids")
	require.True(t, ok)
	assert.Equal(t, []int{1, 2, 3}, ids)

	_, ok = params.IntSlice("BadIds")
	assert.False(t, ok)
	_, ok = params.IntSlice("NotSlice")
	assert.False(t, ok)
}

func TestParamsBind(t *testing.T) {
	params := Params{
		"ReceiptID": float64(5),
		"NewStatus": "Deposited",
	}

	var input struct {
		ReceiptID int    `json:"ReceiptID"`
		NewStatus string `json:"NewStatus"`
	}
	require.NoError(t, params.Bind(&input))
	assert.Equal(t, 5, input.ReceiptID)
	assert.Equal(t, "Deposited", input.NewStatus)

	var nested struct {
		Name string `json:"name"`
	}
	withNested := Params{"charge": map[string]any{"name": "Parking"}}
	require.NoError(t, withNested.BindKey("charge", &nested))
	assert.Equal(t, "Parking", nested.Name)
	require.Error(t, withNested.BindKey("missing", &nested))
}
