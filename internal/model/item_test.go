package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemDecodesMixedRows(t *testing.T) {
	raw := `[
		{"id": 5, "name": "Buy milk", "isCompleted": false},
		{"id": "7f1c", "name": null, "isCompleted": true},
		{"id": 9, "isCompleted": false},
		{"id": 10, "name": "", "isCompleted": false}
	]`
	var items []Item
	require.NoError(t, json.Unmarshal([]byte(raw), &items))
	require.Len(t, items, 4)

	assert.Equal(t, ID("5"), items[0].ID)
	assert.True(t, items[0].Valid())
	assert.Equal(t, ID("7f1c"), items[1].ID)
	assert.False(t, items[1].Valid())
	assert.False(t, items[2].Valid())
	assert.False(t, items[3].Valid())
}

func TestIDMarshal(t *testing.T) {
	b, err := json.Marshal(Item{ID: "42", Name: "a"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":42,"name":"a","isCompleted":false}`, string(b))

	b, err = json.Marshal(Item{ID: "b0a4e1d2-uuid", Name: "a"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"b0a4e1d2-uuid","name":"a","isCompleted":false}`, string(b))

	// Integer-looking but not valid JSON numbers stay strings.
	for _, raw := range []string{"007", "+5", "-0", "1_000"} {
		b, err = json.Marshal(Item{ID: ID(raw), Name: "a"})
		require.NoError(t, err, raw)
		var back Item
		require.NoError(t, json.Unmarshal(b, &back), raw)
		assert.Equal(t, ID(raw), back.ID, raw)
	}

	b, err = json.Marshal(ID("-12"))
	require.NoError(t, err)
	assert.Equal(t, "-12", string(b))
}

func TestPatch(t *testing.T) {
	b, err := json.Marshal(Patch{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(b))

	p := CompletedPatch(true)
	b, err = json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"isCompleted":true}`, string(b))

	got := p.Apply(Item{ID: "1", Name: "x"})
	assert.True(t, got.IsCompleted)
	assert.Equal(t, "x", got.Name)
}
