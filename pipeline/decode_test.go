package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decodeTarget struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestDecodeResponse_StrictJSON(t *testing.T) {
	var target decodeTarget
	err := decodeResponse(`{"name": "derivative", "count": 3}`, &target)
	require.NoError(t, err)
	assert.Equal(t, "derivative", target.Name)
	assert.Equal(t, 3, target.Count)
}

func TestDecodeResponse_FencedBlock(t *testing.T) {
	response := "Here is the result:\n```json\n{\"name\": \"limit\", \"count\": 1}\n```\nDone."
	var target decodeTarget
	err := decodeResponse(response, &target)
	require.NoError(t, err)
	assert.Equal(t, "limit", target.Name)
}

func TestDecodeResponse_BareFence(t *testing.T) {
	response := "```\n{\"name\": \"integral\", \"count\": 2}\n```"
	var target decodeTarget
	err := decodeResponse(response, &target)
	require.NoError(t, err)
	assert.Equal(t, "integral", target.Name)
}

func TestDecodeResponse_RepairsMissingQuote(t *testing.T) {
	var target decodeTarget
	err := decodeResponse(`{name": "series", "count": 4}`, &target)
	require.NoError(t, err)
	assert.Equal(t, "series", target.Name)
}

func TestDecodeResponse_Unparseable(t *testing.T) {
	var target decodeTarget
	err := decodeResponse("I could not produce JSON, sorry.", &target)
	assert.ErrorIs(t, err, ErrParse)
}
