package probe

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type parsedEvent struct {
	name string
	data string
}

func collect(t *testing.T, body string) []parsedEvent {
	t.Helper()
	var got []parsedEvent
	err := parseEvents(strings.NewReader(body), func(name, data string) {
		got = append(got, parsedEvent{name: name, data: data})
	})
	require.NoError(t, err)
	return got
}

func TestParseEventsWrapped(t *testing.T) {
	body := "message:\ndata: {\"event\":\"token\",\"data\":\"Hi\"}\n\n" +
		"message:\ndata: {\"event\":\"metadata\",\"data\":{\"chatId\":\"c1\"}}\n\n"

	assert.Equal(t, []parsedEvent{
		{name: "token", data: "Hi"},
		{name: "metadata", data: `{"chatId":"c1"}`},
	}, collect(t, body))
}

func TestParseEventsPlain(t *testing.T) {
	body := ": keep-alive\n\nevent: update\ndata: line one\ndata: line two\n\ndata: tail"

	assert.Equal(t, []parsedEvent{
		{name: "update", data: "line one\nline two"},
		{name: "message", data: "tail"},
	}, collect(t, body))
}

func TestParseEventsEmpty(t *testing.T) {
	assert.Empty(t, collect(t, ""))
	assert.Empty(t, collect(t, "\n\n: comment\n\n"))
}

func TestServerMessage(t *testing.T) {
	assert.Equal(t, "boom", serverMessage(`{"success":false,"message":"boom"}`))
	assert.Equal(t, "", serverMessage(`{"success":true,"message":"fine"}`))
	assert.Equal(t, "", serverMessage(`{"text":"answer"}`))
	assert.Equal(t, "", serverMessage(`not json`))
}
