package pdfhelper

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrame(t *testing.T) {
	frame, err := ParseFrame([]byte(`{"event_type":"answer","data":"Hello "}`))
	require.NoError(t, err)

	assert.Equal(t, "answer", frame.EventType)
	assert.Equal(t, "Hello ", frame.Data)
	assert.True(t, frame.IsAnswer())
}

func TestParseFrame_UnknownFields(t *testing.T) {
	frame, err := ParseFrame([]byte(`{"event_type":"status","data":"x","extra":1}`))
	require.NoError(t, err)
	assert.False(t, frame.IsAnswer())
}

func TestParseFrame_Malformed(t *testing.T) {
	tests := []string{
		`{not json`,
		``,
		`{"event_type":"answer","data":42}`,
	}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			frame, err := ParseFrame([]byte(raw))
			assert.Nil(t, frame)

			var fe *FrameError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, raw, fe.Raw)
			assert.NotNil(t, fe.Unwrap())
		})
	}
}

func TestChatFrame_ContainsMarker(t *testing.T) {
	tests := []struct {
		data   string
		marker string
		want   bool
	}{
		{"\n\nSource PDF：\n\n**a.pdf**", DefaultCompletionMarker, true},
		{"X is a concept. Source PDF: doc1.pdf", DefaultCompletionMarker, true},
		{"source pdf", DefaultCompletionMarker, false},
		{"Source ", DefaultCompletionMarker, false},
		{"anything", "", false},
		{"[END]", "[END]", true},
	}

	for _, tt := range tests {
		f := &ChatFrame{EventType: EventTypeAnswer, Data: tt.data}
		assert.Equal(t, tt.want, f.ContainsMarker(tt.marker), "data=%q marker=%q", tt.data, tt.marker)
	}
}

func TestMessage_MarshalJSON(t *testing.T) {
	msg := Message{ID: "m1", Role: RoleAssistant, Content: "hi"}

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"m1","role":"assistant","content":"hi"}`, string(data))
}
