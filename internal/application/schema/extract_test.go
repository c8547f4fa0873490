package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractProposal(t *testing.T) {
	tests := []struct {
		name   string
		reply  string
		want   string
		wantOK bool
	}{
		{
			name:   "json fence",
			reply:  "Here you go:\n```json\n{\"type\":\"string\"}\n```\nDone.",
			want:   `{"type":"string"}`,
			wantOK: true,
		},
		{
			name:   "json fence preferred over earlier generic fence",
			reply:  "```\nplain\n```\nthen\n```json\n{\"type\":\"int\"}\n```",
			want:   `{"type":"int"}`,
			wantOK: true,
		},
		{
			name:   "first json fence wins",
			reply:  "```json\n{\"a\":1}\n```\n```json\n{\"b\":2}\n```",
			want:   `{"a":1}`,
			wantOK: true,
		},
		{
			name:   "generic fence fallback",
			reply:  "Try:\n```\n{\"type\":\"long\"}\n```",
			want:   `{"type":"long"}`,
			wantOK: true,
		},
		{
			name:   "generic fence keeps language tag text",
			reply:  "```avro\n{\"type\":\"long\"}\n```",
			want:   "avro\n{\"type\":\"long\"}",
			wantOK: true,
		},
		{
			name:   "content trimmed",
			reply:  "```json   \n\n  {\"type\":\"string\"}  \n\n```",
			want:   `{"type":"string"}`,
			wantOK: true,
		},
		{
			name:   "no fence",
			reply:  "Use a union with null for optional fields.",
			wantOK: false,
		},
		{
			name:   "unterminated fence",
			reply:  "```json\n{\"type\":\"string\"}",
			wantOK: false,
		},
		{
			name:   "empty json fence",
			reply:  "```json\n```",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractProposal(tt.reply)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractProposal_Idempotent(t *testing.T) {
	reply := "```json\n{\"type\":\"record\",\"name\":\"A\",\"fields\":[]}\n```"
	first, ok1 := ExtractProposal(reply)
	second, ok2 := ExtractProposal(reply)
	assert.Equal(t, ok1, ok2)
	assert.Equal(t, first, second)
}
