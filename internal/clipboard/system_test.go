package clipboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFileURIs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "single file uri",
			text: "file:///home/user/doc.txt",
			want: []string{"/home/user/doc.txt"},
		},
		{
			name: "multiple uris with blank lines",
			text: "file:///a.txt\n\nfile:///b.txt\n",
			want: []string{"/a.txt", "/b.txt"},
		},
		{
			name: "plain text is not a file list",
			text: "just some text",
			want: nil,
		},
		{
			name: "mixed lines are not a file list",
			text: "file:///a.txt\nnot a uri",
			want: nil,
		},
		{
			name: "empty",
			text: "  \n ",
			want: nil,
		},
		{
			name: "http url is not a file list",
			text: "https://example.com",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseFileURIs(tt.text))
		})
	}
}

func TestSnapshotEmpty(t *testing.T) {
	assert.True(t, Snapshot{}.Empty())
	assert.False(t, Snapshot{Text: []byte("x")}.Empty())
	assert.False(t, Snapshot{Image: []byte{1}}.Empty())
	assert.False(t, Snapshot{FilePaths: []string{"/a"}}.Empty())
}
