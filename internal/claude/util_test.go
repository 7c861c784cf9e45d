package claude

import "testing"

func TestText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		resp *Response
		want string
	}{
		{
			name: "SingleBlock",
			resp: &Response{Content: []ContentBlock{{Type: "text", Text: "hello"}}},
			want: "hello",
		},
		{
			name: "MultipleBlocksConcatenated",
			resp: &Response{Content: []ContentBlock{
				{Type: "text", Text: "one "},
				{Type: "text", Text: "two"},
			}},
			want: "one two",
		},
		{
			name: "NonTextBlocksSkipped",
			resp: &Response{Content: []ContentBlock{
				{Type: "thinking", Text: "hmm"},
				{Type: "text", Text: "answer"},
			}},
			want: "answer",
		},
		{
			name: "EmptyContent",
			resp: &Response{},
			want: "",
		},
		{
			name: "NilResponse",
			resp: nil,
			want: "",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Text(tt.resp); got != tt.want {
				t.Fatalf("Text: got %q want %q", got, tt.want)
			}
		})
	}
}
