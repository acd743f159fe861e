package recovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripFence(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{name: "no fence", in: `{"a":1}`, expected: `{"a":1}`},
		{name: "json tag", in: "```json\n{\"a\":1}\n```", expected: `{"a":1}`},
		{name: "no tag", in: "```\n{\"a\":1}\n```", expected: `{"a":1}`},
		{name: "mixed case tag", in: "```Json {\"a\":1} ```", expected: `{"a":1}`},
		{name: "tilde fence", in: "~~~\n{\"a\":1}\n~~~", expected: `{"a":1}`},
		{name: "text after fence dropped", in: "```json\n{\"a\":1}\n```\nhope this helps", expected: `{"a":1}`},
		{name: "unclosed fence", in: "```json\n{\"a\":1}", expected: "```json\n{\"a\":1}"},
		{name: "unclosed backticks before tilde fence", in: "``` oops ~~~\n{\"a\":1}\n~~~", expected: `{"a":1}`},
		{name: "closer must match opener", in: "```json\n{\"a\":1}\n~~~", expected: "```json\n{\"a\":1}\n~~~"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, stripFence(tt.in))
		})
	}
}

func TestExtractBraces(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{name: "already bounded", in: `{"a":1}`, expected: `{"a":1}`},
		{name: "leading text", in: `answer: {"a":1}`, expected: `{"a":1}`},
		{name: "trailing text", in: `{"a":1} done`, expected: `{"a":1}`},
		{name: "both", in: `x {"a":{"b":2}} y`, expected: `{"a":{"b":2}}`},
		{name: "no braces", in: `plain words`, expected: `plain words`},
		{name: "only closing brace", in: `oops } tail`, expected: `oops }`},
		{name: "array untouched", in: `[1,2]`, expected: `[1,2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractBraces(tt.in))
		})
	}
}

func TestStripLineComments(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{name: "nothing to strip", in: `{"a":1}`, expected: `{"a":1}`},
		{name: "end of line comment", in: "{\"a\":1, // one\n\"b\":2}", expected: "{\"a\":1, \n\"b\":2}"},
		{name: "comment at end of input", in: "{\"a\":1} // bye", expected: "{\"a\":1} "},
		{name: "url inside string", in: `{"u":"http://x.y/z"}`, expected: `{"u":"http://x.y/z"}`},
		{name: "escaped quote before slashes", in: `{"u":"say \"//hi\""}`, expected: `{"u":"say \"//hi\""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, stripLineComments(tt.in))
		})
	}
}

func TestStripTrailingCommas(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{name: "object", in: `{"a":1,}`, expected: `{"a":1}`},
		{name: "array", in: `[1,2,]`, expected: `[1,2]`},
		{name: "whitespace before closer", in: "{\"a\":1,\n  }", expected: "{\"a\":1\n  }"},
		{name: "nested", in: `{"a":[1,],}`, expected: `{"a":[1]}`},
		{name: "inner commas kept", in: `{"a":1,"b":2}`, expected: `{"a":1,"b":2}`},
		{name: "comma inside string kept", in: `{"a":"x,}"}`, expected: `{"a":"x,}"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, stripTrailingCommas(tt.in))
		})
	}
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, `{"a": "b c"}`, collapseWhitespace("{\"a\":\n  \"b\n\tc\"}"))
	assert.Equal(t, "", collapseWhitespace(" \n "))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "abc", preview("abc", 5))
	assert.Equal(t, "ab", preview("abc", 2))
	assert.Equal(t, "éé", preview("ééé", 2))
	assert.Equal(t, "", preview("abc", 0))
}
