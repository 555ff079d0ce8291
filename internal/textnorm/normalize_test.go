package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"entities", "a &lt;b&gt; &amp; &quot;c&quot; &#39;d&#39;", `a <b> & "c" 'd'`},
		{"double encoded entity", "&amp;lt;tag&amp;gt;", "<tag>"},
		{"trailing pic link", "hello world pic.twitter.com/abc123", "hello world"},
		{"trailing short link", "hello https://t.co/xyz", "hello"},
		{"short link then pic link", "text pic.twitter.com/a https://t.co/b", "text"},
		{"link in middle kept", "see https://t.co/abc for more", "see https://t.co/abc for more"},
		{"horizontal whitespace", "hello   world \t x", "hello world x"},
		{"trailing spaces per line", "line1  \nline2\t\nline3", "line1\nline2\nline3"},
		{"blank lines collapsed", "a\n\n\n\nb", "a\n\nb"},
		{"two newlines kept", "a\n\nb", "a\n\nb"},
		{"crlf", "a\r\n\r\n\r\nb", "a\n\nb"},
		{"outer trim", "  padded  \n", "padded"},
		{"empty", "", ""},
		{"japanese", "国会で質問しました。 https://t.co/AbCd", "国会で質問しました。"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"&amp;amp;amp;",
		"&amp;quot;hi&amp;quot;",
		"x  \n\n\n\n  y  https://t.co/a",
		"https://t.co/a",
		"pic.twitter.com/a\nhttps://t.co/b\n\n\n",
		"a\t\t\tb \n \n \n c",
		"trailing https://t.co/a pic.twitter.com/b",
		"line https://t.co/x\nnext pic.twitter.com/y\n\n\n\nend",
		"\r\n\r\n text \r\n",
		"全角　スペース　　そのまま",
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestLooksTruncated(t *testing.T) {
	assert.True(t, LooksTruncated("Some short text... https://t.co/abc123"))
	assert.True(t, LooksTruncated("途中で切れた文章…"))
	assert.True(t, LooksTruncated("ends with link https://t.co/abc"))
	assert.False(t, LooksTruncated("A complete sentence."))
	assert.False(t, LooksTruncated(""))
}
