package normalize

import (
	"reflect"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		declared string
		want     string
	}{
		{"utf8", []byte("孟秋璇  19:39"), "", "孟秋璇  19:39"},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, "hi"...), "", "hi"},
		{"gbk", []byte{0xC4, 0xE3, 0xBA, 0xC3}, "", "你好"},
		{"declared gbk", []byte{0xC4, 0xE3, 0xBA, 0xC3}, "gbk", "你好"},
		{"latin1 fallback", []byte{0xFF, 0x41}, "", "ÿA"},
		{"unknown declared", []byte("abc"), "x-made-up", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decode(tt.data, tt.declared); got != tt.want {
				t.Fatalf("Decode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTextLines(t *testing.T) {
	in := "\r\n  —————  2025-10-7  —————\r\n孟秋璇  19:39\n第一行\n\n\n  \n第二段\n\n"
	want := []string{"—————  2025-10-7  —————", "孟秋璇  19:39", "第一行", "", "第二段"}
	if got := Texts(TextLines(in)); !reflect.DeepEqual(got, want) {
		t.Fatalf("TextLines() = %q, want %q", got, want)
	}
}

func TestTextLinesNumbers(t *testing.T) {
	lines := TextLines("a\n\n\nb\nc")
	want := []Line{{No: 1, Text: "a"}, {No: 2}, {No: 4, Text: "b"}, {No: 5, Text: "c"}}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("TextLines() = %+v, want %+v", lines, want)
	}
}

func TestHTMLLinesNumbers(t *testing.T) {
	doc := "<html>\n<body>\n<div>first</div>\n<p>second\nthird</p>\n</body>"
	want := []Line{{No: 3, Text: "first"}, {No: 4, Text: "second"}, {No: 5, Text: "third"}}
	if got := HTMLLines(doc); !reflect.DeepEqual(got, want) {
		t.Fatalf("HTMLLines() = %+v, want %+v", got, want)
	}
}

func TestTextLinesEmpty(t *testing.T) {
	if got := TextLines(" \n\n \t"); len(got) != 0 {
		t.Fatalf("TextLines() = %q, want none", got)
	}
}

func TestHTMLLines(t *testing.T) {
	doc := `<html><head><style>.a{color:red}</style><script>var x = "<b>no</b>";</script></head>
<body><!-- header -->
<div>—————  2025-10-7  —————</div>
<div>孟秋璇&nbsp;&nbsp;19:39</div><p>这道物理题怎么做&#xFF1F;</p>
<br/>
<div>A &amp; B</div>
</body></html>`
	want := []string{"—————  2025-10-7  —————", "孟秋璇  19:39", "这道物理题怎么做？", "A & B"}
	if got := Texts(HTMLLines(doc)); !reflect.DeepEqual(got, want) {
		t.Fatalf("HTMLLines() = %q, want %q", got, want)
	}
}

func TestHTMLLinesMalformed(t *testing.T) {
	got := Texts(HTMLLines("<div>hello<span>world"))
	want := []string{"hello", "world"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("HTMLLines() = %q, want %q", got, want)
	}
}
