package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripHTML_RemovesTagsAndScripts(t *testing.T) {
	input := `<html><head><title>x</title><style>body{}</style></head>
<body><script>alert(1)</script><p>Hello <b>world</b></p><!-- comment --></body></html>`

	got := StripHTML(input)
	assert.Equal(t, "Hello world", got)
}

func TestStripHTML_DecodesEntities(t *testing.T) {
	got := StripHTML("<p>Tom &amp; Jerry</p>")
	assert.Equal(t, "Tom & Jerry", got)
}

func TestStripHTML_PreservesBlockBreaks(t *testing.T) {
	got := StripHTML("<div>one</div><div>two</div>")
	assert.Equal(t, "one\ntwo", got)
}
