package transcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/problem-archiver/internal/model"
)

const description = `<p>Given an array <code>nums</code> of size <code>n</code>, return <strong>the majority</strong>.</p>
<p>&nbsp;</p>
<p><strong class="example">Example 1:</strong></p>
<pre><strong>Input:</strong> nums = [3,2,3]
<strong>Output:</strong> 3 &lt; 4
</pre>
<p><strong>Constraints:</strong></p>
<ul>
	<li><code>n == nums.length</code></li>
	<li><code>1 &lt;= n &lt;= 5 * 10<sup>4</sup></code></li>
</ul>
`

func TestToLightweight_Description(t *testing.T) {
	want := "Given an array `nums` of size `n`, return **the majority**.\n" +
		"\n" +
		"**Example 1:**\n" +
		"\n" +
		"```\n" +
		"Input: nums = [3,2,3]\n" +
		"Output: 3 < 4\n" +
		"```\n" +
		"\n" +
		"**Constraints:**\n" +
		"\n" +
		"- `n == nums.length`\n" +
		"- `1 <= n <= 5 * 10^4`"

	assert.Equal(t, want, ToLightweight(description, nil))
}

func TestToLightweight_MediaLinksHeadingsLists(t *testing.T) {
	body := `<h2>Title</h2><p>See <a href="https://x.test/doc">docs</a> and <img alt="g" src="https://cdn.test/g.png"></p>` +
		`<ol><li>one</li><li>two<ul><li>inner</li></ul></li></ol>`
	mapping := map[string]string{"https://cdn.test/g.png": "images/1.png"}

	want := "## Title\n" +
		"\n" +
		"See [docs](https://x.test/doc) and ![g](images/1.png)\n" +
		"\n" +
		"1. one\n" +
		"2. two\n" +
		"  - inner"

	assert.Equal(t, want, ToLightweight(body, mapping))
}

func TestToLightweight_Inline(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "emphasis keeps spaces outside", body: `<p>a<em> b </em>c</p>`, want: "a *b* c"},
		{name: "bold and italic", body: `<b>x</b> <i>y</i>`, want: "**x** *y*"},
		{name: "subscript", body: `x<sub>i</sub> and 2<sup>k</sup>`, want: "x_i and 2^k"},
		{name: "unknown tags stripped", body: `<div><span class="x">plain</span> <font>text</font></div>`, want: "plain text"},
		{name: "entities decoded", body: `a &amp; b &gt; c &times; d`, want: "a & b > c × d"},
		{name: "line break", body: `one<br>two`, want: "one\ntwo"},
		{name: "link without text", body: `<a href="https://x.test"></a>`, want: "https://x.test"},
		{name: "blank lines collapse", body: "<p>a</p>\n\n\n\n<p>b</p>", want: "a\n\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToLightweight(tt.body, nil))
		})
	}
}

func TestToLightweight_PreBlocksKeepOrder(t *testing.T) {
	body := "<pre>first &amp; one</pre><p>between</p><pre><em>second</em></pre>"

	got := ToLightweight(body, nil)

	assert.Equal(t, "```\nfirst & one\n```\n\nbetween\n\n```\nsecond\n```", got)
}

func TestToLightweight_PreContentNotRewritten(t *testing.T) {
	body := "<pre>&lt;b&gt;literal&lt;/b&gt;</pre>"

	assert.Equal(t, "```\n<b>literal</b>\n```", ToLightweight(body, nil))
}

func TestToStructured(t *testing.T) {
	body := `<img src="https://cdn.test/a.png"><img src="https://cdn.test/a.png">`
	got := ToStructured(body, map[string]string{"https://cdn.test/a.png": "images/1.png"})

	assert.Equal(t, `<img src="images/1.png"><img src="images/1.png">`, got)
}

func TestToRaw(t *testing.T) {
	assert.Equal(t, description, ToRaw(description))
}

func TestRender(t *testing.T) {
	mapping := map[string]string{"https://cdn.test/a.png": "images/1.png"}
	body := `<p><img src="https://cdn.test/a.png"></p>`

	got, err := Render(model.FormatLightweight, body, mapping)
	require.NoError(t, err)
	assert.Equal(t, "![](images/1.png)", got)

	got, err = Render(model.FormatStructured, body, mapping)
	require.NoError(t, err)
	assert.Equal(t, `<p><img src="images/1.png"></p>`, got)

	got, err = Render(model.FormatRaw, body, mapping)
	require.NoError(t, err)
	assert.Equal(t, body, got)

	_, err = Render(model.Format(42), body, mapping)
	assert.Error(t, err)
}
