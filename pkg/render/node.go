package render

// NodeKind discriminates rendered output nodes.
type NodeKind string

const (
	// NodeText carries a run of text, optionally styled.
	NodeText NodeKind = "text"
	// NodeBreak is a line break. Its Text is always "\n" so that
	// concatenating node text reproduces the source content exactly.
	NodeBreak NodeKind = "break"
)

// Node is one unit of renderable output.
type Node struct {
	Kind NodeKind `json:"kind"`
	Text string   `json:"text"`

	// Style is nil for plain nodes.
	Style *Style `json:"style,omitempty"`
}

// Style is the resolved presentation of a node. Unlike a raw Formatting
// record it carries an absolute pixel size, already scaled against the
// operator's accessibility base.
type Style struct {
	Bold       bool    `json:"bold,omitempty"`
	Italic     bool    `json:"italic,omitempty"`
	Color      string  `json:"color,omitempty"`
	Background string  `json:"background,omitempty"`
	PixelSize  float64 `json:"pixel_size,omitempty"`
	Alignment  string  `json:"alignment,omitempty"`
	FontFamily string  `json:"font_family,omitempty"`
	ListType   string  `json:"list_type,omitempty"`
	Shadow     bool    `json:"shadow,omitempty"`
}

func breakNode() Node {
	return Node{Kind: NodeBreak, Text: "\n"}
}

// Flatten concatenates the text of all nodes, ignoring styling. For any
// segment list whose texts are all found in order, Flatten(Render(...))
// equals the original content.
func Flatten(nodes []Node) string {
	var b []byte
	for _, n := range nodes {
		b = append(b, n.Text...)
	}
	return string(b)
}
