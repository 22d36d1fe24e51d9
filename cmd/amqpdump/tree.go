package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wippyai/amqp-codec/codec"
)

// node is one decoded value positioned in the capture.
type node struct {
	Offset   int     `json:"offset" yaml:"offset" cbor:"offset"`
	Size     int     `json:"size" yaml:"size" cbor:"size"`
	Code     string  `json:"code" yaml:"code" cbor:"code"`
	Category string  `json:"category" yaml:"category" cbor:"category"`
	Type     string  `json:"type" yaml:"type" cbor:"type"`
	Label    string  `json:"label,omitempty" yaml:"label,omitempty" cbor:"label,omitempty"`
	Value    string  `json:"value,omitempty" yaml:"value,omitempty" cbor:"value,omitempty"`
	Error    string  `json:"error,omitempty" yaml:"error,omitempty" cbor:"error,omitempty"`
	Children []*node `json:"children,omitempty" yaml:"children,omitempty" cbor:"children,omitempty"`
}

// maxPreview bounds rendered binary and string previews.
const maxPreview = 64

// buildTree decodes a buffer starting at absolute offset off. Elements are
// walked through their buffers so every child keeps its position.
func buildTree(reg *codec.Registry, buf codec.EncodedBuffer, off int) *node {
	n := &node{
		Offset:   off,
		Size:     buf.EncodedSize(),
		Code:     fmt.Sprintf("0x%02x", buf.FormatCode()),
		Category: buf.SubCategory().String(),
	}

	switch b := buf.(type) {
	case *codec.DescribedBuffer:
		n.Type = "described"
		desc := buildTree(reg, b.Descriptor(), off+1)
		desc.Label = "descriptor"
		inner := buildTree(reg, b.Described(), off+1+b.Descriptor().EncodedSize())
		n.Children = []*node{desc, inner}
		if v, err := reg.DecodeBuffer(b.Descriptor()); err == nil {
			n.Value = preview(v)
		}
		return n

	case *codec.CompoundBuffer:
		n.Type = typeName(reg, buf)
		elems, err := b.Elements()
		if err != nil {
			n.Error = err.Error()
			return n
		}
		pos := off + buf.DataOffset()
		for i, e := range elems {
			child := buildTree(reg, e, pos)
			if buf.FormatCode() == codec.CodeMap8 || buf.FormatCode() == codec.CodeMap32 {
				if i%2 == 0 {
					child.Label = "key"
				} else {
					child.Label = "value"
				}
			}
			n.Children = append(n.Children, child)
			pos += e.EncodedSize()
		}
		n.Value = fmt.Sprintf("count=%d", buf.DataCount())
		return n

	case *codec.ArrayBuffer:
		n.Type = "array"
		ctor := b.ElementConstructor()
		elems, err := b.Elements()
		if err != nil {
			n.Error = err.Error()
			return n
		}
		n.Value = fmt.Sprintf("count=%d of %s", b.DataCount(), codec.CodeName(b.ElementCode()))
		// Elements share the constructor. Each child is positioned as if its
		// constructor preceded its data, which keeps nested offsets exact;
		// the child itself reports only its data span.
		pos := off + buf.DataOffset() + len(ctor)
		for i, e := range elems {
			child := buildTree(reg, e, pos-len(ctor))
			child.Offset = pos
			child.Size = e.EncodedSize() - len(ctor)
			child.Label = "[" + strconv.Itoa(i) + "]"
			n.Children = append(n.Children, child)
			pos += child.Size
		}
		return n
	}

	v, err := reg.DecodeBuffer(buf)
	if err != nil {
		n.Type = "?"
		n.Error = err.Error()
		return n
	}
	n.Type = v.TypeName()
	if _, err := v.Interface(); err != nil {
		n.Error = err.Error()
		return n
	}
	n.Value = preview(v)
	return n
}

func typeName(reg *codec.Registry, buf codec.EncodedBuffer) string {
	v, err := reg.DecodeBuffer(buf)
	if err != nil {
		return "?"
	}
	return v.TypeName()
}

// preview renders a scalar for display.
func preview(v codec.Value) string {
	if v.IsNull() {
		return "null"
	}
	x, err := v.Interface()
	if err != nil {
		return "<" + err.Error() + ">"
	}
	switch x := x.(type) {
	case []byte:
		return hexPreview(x)
	case string:
		return strconv.Quote(truncate(x))
	case codec.Symbol:
		return ":" + truncate(string(x))
	case rune:
		return strconv.QuoteRune(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case codec.Decimal32:
		return hex.EncodeToString(x[:])
	case codec.Decimal64:
		return hex.EncodeToString(x[:])
	case codec.Decimal128:
		return hex.EncodeToString(x[:])
	}
	return fmt.Sprint(x)
}

func truncate(s string) string {
	if len(s) <= maxPreview {
		return s
	}
	return s[:maxPreview] + "..."
}

func hexPreview(b []byte) string {
	if len(b) <= maxPreview/2 {
		return hex.EncodeToString(b)
	}
	return hex.EncodeToString(b[:maxPreview/2]) + "... (" + strconv.Itoa(len(b)) + " bytes)"
}

// decodeCapture splits a capture into back-to-back top-level values.
// Decoding stops at the first malformed value, which is returned as an
// error node so earlier values still render.
func decodeCapture(reg *codec.Registry, data []byte) ([]*node, error) {
	var roots []*node
	for off := 0; off < len(data); {
		buf, err := codec.WrapBuffer(data, off)
		if err != nil {
			roots = append(roots, &node{
				Offset:   off,
				Code:     fmt.Sprintf("0x%02x", data[off]),
				Category: "?",
				Type:     "?",
				Error:    err.Error(),
			})
			return roots, err
		}
		roots = append(roots, buildTree(reg, buf, off))
		off += buf.EncodedSize()
	}
	return roots, nil
}

// walk visits n and its children depth first.
func walk(n *node, depth int, fn func(n *node, depth int)) {
	fn(n, depth)
	for _, c := range n.Children {
		walk(c, depth+1, fn)
	}
}

// summary counts nodes by type for the footer.
func summary(roots []*node) string {
	counts := map[string]int{}
	var order []string
	total := 0
	for _, r := range roots {
		walk(r, 0, func(n *node, _ int) {
			if counts[n.Type] == 0 {
				order = append(order, n.Type)
			}
			counts[n.Type]++
			total++
		})
	}
	parts := make([]string, len(order))
	for i, t := range order {
		parts[i] = fmt.Sprintf("%s=%d", t, counts[t])
	}
	return fmt.Sprintf("%d values (%s)", total, strings.Join(parts, " "))
}
