package green

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"unsafe"
)

const (
	wireTagToken byte = 1
	wireTagNode  byte = 2
)

// Serialize writes root in post-order to a non-self-describing binary form:
// a token emits (TAG_TOKEN, kind, byte length, bytes); a node emits the
// serialized form of each child first, then (TAG_NODE, kind, child count).
// The stream carries no offsets and no deduplication markers — shared
// subtrees are written out once per occurrence, and deduplication is
// re-established on the receiving side by Deserialize.
func Serialize(w io.Writer, root ElementRef) error {
	for _, ref := range root.PostOrder() {
		if err := writeElement(w, ref); err != nil {
			return err
		}
	}
	return nil
}

func writeElement(w io.Writer, ref ElementRef) error {
	if ref.Variant() == VariantToken {
		t := ref.asToken()
		if err := binary.Write(w, binary.LittleEndian, wireTagToken); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint16(t.kind)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(len(t.text))); err != nil {
			return err
		}
		_, err := io.WriteString(w, t.text)
		return err
	}

	n := ref.asNode()
	if err := binary.Write(w, binary.LittleEndian, wireTagNode); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(n.kind)); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, uint32(n.ChildCount()))
}

// Deserialize reconstructs an element from a stream written by Serialize,
// interning every element through b as it goes, so that duplicate leaves
// in the stream collapse back to a single shared reference (P4, scenario
// 6).
func Deserialize(r io.Reader, b *Builder) (ElementRef, error) {
	var stack []ElementRef

	for {
		var tag byte
		if err := binary.Read(r, binary.LittleEndian, &tag); err != nil {
			if err == io.EOF {
				break
			}
			dropAll(stack)
			return ElementRef{}, &Error{Kind: DeserializeMalformed, Context: "reading tag", Cause: err}
		}

		switch tag {
		case wireTagToken:
			var kind16 uint16
			var n uint32
			if err := binary.Read(r, binary.LittleEndian, &kind16); err != nil {
				dropAll(stack)
				return ElementRef{}, &Error{Kind: DeserializeMalformed, Context: "reading token kind", Cause: err}
			}
			if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
				dropAll(stack)
				return ElementRef{}, &Error{Kind: DeserializeMalformed, Context: "reading token length", Cause: err}
			}
			buf := make([]byte, n)
			if _, err := io.ReadFull(r, buf); err != nil {
				dropAll(stack)
				return ElementRef{}, &Error{Kind: DeserializeMalformed, Context: "reading token text", Cause: err}
			}
			ref, err := b.Token(Kind(kind16), buf)
			if err != nil {
				dropAll(stack)
				return ElementRef{}, err
			}
			stack = append(stack, ref)

		case wireTagNode:
			var kind16 uint16
			var count uint32
			if err := binary.Read(r, binary.LittleEndian, &kind16); err != nil {
				dropAll(stack)
				return ElementRef{}, &Error{Kind: DeserializeMalformed, Context: "reading node kind", Cause: err}
			}
			if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
				dropAll(stack)
				return ElementRef{}, &Error{Kind: DeserializeMalformed, Context: "reading node child count", Cause: err}
			}
			if uint64(count) > uint64(len(stack)) {
				dropAll(stack)
				return ElementRef{}, &Error{Kind: DeserializeMalformed, Context: "node declares more children than available"}
			}
			split := len(stack) - int(count)
			children := append([]ElementRef(nil), stack[split:]...)
			stack = stack[:split]

			ref, err := b.Node(Kind(kind16), children)
			if err != nil {
				dropAll(stack)
				return ElementRef{}, err
			}
			stack = append(stack, ref)

		default:
			dropAll(stack)
			return ElementRef{}, &Error{Kind: DeserializeMalformed, Context: "unknown tag"}
		}
	}

	if len(stack) != 1 {
		dropAll(stack)
		return ElementRef{}, &Error{Kind: DeserializeMalformed, Context: "stream did not produce exactly one root"}
	}
	return stack[0], nil
}

func dropAll(refs []ElementRef) {
	for _, r := range refs {
		r.Drop()
	}
}

// wireElement is the self-describing textual form: a JSON object per
// element, tokens carrying Text and nodes carrying Children.
type wireElement struct {
	Kind     Kind          `json:"kind"`
	Text     *string       `json:"text,omitempty"`
	Children []wireElement `json:"children,omitempty"`
}

// SerializeText writes root to the self-describing textual form.
func SerializeText(w io.Writer, root ElementRef) error {
	built := make(map[unsafe.Pointer]wireElement)
	var last wireElement
	for _, ref := range root.PostOrder() {
		if ref.Variant() == VariantToken {
			t := ref.asToken()
			text := t.text
			last = wireElement{Kind: t.kind, Text: &text}
		} else {
			n := ref.asNode()
			children := make([]wireElement, len(n.children))
			for i, c := range n.children {
				children[i] = built[c.ref.ptr]
			}
			last = wireElement{Kind: n.kind, Children: children}
		}
		built[ref.ptr] = last
	}
	return json.NewEncoder(w).Encode(last)
}

// DeserializeText reconstructs an element from the textual form produced
// by SerializeText, interning every element through b.
func DeserializeText(r io.Reader, b *Builder) (ElementRef, error) {
	var we wireElement
	if err := json.NewDecoder(r).Decode(&we); err != nil {
		return ElementRef{}, &Error{Kind: DeserializeMalformed, Context: "decoding JSON", Cause: err}
	}
	return fromWire(b, we)
}

func fromWire(b *Builder, we wireElement) (ElementRef, error) {
	if we.Text != nil {
		return b.Token(we.Kind, []byte(*we.Text))
	}

	children := make([]ElementRef, 0, len(we.Children))
	for _, c := range we.Children {
		ref, err := fromWire(b, c)
		if err != nil {
			dropAll(children)
			return ElementRef{}, err
		}
		children = append(children, ref)
	}
	return b.Node(we.Kind, children)
}
