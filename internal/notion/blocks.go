package notion

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/MKhiriev/notero-sync/models"
)

// RichTextToHTML renders Notion rich text segments as inline HTML.
// Annotations nest in a fixed priority order (code innermost, then bold,
// italic, underline, strikethrough, link outermost) so identical content
// always renders identically.
func RichTextToHTML(parts []models.RichText) string {
	var b strings.Builder
	for _, rt := range parts {
		text := html.EscapeString(rt.PlainText)

		if rt.Annotations.Code {
			text = "<code>" + text + "</code>"
		}
		if rt.Annotations.Bold {
			text = "<strong>" + text + "</strong>"
		}
		if rt.Annotations.Italic {
			text = "<em>" + text + "</em>"
		}
		if rt.Annotations.Underline {
			text = "<u>" + text + "</u>"
		}
		if rt.Annotations.Strikethrough {
			text = "<s>" + text + "</s>"
		}
		if rt.Href != "" {
			text = fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(rt.Href), text)
		}

		b.WriteString(text)
	}
	return b.String()
}

func blockToHTML(block models.Block) string {
	content := RichTextToHTML(block.RichTextContent())

	switch block.Type {
	case models.BlockParagraph:
		return "<p>" + content + "</p>"
	case models.BlockHeading1:
		return "<h1>" + content + "</h1>"
	case models.BlockHeading2:
		return "<h2>" + content + "</h2>"
	case models.BlockHeading3:
		return "<h3>" + content + "</h3>"
	case models.BlockBulletedItem, models.BlockNumberedItem:
		return "<li>" + content + "</li>"
	case models.BlockToDo:
		checked := ""
		if block.ToDo != nil && block.ToDo.Checked {
			checked = "checked "
		}
		return `<li><input type="checkbox" ` + checked + `disabled />` + content + "</li>"
	case models.BlockQuote:
		return "<blockquote>" + content + "</blockquote>"
	case models.BlockCode:
		return "<pre><code>" + content + "</code></pre>"
	case models.BlockDivider:
		return "<hr />"
	case models.BlockCallout:
		return "<p>" + content + "</p>"
	}

	// Unknown block types degrade to a paragraph when they carry text.
	if content != "" {
		return "<p>" + content + "</p>"
	}
	return ""
}

// BlocksToHTML renders a block sequence as the fixed HTML subset Zotero
// notes accept. Consecutive list items of compatible type are grouped into a
// single enclosing list element; to_do items join bulleted lists.
func BlocksToHTML(blocks []models.Block) string {
	var parts []string
	var listBuffer []string
	var listTag string

	flush := func() {
		if len(listBuffer) > 0 && listTag != "" {
			parts = append(parts, "<"+listTag+">"+strings.Join(listBuffer, "")+"</"+listTag+">")
			listBuffer = nil
			listTag = ""
		}
	}

	for _, block := range blocks {
		var tag string
		switch block.Type {
		case models.BlockBulletedItem, models.BlockToDo:
			tag = "ul"
		case models.BlockNumberedItem:
			tag = "ol"
		}

		if tag != "" {
			if listTag != tag {
				flush()
				listTag = tag
			}
			listBuffer = append(listBuffer, blockToHTML(block))
			continue
		}

		flush()
		if rendered := blockToHTML(block); rendered != "" {
			parts = append(parts, rendered)
		}
	}

	flush()
	return strings.Join(parts, "\n")
}

// blockDigest is the semantic payload hashed for change detection: block
// type, rich text content and checked state. Identifiers, timestamps and
// other volatile metadata are deliberately excluded so no-op edits do not
// trigger rewrites.
type blockDigest struct {
	Type     string            `json:"type"`
	RichText []models.RichText `json:"rich_text"`
	Checked  *bool             `json:"checked"`
}

// ComputeBlocksHash fingerprints the semantic content of a block sequence.
// Identical content always hashes identically; flipping a to_do checkbox
// changes the hash.
func ComputeBlocksHash(blocks []models.Block) string {
	digests := make([]blockDigest, 0, len(blocks))
	for _, block := range blocks {
		d := blockDigest{
			Type:     block.Type,
			RichText: block.RichTextContent(),
		}
		if block.Type == models.BlockToDo && block.ToDo != nil {
			checked := block.ToDo.Checked
			d.Checked = &checked
		}
		digests = append(digests, d)
	}

	payload, err := json.Marshal(digests)
	if err != nil {
		// Marshalling plain structs cannot fail; guard anyway.
		return ""
	}

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
