package models

// Notion API payload types. Only the block vocabulary and property types the
// sync engine understands are modelled; everything else is ignored at the
// parsing boundary.

// Annotations holds the inline formatting flags of a rich text segment.
type Annotations struct {
	Bold          bool `json:"bold,omitempty"`
	Italic        bool `json:"italic,omitempty"`
	Underline     bool `json:"underline,omitempty"`
	Strikethrough bool `json:"strikethrough,omitempty"`
	Code          bool `json:"code,omitempty"`
}

// RichText is a single segment of Notion rich text.
type RichText struct {
	PlainText   string      `json:"plain_text"`
	Href        string      `json:"href,omitempty"`
	Annotations Annotations `json:"annotations,omitempty"`
}

// SelectOption is a select / multi_select option value.
type SelectOption struct {
	Name string `json:"name"`
}

// DateValue is a Notion date property value.
type DateValue struct {
	Start string `json:"start"`
	End   string `json:"end,omitempty"`
}

// Property is a single Notion page property. Exactly one of the typed payload
// fields is populated, matching Type.
type Property struct {
	Type        string         `json:"type"`
	Title       []RichText     `json:"title,omitempty"`
	RichText    []RichText     `json:"rich_text,omitempty"`
	URL         *string        `json:"url,omitempty"`
	Select      *SelectOption  `json:"select,omitempty"`
	MultiSelect []SelectOption `json:"multi_select,omitempty"`
	Number      *float64       `json:"number,omitempty"`
	Checkbox    *bool          `json:"checkbox,omitempty"`
	Date        *DateValue     `json:"date,omitempty"`
}

// Page is a Notion page as returned by the pages and database-query
// endpoints.
type Page struct {
	ID             string              `json:"id"`
	LastEditedTime string              `json:"last_edited_time,omitempty"`
	Properties     map[string]Property `json:"properties"`
}

// Block type names of the restricted vocabulary the note engine renders.
const (
	BlockParagraph    = "paragraph"
	BlockHeading1     = "heading_1"
	BlockHeading2     = "heading_2"
	BlockHeading3     = "heading_3"
	BlockBulletedItem = "bulleted_list_item"
	BlockNumberedItem = "numbered_list_item"
	BlockToDo         = "to_do"
	BlockQuote        = "quote"
	BlockCode         = "code"
	BlockDivider      = "divider"
	BlockCallout      = "callout"
)

// BlockText is the shared payload of blocks whose content is rich text.
type BlockText struct {
	RichText []RichText `json:"rich_text"`
}

// ToDoText is the payload of a to_do block.
type ToDoText struct {
	RichText []RichText `json:"rich_text"`
	Checked  bool       `json:"checked"`
}

// CodeText is the payload of a code block.
type CodeText struct {
	RichText []RichText `json:"rich_text"`
	Language string     `json:"language,omitempty"`
}

// Block is a Notion content block. The payload field matching Type is
// populated; Children is filled by recursive fetches.
type Block struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	HasChildren bool   `json:"has_children,omitempty"`

	Paragraph    *BlockText `json:"paragraph,omitempty"`
	Heading1     *BlockText `json:"heading_1,omitempty"`
	Heading2     *BlockText `json:"heading_2,omitempty"`
	Heading3     *BlockText `json:"heading_3,omitempty"`
	BulletedItem *BlockText `json:"bulleted_list_item,omitempty"`
	NumberedItem *BlockText `json:"numbered_list_item,omitempty"`
	ToDo         *ToDoText  `json:"to_do,omitempty"`
	Quote        *BlockText `json:"quote,omitempty"`
	Code         *CodeText  `json:"code,omitempty"`
	Callout      *BlockText `json:"callout,omitempty"`

	Children []Block `json:"children,omitempty"`
}

// RichTextContent returns the rich text segments of the block regardless of
// its concrete type, or nil for blocks without text (divider, unknown).
func (b Block) RichTextContent() []RichText {
	switch b.Type {
	case BlockParagraph:
		return textOf(b.Paragraph)
	case BlockHeading1:
		return textOf(b.Heading1)
	case BlockHeading2:
		return textOf(b.Heading2)
	case BlockHeading3:
		return textOf(b.Heading3)
	case BlockBulletedItem:
		return textOf(b.BulletedItem)
	case BlockNumberedItem:
		return textOf(b.NumberedItem)
	case BlockToDo:
		if b.ToDo != nil {
			return b.ToDo.RichText
		}
	case BlockQuote:
		return textOf(b.Quote)
	case BlockCode:
		if b.Code != nil {
			return b.Code.RichText
		}
	case BlockCallout:
		return textOf(b.Callout)
	}
	return nil
}

// PlainText concatenates the plain text of the block's rich text segments.
func (b Block) PlainText() string {
	var out string
	for _, rt := range b.RichTextContent() {
		out += rt.PlainText
	}
	return out
}

// HeadingLevel returns 1–3 for heading blocks and 0 otherwise.
func (b Block) HeadingLevel() int {
	switch b.Type {
	case BlockHeading1:
		return 1
	case BlockHeading2:
		return 2
	case BlockHeading3:
		return 3
	}
	return 0
}

func textOf(t *BlockText) []RichText {
	if t == nil {
		return nil
	}
	return t.RichText
}
