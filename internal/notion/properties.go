// Package notion turns raw Notion API payloads into the typed values the
// reconciliation engine works with: parsed page properties, rendered note
// HTML and content fingerprints.
package notion

import (
	"strconv"
	"strings"

	"github.com/MKhiriev/notero-sync/models"
)

// ParsePropertyValue converts a single Notion property into a FieldValue.
// Text-like properties (title, rich_text, url, select, number, checkbox,
// date) become scalars; multi_select becomes a list. Returns false for
// empty or unsupported properties.
func ParsePropertyValue(prop models.Property) (models.FieldValue, bool) {
	switch prop.Type {
	case "title":
		text := joinPlainText(prop.Title)
		if text == "" {
			return models.FieldValue{}, false
		}
		return models.ScalarValue(text), true

	case "rich_text":
		text := joinPlainText(prop.RichText)
		if text == "" {
			return models.FieldValue{}, false
		}
		return models.ScalarValue(text), true

	case "url":
		if prop.URL == nil || *prop.URL == "" {
			return models.FieldValue{}, false
		}
		return models.ScalarValue(*prop.URL), true

	case "select":
		if prop.Select == nil {
			return models.FieldValue{}, false
		}
		return models.ScalarValue(prop.Select.Name), true

	case "multi_select":
		names := make([]string, 0, len(prop.MultiSelect))
		for _, opt := range prop.MultiSelect {
			names = append(names, opt.Name)
		}
		return models.ListValue(names), true

	case "number":
		if prop.Number == nil {
			return models.FieldValue{}, false
		}
		return models.ScalarValue(strconv.FormatFloat(*prop.Number, 'f', -1, 64)), true

	case "checkbox":
		if prop.Checkbox == nil {
			return models.FieldValue{}, false
		}
		return models.ScalarValue(strconv.FormatBool(*prop.Checkbox)), true

	case "date":
		if prop.Date == nil || prop.Date.Start == "" {
			return models.FieldValue{}, false
		}
		return models.ScalarValue(prop.Date.Start), true
	}

	return models.FieldValue{}, false
}

// ExtractPageProperties parses every property of a page into typed values,
// keyed by the trimmed property name. Empty and unsupported properties are
// omitted, so presence in the result means the document side carries a value.
func ExtractPageProperties(props map[string]models.Property) models.PageProperties {
	out := make(models.PageProperties, len(props))
	for name, prop := range props {
		value, ok := ParsePropertyValue(prop)
		if !ok {
			continue
		}
		out[strings.TrimSpace(name)] = value
	}
	return out
}

func joinPlainText(parts []models.RichText) string {
	var b strings.Builder
	for _, rt := range parts {
		b.WriteString(rt.PlainText)
	}
	return b.String()
}
