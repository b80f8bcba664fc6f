// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// FieldValue is the typed value of a single syncable Notion property. A value
// is either scalar text (select, rich_text, url, title) or a list of names
// (multi_select). The zero value represents an empty property.
type FieldValue struct {
	Text   string   `json:"text,omitempty"`
	List   []string `json:"list,omitempty"`
	IsList bool     `json:"is_list,omitempty"`
}

// ScalarValue constructs a scalar FieldValue.
func ScalarValue(text string) FieldValue {
	return FieldValue{Text: text}
}

// ListValue constructs a list FieldValue.
func ListValue(items []string) FieldValue {
	return FieldValue{List: items, IsList: true}
}

// PropertySnapshot maps syncable field names (Notion property names) to their
// last-synchronized values. Only declared syncable fields ever appear here.
type PropertySnapshot map[string]FieldValue

// PageProperties holds the parsed property values of a single Notion page,
// keyed by property name, after the raw API payload has been validated at the
// parsing boundary.
type PageProperties map[string]FieldValue

// Scalar returns the scalar value of the named property, or "" when the
// property is absent or a list.
func (p PageProperties) Scalar(name string) string {
	v, ok := p[name]
	if !ok || v.IsList {
		return ""
	}
	return v.Text
}

// ListOf returns the list value of the named property, or nil when the
// property is absent or scalar.
func (p PageProperties) ListOf(name string) []string {
	v, ok := p[name]
	if !ok || !v.IsList {
		return nil
	}
	return v.List
}
