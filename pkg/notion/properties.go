package notion

import (
	"strings"

	"github.com/jomei/notionapi"
)

func richText(s string) notionapi.RichText {
	return notionapi.RichText{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}}
}

// Title builds a title property value.
func Title(s string) notionapi.TitleProperty {
	return notionapi.TitleProperty{
		Type:  notionapi.PropertyTypeTitle,
		Title: []notionapi.RichText{richText(s)},
	}
}

// Text builds a rich_text property value. Empty strings produce an empty
// property rather than an empty text run.
func Text(s string) notionapi.RichTextProperty {
	p := notionapi.RichTextProperty{Type: notionapi.PropertyTypeRichText}
	if s != "" {
		p.RichText = []notionapi.RichText{richText(s)}
	}
	return p
}

// Number builds a number property value.
func Number(v float64) notionapi.NumberProperty {
	return notionapi.NumberProperty{Type: notionapi.PropertyTypeNumber, Number: v}
}

// URL builds a url property value.
func URL(u string) notionapi.URLProperty {
	return notionapi.URLProperty{Type: notionapi.PropertyTypeURL, URL: u}
}

// Select builds a select property value.
func Select(name string) notionapi.SelectProperty {
	return notionapi.SelectProperty{Type: notionapi.PropertyTypeSelect, Select: notionapi.Option{Name: name}}
}

// PlainText concatenates the plain content of rich text runs.
func PlainText(rts []notionapi.RichText) string {
	var b strings.Builder
	for _, rt := range rts {
		switch {
		case rt.PlainText != "":
			b.WriteString(rt.PlainText)
		case rt.Text != nil:
			b.WriteString(rt.Text.Content)
		}
	}
	return b.String()
}

// TextValue reads a title or rich_text property as plain text. Properties
// decoded from API responses are pointers; locally built ones are values.
func TextValue(p notionapi.Property) string {
	switch v := p.(type) {
	case *notionapi.TitleProperty:
		return PlainText(v.Title)
	case notionapi.TitleProperty:
		return PlainText(v.Title)
	case *notionapi.RichTextProperty:
		return PlainText(v.RichText)
	case notionapi.RichTextProperty:
		return PlainText(v.RichText)
	}
	return ""
}

// SelectValue reads the option name of a select property.
func SelectValue(p notionapi.Property) string {
	switch v := p.(type) {
	case *notionapi.SelectProperty:
		return v.Select.Name
	case notionapi.SelectProperty:
		return v.Select.Name
	}
	return ""
}

// NumberValue reads a number property.
func NumberValue(p notionapi.Property) (float64, bool) {
	switch v := p.(type) {
	case *notionapi.NumberProperty:
		return v.Number, true
	case notionapi.NumberProperty:
		return v.Number, true
	}
	return 0, false
}
