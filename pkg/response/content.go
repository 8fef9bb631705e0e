// Package response shapes unbounded tool output into bounded payloads:
// a per-invocation builder with snapshot caching and token-budget
// truncation, plus a cursor pagination helper for long collections.
package response

import "encoding/base64"

// ContentKind discriminates serialized content blocks.
type ContentKind string

const (
	ContentText  ContentKind = "text"
	ContentImage ContentKind = "image"
)

// Content is one block of a serialized tool response, carried to the
// transport layer as-is.
type Content struct {
	Kind ContentKind `json:"type"`

	// Text is set for text blocks.
	Text string `json:"text,omitempty"`

	// Data is base64-encoded payload for image blocks.
	Data string `json:"data,omitempty"`

	// MimeType accompanies Data.
	MimeType string `json:"mimeType,omitempty"`
}

// TextBlock builds a text content block.
func TextBlock(text string) Content {
	return Content{Kind: ContentText, Text: text}
}

// ImageBlock builds an image content block, encoding the bytes for
// transport.
func ImageBlock(mimeType string, data []byte) Content {
	return Content{
		Kind:     ContentImage,
		Data:     base64.StdEncoding.EncodeToString(data),
		MimeType: mimeType,
	}
}
