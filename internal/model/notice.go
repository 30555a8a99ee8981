package model

// NoticeType classifies a notice for rendering.
type NoticeType string

// Notice types.
const (
	NoticeSuccess NoticeType = "success"
	NoticeInfo    NoticeType = "notice"
	NoticeError   NoticeType = "error"
)

// Notice is a short message rendered once on the current page.
// HTML carries the rich form; Text is the same message without markup.
type Notice struct {
	Type NoticeType `json:"type"`
	HTML string     `json:"html"`
	Text string     `json:"text"`
}
