package models

// Upload is a video saved to local temp storage for one submission.
type Upload struct {
	FileName string // name supplied by the client
	Ext      string // lower-case, with leading dot
	Size     int64
	Path     string
}
