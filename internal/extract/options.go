package extract

// Options configures the production capabilities.
type Options struct {
	// MaxFileSize is the largest file, in bytes, any capability will read.
	// Zero means 100 MB.
	MaxFileSize int64

	// Encoding forces a character set for text-like formats instead of
	// detecting it.
	Encoding string

	// IncludeTableHeader keeps the first CSV/TSV row in the table text.
	IncludeTableHeader bool

	// XMLKeepTags renders XML elements as <tag>text</tag> rather than bare text.
	XMLKeepTags bool

	// OCRBinary is the tesseract executable used for images.
	OCRBinary string

	// OCRLanguages are passed to tesseract with -l.
	OCRLanguages []string

	// OfficeBinary converts legacy .doc/.ppt files (LibreOffice soffice).
	OfficeBinary string
}

func (o *Options) defaults() {
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = 100 * 1024 * 1024
	}
	if o.OCRBinary == "" {
		o.OCRBinary = "tesseract"
	}
	if len(o.OCRLanguages) == 0 {
		o.OCRLanguages = []string{"eng"}
	}
	if o.OfficeBinary == "" {
		o.OfficeBinary = "soffice"
	}
}
