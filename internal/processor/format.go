package processor

import "bytes"

// Format is the detected kind of an input document
type Format int

const (
	FormatUnknown Format = iota
	FormatXML
	FormatJSON
	FormatPDF
)

func (f Format) String() string {
	switch f {
	case FormatXML:
		return "xml"
	case FormatJSON:
		return "json"
	case FormatPDF:
		return "pdf"
	default:
		return "unknown"
	}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectFormat sniffs the leading bytes of data
func DetectFormat(data []byte) Format {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))
	switch {
	case len(trimmed) == 0:
		return FormatUnknown
	case bytes.HasPrefix(trimmed, []byte("%PDF-")):
		return FormatPDF
	case trimmed[0] == '<':
		return FormatXML
	case trimmed[0] == '{':
		return FormatJSON
	default:
		return FormatUnknown
	}
}
