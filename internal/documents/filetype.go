package documents

import (
	"fmt"
	"strings"

	"answerpath-backend/internal/shared/util"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimeTXT  = "text/plain"
)

var contentTypes = map[string]FileType{
	mimePDF:  FileTypePDF,
	mimeDOCX: FileTypeDOCX,
	mimeXLSX: FileTypeXLSX,
	mimeTXT:  FileTypeTXT,
}

// Generic upload content types that say nothing about the format; the file
// extension decides instead.
var genericContentTypes = map[string]struct{}{
	"":                         {},
	"application/octet-stream": {},
	"application/zip":          {},
	"binary/octet-stream":      {},
}

// ParseFileType maps a stored file type value or extension to a FileType.
func ParseFileType(s string) (FileType, error) {
	switch FileType(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))) {
	case FileTypePDF:
		return FileTypePDF, nil
	case FileTypeDOCX:
		return FileTypeDOCX, nil
	case FileTypeXLSX:
		return FileTypeXLSX, nil
	case FileTypeTXT:
		return FileTypeTXT, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, s)
	}
}

// FileTypeFromUpload resolves the file type of an upload from its declared
// content type, falling back to the file extension for generic types.
func FileTypeFromUpload(contentType, fileName string) (FileType, error) {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if ft, ok := contentTypes[clean]; ok {
		return ft, nil
	}
	if _, ok := genericContentTypes[clean]; !ok {
		return "", fmt.Errorf("%w: content type %q", ErrUnsupportedType, clean)
	}
	ft, err := ParseFileType(util.FileExt(fileName))
	if err != nil {
		return "", fmt.Errorf("%w: file %q", ErrUnsupportedType, fileName)
	}
	return ft, nil
}
