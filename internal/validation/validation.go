// Package validation checks user-supplied song fields, file paths and import files before
// they reach the song store.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	songerrors "github.com/FocuswithJustin/JuniperSongs/core/errors"
)

// Limits on user-supplied input (CWE-400).
const (
	// MaxLyricsSize is the maximum size of a song's lyrics (256 KiB).
	MaxLyricsSize = 256 << 10
	// MaxTitleLength is the maximum length of a title in characters.
	MaxTitleLength = 200
	// MaxFieldLength is the maximum length of author and copyright lines in characters.
	MaxFieldLength = 500
	// MaxCCLILength is the maximum number of digits in a CCLI song number.
	MaxCCLILength = 10
	// MaxImportSize is the maximum size of an imported file (64 MiB).
	MaxImportSize = 64 << 20
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrPathTooLong      = errors.New("path too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
)

// ValidatePath checks a file path for length limits and invalid characters.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}

// ValidateTitle checks that a title is present, single-line and within MaxTitleLength.
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return songerrors.NewValidation("title", "must not be empty")
	}
	if strings.ContainsAny(title, "\r\n") {
		return songerrors.NewValidation("title", "must be a single line")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return songerrors.NewValidation("title", fmt.Sprintf("must be at most %d characters", MaxTitleLength))
	}
	return nil
}

// ValidateLyricsSize checks that lyrics fit within MaxLyricsSize and are valid UTF-8.
func ValidateLyricsSize(lyrics string) error {
	if len(lyrics) > MaxLyricsSize {
		return songerrors.NewValidation("lyrics", fmt.Sprintf("must be at most %d bytes", MaxLyricsSize))
	}
	if !utf8.ValidString(lyrics) {
		return songerrors.NewValidation("lyrics", "must be valid UTF-8")
	}
	return nil
}

// ValidateCCLI checks an optional CCLI song number.
func ValidateCCLI(ccli string) error {
	if ccli == "" {
		return nil
	}
	if len(ccli) > MaxCCLILength {
		return songerrors.NewValidation("ccli", fmt.Sprintf("must be at most %d digits", MaxCCLILength))
	}
	for _, r := range ccli {
		if r < '0' || r > '9' {
			return songerrors.NewValidation("ccli", "must contain only digits")
		}
	}
	return nil
}

// ValidateSong checks the user-editable fields of a song.
func ValidateSong(title, author, copyright, ccli, lyrics string) error {
	if err := ValidateTitle(title); err != nil {
		return err
	}
	for field, value := range map[string]string{"author": author, "copyright": copyright} {
		if utf8.RuneCountInString(value) > MaxFieldLength {
			return songerrors.NewValidation(field, fmt.Sprintf("must be at most %d characters", MaxFieldLength))
		}
	}
	if err := ValidateCCLI(ccli); err != nil {
		return err
	}
	return ValidateLyricsSize(lyrics)
}

// FileType is the kind of file offered for import.
type FileType string

const (
	FileTypeTarXZ   FileType = "tar.xz"
	FileTypeTarGZ   FileType = "tar.gz"
	FileTypeXML     FileType = "xml"
	FileTypeJSON    FileType = "json"
	FileTypeText    FileType = "text"
	FileTypeUnknown FileType = "unknown"
)

var (
	xzMagic   = []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}
	gzipMagic = []byte{0x1f, 0x8b}
)

// DetectImportType identifies an import file from its extension and first bytes. A bundle
// extension must be backed by the matching compression header; text formats must not
// contain binary data.
func DetectImportType(reader io.Reader, filename string) (FileType, error) {
	buf := make([]byte, 512)
	n, err := io.ReadFull(reader, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FileTypeUnknown, fmt.Errorf("failed to read file header: %w", err)
	}
	buf = buf[:n]

	expected := typeFromExtension(filename)
	switch expected {
	case FileTypeTarXZ:
		if !bytes.HasPrefix(buf, xzMagic) {
			return FileTypeUnknown, fmt.Errorf("file type mismatch: %s is not xz compressed", filename)
		}
	case FileTypeTarGZ:
		if !bytes.HasPrefix(buf, gzipMagic) {
			return FileTypeUnknown, fmt.Errorf("file type mismatch: %s is not gzip compressed", filename)
		}
	case FileTypeXML, FileTypeJSON, FileTypeText:
		if !isLikelyText(buf) {
			return FileTypeUnknown, fmt.Errorf("file type mismatch: %s does not contain text", filename)
		}
	default:
		return FileTypeUnknown, fmt.Errorf("unsupported import file: %s", filename)
	}
	return expected, nil
}

func typeFromExtension(filename string) FileType {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".tar.xz"):
		return FileTypeTarXZ
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return FileTypeTarGZ
	case strings.HasSuffix(lower, ".xml"):
		return FileTypeXML
	case strings.HasSuffix(lower, ".json"):
		return FileTypeJSON
	case strings.HasSuffix(lower, ".txt"):
		return FileTypeText
	}
	return FileTypeUnknown
}

// isLikelyText reports whether buf looks like UTF-8 text. An empty buffer counts as text.
func isLikelyText(buf []byte) bool {
	if bytes.IndexByte(buf, 0) != -1 {
		return false
	}
	control := 0
	for _, r := range string(buf) {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			control++
		}
	}
	return control*10 <= len(buf)
}
