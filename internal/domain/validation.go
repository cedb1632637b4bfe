package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var loginRe = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,64}$`)

func ValidLogin(s string) bool {
	return loginRe.MatchString(s)
}

func ValidPassword(s string) bool {
	return len(s) >= 8
}

// FolderName — папка как значение предметной области, а не произвольный срез
// имени блоба. Конвенция "префикс имени блоба" остаётся на границе со storage.
type FolderName string

// NewFolderName валидирует имя: непустое, без разделителей пути и '..'.
func NewFolderName(s string) (FolderName, error) {
	if s == "" {
		return "", fmt.Errorf("folder name is empty: %w", ErrBadParams)
	}
	if strings.ContainsAny(s, `/\`) || strings.Contains(s, "..") {
		return "", fmt.Errorf("folder name %q contains path separators: %w", s, ErrBadParams)
	}
	return FolderName(s), nil
}

func (f FolderName) String() string { return string(f) }

// BlobName — имя файла внутри папки, те же ограничения.
func ValidBlobName(s string) bool {
	if s == "" {
		return false
	}
	return !strings.ContainsAny(s, `/\`) && !strings.Contains(s, "..")
}
