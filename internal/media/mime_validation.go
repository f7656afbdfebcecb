package media

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Kind names what an uploaded file will be attached to.
type Kind string

const (
	KindProductImage       Kind = "product_image"
	KindCustomRequestImage Kind = "custom_request_image"
	KindVideo              Kind = "video"
)

// sniffBytes matches the header size mimetype reads by default.
const sniffBytes = 3072

type mimeGroup string

const (
	mimeGroupImages mimeGroup = "images"
	mimeGroupVideos mimeGroup = "videos"
)

var mimeGroupTypes = map[mimeGroup][]string{
	mimeGroupImages: {"image/png", "image/jpeg", "image/webp", "image/gif"},
	mimeGroupVideos: {"video/mp4", "video/webm", "video/quicktime"},
}

var allowedMimeGroupsByKind = map[Kind][]mimeGroup{
	KindProductImage:       {mimeGroupImages},
	KindCustomRequestImage: {mimeGroupImages},
	KindVideo:              {mimeGroupVideos},
}

var mimeTypesByKind = buildMimeTypesByKind()

// IsValid reports whether the kind is known.
func (k Kind) IsValid() bool {
	_, ok := allowedMimeGroupsByKind[k]
	return ok
}

// Prefix is the object key folder used for the kind.
func (k Kind) Prefix() string {
	switch k {
	case KindProductImage:
		return "products"
	case KindCustomRequestImage:
		return "custom-requests"
	default:
		return "videos"
	}
}

func buildMimeTypesByKind() map[Kind][]string {
	result := make(map[Kind][]string, len(allowedMimeGroupsByKind))
	for kind, groups := range allowedMimeGroupsByKind {
		var list []string
		for _, group := range groups {
			list = append(list, mimeGroupTypes[group]...)
		}
		sort.Strings(list)
		result[kind] = list
	}
	return result
}

// Sniff detects the content type from the body's leading bytes and checks it
// against the kind's allow-list. The returned reader replays the sniffed
// header so callers can stream the whole body afterwards.
func Sniff(kind Kind, body io.Reader) (string, io.Reader, error) {
	if !kind.IsValid() {
		return "", nil, fmt.Errorf("unknown media kind %q", kind)
	}
	header := make([]byte, sniffBytes)
	n, err := io.ReadFull(body, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", nil, fmt.Errorf("read header: %w", err)
	}
	header = header[:n]
	if n == 0 {
		return "", nil, fmt.Errorf("file is empty")
	}

	detected := mimetype.Detect(header)
	contentType := strings.ToLower(strings.SplitN(detected.String(), ";", 2)[0])
	if !allowed(kind, contentType) {
		return "", nil, fmt.Errorf("%s is not an accepted %s type", contentType, kind)
	}
	return contentType, io.MultiReader(bytes.NewReader(header), body), nil
}

// Extension returns the canonical file extension for a sniffed content type.
func Extension(contentType string) string {
	if m := mimetype.Lookup(contentType); m != nil {
		return m.Extension()
	}
	return ""
}

func allowed(kind Kind, contentType string) bool {
	for _, candidate := range mimeTypesByKind[kind] {
		if candidate == contentType {
			return true
		}
	}
	return false
}
