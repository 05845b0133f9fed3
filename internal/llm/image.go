package llm

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// maxImageBytes bounds how much of an image file is sent to a provider.
const maxImageBytes = 20 << 20

// Image is an encoded image handed to a multimodal provider.
type Image struct {
	MediaType string
	Data      []byte
}

// LoadImage reads the image behind ref, which is a local path or a file:// URI.
func LoadImage(ref string) (Image, error) {
	path := strings.TrimSpace(ref)
	if path == "" {
		return Image{}, fmt.Errorf("empty image reference")
	}
	if strings.HasPrefix(path, "file://") {
		u, err := url.Parse(path)
		if err != nil {
			return Image{}, fmt.Errorf("invalid image reference %q: %w", ref, err)
		}
		path = u.Path
	}

	info, err := os.Stat(path)
	if err != nil {
		return Image{}, fmt.Errorf("failed to stat image: %w", err)
	}
	if info.Size() > maxImageBytes {
		return Image{}, fmt.Errorf("image %s is too large (%d bytes)", path, info.Size())
	}

	data, err := os.ReadFile(path) // #nosec G304 -- image paths come from the capture queue
	if err != nil {
		return Image{}, fmt.Errorf("failed to read image: %w", err)
	}

	mediaType := http.DetectContentType(data)
	if !strings.HasPrefix(mediaType, "image/") {
		return Image{}, fmt.Errorf("%s is not an image (%s)", path, mediaType)
	}

	return Image{MediaType: mediaType, Data: data}, nil
}
