package jobclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp"

	"avatarstudio/internal/project"
)

const maxAvatarBytes = 20 << 20

type imagePart struct {
	Filename    string
	ContentType string
	Data        []byte
}

// avatarImage resolves the binary reference image for a selection. Library
// avatars are downloaded and re-encoded as PNG; uploads are sent as-is.
func (c *Client) avatarImage(ctx context.Context, avatar project.AvatarSelection) (imagePart, error) {
	switch a := avatar.(type) {
	case project.LibraryAvatar:
		return c.fetchLibraryAvatar(ctx, a)
	case project.UploadAvatar:
		data, err := os.ReadFile(a.Path)
		if err != nil {
			return imagePart{}, fmt.Errorf("read avatar %s: %w", a.Path, err)
		}
		name := a.Filename
		if name == "" {
			name = filepath.Base(a.Path)
		}
		return imagePart{Filename: name, ContentType: http.DetectContentType(data), Data: data}, nil
	case nil:
		return imagePart{}, errors.New("no avatar selected")
	default:
		return imagePart{}, fmt.Errorf("unsupported avatar type %T", avatar)
	}
}

func (c *Client) fetchLibraryAvatar(ctx context.Context, a project.LibraryAvatar) (imagePart, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return imagePart{}, fmt.Errorf("library avatar %s: %w", a.ID, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return imagePart{}, fmt.Errorf("fetch library avatar %s: %w", a.ID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return imagePart{}, fmt.Errorf("fetch library avatar %s: http %d", a.ID, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxAvatarBytes+1))
	if err != nil {
		return imagePart{}, fmt.Errorf("read library avatar %s: %w", a.ID, err)
	}
	if len(raw) > maxAvatarBytes {
		return imagePart{}, fmt.Errorf("library avatar %s exceeds %d bytes", a.ID, maxAvatarBytes)
	}

	data, err := reencodePNG(raw)
	if err != nil {
		return imagePart{}, fmt.Errorf("library avatar %s: %w", a.ID, err)
	}
	name := strings.TrimSpace(a.ID)
	if name == "" {
		name = "avatar"
	}
	return imagePart{Filename: name + ".png", ContentType: "image/png", Data: data}, nil
}

func reencodePNG(raw []byte) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if format == "png" {
		return raw, nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
