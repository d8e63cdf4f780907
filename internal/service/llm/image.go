package llm

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const defaultImageMIMEType = "image/png"

// Image holds raw generated image bytes
type Image struct {
	Data     []byte
	MIMEType string
}

// DataURI encodes the image as a self-contained data URI
func (i *Image) DataURI() string {
	mimeType := i.MIMEType
	if mimeType == "" {
		mimeType = defaultImageMIMEType
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(i.Data))
}

// ParseDataURI decodes a base64 data URI such as data:image/png;base64,iVBOR...
func ParseDataURI(uri string) (*Image, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, errors.New("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, errors.New("data URI has no payload")
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return nil, errors.New("data URI is not base64 encoded")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("error decoding data URI: %w", err)
	}
	if mimeType == "" {
		mimeType = defaultImageMIMEType
	}
	return &Image{Data: data, MIMEType: mimeType}, nil
}
