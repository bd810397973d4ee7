package dataset

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Decoder flattens a dataset file into a Frame.
type Decoder interface {
	Decode(r io.Reader) (*Frame, error)
}

// ForFormat returns the decoder for a DATASET_FORMAT value.
func ForFormat(format string) (Decoder, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "csv":
		return CSVDecoder{}, nil
	case "csv.gz":
		return GzipDecoder{Inner: CSVDecoder{}}, nil
	default:
		return nil, fmt.Errorf("unsupported dataset format %q", format)
	}
}

// DecodeFile opens path and decodes it.
func DecodeFile(dec Decoder, path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	frame, err := dec.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return frame, nil
}

// GzipDecoder decompresses its input before handing it to Inner.
type GzipDecoder struct {
	Inner Decoder
}

func (d GzipDecoder) Decode(r io.Reader) (*Frame, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	defer zr.Close()
	return d.Inner.Decode(zr)
}
