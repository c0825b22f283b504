package recolor

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/kovidgoyal/recolor/types"
	"github.com/rwcarlsen/goexif/exif"
	exif_tiff "github.com/rwcarlsen/goexif/tiff"
)

var _ = fmt.Println

// Metadata describes a decoded image file.
type Metadata struct {
	Format      types.Format
	PixelWidth  uint32
	PixelHeight uint32
	HasFrames   bool
	NumFrames   int
	exifData    []byte
	exif        *exif.Exif
	exifErr     error
	mutex       sync.Mutex
}

// Exif returns the parsed EXIF data of the image, parsing it on first use.
//
// If no EXIF data was found, nil is returned without an error.
func (md *Metadata) Exif() (*exif.Exif, error) {
	md.mutex.Lock()
	defer md.mutex.Unlock()

	if md.exifErr != nil {
		return nil, md.exifErr
	}
	if md.exif != nil {
		return md.exif, nil
	}
	if len(md.exifData) == 0 {
		return nil, nil
	}
	md.exif, md.exifErr = exif.Decode(bytes.NewReader(md.exifData))
	return md.exif, md.exifErr
}

// SetExifData sets the bytes EXIF data is parsed from, either a complete JPEG
// or TIFF file or a bare TIFF structure.
func (md *Metadata) SetExifData(data []byte) {
	md.mutex.Lock()
	defer md.mutex.Unlock()
	md.exifData = data
	md.exifErr = nil
	md.exif = nil
}

// Orientation returns the EXIF orientation flag, orientationUnspecified when
// absent or unparseable.
func (md *Metadata) Orientation() orientation {
	e, err := md.Exif()
	if err != nil || e == nil {
		return orientationUnspecified
	}
	orient, err := e.Get(exif.Orientation)
	if err == nil && orient != nil && orient.Format() == exif_tiff.IntVal {
		if x, err := orient.Int(0); err == nil && x > 0 && x < 9 {
			return orientation(x)
		}
	}
	return orientationUnspecified
}
