package occupancy

import (
	"image"
	"image/color"
	_ "image/jpeg" // register jpeg
	_ "image/png"  // register png
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "github.com/lmittmann/ppm" // register ppm
	"github.com/pkg/errors"
	"github.com/spakin/netpbm"
)

// DefaultThreshold is the gray level below which a map pixel is an obstacle.
const DefaultThreshold = 125

// FromImage builds a map from an image. Pixel (x, y) becomes cell (row y, col x) and is occupied
// when its gray level is below threshold. A threshold of zero uses DefaultThreshold.
func FromImage(img image.Image, resolution float64, origin *Origin, threshold uint8) (*Map, error) {
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	bounds := img.Bounds()
	rows, cols := bounds.Dy(), bounds.Dx()
	if rows <= 0 || cols <= 0 {
		return nil, errors.New("map image is empty")
	}
	occupied := make([]bool, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			gray := color.GrayModel.Convert(img.At(bounds.Min.X+c, bounds.Min.Y+r)).(color.Gray)
			occupied[r*cols+c] = gray.Y < threshold
		}
	}
	return New(rows, cols, occupied, resolution, origin)
}

// Load reads a map image from disk. Netpbm graymaps are decoded directly; every other format
// goes through the registered image decoders.
func Load(path string, resolution float64, origin *Origin, threshold uint8) (*Map, error) {
	img, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	m, err := FromImage(img, resolution, origin, threshold)
	if err != nil {
		return nil, errors.Wrapf(err, "building map from %q", path)
	}
	return m, nil
}

func decodeFile(path string) (image.Image, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pgm", ".pbm", ".pnm":
		f, err := os.Open(path) //nolint:gosec
		if err != nil {
			return nil, errors.Wrap(err, "opening map")
		}
		defer func() {
			_ = f.Close()
		}()
		img, err := netpbm.Decode(f, &netpbm.DecodeOptions{Target: netpbm.PGM, Exact: false, PBMMaxValue: 255})
		if err != nil {
			return nil, errors.Wrapf(err, "decoding netpbm map %q", path)
		}
		return img, nil
	default:
		img, err := imaging.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding map %q", path)
		}
		return img, nil
	}
}

// Save writes the map as an image, with the format picked from the file extension.
func (m *Map) Save(path string) error {
	return errors.Wrapf(imaging.Save(m.Image(), path), "saving map to %q", path)
}
