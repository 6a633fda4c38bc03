package texture

import (
	"image"

	"golang.org/x/image/draw"
)

// GenerateMipmaps returns the full mip chain of img down to 1x1, starting with
// img itself. Each level halves the previous one with a bilinear filter.
func GenerateMipmaps(img *image.NRGBA) []*image.NRGBA {
	mipmaps := []*image.NRGBA{img}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	for width > 1 || height > 1 {
		width = max(width/2, 1)
		height = max(height/2, 1)

		src := mipmaps[len(mipmaps)-1]
		mip := image.NewNRGBA(image.Rect(0, 0, width, height))
		draw.BiLinear.Scale(mip, mip.Bounds(), src, src.Bounds(), draw.Src, nil)
		mipmaps = append(mipmaps, mip)
	}

	return mipmaps
}
