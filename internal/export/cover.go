package export

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	coverWidth  = 1200
	coverHeight = 1600
)

var (
	coverBackground = color.RGBA{R: 0x2b, G: 0x4c, B: 0x8c, A: 0xff}
	coverBand       = color.RGBA{R: 0xf6, G: 0xc9, B: 0x4a, A: 0xff}
)

type coverFonts struct {
	title    font.Face
	subtitle font.Face
}

func loadCoverFonts() (coverFonts, error) {
	title, err := faceFromTTF(gobold.TTF, 96)
	if err != nil {
		return coverFonts{}, err
	}
	subtitle, err := faceFromTTF(goregular.TTF, 48)
	if err != nil {
		return coverFonts{}, err
	}
	return coverFonts{title: title, subtitle: subtitle}, nil
}

func faceFromTTF(ttf []byte, size float64) (font.Face, error) {
	parsed, err := truetype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return truetype.NewFace(parsed, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}

// renderCover draws the title (and the child's name, if any) on a plain
// cover and returns it as PNG.
func renderCover(fonts coverFonts, title, childName string) ([]byte, error) {
	dc := gg.NewContext(coverWidth, coverHeight)

	dc.SetColor(coverBackground)
	dc.DrawRectangle(0, 0, coverWidth, coverHeight)
	dc.Fill()

	dc.SetColor(coverBand)
	dc.DrawRectangle(0, coverHeight*0.62, coverWidth, 18)
	dc.Fill()

	dc.SetColor(color.White)
	dc.SetFontFace(fonts.title)
	dc.DrawStringWrapped(title, coverWidth/2, coverHeight*0.35, 0.5, 0.5, coverWidth*0.8, 1.4, gg.AlignCenter)

	if childName != "" {
		dc.SetFontFace(fonts.subtitle)
		dc.DrawStringAnchored("A story for "+childName, coverWidth/2, coverHeight*0.72, 0.5, 0.5)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
