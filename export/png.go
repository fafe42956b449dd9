package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	pngWidth   = 480
	pngMargin  = 16
	lineHeight = 18
)

// PNG rasterizes v at 1x and upscales it by opts' scale, like a capture at
// device pixel ratio 2.
func PNG(v View, opts Options) ([]byte, error) {
	lines := textLines(v)
	height := 2*pngMargin + lineHeight*len(lines)

	img := image.NewRGBA(image.Rect(0, 0, pngWidth, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
	}
	for i, text := range lines {
		d.Dot = fixed.P(pngMargin, pngMargin+lineHeight*(i+1)-4)
		d.DrawString(text)
	}

	scale := opts.scale()
	scaled := imaging.Resize(img, pngWidth*scale, height*scale, imaging.NearestNeighbor)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, scaled, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func textLines(v View) []string {
	out := []string{
		v.ShopName,
		fmt.Sprintf("Invoice %s    %s", v.InvoiceID, v.Date),
		"",
		"Bill To: " + v.CustomerName,
		v.CustomerPhone,
		"",
	}
	for _, line := range v.Lines {
		out = append(out, fmt.Sprintf("%-30.30s x%-3d %s", line.Description, line.Quantity, line.Net))
	}
	out = append(out,
		"",
		row("Subtotal", v.Subtotal),
		row("Discount", v.Discount),
		row("Total", v.Total),
		row("Paid ("+v.PaymentMode+")", v.AmountPaid),
		row(v.BalanceLabel, v.BalanceValue),
	)
	return out
}

func row(label, value string) string {
	return fmt.Sprintf("%-30s %34s", label, value)
}
