package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"runtime"

	"screen-vision/src/annotate"
)

const iconSize = 32

// Icon returns the tray icon: a green capture frame with a dark lens dot.
// Windows gets it wrapped in an ICO container, other platforms get PNG.
func Icon() []byte {
	data := iconPNG()
	if runtime.GOOS == "windows" {
		return wrapICO(data, iconSize)
	}
	return data
}

func iconPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	framed := annotate.Frame(img, image.Rect(2, 2, iconSize-2, iconSize-2), annotate.FrameColor, 3)
	dot := color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff}
	c := iconSize / 2
	for y := c - 4; y <= c+4; y++ {
		for x := c - 4; x <= c+4; x++ {
			if (x-c)*(x-c)+(y-c)*(y-c) <= 16 {
				framed.SetRGBA(x, y, dot)
			}
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, framed)
	return buf.Bytes()
}

// wrapICO embeds a PNG image as the single entry of an ICO file.
func wrapICO(pngData []byte, size int) []byte {
	var buf bytes.Buffer
	header := struct {
		Reserved, Type, Count uint16
	}{0, 1, 1}
	entry := struct {
		Width, Height, Colors, Reserved uint8
		Planes, BitCount                uint16
		Size, Offset                    uint32
	}{uint8(size), uint8(size), 0, 0, 1, 32, uint32(len(pngData)), 6 + 16}
	_ = binary.Write(&buf, binary.LittleEndian, header)
	_ = binary.Write(&buf, binary.LittleEndian, entry)
	buf.Write(pngData)
	return buf.Bytes()
}
