// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

package lookalike

import (
	"bytes"
	"context"
	"image"
	"image/png"

	"github.com/parkjiho/twinlook/internal/platform/apperr"
)

/*
FromCamera runs the pipeline on a live capture frame.

Description: The frame is cropped to a centered square and encoded as PNG
before entering the same upload path as a picked file, matching the webcam
capture flow of the original client.

Parameters:
  - ctx: context.Context
  - frame: The captured frame.

Returns:
  - *Result: Both match names, nil on any failure
  - err: Encoding or pipeline failures
*/
func (pipeline *Pipeline) FromCamera(ctx context.Context, frame image.Image) (*Result, error) {
	square := CropCenterSquare(frame)

	var buffer bytes.Buffer
	if err := png.Encode(&buffer, square); err != nil {
		return nil, apperr.Internal(err)
	}

	pipeline.preview("camera capture")

	return pipeline.run(ctx, "webcam.png", &buffer)
}

// CropCenterSquare returns the largest centered square region of img.
// A square input is returned unchanged.
func CropCenterSquare(img image.Image) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == height {
		return img
	}

	side := width
	if height < side {
		side = height
	}
	offsetX := bounds.Min.X + (width-side)/2
	offsetY := bounds.Min.Y + (height-side)/2
	crop := image.Rect(offsetX, offsetY, offsetX+side, offsetY+side)

	cropped := image.NewRGBA(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			cropped.Set(x, y, img.At(crop.Min.X+x, crop.Min.Y+y))
		}
	}
	return cropped
}
