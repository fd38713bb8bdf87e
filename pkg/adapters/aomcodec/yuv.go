package aomcodec

// yuv420ToRGB converts planar 4:2:0 samples to packed RGB24.
func yuv420ToRGB(yPlane, uPlane, vPlane []byte, yStride, uStride, vStride, width, height int) []byte {
	rgb := make([]byte, width*height*3)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := int(yPlane[y*yStride+x]) - 16
			d := int(uPlane[(y/2)*uStride+x/2]) - 128
			e := int(vPlane[(y/2)*vStride+x/2]) - 128

			idx := (y*width + x) * 3
			rgb[idx] = uint8(clamp((298*c + 409*e + 128) >> 8))
			rgb[idx+1] = uint8(clamp((298*c - 100*d - 208*e + 128) >> 8))
			rgb[idx+2] = uint8(clamp((298*c + 516*d + 128) >> 8))
		}
	}
	return rgb
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}
