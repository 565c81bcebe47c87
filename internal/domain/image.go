package domain

// EncodedImage is a normalized, size-bounded encoded image as produced by the
// image codec. A nil or empty value means the image is absent.
type EncodedImage []byte

// Present reports whether the image holds a payload.
func (img EncodedImage) Present() bool {
	return len(img) > 0
}
