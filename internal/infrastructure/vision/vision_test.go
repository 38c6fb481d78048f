package vision

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"resello/internal/domain/entity"
	"resello/internal/domain/validation"
)

func flat(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func checkerboard(w, h int, a, b uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: a})
			} else {
				img.SetGray(x, y, color.Gray{Y: b})
			}
		}
	}
	return img
}

// dots фон 100 и одиночные точки 113 с шагом 10: дисперсия лапласиана ровно 33.8.
func dots(w, h int) *image.Gray {
	img := flat(w, h, 100)
	for y := 5; y < h; y += 10 {
		for x := 5; x < w; x += 10 {
			img.SetGray(x, y, color.Gray{Y: 113})
		}
	}
	return img
}

func pattern(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x*x + 3*y*y + 5*x*y) / 37 % 256)
			img.Set(x, y, color.RGBA{R: v, G: v / 2, B: 255 - v, A: 255})
		}
	}
	return img
}

func inverted(src *image.RGBA) *image.RGBA {
	out := image.NewRGBA(src.Bounds())
	for i := 0; i < len(src.Pix); i += 4 {
		out.Pix[i] = 255 - src.Pix[i]
		out.Pix[i+1] = 255 - src.Pix[i+1]
		out.Pix[i+2] = 255 - src.Pix[i+2]
		out.Pix[i+3] = 255
	}
	return out
}

func TestQualityGate_ResolutionTooLow(t *testing.T) {
	r := NewQualityGate().Check(checkerboard(300, 200, 60, 200), entity.CategoryLaptop)
	require.False(t, r.OK())
	require.Equal(t, []string{"resolution too low: 300x200"}, r.Reasons)
	require.Empty(t, r.Level)

	// для телефона минимум 400x300
	r = NewQualityGate().Check(checkerboard(400, 300, 60, 200), entity.CategoryMobile)
	require.True(t, r.OK())
}

func TestQualityGate_FlatImageIsSevere(t *testing.T) {
	r := NewQualityGate().Check(flat(1000, 800, 128), entity.CategoryLaptop)
	require.False(t, r.OK())
	require.Equal(t, entity.SharpnessSevere, r.Level)
	require.Equal(t, []string{"image too blurry (severe)"}, r.Reasons)
	require.InDelta(t, 0, r.Sharpness, 1e-9)
}

func TestQualityGate_BorderlineDependsOnCategory(t *testing.T) {
	img := dots(1000, 800)

	r := NewQualityGate().Check(img, entity.CategoryLaptop)
	require.True(t, r.OK())
	require.InDelta(t, 33.8, r.Sharpness, 1e-6)
	require.Equal(t, entity.SharpnessBorderline, r.Level)
	require.Equal(t, []string{"borderline sharpness, accepted"}, r.Warnings)

	r = NewQualityGate().Check(img, entity.CategoryMobile)
	require.True(t, r.OK())
	require.Equal(t, entity.SharpnessSharp, r.Level)
	require.Empty(t, r.Warnings)
}

func TestQualityGate_SharpAndExposure(t *testing.T) {
	r := NewQualityGate().Check(checkerboard(1000, 800, 60, 200), entity.CategoryLaptop)
	require.True(t, r.OK())
	require.Equal(t, entity.SharpnessSharp, r.Level)
	require.InDelta(t, 313600, r.Sharpness, 1e-6)
	require.Empty(t, r.Warnings)

	r = NewQualityGate().Check(checkerboard(1000, 800, 0, 30), entity.CategoryLaptop)
	require.True(t, r.OK())
	require.Equal(t, []string{"underexposed image (ratio=0.50)"}, r.Warnings)
}

func TestToGray_MatchesGrayInput(t *testing.T) {
	src := checkerboard(20, 20, 13, 240)
	rgba := image.NewRGBA(src.Bounds())
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			v := src.GrayAt(x, y).Y
			rgba.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	require.Equal(t, src.Pix, toGray(rgba).Pix)
}

func TestPerceptualHasher_IdenticalAndDifferent(t *testing.T) {
	h := NewPerceptualHasher()
	img := pattern(256, 192)

	a, err := h.Fingerprint(img)
	require.NoError(t, err)
	b, err := h.Fingerprint(pattern(256, 192))
	require.NoError(t, err)
	require.Equal(t, a, b)

	c, err := h.Fingerprint(inverted(img))
	require.NoError(t, err)
	require.Greater(t, validation.Distance(a, c), validation.DefaultDuplicateThreshold)

	_, err = h.Fingerprint(nil)
	require.Error(t, err)
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFindDuplicates_IdenticalUploadsReportedOnce(t *testing.T) {
	data := encodePNG(t, pattern(128, 128))
	other := encodePNG(t, inverted(pattern(128, 128)))

	uploads := []entity.UploadedView{
		{Name: "Front screen", Data: data},
		{Name: "Back panel", Data: data},
		{Name: "Camera close-up", Data: other},
	}
	views := make([]validation.NamedImage, 0, len(uploads))
	for _, u := range uploads {
		img, err := u.Decode()
		require.NoError(t, err)
		views = append(views, validation.NamedImage{Name: u.Name, Image: img})
	}

	pairs, err := validation.NewDuplicateDetector(NewPerceptualHasher(), validation.DefaultDuplicateThreshold).FindDuplicates(views)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	require.Equal(t, "Back panel", pairs[0].New)
	require.Equal(t, "Front screen", pairs[0].Previous)
	require.Zero(t, pairs[0].Distance)
}
