package scanning

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, 4, color.Black)
	}
	return img
}

func encodePNG() []byte {
	var buf bytes.Buffer
	Expect(png.Encode(&buf, testImage())).To(Succeed())
	return buf.Bytes()
}

func encodeJPEG() []byte {
	var buf bytes.Buffer
	Expect(jpeg.Encode(&buf, testImage(), nil)).To(Succeed())
	return buf.Bytes()
}

var _ = Describe("prepareImageData", func() {
	When("the image is already PNG", func() {
		It("should pass it through untouched", func() {
			data := encodePNG()
			out, mimeType, converted, err := prepareImageData(data, "image/png")
			Expect(err).NotTo(HaveOccurred())
			Expect(converted).To(BeFalse())
			Expect(mimeType).To(Equal("image/png"))
			Expect(out).To(Equal(data))
		})
	})

	When("the image is JPEG", func() {
		It("should convert it to PNG", func() {
			out, mimeType, converted, err := prepareImageData(encodeJPEG(), " IMAGE/JPEG ")
			Expect(err).NotTo(HaveOccurred())
			Expect(converted).To(BeTrue())
			Expect(mimeType).To(Equal("image/png"))

			_, format, err := image.Decode(bytes.NewReader(out))
			Expect(err).NotTo(HaveOccurred())
			Expect(format).To(Equal("png"))
		})
	})

	When("the content type has parameters", func() {
		It("should ignore them", func() {
			_, _, converted, err := prepareImageData(encodePNG(), "image/png; charset=binary")
			Expect(err).NotTo(HaveOccurred())
			Expect(converted).To(BeFalse())
		})
	})

	When("the content type is missing", func() {
		It("should sniff the image format", func() {
			_, mimeType, _, err := prepareImageData(encodeJPEG(), "")
			Expect(err).NotTo(HaveOccurred())
			Expect(mimeType).To(Equal("image/png"))
		})
	})

	When("the data is empty", func() {
		It("should return an error", func() {
			_, _, _, err := prepareImageData(nil, "image/png")
			Expect(err).To(MatchError(ContainSubstring("empty")))
		})
	})

	When("the data is not an image", func() {
		It("should return an unsupported format error", func() {
			_, _, _, err := prepareImageData([]byte("definitely not an image"), "image/jpeg")
			Expect(err).To(MatchError(ContainSubstring("unsupported image format")))
		})
	})
})

var _ = Describe("HEIC detection", func() {
	DescribeTable("isHEICFormat",
		func(data []byte, want bool) {
			Expect(isHEICFormat(data)).To(Equal(want))
		},
		Entry("heic brand", []byte("\x00\x00\x00\x18ftypheic"), true),
		Entry("mif1 brand", []byte("\x00\x00\x00\x18ftypmif1"), true),
		Entry("mp4 brand", []byte("\x00\x00\x00\x18ftypisom"), false),
		Entry("too short", []byte("ftyp"), false),
	)

	DescribeTable("isHEICMimeType",
		func(mimeType string, want bool) {
			Expect(isHEICMimeType(mimeType)).To(Equal(want))
		},
		Entry("heic", "image/heic", true),
		Entry("heif upper-case", "IMAGE/HEIF", true),
		Entry("jpeg", "image/jpeg", false),
	)
})
