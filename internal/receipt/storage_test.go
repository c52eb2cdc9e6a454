package receipt

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage Storage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewLocalStorage", func() {
		It("should create the base directory", func() {
			base := filepath.Join(tmpDir, "nested", "receipts")
			_, err := NewLocalStorage(base)
			Expect(err).NotTo(HaveOccurred())
			Expect(base).To(BeADirectory())
		})
	})

	Describe("Save", func() {
		var (
			filename  string
			data      []byte
			savedPath string
			err       error
		)

		BeforeEach(func() {
			filename = "9f86d081884c7d65.jpg"
			data = []byte("test file content")
		})

		JustBeforeEach(func() {
			savedPath, err = storage.Save(filename, data)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should shard by the first two characters", func() {
				Expect(savedPath).To(Equal(filepath.Join("9f", filename)))
			})

			It("should save the file to disk", func() {
				Expect(filepath.Join(tmpDir, "9f", filename)).To(BeAnExistingFile())
			})
		})

		When("the filename carries directories", func() {
			BeforeEach(func() {
				filename = "../../outside.jpg"
			})

			It("should keep the file inside the base", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(savedPath).To(Equal(filepath.Join("ou", "outside.jpg")))
			})
		})

		When("the filename is very short", func() {
			BeforeEach(func() {
				filename = "ab"
			})

			It("should not shard", func() {
				Expect(savedPath).To(Equal("ab"))
			})
		})
	})

	Describe("Get", func() {
		When("the file exists", func() {
			It("should return its contents", func() {
				path, err := storage.Save("abcdef.png", []byte("png bytes"))
				Expect(err).NotTo(HaveOccurred())

				data, err := storage.Get(path)
				Expect(err).NotTo(HaveOccurred())
				Expect(data).To(Equal([]byte("png bytes")))
			})
		})

		When("the file does not exist", func() {
			It("should return an error", func() {
				_, err := storage.Get(filepath.Join("zz", "zzz.png"))
				Expect(err).To(MatchError(ContainSubstring("reading file")))
			})
		})

		When("the path escapes the base", func() {
			It("should refuse it", func() {
				_, err := storage.Get("../secret")
				Expect(err).To(MatchError(ContainSubstring("invalid path")))
			})
		})
	})

	Describe("Delete", func() {
		When("the file exists", func() {
			It("should remove it", func() {
				path, err := storage.Save("abcdef.png", []byte("png bytes"))
				Expect(err).NotTo(HaveOccurred())

				Expect(storage.Delete(path)).To(Succeed())
				Expect(filepath.Join(tmpDir, path)).NotTo(BeAnExistingFile())
			})
		})

		When("the file does not exist", func() {
			It("should return an error", func() {
				Expect(storage.Delete("nothing.png")).To(MatchError(ContainSubstring("deleting file")))
			})
		})
	})
})
