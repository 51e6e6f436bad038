package loader_test

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jserv/subleq/loader"
)

var _ = Describe("Loader", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "subleq-loader-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	writeImage := func(contents string) string {
		path := filepath.Join(tempDir, "image.subleq")
		Expect(os.WriteFile(path, []byte(contents), 0o644)).To(Succeed())
		return path
	}

	Describe("Load", func() {
		Context("with a comma-separated image", func() {
			It("parses every literal in order", func() {
				path := writeImage("0, -1, 0, 0, 0, -1")
				words, err := loader.Load(path)
				Expect(err).NotTo(HaveOccurred())
				Expect(words).To(Equal([]uint16{0, 65535, 0, 0, 0, 0xFFFF}))
			})
		})

		Context("with a whitespace-separated image", func() {
			It("parses every literal in order", func() {
				path := writeImage("5 5 3\n-1 -1")
				words, err := loader.Load(path)
				Expect(err).NotTo(HaveOccurred())
				Expect(words).To(Equal([]uint16{5, 5, 3, 0xFFFF, 0xFFFF}))
			})
		})

		Context("with a mix of commas and whitespace", func() {
			It("treats either as a separator", func() {
				path := writeImage("1,2 3,\n4")
				words, err := loader.Load(path)
				Expect(err).NotTo(HaveOccurred())
				Expect(words).To(Equal([]uint16{1, 2, 3, 4}))
			})
		})

		Context("with an out-of-range literal", func() {
			It("returns an error", func() {
				path := writeImage("40000")
				_, err := loader.Load(path)
				Expect(err).To(HaveOccurred())
			})
		})

		Context("with a malformed literal", func() {
			It("returns an error", func() {
				path := writeImage("12a34")
				_, err := loader.Load(path)
				Expect(err).To(HaveOccurred())
			})
		})

		Context("when the file doesn't exist", func() {
			It("returns an error", func() {
				_, err := loader.Load(filepath.Join(tempDir, "missing.subleq"))
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Tokenize", func() {
		It("accepts a bare reader directly", func() {
			words, err := loader.Tokenize(strings.NewReader("1 2 3"))
			Expect(err).NotTo(HaveOccurred())
			Expect(words).To(Equal([]uint16{1, 2, 3}))
		})
	})
})
