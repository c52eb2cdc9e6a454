package scanning

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Ollama", func() {
	var (
		server  *ghttp.Server
		scanner *Ollama
		result  *OCRResult
		err     error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		scanner, err = NewOllama(server.URL()+"/", "test-model")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		result, err = scanner.ScanWords(context.Background(), encodePNG(), "image/png")
	})

	When("the model returns a word list", func() {
		var received ollamaChatRequest

		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/api/chat"),
				ghttp.VerifyContentType("application/json"),
				func(w http.ResponseWriter, r *http.Request) {
					body, readErr := io.ReadAll(r.Body)
					Expect(readErr).NotTo(HaveOccurred())
					Expect(json.Unmarshal(body, &received)).To(Succeed())
				},
				ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{
					Done: true,
					Message: ollamaMessage{
						Role:    "assistant",
						Content: `{"full_text": "MILK 3.98", "words": [{"text": "MILK", "box": [0,0,40,0,40,10,0,10]}, {"text": "3.98", "box": [100,0,140,0,140,10,100,10]}]}`,
					},
				}),
			))
		})

		It("should return the words", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.FullText).To(Equal("MILK 3.98"))
			Expect(result.Words).To(HaveLen(2))
			Expect(result.Words[1].CentroidX).To(Equal(120.0))
		})

		It("should send the model, JSON format and the image on the user message", func() {
			Expect(received.Model).To(Equal("test-model"))
			Expect(received.Format).To(Equal("json"))
			Expect(received.Stream).To(BeFalse())
			Expect(received.Messages).To(HaveLen(2))
			Expect(received.Messages[1].Role).To(Equal("user"))
			Expect(received.Messages[1].Images).To(HaveLen(1))
		})
	})

	When("the API returns an error status", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "model not loaded"))
		})

		It("should return the status and body", func() {
			Expect(err).To(MatchError(ContainSubstring("status 500")))
			Expect(err).To(MatchError(ContainSubstring("model not loaded")))
		})
	})

	When("the model returns something other than a word list", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{
				Done:    true,
				Message: ollamaMessage{Role: "assistant", Content: `{"title": "Fresh Mart"}`},
			}))
		})

		It("should return a parse error", func() {
			Expect(err).To(MatchError(ContainSubstring("parsing word data")))
			Expect(result).To(BeNil())
		})
	})
})
