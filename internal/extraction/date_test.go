package extraction

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func linesOf(texts ...string) []Line {
	lines := make([]Line, len(texts))
	for i, t := range texts {
		lines[i] = Line{Text: t, CentroidY: float64(i * 20)}
	}
	return lines
}

var _ = Describe("LocateDate", func() {
	DescribeTable("date-shaped lines",
		func(text string) {
			date, ok := LocateDate(linesOf("FRESH MART", text, "BANANAS $1.77"))
			Expect(ok).To(BeTrue())
			Expect(date).To(Equal(text))
		},
		Entry("month first with slashes", "01/15/2024 10:32 AM"),
		Entry("day first with dashes", "15-01-24"),
		Entry("year first with dashes", "DATE 2024-01-15"),
		Entry("year first with slashes", "2024/1/5 14:02"),
		Entry("abbreviated month", "Jan 15, 2024"),
		Entry("full month name", "December 3 2023"),
		Entry("abbreviated month with period", "SEPT. 3 24"),
	)

	When("several lines carry dates", func() {
		It("should return the first one", func() {
			date, ok := LocateDate(linesOf("01/02/2024", "BANANAS $1.77", "03/04/2024"))
			Expect(ok).To(BeTrue())
			Expect(date).To(Equal("01/02/2024"))
		})
	})

	When("no line carries a date", func() {
		It("should report absence", func() {
			date, ok := LocateDate(linesOf("FRESH MART", "BANANAS $1.77", "TOTAL $1.77"))
			Expect(ok).To(BeFalse())
			Expect(date).To(BeEmpty())
		})
	})

	When("there are no lines", func() {
		It("should report absence", func() {
			_, ok := LocateDate(nil)
			Expect(ok).To(BeFalse())
		})
	})
})
