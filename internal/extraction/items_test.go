package extraction

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseLine", func() {
	var cfg Config

	BeforeEach(func() {
		cfg = DefaultConfig()
	})

	DescribeTable("item lines",
		func(text, name string, price float64, qty *float64) {
			item, rejection := ParseLine(text, cfg)
			Expect(rejection).To(Equal(Accepted))
			Expect(item.Name).To(Equal(name))
			Expect(item.Price).To(Equal(price))
			if qty == nil {
				Expect(item.Quantity).To(BeNil())
			} else {
				Expect(item.Quantity).NotTo(BeNil())
				Expect(*item.Quantity).To(Equal(*qty))
			}
			Expect(item.UnitPrice).To(BeNil())
		},
		Entry("clean item", "BANANAS $1.77", "BANANAS", 1.77, nil),
		Entry("times quantity", "2x MILK $3.98", "MILK", 3.98, ptr(2)),
		Entry("spaced upper-case times quantity", "2 X ORANGE JUICE 5.98", "ORANGE JUICE", 5.98, ptr(2)),
		Entry("multiplication sign quantity", "2 × BAGELS 3.00", "BAGELS", 3.00, ptr(2)),
		Entry("at quantity", "3 @ LIMES 1.50", "LIMES", 1.50, ptr(3)),
		Entry("fractional at quantity", "1.5 @ GROUND BEEF 7.49", "GROUND BEEF", 7.49, ptr(1.5)),
		Entry("colon before price", "EGGS: $4.29", "EGGS", 4.29, nil),
		Entry("trailing whitespace", "  BREAD   2.49   ", "BREAD", 2.49, nil),
		Entry("hash in code", "#4011 BANANAS 1.77", "4011 BANANAS", 1.77, nil),
		Entry("second price left in name", "CHEESE 4.99 5.99", "CHEESE", 5.99, nil),
		Entry("euro symbol", "CROISSANT €2.20", "CROISSANT", 2.20, nil),
		Entry("price at the bound", "TELEVISION 1000.00", "TELEVISION", 1000.00, nil),
		Entry("word starting with a keyword", "CARDAMOM 3.99", "CARDAMOM", 3.99, nil),
		Entry("times without a following space", "2xMILK 3.98", "2xMILK", 3.98, nil),
	)

	DescribeTable("rejected lines",
		func(text string, want Rejection) {
			item, rejection := ParseLine(text, cfg)
			Expect(rejection).To(Equal(want))
			Expect(item).To(Equal(ParsedItem{}))
		},
		Entry("total", "TOTAL $45.67", RejectNoise),
		Entry("subtotal", "SUBTOTAL 40.00", RejectNoise),
		Entry("hyphenated subtotal", "Sub-Total 40.00", RejectNoise),
		Entry("tax", "HST TAX 5.20", RejectNoise),
		Entry("card brand", "VISA 45.67", RejectNoise),
		Entry("change due", "CHANGE 4.33", RejectNoise),
		Entry("thank you", "THANK YOU FOR SHOPPING", RejectNoise),
		Entry("quantity code row", "12 3 4.99", RejectNoise),
		Entry("bare amount", "$12.99", RejectNoise),
		Entry("location label", "ST# 1234 MAIN", RejectNoise),
		Entry("phone number", "(555) 123-4567", RejectNoise),
		Entry("url", "www.freshmart.com", RejectNoise),
		Entry("email", "help@freshmart.com", RejectNoise),
		Entry("terminal type label", "TYPE: PURCHASE", RejectNoise),
		Entry("merchant id", "MERCHANT ID: 000123 4.00", RejectNoise),
		Entry("auth code", "AUTH CODE 123456", RejectNoise),
		Entry("numeric name", "12345 $6.00", RejectInvalidName),
		Entry("short name", "2x AB 3.00", RejectInvalidName),
		Entry("price without cents", "OK $1", RejectNoPrice),
		Entry("no price", "DELI MEAT", RejectNoPrice),
		Entry("one decimal", "BREAD 2.5", RejectNoPrice),
		Entry("thousands separator", "TV 1,299.99", RejectNoPrice),
		Entry("amount run into a number", "ITEM 12.345.67", RejectNoPrice),
		Entry("too short", "ABC", RejectTooShort),
		Entry("four characters in more bytes", "CAFÉ", RejectTooShort),
		Entry("blank", "     ", RejectTooShort),
		Entry("over the bound", "LOBSTER 1500.00", RejectPriceOutOfRange),
		Entry("zero price", "FREEBIE 0.00", RejectPriceOutOfRange),
	)

	When("the price bound is lowered", func() {
		BeforeEach(func() {
			cfg.MaxPrice = 50
		})

		It("should reject prices above it", func() {
			_, rejection := ParseLine("ROAST 60.00", cfg)
			Expect(rejection).To(Equal(RejectPriceOutOfRange))
		})
	})

	When("the config is zero-valued", func() {
		It("should fall back to the default bound", func() {
			_, rejection := ParseLine("TELEVISION 999.99", Config{})
			Expect(rejection).To(Equal(Accepted))
		})
	})

	Describe("unit price after an at quantity", func() {
		const text = "2 @ 1.99 APPLES 3.98"

		When("unit price stripping is off", func() {
			It("should leave the unit price in the name", func() {
				item, rejection := ParseLine(text, cfg)
				Expect(rejection).To(Equal(Accepted))
				Expect(item.Name).To(Equal("1.99 APPLES"))
				Expect(*item.Quantity).To(Equal(2.0))
				Expect(item.Price).To(Equal(3.98))
				Expect(item.UnitPrice).To(BeNil())
			})
		})

		When("unit price stripping is on", func() {
			BeforeEach(func() {
				cfg.StripUnitPrice = true
			})

			It("should move the unit price out of the name", func() {
				item, rejection := ParseLine(text, cfg)
				Expect(rejection).To(Equal(Accepted))
				Expect(item.Name).To(Equal("APPLES"))
				Expect(*item.UnitPrice).To(Equal(1.99))
				Expect(*item.Quantity).To(Equal(2.0))
			})

			It("should not touch times quantities", func() {
				item, rejection := ParseLine("2x 1.99 APPLES 3.98", cfg)
				Expect(rejection).To(Equal(Accepted))
				Expect(item.Name).To(Equal("1.99 APPLES"))
				Expect(item.UnitPrice).To(BeNil())
			})
		})
	})

	When("the quantity is zero", func() {
		It("should not treat the prefix as a quantity", func() {
			item, rejection := ParseLine("0x WATER 1.00", cfg)
			Expect(rejection).To(Equal(Accepted))
			Expect(item.Quantity).To(BeNil())
			Expect(item.Name).To(Equal("0x WATER"))
		})
	})
})

func ptr(f float64) *float64 {
	return &f
}
