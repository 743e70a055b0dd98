package bargain

import (
	"regexp"
	"strconv"
	"strings"
)

// priceRe matches the first run of 3-5 digits adjacent to a currency marker.
// The marker can lead (templated offers say "现在价格是¥5000") or trail
// ("我愿意出5000元"); the leading alternative keeps generated offers
// re-extractable.
var priceRe = regexp.MustCompile(`(?:￥|¥)\s*(\d{3,5})|(\d{3,5})\s*(元|块|￥|¥)`)

// agreementPhrases is the fixed acceptance vocabulary. 可以 and 好的 are common
// words and can match in non-affirming contexts; that imprecision is part of
// the contract and must not be tightened.
var agreementPhrases = []string{ //nolint:gochecknoglobals
	"同意",
	"成交",
	"好的",
	"没问题",
	"就这样",
	"可以",
	"好的成交",
	"deal",
}

// ExtractPrice returns the first monetary amount mentioned in the message.
// The first match wins; multiple amounts in one utterance are not
// disambiguated.
func ExtractPrice(message string) (int, bool) {
	match := priceRe.FindStringSubmatch(message)
	if match == nil {
		return 0, false
	}

	digits := match[1]
	if digits == "" {
		digits = match[2]
	}

	price, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}

	return price, true
}

// DetectAgreement reports whether the message signals acceptance of the
// current offer.
func DetectAgreement(message string) bool {
	lower := strings.ToLower(message)

	for _, phrase := range agreementPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}

	return false
}
