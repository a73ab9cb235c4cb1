package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsSensitiveData(t *testing.T) {
	f := NewPrivacyFilter()

	sensitive := []struct {
		name string
		text string
	}{
		{"visa 16 digits", "4111111111111111"},
		{"visa 13 digits", "4222222222222"},
		{"visa with spaces", "4111 1111 1111 1111"},
		{"visa with hyphens", "4111-1111-1111-1111"},
		{"mastercard 51 prefix", "5105105105105100"},
		{"mastercard 2-series", "2221000000000009"},
		{"amex 34 prefix", "340000000000009"},
		{"amex 37 prefix", "378282246310005"},
		{"discover 6011", "6011111111111117"},
		{"discover 65", "6511000000000000"},
		{"card embedded in text", "my card is 4111 1111 1111 1111, thanks"},
	}
	for _, tt := range sensitive {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, f.ContainsSensitiveData(tt.text))
		})
	}

	clean := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"prose", "meet me at four eleven"},
		{"phone number", "call 123-456-7890"},
		{"twelve digits visa prefix", "411111111111"},
		{"seventeen digits visa prefix", "41111111111111119"},
		{"sixteen digits unknown network", "1234567890123456"},
		{"digits inside longer run", "999941111111111111119999"},
		{"order number", "order #20240815123456 shipped"},
	}
	for _, tt := range clean {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, f.ContainsSensitiveData(tt.text))
		})
	}
}
