package services

import (
	"fmt"

	"github.com/srgjo27/snapbook/internal/core/domain"
)

const DefaultPlatformFeePercent int64 = 10

type FeeBreakdown struct {
	Total       int64 `json:"total"`
	PlatformFee int64 `json:"platform_fee"`
	// LocationFee is the venue price before the platform takes its cut of it.
	LocationFee          int64  `json:"location_fee"`
	EffectiveLocationFee int64  `json:"effective_location_fee"`
	PayeePayout          int64  `json:"payee_payout"`
	Note                 string `json:"note"`
}

type PaymentCalculator struct {
	platformFeePercent int64
}

func NewPaymentCalculator(platformFeePercent int64) *PaymentCalculator {
	if platformFeePercent < 0 || platformFeePercent > 100 {
		platformFeePercent = DefaultPlatformFeePercent
	}
	return &PaymentCalculator{platformFeePercent: platformFeePercent}
}

func (c *PaymentCalculator) PlatformFeePercent() int64 {
	return c.platformFeePercent
}

// Calculate splits total between platform, venue and photographer. The
// payout is the remainder, so PlatformFee+EffectiveLocationFee+PayeePayout
// always equals total. A negative payout means the prices were set up wrong
// upstream; it is returned as is.
func (c *PaymentCalculator) Calculate(total int64, loc *domain.Location, override *int64) FeeBreakdown {
	platformFee := c.percentOf(total)

	var locationFee int64
	switch {
	case override != nil:
		locationFee = *override
	case loc != nil && loc.Type == domain.LocationRegistered:
		locationFee = loc.HourlyRate
	}

	effective := locationFee - c.percentOf(locationFee)
	payout := total - platformFee - effective

	return FeeBreakdown{
		Total:                total,
		PlatformFee:          platformFee,
		LocationFee:          locationFee,
		EffectiveLocationFee: effective,
		PayeePayout:          payout,
		Note: fmt.Sprintf("total=%d platform_fee=%d (%d%%) location_fee=%d effective_location_fee=%d payee_payout=%d",
			total, platformFee, c.platformFeePercent, locationFee, effective, payout),
	}
}

func (c *PaymentCalculator) percentOf(amount int64) int64 {
	return amount * c.platformFeePercent / 100
}
