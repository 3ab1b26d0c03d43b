package services_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/srgjo27/snapbook/internal/core/domain"
	"github.com/srgjo27/snapbook/internal/core/services"
	"github.com/stretchr/testify/assert"
)

func TestCalculate_RegisteredVenue(t *testing.T) {
	calc := services.NewPaymentCalculator(10)
	owner := uuid.New()
	loc := &domain.Location{Type: domain.LocationRegistered, OwnerID: &owner, HourlyRate: 100000}

	split := calc.Calculate(500000, loc, nil)

	assert.Equal(t, int64(50000), split.PlatformFee)
	assert.Equal(t, int64(100000), split.LocationFee)
	assert.Equal(t, int64(90000), split.EffectiveLocationFee)
	assert.Equal(t, int64(360000), split.PayeePayout)
	assert.Equal(t, split.Total, split.PlatformFee+split.EffectiveLocationFee+split.PayeePayout)
	assert.Contains(t, split.Note, "payee_payout=360000")
}

func TestCalculate_ExternalLocationHasNoVenueFee(t *testing.T) {
	calc := services.NewPaymentCalculator(10)
	loc := &domain.Location{Type: domain.LocationExternal, HourlyRate: 999}

	split := calc.Calculate(300000, loc, nil)

	assert.Equal(t, int64(30000), split.PlatformFee)
	assert.Zero(t, split.LocationFee)
	assert.Equal(t, int64(270000), split.PayeePayout)
}

func TestCalculate_EventOverrideWins(t *testing.T) {
	calc := services.NewPaymentCalculator(10)
	loc := &domain.Location{Type: domain.LocationRegistered, HourlyRate: 100000}
	override := int64(200000)

	split := calc.Calculate(600000, loc, &override)

	assert.Equal(t, int64(200000), split.LocationFee)
	assert.Equal(t, int64(180000), split.EffectiveLocationFee)
	assert.Equal(t, int64(360000), split.PayeePayout)
}

func TestCalculate_RoundingStaysExact(t *testing.T) {
	calc := services.NewPaymentCalculator(10)
	loc := &domain.Location{Type: domain.LocationRegistered, HourlyRate: 3333}

	for _, total := range []int64{1, 7, 99, 12345, 1000001} {
		split := calc.Calculate(total, loc, nil)
		assert.Equal(t, total, split.PlatformFee+split.EffectiveLocationFee+split.PayeePayout)
	}
}

func TestNewPaymentCalculator_OutOfRangePercentFallsBack(t *testing.T) {
	assert.Equal(t, services.DefaultPlatformFeePercent, services.NewPaymentCalculator(-5).PlatformFeePercent())
	assert.Equal(t, services.DefaultPlatformFeePercent, services.NewPaymentCalculator(101).PlatformFeePercent())
	assert.Equal(t, int64(15), services.NewPaymentCalculator(15).PlatformFeePercent())
}

func TestCalculate_NilLocation(t *testing.T) {
	split := services.NewPaymentCalculator(10).Calculate(1000, nil, nil)
	assert.Equal(t, int64(100), split.PlatformFee)
	assert.Equal(t, int64(900), split.PayeePayout)
}
