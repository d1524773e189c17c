package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UnicloudAfrica/uniclo-sub010/internal/models"
)

func cardOpt(id, name string) models.PaymentGatewayOption {
	return models.PaymentGatewayOption{ID: models.FlexString(id), Name: name, PaymentType: "card"}
}

func bankOpt(id, name string) models.PaymentGatewayOption {
	return models.PaymentGatewayOption{ID: models.FlexString(id), Name: name, PaymentType: "bank_transfer"}
}

func TestModeSelectorBuckets(t *testing.T) {
	var m ModeSelector
	changed := m.Update([]models.PaymentGatewayOption{
		bankOpt("b1", "Bank Transfer"),
		cardOpt("c1", "Card"),
		{ID: "x", Name: "Crypto", PaymentType: "crypto"},
	}, false)

	assert.True(t, changed)
	assert.Equal(t, []models.Mode{models.ModeCard, models.ModeBankTransfer}, m.Modes())
	assert.Equal(t, models.ModeCard, m.Active())
	require.NotNil(t, m.Selected())
	assert.Equal(t, "c1", m.Selected().ID.String())
	assert.Len(t, m.Bucket(models.ModeBankTransfer), 1)
}

func TestModeSelectorNameClassification(t *testing.T) {
	var m ModeSelector
	m.Update([]models.PaymentGatewayOption{
		{ID: "1", Name: "Pay with CARD"},
		{ID: "2", Name: "Direct bank"},
	}, false)

	assert.Len(t, m.Bucket(models.ModeCard), 1)
	assert.Len(t, m.Bucket(models.ModeBankTransfer), 1)
}

func TestModeSelectorFallsBackWhenModeDisappears(t *testing.T) {
	var m ModeSelector
	m.Update([]models.PaymentGatewayOption{cardOpt("c1", "Card"), bankOpt("b1", "Bank")}, true)
	_, err := m.SelectMode(models.ModeBankTransfer)
	require.NoError(t, err)

	changed := m.Update([]models.PaymentGatewayOption{cardOpt("c1", "Card")}, true)
	assert.True(t, changed)
	assert.Equal(t, models.ModeCard, m.Active())
	assert.Equal(t, "c1", m.Selected().ID.String())
}

func TestModeSelectorKeepsValidSelection(t *testing.T) {
	var m ModeSelector
	m.Update([]models.PaymentGatewayOption{cardOpt("c1", "Card A"), cardOpt("c2", "Card B")}, false)
	changed, err := m.SelectOption("c2")
	require.NoError(t, err)
	assert.True(t, changed)

	changed = m.Update([]models.PaymentGatewayOption{cardOpt("c0", "Card Z"), cardOpt("c2", "Card B")}, false)
	assert.False(t, changed)
	assert.Equal(t, "c2", m.Selected().ID.String())
}

func TestModeSelectorSavedCardMode(t *testing.T) {
	var m ModeSelector
	m.Update(nil, true)
	assert.Equal(t, []models.Mode{models.ModeSavedCard}, m.Modes())
	assert.Equal(t, models.ModeSavedCard, m.Active())
	assert.Nil(t, m.Selected())

	assert.False(t, m.SetHasSavedCards(true))
	m.SetHasSavedCards(false)
	assert.Empty(t, m.Modes())
	assert.Equal(t, models.Mode(""), m.Active())
}

func TestModeSelectorRejectsUnavailable(t *testing.T) {
	var m ModeSelector
	m.Update([]models.PaymentGatewayOption{cardOpt("c1", "Card")}, false)

	_, err := m.SelectMode(models.ModeSavedCard)
	assert.ErrorIs(t, err, ErrModeUnavailable)
	assert.Equal(t, models.ModeCard, m.Active())

	_, err = m.SelectOption("missing")
	assert.ErrorIs(t, err, ErrOptionNotFound)
}

func TestModeSelectorFallsBackToName(t *testing.T) {
	var m ModeSelector
	m.Update([]models.PaymentGatewayOption{{Name: "Card One", PaymentType: "card"}, {Name: "Card Two", PaymentType: "card"}}, false)

	changed, err := m.SelectOption("Card Two")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "Card Two", m.Selected().Name)
}
