package checkout

import (
	"errors"

	"github.com/UnicloudAfrica/uniclo-sub010/internal/models"
)

var (
	// ErrModeUnavailable is returned when selecting a mode with no options or cards behind it.
	ErrModeUnavailable = errors.New("checkout: payment mode unavailable")
	// ErrOptionNotFound is returned when an option id is not in the active bucket.
	ErrOptionNotFound = errors.New("checkout: payment option not found")
)

// ModeSelector classifies gateway options into channel buckets and keeps one
// active mode and, for card/bank modes, one active option.
// It is not safe for concurrent use; the owning session serializes access.
type ModeSelector struct {
	options  []models.PaymentGatewayOption
	hasCards bool

	modes    []models.Mode
	active   models.Mode
	selected *models.PaymentGatewayOption
}

// Update replaces the option set and saved-card availability and repairs the selection.
// It reports whether the selected option changed.
func (m *ModeSelector) Update(options []models.PaymentGatewayOption, hasSavedCards bool) bool {
	m.options = append([]models.PaymentGatewayOption(nil), options...)
	m.hasCards = hasSavedCards
	return m.reconcile()
}

// SetHasSavedCards updates only the saved-card availability.
func (m *ModeSelector) SetHasSavedCards(has bool) bool {
	if m.hasCards == has {
		return false
	}
	m.hasCards = has
	return m.reconcile()
}

// SelectMode makes mode active. It reports whether the selected option changed.
func (m *ModeSelector) SelectMode(mode models.Mode) (bool, error) {
	if !m.available(mode) {
		return false, ErrModeUnavailable
	}
	m.active = mode
	return m.reconcile(), nil
}

// SelectOption picks an option from the active bucket by id.
func (m *ModeSelector) SelectOption(id string) (bool, error) {
	for _, opt := range m.Bucket(m.active) {
		if optionKey(opt) == id {
			changed := m.selected == nil || optionKey(*m.selected) != id
			picked := opt
			m.selected = &picked
			return changed, nil
		}
	}
	return false, ErrOptionNotFound
}

// Modes returns the available modes in display order.
func (m *ModeSelector) Modes() []models.Mode {
	return append([]models.Mode(nil), m.modes...)
}

// Active returns the active mode, or "" when no mode is available.
func (m *ModeSelector) Active() models.Mode {
	return m.active
}

// Selected returns a copy of the active option, or nil.
func (m *ModeSelector) Selected() *models.PaymentGatewayOption {
	if m.selected == nil {
		return nil
	}
	picked := *m.selected
	return &picked
}

// Options returns every option known to the selector.
func (m *ModeSelector) Options() []models.PaymentGatewayOption {
	return append([]models.PaymentGatewayOption(nil), m.options...)
}

// Bucket returns the options belonging to a card or bank-transfer mode.
func (m *ModeSelector) Bucket(mode models.Mode) []models.PaymentGatewayOption {
	var out []models.PaymentGatewayOption
	for _, opt := range m.options {
		switch {
		case mode == models.ModeCard && opt.IsCard():
			out = append(out, opt)
		case mode == models.ModeBankTransfer && opt.IsBankTransfer():
			out = append(out, opt)
		}
	}
	return out
}

func (m *ModeSelector) available(mode models.Mode) bool {
	for _, have := range m.modes {
		if have == mode {
			return true
		}
	}
	return false
}

func (m *ModeSelector) reconcile() bool {
	m.modes = m.modes[:0]
	if len(m.Bucket(models.ModeCard)) > 0 {
		m.modes = append(m.modes, models.ModeCard)
	}
	if len(m.Bucket(models.ModeBankTransfer)) > 0 {
		m.modes = append(m.modes, models.ModeBankTransfer)
	}
	if m.hasCards {
		m.modes = append(m.modes, models.ModeSavedCard)
	}

	if !m.available(m.active) {
		m.active = ""
		if len(m.modes) > 0 {
			m.active = m.modes[0]
		}
	}

	prev := m.selected
	m.selected = nil
	if m.active == models.ModeCard || m.active == models.ModeBankTransfer {
		bucket := m.Bucket(m.active)
		if prev != nil {
			for _, opt := range bucket {
				if optionKey(opt) == optionKey(*prev) {
					picked := opt
					m.selected = &picked
					break
				}
			}
		}
		if m.selected == nil && len(bucket) > 0 {
			picked := bucket[0]
			m.selected = &picked
		}
	}

	switch {
	case prev == nil && m.selected == nil:
		return false
	case prev == nil || m.selected == nil:
		return true
	default:
		return optionKey(*prev) != optionKey(*m.selected)
	}
}

// optionKey identifies an option; backends occasionally omit ids, so fall back to the name.
func optionKey(opt models.PaymentGatewayOption) string {
	if opt.ID != "" {
		return opt.ID.String()
	}
	return opt.Name
}
