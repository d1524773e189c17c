package checkout

import (
	"errors"

	"github.com/UnicloudAfrica/uniclo-sub010/internal/models"
)

// ErrCardNotFound is returned when a card identifier is not in the store.
var ErrCardNotFound = errors.New("checkout: saved card not found")

// SavedCardStore is the in-memory list of the payer's tokenized cards plus the
// active card selection. Not safe for concurrent use; the owning session serializes access.
type SavedCardStore struct {
	cards    []models.SavedCard
	selected string
}

// Replace swaps in a fresh list and repairs the selection.
func (s *SavedCardStore) Replace(cards []models.SavedCard) {
	s.cards = models.NormalizeSavedCards(cards)
	s.repair()
}

// Remove drops a card locally. A selection pointing at it is cleared and then
// repaired to the first remaining card.
func (s *SavedCardStore) Remove(id string) bool {
	kept := s.cards[:0:0]
	removed := false
	for _, card := range s.cards {
		if card.Identifier.String() == id {
			removed = true
			continue
		}
		kept = append(kept, card)
	}
	if !removed {
		return false
	}
	s.cards = kept
	if s.selected == id {
		s.selected = ""
	}
	s.repair()
	return true
}

// Select makes the card with id the active one.
func (s *SavedCardStore) Select(id string) error {
	if _, ok := s.find(id); !ok {
		return ErrCardNotFound
	}
	s.selected = id
	return nil
}

// Selected returns a copy of the selected card, or nil.
func (s *SavedCardStore) Selected() *models.SavedCard {
	card, ok := s.find(s.selected)
	if !ok {
		return nil
	}
	return &card
}

// Get returns a copy of the card with id.
func (s *SavedCardStore) Get(id string) (models.SavedCard, bool) {
	return s.find(id)
}

// List returns a copy of the cards.
func (s *SavedCardStore) List() []models.SavedCard {
	return append([]models.SavedCard(nil), s.cards...)
}

// Len returns the number of cards.
func (s *SavedCardStore) Len() int {
	return len(s.cards)
}

func (s *SavedCardStore) find(id string) (models.SavedCard, bool) {
	if id == "" {
		return models.SavedCard{}, false
	}
	for _, card := range s.cards {
		if card.Identifier.String() == id {
			return card, true
		}
	}
	return models.SavedCard{}, false
}

func (s *SavedCardStore) repair() {
	if _, ok := s.find(s.selected); ok {
		return
	}
	s.selected = ""
	if len(s.cards) > 0 {
		s.selected = s.cards[0].Identifier.String()
	}
}
