package manuals

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"manualdesk/internal/metrics"
	"manualdesk/internal/models"

	"gorm.io/gorm"
)

const (
	referenceLength   = 16
	referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referenceAttempts = 16
)

var errReferenceExhausted = errors.New("could not generate a unique manual reference")

// NewReference returns a random code of 16 characters from [A-Z0-9].
func NewReference() (string, error) {
	buf := make([]byte, referenceLength)
	max := big.NewInt(int64(len(referenceAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate reference: %w", err)
		}
		buf[i] = referenceAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// insertManual assigns a fresh reference and inserts m. A collision on the
// unique index rolls back only the savepoint and the insert is retried with a
// new code.
func (s *Service) insertManual(tx *gorm.DB, m *models.Manual) error {
	for attempt := 0; attempt < referenceAttempts; attempt++ {
		ref, err := s.newReference()
		if err != nil {
			return err
		}
		m.Reference = ref

		err = tx.Transaction(func(sp *gorm.DB) error {
			return sp.Omit("Tags", "Category", "CreatedBy", "CurrentVersion", "Collaborators").Create(m).Error
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}

		var taken int64
		if cerr := tx.Model(&models.Manual{}).Where("reference = ?", ref).Count(&taken).Error; cerr != nil {
			return cerr
		}
		if taken == 0 {
			// дубль не по reference, а по slug
			return err
		}
		metrics.ReferenceCollision()
		m.ID = 0
	}
	return errReferenceExhausted
}
