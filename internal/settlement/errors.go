package settlement

import (
	"errors"

	"table-order/internal/models"
)

func isUnauthorized(err error) bool { return errors.Is(err, models.ErrUnauthorized) }

func isClientError(err error) bool {
	return errors.Is(err, models.ErrInvalidInput) || errors.Is(err, models.ErrSessionNotFound)
}
