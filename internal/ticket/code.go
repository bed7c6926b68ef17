package ticket

import (
	"fmt"
	"regexp"
	"time"

	errors "github.com/frahmantamala/pos-helpdesk/internal"
)

const MaxCodeSequence = 999999

var (
	codePattern = regexp.MustCompile(`^POS\d{2}\d{2}\d{6}$`)

	ErrInvalidCode       = errors.NewValidationFieldError("ticket_code", "ticket_code must look like POSYYMMNNNNNN", errors.ErrCodeValidationFailed)
	ErrCodeSpaceExceeded = errors.NewConflictError("No ticket codes left for this month", errors.ErrCodeCodeSpaceExceeded)
)

// CodePeriod is the YYMM key the sequence restarts on.
func CodePeriod(at time.Time) string {
	return fmt.Sprintf("%02d%02d", at.Year()%100, int(at.Month()))
}

func FormatCode(at time.Time, seq int64) (string, error) {
	if seq < 1 || seq > MaxCodeSequence {
		return "", ErrCodeSpaceExceeded.WithDetails(map[string]interface{}{
			"period":   CodePeriod(at),
			"sequence": seq,
		})
	}
	return fmt.Sprintf("POS%02d%02d%06d", at.Year()%100, int(at.Month()), seq), nil
}

func ValidateCode(code string) error {
	if !codePattern.MatchString(code) {
		return ErrInvalidCode
	}
	return nil
}
