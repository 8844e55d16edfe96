package opennow

import (
	"errors"

	oerr "github.com/opennow/opennow-go/internal/errors"
	"github.com/opennow/opennow-go/internal/geo"
)

// Re-exported errors so callers can compare against a single symbol.
var (
	ErrLoginRequired   = oerr.ErrLoginRequired
	ErrPlaceIDRequired = oerr.ErrPlaceIDRequired
	ErrNotFound        = oerr.ErrNotFound
	ErrGeoUnsupported  = geo.ErrUnsupported
	ErrGeoPermission   = geo.ErrPermissionDenied
	ErrGeoTimeout      = geo.ErrTimeout
)

// HTTPError carries the status and body of a failed backend call.
type HTTPError = oerr.HTTPError

// IsLoginRequired reports whether err means the user must log in first.
func IsLoginRequired(err error) bool { return errors.Is(err, ErrLoginRequired) }

// HTTPStatus returns the status code carried by err, or 0.
func HTTPStatus(err error) int { return oerr.StatusOf(err) }
