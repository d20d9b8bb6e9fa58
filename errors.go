package tintgrid

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// Configuration errors. They disable mutation but never discard mapped data.
var (
	ErrNotReadable       = errors.New("tintgrid: atlas is not readable")
	ErrUnsupportedFormat = errors.New("tintgrid: atlas pixel format must be RGBA32 or RGB24")
	ErrDimensionMismatch = errors.New("tintgrid: atlas dimensions do not match the grid definition")
	ErrNoSnapshot        = errors.New("tintgrid: grid definition has no pristine snapshot")
)

// ConfigError reports a configuration problem together with the regions it
// affects, so a host can warn about exactly those regions.
type ConfigError struct {
	Err     error
	Regions []Rect
}

func (e *ConfigError) Error() string {
	if len(e.Regions) == 0 {
		return e.Err.Error()
	}
	parts := make([]string, len(e.Regions))
	for i, r := range e.Regions {
		parts[i] = r.String()
	}
	return fmt.Sprintf("%v (regions %s)", e.Err, strings.Join(parts, ", "))
}

func (e *ConfigError) Unwrap() error { return e.Err }

// AffectedRegions returns the regions named by every *ConfigError in err,
// including each error combined into it with multierr. Duplicates are
// dropped; order is first mention.
func AffectedRegions(err error) []Rect {
	var (
		out  []Rect
		seen = make(map[Rect]bool)
	)
	for _, e := range multierr.Errors(err) {
		var ce *ConfigError
		if !errors.As(e, &ce) {
			continue
		}
		for _, r := range ce.Regions {
			if !seen[r] {
				seen[r] = true
				out = append(out, r)
			}
		}
	}
	return out
}
