package engine

import "github.com/pkg/errors"

// ErrNoRollWidths is returned by Plan when no usable roll width was supplied.
// It is the only error a planning run surfaces to the caller; every other
// anomaly is absorbed and shows up as pending orders.
var ErrNoRollWidths = errors.New("no roll widths available")
