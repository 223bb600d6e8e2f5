package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OptionKind is either a call or a put.
type OptionKind string

const (
	OptionCall OptionKind = "CALL"
	OptionPut  OptionKind = "PUT"
)

// OptionIdentity is derived from a transaction description and never stored on its own.
type OptionIdentity struct {
	Underlying string
	Kind       OptionKind
	Strike     decimal.Decimal
	Expiration time.Time
}

// SeriesKey is the comparable form of an OptionIdentity, usable as a map key.
type SeriesKey struct {
	Underlying string
	Kind       OptionKind
	Strike     string // normalized decimal text, "10.00" and "10" collapse
	Expiration string
}

// Key returns the series key of the identity.
func (o OptionIdentity) Key() SeriesKey {
	return SeriesKey{
		Underlying: o.Underlying,
		Kind:       o.Kind,
		Strike:     o.Strike.String(),
		Expiration: o.Expiration.Format(DateLayout),
	}
}

// SameSeries reports whether both identities describe the same contract series.
func (o OptionIdentity) SameSeries(other OptionIdentity) bool {
	return o.Key() == other.Key()
}

func (o OptionIdentity) String() string {
	return fmt.Sprintf("%s %s %s %s", o.Underlying, o.Expiration.Format(DateLayout), o.Strike.String(), o.Kind)
}
