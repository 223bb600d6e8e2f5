package parsers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/username/wheelbook/backend/src/models"
)

var (
	ErrUnknownAction     = errors.New("unknown transaction action")
	ErrUnknownInstrument = errors.New("unknown instrument kind")
)

// actionAliases maps the normalized broker wording onto the ledger actions.
// Keys are lower-case with separators collapsed to single spaces.
var actionAliases = map[string]models.Action{
	"bought":            models.ActionBoughtOpen,
	"buy":               models.ActionBoughtOpen,
	"bought open":       models.ActionBoughtOpen,
	"bought to open":    models.ActionBoughtOpen,
	"bto":               models.ActionBoughtOpen,
	"sold":              models.ActionSold,
	"sell":              models.ActionSold,
	"sold to open":      models.ActionSold,
	"sto":               models.ActionSold,
	"sold short":        models.ActionSoldShort,
	"sell short":        models.ActionSoldShort,
	"short":             models.ActionSoldShort,
	"short open":        models.ActionSoldShort,
	"sold open":         models.ActionSoldShort,
	"bought to cover":   models.ActionBoughtToCover,
	"buy to cover":      models.ActionBoughtToCover,
	"bought to close":   models.ActionBoughtToCover,
	"btc":               models.ActionBoughtToCover,
	"option assigned":   models.ActionOptionAssigned,
	"assigned":          models.ActionOptionAssigned,
	"assignment":        models.ActionOptionAssigned,
	"option expired":    models.ActionOptionExpired,
	"expired":           models.ActionOptionExpired,
	"expiration":        models.ActionOptionExpired,
	"option expiration": models.ActionOptionExpired,
}

// ParseAction normalizes a raw broker action string. Canonical enum values
// ("SOLD_SHORT", ...) are accepted as well.
func ParseAction(raw string) (models.Action, error) {
	key := normalizeKey(raw)
	if a, ok := actionAliases[key]; ok {
		return a, nil
	}
	switch a := models.Action(strings.ToUpper(strings.ReplaceAll(key, " ", "_"))); a {
	case models.ActionBoughtOpen, models.ActionSoldShort, models.ActionBoughtToCover,
		models.ActionSold, models.ActionOptionAssigned, models.ActionOptionExpired:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, raw)
}

// ParseInstrument normalizes a raw instrument kind ("Equity", "stock", "Option").
func ParseInstrument(raw string) (models.Instrument, error) {
	switch normalizeKey(raw) {
	case "equity", "stock", "share", "shares", "etf":
		return models.InstrumentEquity, nil
	case "option", "options":
		return models.InstrumentOption, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownInstrument, raw)
}

func normalizeKey(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
