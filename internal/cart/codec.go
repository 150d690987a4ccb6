package cart

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// storedLine is the shape written under the cart key.
type storedLine struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Image    string      `json:"image,omitempty"`
	Price    json.Number `json:"price"`
	Color    string      `json:"color"`
	Size     string      `json:"size"`
	Quantity int         `json:"quantity"`
}

// legacyLine accepts every shape older writers produced: "product" instead of
// "name", numeric ids, and prices or quantities stored as strings.
type legacyLine struct {
	ID       json.RawMessage `json:"id"`
	Name     json.RawMessage `json:"name"`
	Product  json.RawMessage `json:"product"`
	Image    json.RawMessage `json:"image"`
	Price    json.RawMessage `json:"price"`
	Color    json.RawMessage `json:"color"`
	Size     json.RawMessage `json:"size"`
	Quantity json.RawMessage `json:"quantity"`
}

// Encode serializes lines in display order.
func Encode(lines []Line) (string, error) {
	out := make([]storedLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, storedLine{
			ID:       line.ProductID,
			Name:     line.Name,
			Image:    line.ImageRef,
			Price:    json.Number(line.UnitPrice.String()),
			Color:    line.Variant.Color,
			Size:     line.Variant.Size,
			Quantity: line.Quantity,
		})
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Decode parses a persisted value. Anything that is not a JSON array decodes
// to an empty cart, and array elements that are not objects are skipped.
// Lines stored without an id get a synthetic one derived from their position,
// so the same stored value always yields the same keys and the next write
// persists them.
func Decode(raw string) []Line {
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elems); err != nil {
		return []Line{}
	}

	lines := make([]Line, 0, len(elems))
	for _, elem := range elems {
		trimmed := bytes.TrimSpace(elem)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			continue
		}
		var wire legacyLine
		if err := json.Unmarshal(trimmed, &wire); err != nil {
			continue
		}
		name := rawText(wire.Name)
		if name == "" {
			name = rawText(wire.Product)
		}
		price := rawDecimal(wire.Price)
		if price.IsNegative() {
			price = decimal.Zero
		}
		lines = append(lines, Line{
			ProductID: rawText(wire.ID),
			Name:      name,
			UnitPrice: price,
			ImageRef:  rawText(wire.Image),
			Variant:   Variant{Color: rawText(wire.Color), Size: rawText(wire.Size)},
			Quantity:  clampQuantity(rawInt(wire.Quantity)),
		})
	}
	assignLegacyIDs(lines)
	return lines
}

// LegacyIDPrefix marks synthetic ids given to stored lines that had none.
const LegacyIDPrefix = SyntheticIDPrefix + "legacy-"

func assignLegacyIDs(lines []Line) {
	taken := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		if line.ProductID != "" {
			taken[line.ProductID] = struct{}{}
		}
	}
	for i := range lines {
		if lines[i].ProductID != "" {
			continue
		}
		n := i
		id := LegacyIDPrefix + strconv.Itoa(n)
		for {
			if _, dup := taken[id]; !dup {
				break
			}
			n += len(lines)
			id = LegacyIDPrefix + strconv.Itoa(n)
		}
		taken[id] = struct{}{}
		lines[i].ProductID = id
	}
}

// rawText renders strings as-is and numbers or booleans as their literal text.
func rawText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return ""
		}
		return s
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return ""
	}
	return string(trimmed)
}

func rawDecimal(raw json.RawMessage) decimal.Decimal {
	text := strings.TrimSpace(rawText(raw))
	text = strings.TrimPrefix(text, "$")
	if text == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func rawInt(raw json.RawMessage) int {
	text := strings.TrimSpace(rawText(raw))
	if text == "" {
		return 0
	}
	if n, err := strconv.Atoi(text); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}
