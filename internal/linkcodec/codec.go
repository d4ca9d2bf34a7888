// Package linkcodec encodes (location, item) references into opaque share
// tokens and inverts them, without a lookup table. Purely computational.
package linkcodec

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/mediagate/internal/domain"
)

// Obfuscator reversibly obfuscates a byte string. It is an encoding, not
// encryption; it only keeps share tokens opaque to casual inspection.
type Obfuscator interface {
	Obfuscate(s string) string
	Deobfuscate(s string) (string, error)
}

// Base64 is the stock Obfuscator: padless URL-safe base64.
type Base64 struct{}

func (Base64) Obfuscate(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func (Base64) Deobfuscate(s string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("deobfuscate: %w", domain.ErrMalformedLink)
	}
	return string(b), nil
}

const marker = "get"

// SmallIDThreshold separates literal item ids from multiplicative products
// when a decoded token carries two trailing integers. Items are numbered
// sequentially from near-zero; locations are large platform-assigned
// identifiers; products of the two are larger still.
//
// Known ambiguity: an item id at or above the threshold on a non-default
// location, or a product that lands below it, misdecodes. Inherent to
// supporting links issued before the composite form existed; there is no
// format version byte to consult.
const SmallIDThreshold = 1_000_000

// Kind discriminates the three decoded shapes.
type Kind int

const (
	// KindSingle is the legacy multiplicative form: one item at the
	// default location.
	KindSingle Kind = iota
	// KindRange is the legacy batch-range form: an inclusive span of items
	// at the default location.
	KindRange
	// KindComposite carries an explicit (location, item) pair.
	KindComposite
)

// Decoded is the inversion of a share token.
type Decoded struct {
	Kind       Kind
	LocationID int64 // resolved location (default for Single/Range)
	ItemID     int64 // set for Single and Composite
	FirstID    int64 // set for Range
	LastID     int64 // set for Range
}

// ItemIDs expands the decoded reference into the ordered list of item ids to
// release. A reversed range (first > last) yields the descending inclusive
// list.
func (d Decoded) ItemIDs() []int64 {
	if d.Kind != KindRange {
		return []int64{d.ItemID}
	}
	if d.FirstID <= d.LastID {
		ids := make([]int64, 0, d.LastID-d.FirstID+1)
		for i := d.FirstID; i <= d.LastID; i++ {
			ids = append(ids, i)
		}
		return ids
	}
	ids := make([]int64, 0, d.FirstID-d.LastID+1)
	for i := d.FirstID; i >= d.LastID; i-- {
		ids = append(ids, i)
	}
	return ids
}

// Codec encodes and decodes share tokens. It holds no mutable state.
type Codec struct {
	obf             Obfuscator
	defaultLocation int64
}

// New builds a Codec bound to the default storage location the legacy
// multiplicative forms assume.
func New(obf Obfuscator, defaultLocation int64) *Codec {
	return &Codec{obf: obf, defaultLocation: defaultLocation}
}

// EncodeSingle produces a share token for one item. The default location
// uses the compact multiplicative form; any other location gets the explicit
// composite triple.
func (c *Codec) EncodeSingle(locationID, itemID int64) string {
	if locationID == c.defaultLocation {
		return c.obf.Obfuscate(fmt.Sprintf("%s-%d", marker, itemID*abs(locationID)))
	}
	return c.obf.Obfuscate(fmt.Sprintf("%s-%d-%d", marker, abs(locationID), itemID))
}

// EncodeRange produces the legacy batch-range token for an inclusive span of
// items at the given location. Retained for compatibility with previously
// issued links.
func (c *Codec) EncodeRange(locationID, firstID, lastID int64) string {
	a := abs(locationID)
	return c.obf.Obfuscate(fmt.Sprintf("%s-%d-%d", marker, firstID*a, lastID*a))
}

// Decode inverts a share token. Malformed input returns ErrMalformedLink;
// it is never coerced to item id 0.
func (c *Codec) Decode(tok string) (Decoded, error) {
	raw, err := c.obf.Deobfuscate(tok)
	if err != nil {
		return Decoded{}, err
	}
	parts := strings.Split(raw, "-")
	if len(parts) < 2 || parts[0] != marker {
		return Decoded{}, fmt.Errorf("unexpected payload shape: %w", domain.ErrMalformedLink)
	}

	switch len(parts) {
	case 2:
		product, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return Decoded{}, fmt.Errorf("parse item reference: %w", domain.ErrMalformedLink)
		}
		itemID, err := c.divideOut(product)
		if err != nil {
			return Decoded{}, err
		}
		return Decoded{Kind: KindSingle, LocationID: c.defaultLocation, ItemID: itemID}, nil

	case 3:
		v1, err1 := strconv.ParseInt(parts[1], 10, 64)
		v2, err2 := strconv.ParseInt(parts[2], 10, 64)
		if err1 != nil || err2 != nil {
			return Decoded{}, fmt.Errorf("parse item reference: %w", domain.ErrMalformedLink)
		}
		// Two trailing integers: a small second value is a literal item id
		// next to an explicit location; anything larger is a pair of
		// multiplicative products forming a legacy range.
		if v2 < SmallIDThreshold {
			if v1 <= 0 || v2 <= 0 {
				return Decoded{}, fmt.Errorf("non-positive reference: %w", domain.ErrMalformedLink)
			}
			return Decoded{Kind: KindComposite, LocationID: v1, ItemID: v2}, nil
		}
		firstID, err := c.divideOut(v1)
		if err != nil {
			return Decoded{}, err
		}
		lastID, err := c.divideOut(v2)
		if err != nil {
			return Decoded{}, err
		}
		return Decoded{Kind: KindRange, LocationID: c.defaultLocation, FirstID: firstID, LastID: lastID}, nil

	default:
		return Decoded{}, fmt.Errorf("unexpected payload shape: %w", domain.ErrMalformedLink)
	}
}

// divideOut inverts the multiplicative encoding against the default
// location.
func (c *Codec) divideOut(product int64) (int64, error) {
	a := abs(c.defaultLocation)
	if a == 0 || product <= 0 || product%a != 0 {
		return 0, fmt.Errorf("reference not from default location: %w", domain.ErrMalformedLink)
	}
	return product / a, nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
