package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alexedwards/scs/v2"
)

// sessionKey holds the visitor's transient cart inside the scs session.
const sessionKey = "cart"

// Session is the transient product→quantity mapping held per visitor.
// Quantities never go negative; entries at zero are kept so a later merge can
// delete the matching durable item, but they are hidden from listings.
type Session map[int64]int

// Add increments the quantity, creating the entry when absent.
func (s Session) Add(productID int64, count int) {
	s[productID] += count
}

// Remove decrements the quantity floored at zero. Absent products are a
// no-op.
func (s Session) Remove(productID int64, count int) {
	q, ok := s[productID]
	if !ok {
		return
	}

	q -= count
	if q < 0 {
		q = 0
	}
	s[productID] = q
}

// Quantities returns the entries with a positive quantity, the portion of the
// cart that clients see.
func (s Session) Quantities() map[int64]int {
	out := make(map[int64]int, len(s))
	for id, q := range s {
		if q > 0 {
			out[id] = q
		}
	}
	return out
}

// LoadSession reads the session cart, returning an empty one when the session
// has none.
func LoadSession(ctx context.Context, sess *scs.SessionManager) (Session, error) {
	raw := sess.GetBytes(ctx, sessionKey)
	if raw == nil {
		return Session{}, nil
	}

	s := Session{}
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decoding session cart: %w", err)
	}

	return s, nil
}

// StoreSession writes the cart back to the session.
func StoreSession(ctx context.Context, sess *scs.SessionManager, s Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session cart: %w", err)
	}

	sess.Put(ctx, sessionKey, raw)
	return nil
}

// ClearSession empties the visitor's session cart.
func ClearSession(ctx context.Context, sess *scs.SessionManager) {
	sess.Remove(ctx, sessionKey)
}
