package event

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/event-marketplace/internal/domain"
	"github.com/skip2/go-qrcode"
)

type TicketStore interface {
	ListPurchasesByUser(ctx context.Context, userID uuid.UUID) ([]domain.PurchaseView, error)
	GetPurchase(ctx context.Context, id uuid.UUID) (*domain.PurchaseView, error)
	GetEventOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// Tickets serves an attendee's purchased tickets and their entry codes.
type Tickets struct {
	store  TicketStore
	secret []byte
}

func NewTickets(store TicketStore, secret string) *Tickets {
	return &Tickets{store: store, secret: []byte(secret)}
}

func (t *Tickets) ListPurchases(ctx context.Context, userID uuid.UUID) ([]domain.PurchaseView, error) {
	return t.store.ListPurchasesByUser(ctx, userID)
}

// QRCode renders a PNG encoding a signed entry code for the purchase.
func (t *Tickets) QRCode(ctx context.Context, userID, purchaseID uuid.UUID) ([]byte, error) {
	p, err := t.store.GetPurchase(ctx, purchaseID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("Ticket purchase not found")
	}
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, domain.Forbidden("This ticket belongs to another user")
	}
	if p.Status != domain.PurchaseConfirmed {
		return nil, domain.Invalid("Ticket purchase is not confirmed")
	}

	png, err := qrcode.Encode(t.EntryCode(p), qrcode.Medium, 256)
	if err != nil {
		return nil, errors.Wrap(err, "encode qr")
	}
	return png, nil
}

// EntryCode is "purchase:user:event:quantity:signature".
func (t *Tickets) EntryCode(p *domain.PurchaseView) string {
	body := strings.Join([]string{p.ID.String(), p.UserID.String(), p.EventID.String(), strconv.Itoa(p.Quantity)}, ":")
	return body + ":" + t.sign(body)
}

// VerifyEntryCode checks the signature of a scanned code and returns the purchase id.
func (t *Tickets) VerifyEntryCode(code string) (uuid.UUID, error) {
	i := strings.LastIndex(code, ":")
	if i < 0 {
		return uuid.Nil, domain.Invalid("Malformed ticket code")
	}
	body, sig := code[:i], code[i+1:]
	if !hmac.Equal([]byte(sig), []byte(t.sign(body))) {
		return uuid.Nil, domain.Invalid("Invalid ticket signature")
	}
	id, err := uuid.Parse(strings.SplitN(body, ":", 2)[0])
	if err != nil {
		return uuid.Nil, domain.Invalid("Malformed ticket code")
	}
	return id, nil
}

func (t *Tickets) sign(body string) string {
	mac := hmac.New(sha256.New, t.secret)
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify resolves a scanned entry code to its purchase. Only the organizer of
// the purchase's event may verify it.
func (t *Tickets) Verify(ctx context.Context, organizerID uuid.UUID, code string) (*domain.PurchaseView, error) {
	id, err := t.VerifyEntryCode(code)
	if err != nil {
		return nil, err
	}
	p, err := t.store.GetPurchase(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("Ticket purchase not found")
	}
	if err != nil {
		return nil, err
	}
	owner, err := t.store.GetEventOwner(ctx, p.EventID)
	if err != nil {
		return nil, err
	}
	if owner != organizerID {
		return nil, domain.Forbidden("You can only verify tickets for your own events")
	}
	if p.Status != domain.PurchaseConfirmed {
		return nil, domain.Invalid("Ticket purchase is not confirmed")
	}
	return p, nil
}
