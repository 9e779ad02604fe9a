package httpapi

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/nikolayk812/podstore/internal/domain"
)

// cartIdentifier picks the cart a request addresses: the walletId query
// parameter when present, else the guest session cookie. A guest session is
// created on first use.
func (h *Handler) cartIdentifier(w http.ResponseWriter, r *http.Request) (domain.CartIdentifier, error) {
	if walletID := strings.TrimSpace(r.URL.Query().Get("walletId")); walletID != "" {
		return domain.WalletIdentifier(walletID)
	}

	if session, ok := guestSession(r); ok {
		return domain.GuestIdentifier(session)
	}

	session := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return domain.GuestIdentifier(session)
}

// existingCart is cartIdentifier without creating a session; ok is false
// when the request carries neither a wallet nor a guest session.
func existingCart(r *http.Request) (domain.CartIdentifier, bool, error) {
	if walletID := strings.TrimSpace(r.URL.Query().Get("walletId")); walletID != "" {
		id, err := domain.WalletIdentifier(walletID)
		return id, err == nil, err
	}
	if session, ok := guestSession(r); ok {
		id, err := domain.GuestIdentifier(session)
		return id, err == nil, err
	}
	return domain.CartIdentifier{}, false, nil
}

func guestSession(r *http.Request) (string, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil || strings.TrimSpace(c.Value) == "" {
		return "", false
	}
	return c.Value, true
}

func (h *Handler) writeCart(w http.ResponseWriter, cart domain.Cart) {
	writeJSON(w, http.StatusOK, mapCartToResponse(cart, h.carts.CartURL(cart.Owner)))
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	id, err := h.cartIdentifier(w, r)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	cart, err := h.carts.Get(r.Context(), id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	h.writeCart(w, cart)
}

func (h *Handler) replaceCart(w http.ResponseWriter, r *http.Request) {
	id, err := h.cartIdentifier(w, r)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	var req StorageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	cart, err := h.carts.Replace(r.Context(), id, req.Items, req.IsOpen)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	h.writeCart(w, cart)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	id, err := h.cartIdentifier(w, r)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	var req AddItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	cart, err := h.carts.AddItem(r.Context(), id, req.ID, req.Quantity, req.Size, req.Color)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	h.writeCart(w, cart)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	id, err := h.cartIdentifier(w, r)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	var req LineRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	cart, err := h.carts.RemoveItem(r.Context(), id, req.selector())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	h.writeCart(w, cart)
}

func (h *Handler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	id, err := h.cartIdentifier(w, r)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	var req LineRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	cart, err := h.carts.UpdateQuantity(r.Context(), id, req.selector(), req.Quantity)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	h.writeCart(w, cart)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	id, err := h.cartIdentifier(w, r)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	cart, err := h.carts.Clear(r.Context(), id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	h.writeCart(w, cart)
}

// migrate moves the caller's guest cart into the wallet named by walletId.
func (h *Handler) migrate(w http.ResponseWriter, r *http.Request) {
	wallet, err := domain.WalletIdentifier(r.URL.Query().Get("walletId"))
	if err != nil {
		writeErr(w, r, err)
		return
	}

	session, ok := guestSession(r)
	if !ok {
		writeErr(w, r, domain.Invalid("sessionId", "no guest cart to migrate"))
		return
	}

	cart, err := h.migrator.Migrate(r.Context(), session, wallet)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	h.writeCart(w, cart)
}

// migrateLocal merges items the browser kept locally into the wallet cart.
// The client must clear its copy only after a 2xx response.
func (h *Handler) migrateLocal(w http.ResponseWriter, r *http.Request) {
	wallet, err := domain.WalletIdentifier(r.URL.Query().Get("walletId"))
	if err != nil {
		writeErr(w, r, err)
		return
	}

	var req MigrateLocalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, err)
		return
	}

	cart, err := h.migrator.MigrateItems(r.Context(), req.Items, wallet)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	h.writeCart(w, cart)
}

func (l LineRequest) selector() domain.LineSelector {
	return domain.LineSelector{ProductID: l.ID, Size: l.Size, Color: l.Color}
}
