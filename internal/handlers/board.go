package handlers

import (
	"net/http"

	"github.com/skip2/go-qrcode"
)

const (
	defaultQRSize = 256
	minQRSize     = 128
	maxQRSize     = 1024
)

func (h *Handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, h.templates.Index, "", nil)
}

// handleGetBoard returns the current board snapshot
func (h *Handlers) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	board, err := h.Game.Board()
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, board)
}

// handleNewGame builds a new board and waits for it
func (h *Handlers) handleNewGame(w http.ResponseWriter, r *http.Request) {
	board, err := h.Game.NewGame(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, board)
}

// handleReveal advances one cell
func (h *Handlers) handleReveal(w http.ResponseWriter, r *http.Request) {
	var req RevealRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	coord, err := req.Coord()
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	result, err := h.Game.Reveal(r.Context(), req.BoardID, coord)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, result)
}

func (h *Handlers) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondOK(w, h.Game.Status())
}

// handleBoardQR renders a QR code pointing phones at the board page
func (h *Handlers) handleBoardQR(w http.ResponseWriter, r *http.Request) {
	size, err := parseIntQuery(r, "size", defaultQRSize)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if size < minQRSize || size > maxQRSize {
		h.respondError(w, r, Validation("size must be between 128 and 1024"))
		return
	}

	png, err := qrcode.Encode(boardURL(r), qrcode.Medium, size)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}

// boardURL is the address the request reached us on
func boardURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + r.Host + "/"
}
