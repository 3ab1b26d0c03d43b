package handler

import "net/http"

func NewRouter(bookings *BookingHandler, availability *AvailabilityHandler, wallets *WalletHandler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, http.StatusOK, map[string]string{"status": "up"})
	})

	mux.HandleFunc("POST /bookings", bookings.CreateBooking)
	mux.HandleFunc("GET /bookings/{id}", bookings.GetBooking)
	mux.HandleFunc("PATCH /bookings/{id}", bookings.UpdateBooking)
	mux.HandleFunc("POST /bookings/{id}/confirm", bookings.ConfirmBooking)
	mux.HandleFunc("POST /bookings/{id}/cancel", bookings.CancelBooking)
	mux.HandleFunc("POST /bookings/{id}/complete", bookings.CompleteBooking)
	mux.HandleFunc("GET /bookings/{id}/escrow", bookings.EscrowBalance)
	mux.HandleFunc("GET /users/{id}/bookings", bookings.ListUserBookings)
	mux.HandleFunc("GET /photographers/{id}/bookings", bookings.ListPhotographerBookings)

	mux.HandleFunc("POST /availability", availability.Register)
	mux.HandleFunc("PUT /availability/{id}", availability.Update)
	mux.HandleFunc("DELETE /availability/{id}", availability.Delete)
	mux.HandleFunc("GET /photographers/{id}/availability", availability.List)
	mux.HandleFunc("GET /photographers/{id}/slots", availability.FreeSlots)

	mux.HandleFunc("GET /wallets/{id}", wallets.Balance)
	mux.HandleFunc("POST /wallets/topup", wallets.TopUp)
	mux.HandleFunc("POST /wallets/transfer", wallets.Transfer)
	mux.HandleFunc("GET /wallets/me/transactions", wallets.History)

	return mux
}
