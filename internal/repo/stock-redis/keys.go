// Package stockredis keeps the stock ledger in a single Redis node. The Lua
// scripts derive reservation, session and expiry keys from stored ids, so
// their keys are not all declared up front and may span hash slots; Redis
// Cluster is not supported.
package stockredis

import "fmt"

const (
	// stock:{product_id} -> hash available/reserved/sold
	keyStock = "stock:%s"

	// reservation:{reservation_id} -> hash product_id/session_id/expires_at/created_at
	keyReservation = "reservation:%s"

	// session_reservation:{session_id}:{product_id} -> reservation_id, expires with the reservation
	keySessionReservation = "session_reservation:%s:%s"

	// session_reservations:{session_id} -> set of reservation ids held by the session
	keySessionReservations = "session_reservations:%s"

	// reservations:expiry:{product_id} -> zset of reservation ids scored by expiry (unix ms)
	keyExpiry = "reservations:expiry:%s"

	// stock:products -> set of initialized product ids
	keyProducts = "stock:products"
)

func stockKey(productID string) string {
	return fmt.Sprintf(keyStock, productID)
}

func reservationKey(reservationID string) string {
	return fmt.Sprintf(keyReservation, reservationID)
}

func sessionKey(sessionID, productID string) string {
	return fmt.Sprintf(keySessionReservation, sessionID, productID)
}

func sessionSetKey(sessionID string) string {
	return fmt.Sprintf(keySessionReservations, sessionID)
}

func expiryKey(productID string) string {
	return fmt.Sprintf(keyExpiry, productID)
}
