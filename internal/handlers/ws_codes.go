// internal/handlers/ws_codes.go
package handlers

// BadSubprotocolError closes clients that connected without the rikka
// subprotocol. Custom code beyond the standard WebSocket range.
const BadSubprotocolError = 3000
