package api

import (
	"VentaCommSaas/api/auth"
	"VentaCommSaas/internal/logger"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync"
)

// Global reference to AuthService (set from main or manager)
var (
	authService     *auth.AuthService
	authServiceOnce sync.Once
	gatewayServer   *http.Server
)

// SetAuthService allows wiring the AuthService from main/manager
func SetAuthService(svc *auth.AuthService) {
	authServiceOnce.Do(func() {
		authService = svc
	})
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	return r.RemoteAddr
}

func auditLog(msg string) {
	if logr := logger.GlobalLogger; logr != nil {
		logr.LogAudit(msg)
		return
	}
	log.Println(msg)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func GetSessionsHandler(w http.ResponseWriter, r *http.Request) {
	if authService == nil {
		http.Error(w, "Auth service unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, authService.GetActiveSessions())
}

// LoginHandler handles POST /auth/login
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	if authService == nil {
		http.Error(w, "Auth service unavailable", http.StatusInternalServerError)
		return
	}
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	session, err := authService.Login(creds.Username, creds.Password, extractClientIP(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// LogoutHandler handles POST /auth/logout
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	if authService == nil {
		http.Error(w, "Auth service unavailable", http.StatusInternalServerError)
		return
	}
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if err := authService.Logout(req.SessionID); err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "logout successful"})
}

// sniffUserID peeks at a JSON body for the user_id field and restores the
// body afterwards. Audit lines only, never authoritative.
func sniffUserID(r *http.Request) string {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		return ""
	}
	if r.Header.Get("Content-Type") != "application/json" {
		return ""
	}
	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))
	if len(body) == 0 {
		return ""
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}
	id, _ := fields["user_id"].(string)
	return id
}

// createReverseProxy returns a reverse proxy handler for the given target URL.
// The target is parsed once at wiring time, a typo fails startup instead of
// the first request.
func createReverseProxy(target string) http.HandlerFunc {
	dest, err := url.Parse(target)
	if err != nil {
		log.Fatalf("Gateway: bad proxy target %s: %v", target, err)
	}
	proxy := httputil.NewSingleHostReverseProxy(dest)
	// The notification stream is long-lived SSE, responses must not buffer.
	proxy.FlushInterval = -1

	return func(w http.ResponseWriter, r *http.Request) {
		auditLog(fmt.Sprintf("[Gateway] Incoming request: %s %s from %s userId=%s",
			r.Method, r.URL.Path, extractClientIP(r), sniffUserID(r)))

		rw := &responseWriter{ResponseWriter: w, statusCode: 200}
		proxy.ServeHTTP(rw, r)

		if rw.statusCode >= 400 {
			auditLog(fmt.Sprintf("[Gateway][ERROR] Proxied to %s for %s, status %d, error: %s",
				target, r.URL.Path, rw.statusCode, rw.body.String()))
			return
		}
		auditLog(fmt.Sprintf("[Gateway] Proxied to %s for %s, status %d", target, r.URL.Path, rw.statusCode))
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code plus
// the body of error responses. Success bodies are not kept: an SSE stream
// through the proxy would otherwise accumulate without bound.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.statusCode >= 400 {
		rw.body.Write(b)
	}
	return rw.ResponseWriter.Write(b)
}

// Unwrap lets the proxy reach Flush and Hijack on the underlying writer,
// which SSE and the WebSocket upgrade both need.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// StartGateway starts the API gateway server
func StartGateway() {
	mux := http.NewServeMux()

	// Auth endpoints
	mux.HandleFunc("/auth/login", LoginHandler)
	mux.HandleFunc("/auth/logout", LogoutHandler)
	mux.HandleFunc("/get-sessions", GetSessionsHandler)
	mux.HandleFunc("/master/", createReverseProxy("http://localhost:2143"))
	mux.HandleFunc("/commission/", createReverseProxy("http://localhost:3143"))
	mux.HandleFunc("/sales/", createReverseProxy("http://localhost:6143"))
	mux.HandleFunc("/notification/", createReverseProxy("http://localhost:9111"))

	mux.HandleFunc("/healt", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("API Gateway is healthy"))
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		auditLog("[Gateway] [Error] " + r.URL.Path + " from " + r.RemoteAddr + " (route not found)")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("404 - Route not found"))
	})

	gatewayServer = &http.Server{Addr: ":8081", Handler: mux}
	log.Println("API Gateway started on :8081")
	if err := gatewayServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Gateway server failed: %v", err)
	}
}
