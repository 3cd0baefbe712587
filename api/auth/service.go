package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"VentaCommSaas/internal/dashboard"
	"VentaCommSaas/internal/logger"
	"VentaCommSaas/internal/serviceiface"
)

type UserSession struct {
	SessionID     string
	UserID        string
	Name          string
	Email         string
	Role          string
	LastLoginTime string
	ClientIP      string
	IsLoggedIn    bool
}

type loginAttempts struct {
	count       int
	lockedUntil time.Time
}

type AuthService struct {
	db                  *sql.DB
	maxUsers            int
	sessionTimeout      time.Duration
	maxLoginAttempts    int
	accountLockDuration time.Duration
	cleanerPeriod       time.Duration
	users               map[string]*UserSession
	userPointers        map[string]*UserSession
	attempts            map[string]*loginAttempts
	mu                  sync.Mutex
	stopCh              chan struct{}
}

func NewAuthService(db *sql.DB, maxUsers int, sessionTimeout time.Duration, maxLoginAttempts int, accountLockDuration, sessionCleanerPeriod time.Duration) serviceiface.Service {
	if maxUsers <= 0 {
		maxUsers = 100
	}
	if sessionTimeout <= 0 {
		sessionTimeout = 8 * time.Hour
	}
	if maxLoginAttempts <= 0 {
		maxLoginAttempts = 5
	}
	if accountLockDuration <= 0 {
		accountLockDuration = 15 * time.Minute
	}
	if sessionCleanerPeriod <= 0 {
		sessionCleanerPeriod = 10 * time.Minute
	}
	return &AuthService{
		db:                  db,
		maxUsers:            maxUsers,
		sessionTimeout:      sessionTimeout,
		maxLoginAttempts:    maxLoginAttempts,
		accountLockDuration: accountLockDuration,
		cleanerPeriod:       sessionCleanerPeriod,
		users:               make(map[string]*UserSession),
		userPointers:        make(map[string]*UserSession),
		attempts:            make(map[string]*loginAttempts),
		stopCh:              make(chan struct{}),
	}
}

func (a *AuthService) Name() string { return "auth" }

func (a *AuthService) Start() error {
	go a.sessionCleaner()
	return nil
}

func (a *AuthService) Stop() error {
	close(a.stopCh)
	return nil
}

// Login validates credentials and returns a fresh session. A user logging in
// while already logged in evicts the old session and notifies that client.
func (a *AuthService) Login(username, password string, clientIP string) (*UserSession, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if att, ok := a.attempts[username]; ok && time.Now().Before(att.lockedUntil) {
		return nil, fmt.Errorf("account locked, retry after %s", att.lockedUntil.Format(time.RFC3339))
	}

	if len(a.users) >= a.maxUsers {
		return nil, errors.New("maximum concurrent users reached")
	}

	var (
		userID, name, email  string
		roleName, userStatus sql.NullString
	)

	query := `
    SELECT
        u.id AS user_id,
        COALESCE(NULLIF(u.employee_name, ''), u.username),
        COALESCE(u.email, ''),
        u.status AS user_status,
        r.role_name
    FROM users u
    LEFT JOIN user_roles ur ON u.id = ur.user_id
    LEFT JOIN roles r ON ur.role_id = r.id
    WHERE (u.username = $1 OR u.email = $1) AND u.password = $2
    LIMIT 1
    `

	err := a.db.QueryRow(query, username, password).Scan(
		&userID, &name, &email, &userStatus, &roleName,
	)
	if err != nil {
		a.recordFailedAttempt(username)
		return nil, errors.New("invalid credentials or user not found")
	}
	if userStatus.Valid && userStatus.String != "" && userStatus.String != "active" && userStatus.String != "Active" {
		return nil, errors.New("user is not active")
	}
	delete(a.attempts, username)

	// Evict any existing session for this user so one user holds one session
	if old, ok := a.userPointers[userID]; ok && old.IsLoggedIn {
		delete(a.users, old.SessionID)
		delete(a.userPointers, userID)
		dashboard.SendForceLogout(userID, "logged in from another location", clientIP)
		if logger.GlobalLogger != nil {
			logger.GlobalLogger.LogAudit(fmt.Sprintf("Evicted previous session for user %s (new login from %s)", username, clientIP))
		}
	}

	sessionID := generateSessionID()
	session := &UserSession{
		SessionID:     sessionID,
		UserID:        userID,
		Name:          name,
		Email:         email,
		Role:          roleName.String,
		LastLoginTime: time.Now().Format(time.RFC3339),
		ClientIP:      clientIP,
		IsLoggedIn:    true,
	}

	a.users[sessionID] = session
	a.userPointers[userID] = session

	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit(fmt.Sprintf("User logged in: %s", username))
	}

	return session, nil
}

func (a *AuthService) recordFailedAttempt(username string) {
	att, ok := a.attempts[username]
	if !ok {
		att = &loginAttempts{}
		a.attempts[username] = att
	}
	att.count++
	if att.count >= a.maxLoginAttempts {
		att.lockedUntil = time.Now().Add(a.accountLockDuration)
		att.count = 0
		if logger.GlobalLogger != nil {
			logger.GlobalLogger.LogAudit(fmt.Sprintf("Account %s locked until %s after repeated failed logins", username, att.lockedUntil.Format(time.RFC3339)))
		}
	}
}

func (a *AuthService) Logout(sessionID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	session, exists := a.users[sessionID]
	if !exists {
		return errors.New("session not found")
	}
	delete(a.users, sessionID)
	delete(a.userPointers, session.UserID)

	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit("User logged out: " + session.UserID)
	}

	return nil
}

var globalAuthService *AuthService

// SetGlobalAuthService sets the global AuthService instance
func SetGlobalAuthService(svc *AuthService) {
	globalAuthService = svc
}

// GetActiveSessions returns active sessions from the global AuthService
func GetActiveSessions() []*UserSession {
	if globalAuthService == nil {
		return nil
	}
	return globalAuthService.GetActiveSessions()
}

func (a *AuthService) GetActiveSessions() []*UserSession {
	a.mu.Lock()
	defer a.mu.Unlock()
	sessions := make([]*UserSession, 0, len(a.users))
	for _, s := range a.users {
		sessions = append(sessions, s)
	}
	return sessions
}

// sessionCleaner drops sessions idle past the timeout
func (a *AuthService) sessionCleaner() {
	ticker := time.NewTicker(a.cleanerPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-a.stopCh:
			return
		case <-ticker.C:
			a.mu.Lock()
			cutoff := time.Now().Add(-a.sessionTimeout)
			for id, s := range a.users {
				last, err := time.Parse(time.RFC3339, s.LastLoginTime)
				if err != nil || last.Before(cutoff) {
					delete(a.users, id)
					delete(a.userPointers, s.UserID)
					if logger.GlobalLogger != nil {
						logger.GlobalLogger.LogAudit("Session expired for user: " + s.UserID)
					}
				}
			}
			a.mu.Unlock()
		}
	}
}

func generateSessionID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// DB initialization helper, connection settings come from the environment
func InitDB() (*sql.DB, error) {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return sql.Open("postgres", dsn)
	}
	connStr := fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
		envOr("DB_USER", "postgres"),
		os.Getenv("DB_PASSWORD"),
		envOr("DB_HOST", "localhost"),
		envOr("DB_PORT", "5432"),
		envOr("DB_NAME", "ventacomm"),
		envOr("DB_SSLMODE", "disable"),
	)
	return sql.Open("postgres", connStr)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
