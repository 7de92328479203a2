package session

import (
	"context"
	"database/sql"
	"encoding/gob"
	"errors"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"

	"github.com/mrlokans/booklearn/internal/config"
)

// Session data keys
const (
	KeyUserID    = "user_id"
	KeyUsername  = "username"
	KeyStartedAt = "started_at"
)

// ErrNoIdentity is returned when the session carries no identity.
var ErrNoIdentity = errors.New("no client identity in session")

func init() {
	gob.Register(time.Time{})
}

// Identity is what a client stores about itself.
type Identity struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username,omitempty"`
	StartedAt time.Time `json:"startedAt"`
}

// Manager wraps scs.SessionManager with identity helpers.
type Manager struct {
	*scs.SessionManager
}

// NewSQLiteStore creates the sessions table if needed and returns a store
// backed by it. sqlDB is the *sql.DB underneath GORM.
func NewSQLiteStore(sqlDB *sql.DB) (scs.Store, error) {
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, err
	}
	return sqlite3store.New(sqlDB), nil
}

// NewMemoryStore returns an in-process store, used with the Mongo backend.
func NewMemoryStore() scs.Store {
	return memstore.New()
}

// NewManager creates a configured session manager. A nil store falls back
// to memory.
func NewManager(store scs.Store, cfg config.Session) *Manager {
	sm := scs.New()
	if store == nil {
		store = NewMemoryStore()
	}
	sm.Store = store

	if cfg.Lifetime > 0 {
		sm.Lifetime = cfg.Lifetime
	}

	sm.Cookie.Name = "booklearn_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"

	return &Manager{SessionManager: sm}
}

// Init stores the identity under a fresh token.
func (m *Manager) Init(ctx context.Context, userID, username string) (*Identity, error) {
	if err := m.RenewToken(ctx); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	m.Put(ctx, KeyUserID, userID)
	m.Put(ctx, KeyUsername, username)
	m.Put(ctx, KeyStartedAt, now)

	return &Identity{UserID: userID, Username: username, StartedAt: now}, nil
}

// Identity returns the stored identity or ErrNoIdentity.
func (m *Manager) Identity(ctx context.Context) (*Identity, error) {
	userID := m.GetString(ctx, KeyUserID)
	if userID == "" {
		return nil, ErrNoIdentity
	}
	startedAt, _ := m.Get(ctx, KeyStartedAt).(time.Time)
	return &Identity{
		UserID:    userID,
		Username:  m.GetString(ctx, KeyUsername),
		StartedAt: startedAt,
	}, nil
}

// Clear destroys the session.
func (m *Manager) Clear(ctx context.Context) error {
	return m.Destroy(ctx)
}
