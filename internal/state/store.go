// Package state holds the per-session State Store: session flags, settings,
// the last computation and the record collections of one dashboard user.
package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/tally-dashboard/internal/models"
)

// Key names a value held by the store
type Key string

const (
	KeyLoggedIn    Key = "logged_in"
	KeyUsername    Key = "username"
	KeyRole        Key = "role"
	KeySettings    Key = "settings"
	KeyLastResult  Key = "last_result"
	KeyWaterReport Key = "water_report"
)

// Defaults maps keys to their initial values
type Defaults map[Key]interface{}

// DefaultValues returns the declared default of every scalar key.
// Collections always start empty.
func DefaultValues() Defaults {
	return Defaults{
		KeyLoggedIn:    false,
		KeyUsername:    "",
		KeyRole:        models.Role(""),
		KeySettings:    models.Settings{},
		KeyLastResult:  (*models.Computation)(nil),
		KeyWaterReport: nil,
	}
}

// Snapshot is a deep copy of the store used for rendering
type Snapshot struct {
	Session     models.Session
	Settings    models.Settings
	LastResult  *models.Computation
	WaterReport interface{}
	Collections map[string][]models.Record
}

// Store is the state of one session. The zero value is uninitialised.
type Store struct {
	mu          sync.Mutex
	initialized bool
	defaults    Defaults
	values      map[Key]interface{}
	collections map[string]*collection

	// now is swapped in tests
	now func() time.Time
}

// NewStore returns an uninitialised store
func NewStore() *Store {
	return &Store{now: time.Now}
}

// Init sets every recognised key to its default and empties all collections.
// Entries in defaults override DefaultValues; unrecognised or mistyped
// entries are ignored.
func (s *Store) Init(defaults Defaults) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := DefaultValues()
	for k, v := range defaults {
		if _, ok := merged[k]; !ok {
			continue
		}
		if checkType(k, v) != nil {
			continue
		}
		merged[k] = v
	}
	if merged[KeyLoggedIn] != true {
		merged[KeyUsername] = ""
		merged[KeyRole] = models.Role("")
	}
	s.defaults = merged
	if s.now == nil {
		s.now = time.Now
	}
	s.apply()
	s.initialized = true
}

// apply resets values and collections from s.defaults. Caller holds mu.
func (s *Store) apply() {
	s.values = make(map[Key]interface{}, len(s.defaults))
	for k, v := range s.defaults {
		if settings, ok := v.(models.Settings); ok {
			v = settings.Clone()
		}
		s.values[k] = v
	}
	s.collections = make(map[string]*collection)
	for _, schema := range models.Schemas() {
		s.collections[schema.Collection] = newCollection(schema)
	}
}

// Reset restores the defaults given to Init, discarding all collected data
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrUninitialized
	}
	s.apply()
	return nil
}

// Get returns the value of key. Collection names are keys too and return
// a copy of the records in insertion order.
func (s *Store) Get(key Key) (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return nil, ErrUninitialized
	}
	if c, ok := s.collections[string(key)]; ok {
		return c.list(), nil
	}
	v, ok := s.values[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if settings, ok := v.(models.Settings); ok {
		return settings.Clone(), nil
	}
	return v, nil
}

// Set replaces the value of a scalar key. Clearing logged_in clears the
// username and role with it.
func (s *Store) Set(key Key, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrUninitialized
	}
	if _, ok := s.collections[string(key)]; ok {
		return fmt.Errorf("%w: %s", ErrReadOnlyKey, key)
	}
	if _, ok := s.values[key]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if err := checkType(key, value); err != nil {
		return err
	}
	if key == KeyRole {
		if role := value.(models.Role); role != "" && s.values[KeyLoggedIn] != true {
			return ErrInvalidSession
		}
	}
	if settings, ok := value.(models.Settings); ok {
		value = settings.Clone()
	}
	s.values[key] = value
	if key == KeyLoggedIn && value == false {
		s.values[KeyUsername] = ""
		s.values[KeyRole] = models.Role("")
	}
	return nil
}

func checkType(key Key, value interface{}) error {
	ok := true
	switch key {
	case KeyLoggedIn:
		_, ok = value.(bool)
	case KeyUsername:
		_, ok = value.(string)
	case KeyRole:
		var role models.Role
		role, ok = value.(models.Role)
		ok = ok && (role == "" || models.ValidRoles[role])
	case KeySettings:
		var settings models.Settings
		settings, ok = value.(models.Settings)
		ok = ok && settings != nil
	case KeyLastResult:
		_, ok = value.(*models.Computation)
	case KeyWaterReport:
		// opaque to the store
	}
	if !ok {
		return fmt.Errorf("%w: %s (%T)", ErrInvalidValue, key, value)
	}
	return nil
}

// Session returns the current session
func (s *Store) Session() (models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return models.Session{}, ErrUninitialized
	}
	return s.session(), nil
}

func (s *Store) session() models.Session {
	loggedIn, _ := s.values[KeyLoggedIn].(bool)
	username, _ := s.values[KeyUsername].(string)
	role, _ := s.values[KeyRole].(models.Role)
	if !loggedIn {
		return models.Session{}
	}
	return models.Session{LoggedIn: true, Username: username, Role: role}
}

// Login stores an authenticated session in one step. A different user
// logging in over a live session starts from the defaults.
func (s *Store) Login(session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrUninitialized
	}
	if !session.LoggedIn || session.Username == "" || !models.ValidRoles[session.Role] {
		return ErrInvalidSession
	}
	if current := s.session(); current.LoggedIn && current.Username != session.Username {
		s.apply()
	}
	s.values[KeyLoggedIn] = true
	s.values[KeyUsername] = session.Username
	s.values[KeyRole] = session.Role
	return nil
}

// Settings returns a copy of the saved settings
func (s *Store) Settings() (models.Settings, error) {
	v, err := s.Get(KeySettings)
	if err != nil {
		return nil, err
	}
	return v.(models.Settings), nil
}

// Snapshot returns a deep copy of everything the renderer needs
func (s *Store) Snapshot() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return Snapshot{}, ErrUninitialized
	}

	snap := Snapshot{
		Session:     s.session(),
		Settings:    s.values[KeySettings].(models.Settings).Clone(),
		WaterReport: s.values[KeyWaterReport],
		Collections: make(map[string][]models.Record, len(s.collections)),
	}
	snap.LastResult, _ = s.values[KeyLastResult].(*models.Computation)
	for name, c := range s.collections {
		snap.Collections[name] = c.list()
	}
	return snap, nil
}
