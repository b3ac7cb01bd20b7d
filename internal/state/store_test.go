package state

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tally-dashboard/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st := NewStore()
	st.now = func() time.Time { return time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC) }
	st.Init(nil)
	return st
}

func inventoryItem(name string, qty int) map[string]interface{} {
	return map[string]interface{}{
		"item_name":     name,
		"category":      "General",
		"quantity":      qty,
		"unit_price":    2.5,
		"reorder_level": 1,
	}
}

func TestStore_UninitializedAccess(t *testing.T) {
	st := NewStore()

	_, err := st.Get(KeyLoggedIn)
	assert.ErrorIs(t, err, ErrUninitialized)
	assert.ErrorIs(t, st.Set(KeyUsername, "x"), ErrUninitialized)
	_, err = st.Append(models.CollectionLedger, nil)
	assert.ErrorIs(t, err, ErrUninitialized)
	_, err = st.Snapshot()
	assert.ErrorIs(t, err, ErrUninitialized)
	assert.ErrorIs(t, st.Reset(), ErrUninitialized)

	var zero Store
	_, err = zero.List(models.CollectionLedger)
	assert.ErrorIs(t, err, ErrUninitialized)
}

func TestStore_DefaultsExistForEveryKey(t *testing.T) {
	st := newTestStore(t)

	for key, want := range DefaultValues() {
		got, err := st.Get(key)
		require.NoError(t, err, key)
		assert.Equal(t, want, got, key)
	}
	for _, schema := range models.Schemas() {
		got, err := st.Get(Key(schema.Collection))
		require.NoError(t, err)
		assert.Empty(t, got)
	}

	_, err := st.Get("bogus")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestStore_InitOverridesDefaults(t *testing.T) {
	st := NewStore()
	st.Init(Defaults{
		KeySettings: models.Settings{models.SettingTheme: "dark"},
		KeyLoggedIn: "not a bool",
		"unknown":   1,
	})

	settings, err := st.Settings()
	require.NoError(t, err)
	assert.Equal(t, "dark", settings[models.SettingTheme])

	loggedIn, _ := st.Get(KeyLoggedIn)
	assert.Equal(t, false, loggedIn)
}

func TestStore_SetIsIdempotent(t *testing.T) {
	once := newTestStore(t)
	twice := newTestStore(t)

	settings := models.Settings{models.SettingTitle: "Shop"}
	require.NoError(t, once.Set(KeySettings, settings))
	require.NoError(t, twice.Set(KeySettings, settings))
	require.NoError(t, twice.Set(KeySettings, settings))

	a, _ := once.Snapshot()
	b, _ := twice.Snapshot()
	assert.True(t, reflect.DeepEqual(a, b))
}

func TestStore_SetRejectsBadValues(t *testing.T) {
	st := newTestStore(t)

	assert.ErrorIs(t, st.Set(KeyLoggedIn, "yes"), ErrInvalidValue)
	assert.ErrorIs(t, st.Set(KeyRole, models.Role("root")), ErrInvalidValue)
	assert.ErrorIs(t, st.Set(KeyRole, models.RoleAdmin), ErrInvalidSession)
	assert.ErrorIs(t, st.Set(Key(models.CollectionLedger), []models.Record{}), ErrReadOnlyKey)
	assert.ErrorIs(t, st.Set("nope", 1), ErrUnknownKey)

	require.NoError(t, st.Set(KeyLoggedIn, true))
	assert.NoError(t, st.Set(KeyRole, models.RoleAdmin))
}

func TestStore_SettingsAreCopied(t *testing.T) {
	st := newTestStore(t)
	settings := models.Settings{models.SettingTheme: "dark"}
	require.NoError(t, st.Set(KeySettings, settings))

	settings[models.SettingTheme] = "light"
	got, _ := st.Settings()
	assert.Equal(t, "dark", got[models.SettingTheme])

	got[models.SettingTheme] = "light"
	again, _ := st.Settings()
	assert.Equal(t, "dark", again[models.SettingTheme])
}

func TestStore_LoginAndSession(t *testing.T) {
	st := newTestStore(t)

	sess, err := st.Session()
	require.NoError(t, err)
	assert.False(t, sess.LoggedIn)

	assert.ErrorIs(t, st.Login(models.Session{LoggedIn: true, Username: "x", Role: "guest"}), ErrInvalidSession)

	require.NoError(t, st.Login(models.Session{LoggedIn: true, Username: "admin", Role: models.RoleAdmin}))
	sess, _ = st.Session()
	assert.Equal(t, models.Session{LoggedIn: true, Username: "admin", Role: models.RoleAdmin}, sess)
}

func TestStore_ClearingLoggedInDropsIdentity(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Login(models.Session{LoggedIn: true, Username: "admin", Role: models.RoleAdmin}))

	require.NoError(t, st.Set(KeyLoggedIn, false))

	role, err := st.Get(KeyRole)
	require.NoError(t, err)
	assert.Equal(t, models.Role(""), role)
	username, _ := st.Get(KeyUsername)
	assert.Equal(t, "", username)
	assert.ErrorIs(t, st.Set(KeyRole, models.RoleAdmin), ErrInvalidSession)
}

func TestStore_InitNeverHoldsRoleWithoutLogin(t *testing.T) {
	st := NewStore()
	st.Init(Defaults{KeyRole: models.RoleAdmin, KeyUsername: "admin"})

	role, err := st.Get(KeyRole)
	require.NoError(t, err)
	assert.Equal(t, models.Role(""), role)
}

func TestStore_LoginAsAnotherUserStartsFresh(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Login(models.Session{LoggedIn: true, Username: "admin", Role: models.RoleAdmin}))
	_, err := st.Append(models.CollectionInventory, inventoryItem("Bolt", 5))
	require.NoError(t, err)
	require.NoError(t, st.Set(KeySettings, models.Settings{models.SettingTheme: "dark"}))

	require.NoError(t, st.Login(models.Session{LoggedIn: true, Username: "admin", Role: models.RoleAdmin}))
	n, _ := st.Len(models.CollectionInventory)
	assert.Equal(t, 1, n, "the same user keeps their data")

	require.NoError(t, st.Login(models.Session{LoggedIn: true, Username: "user", Role: models.RoleUser}))
	n, _ = st.Len(models.CollectionInventory)
	assert.Equal(t, 0, n)
	settings, _ := st.Settings()
	assert.Empty(t, settings)
	sess, _ := st.Session()
	assert.Equal(t, "user", sess.Username)
}

func TestStore_ResetEqualsFreshDefaults(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Login(models.Session{LoggedIn: true, Username: "admin", Role: models.RoleAdmin}))
	require.NoError(t, st.Set(KeySettings, models.Settings{models.SettingTheme: "dark"}))
	require.NoError(t, st.Set(KeyWaterReport, "report"))
	_, err := st.Append(models.CollectionInventory, inventoryItem("Bolt", 5))
	require.NoError(t, err)

	require.NoError(t, st.Reset())

	got, err := st.Snapshot()
	require.NoError(t, err)
	want, err := newTestStore(t).Snapshot()
	require.NoError(t, err)
	assert.True(t, reflect.DeepEqual(want, got), "snapshot after reset differs: %+v", got)
}

func TestStore_SnapshotIsDetached(t *testing.T) {
	st := newTestStore(t)
	_, err := st.Append(models.CollectionInventory, inventoryItem("Bolt", 5))
	require.NoError(t, err)

	snap, _ := st.Snapshot()
	snap.Collections[models.CollectionInventory][0].Fields["item_name"] = "Changed"
	snap.Settings["theme"] = "dark"

	records, _ := st.List(models.CollectionInventory)
	assert.Equal(t, "Bolt", records[0].String("item_name"))
	settings, _ := st.Settings()
	assert.Empty(t, settings)
}

func TestManager(t *testing.T) {
	m := NewManager(nil)

	id, st := m.Create()
	require.NotEmpty(t, id)

	got, ok := m.Get(id)
	require.True(t, ok)
	assert.Same(t, st, got)

	_, err := got.Get(KeyLoggedIn)
	assert.NoError(t, err, "stores are initialised on creation")

	otherID, other := m.Create()
	assert.NotEqual(t, id, otherID)
	_, err = other.Append(models.CollectionInventory, inventoryItem("Nut", 1))
	require.NoError(t, err)
	n, _ := st.Len(models.CollectionInventory)
	assert.Equal(t, 0, n, "sessions must not share collections")

	assert.Equal(t, 2, m.Len())
	_, ok = m.Get("missing")
	assert.False(t, ok)
}

func TestManager_DeleteAndExpireIdle(t *testing.T) {
	m := NewManager(nil)
	clock := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	for i := 0; i < 1000; i++ {
		m.Create()
	}
	busy, _ := m.Create()
	quiet, _ := m.Create()
	require.Equal(t, 1002, m.Len())

	assert.True(t, m.Delete(quiet))
	assert.False(t, m.Delete(quiet))
	_, ok := m.Get(quiet)
	assert.False(t, ok)

	clock = clock.Add(20 * time.Minute)
	_, ok = m.Get(busy)
	require.True(t, ok)
	clock = clock.Add(15 * time.Minute)

	assert.Equal(t, 1000, m.ExpireIdle(30*time.Minute))
	assert.Equal(t, 1, m.Len())
	_, ok = m.Get(busy)
	assert.True(t, ok, "a session used within the idle window survives")
}

func TestManager_NewIsUnregistered(t *testing.T) {
	m := NewManager(nil)
	st := m.New()

	_, err := st.Get(KeyLoggedIn)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())

	id := m.Register(st)
	got, ok := m.Get(id)
	require.True(t, ok)
	assert.Same(t, st, got)
	assert.Equal(t, 1, m.Len())
}

func TestSchemaError_Message(t *testing.T) {
	st := newTestStore(t)
	_, err := st.Append(models.CollectionInventory, map[string]interface{}{"item_name": "x"})

	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, models.CollectionInventory, se.Collection)
	assert.Len(t, se.Errors, 4)
	assert.Contains(t, fmt.Sprint(err), "category is required")
}
