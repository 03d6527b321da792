package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub-academy/learnhub/internal/rbac"
)

func newTestManager(t *testing.T, hooks Hooks) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewManager(client, Options{CookieName: "sid", TTL: time.Hour, Hooks: hooks}), mr
}

func TestLoadWithoutCookieStartsAnonymousSession(t *testing.T) {
	mgr, _ := newTestManager(t, Hooks{})
	sess, err := mgr.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.True(t, sess.isNew)
	assert.NotEmpty(t, sess.ID)
	assert.Nil(t, sess.CurrentUser())
}

func TestCommitAndReloadAuth(t *testing.T) {
	var saved, loaded int
	mgr, mr := newTestManager(t, Hooks{
		OnLoad: func(context.Context, *Session) { loaded++ },
		OnSave: func(context.Context, *Session) { saved++ },
	})
	ctx := context.Background()

	sess, err := mgr.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NoError(t, sess.SetAuth("tok-123", rbac.User{ID: "u1", Name: "Ada", Role: rbac.RoleAdmin}))

	rr := httptest.NewRecorder()
	require.NoError(t, mgr.Commit(ctx, rr, sess))
	assert.True(t, mr.Exists("session:"+sess.ID))
	assert.Equal(t, time.Hour, mr.TTL("session:"+sess.ID))

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	again, err := mgr.Load(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, again.ID)
	assert.Equal(t, "tok-123", again.AccessToken())
	user := again.CurrentUser()
	require.NotNil(t, user)
	assert.Equal(t, rbac.RoleAdmin, user.Role)
	assert.Equal(t, 2, loaded)
	assert.Equal(t, 1, saved)
}

func TestCommitSkipsCleanSession(t *testing.T) {
	mgr, mr := newTestManager(t, Hooks{})
	sess, err := mgr.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	require.NoError(t, mgr.Commit(context.Background(), rr, sess))
	assert.Empty(t, rr.Result().Cookies())
	assert.Empty(t, mr.Keys())
}

func TestDestroyRemovesSession(t *testing.T) {
	destroyed := false
	mgr, mr := newTestManager(t, Hooks{OnDestroy: func(context.Context, *Session) { destroyed = true }})
	ctx := context.Background()
	sess, _ := mgr.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	sess.Set("k", "v")
	require.NoError(t, mgr.Commit(ctx, httptest.NewRecorder(), sess))

	mgr.Destroy(sess)
	rr := httptest.NewRecorder()
	require.NoError(t, mgr.Commit(ctx, rr, sess))
	assert.False(t, mr.Exists("session:"+sess.ID))
	assert.True(t, destroyed)
	require.Len(t, rr.Result().Cookies(), 1)
	assert.Equal(t, -1, rr.Result().Cookies()[0].MaxAge)
}

func TestLookupUnknown(t *testing.T) {
	mgr, _ := newTestManager(t, Hooks{})
	_, err := mgr.Lookup(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExpiredCookieStartsFreshSession(t *testing.T) {
	mgr, _ := newTestManager(t, Hooks{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "gone"})
	sess, err := mgr.Load(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, "gone", sess.ID)
	assert.True(t, sess.isNew)
}

func TestClearAuth(t *testing.T) {
	sess := newSession()
	require.NoError(t, sess.SetAuth("t", rbac.User{ID: "1", Role: rbac.RoleUser}))
	sess.ClearAuth()
	assert.Nil(t, sess.CurrentUser())
	assert.Empty(t, sess.AccessToken())
}

func TestRenewRetiresOldID(t *testing.T) {
	mgr, mr := newTestManager(t, Hooks{})
	ctx := context.Background()

	sess, err := mgr.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.Set("theme", "dark")
	rr := httptest.NewRecorder()
	require.NoError(t, mgr.Commit(ctx, rr, sess))
	oldID := sess.ID

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rr.Result().Cookies()[0])
	again, err := mgr.Load(ctx, req)
	require.NoError(t, err)
	mgr.Renew(again)
	require.NoError(t, again.SetAuth("tok", rbac.User{ID: "u1", Role: rbac.RoleUser}))

	rr = httptest.NewRecorder()
	require.NoError(t, mgr.Commit(ctx, rr, again))
	assert.NotEqual(t, oldID, again.ID)
	assert.False(t, mr.Exists("session:"+oldID))
	assert.True(t, mr.Exists("session:"+again.ID))
	assert.Equal(t, "dark", again.Get("theme"))
	require.Len(t, rr.Result().Cookies(), 1)
	assert.Equal(t, again.ID, rr.Result().Cookies()[0].Value)
}
