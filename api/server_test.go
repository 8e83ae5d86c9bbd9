package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"kairos/api"
	"kairos/auth"
	"kairos/ent"
	"kairos/migrations"
	"kairos/notify"
	"kairos/store"
)

type env struct {
	t      *testing.T
	srv    *api.Server
	store  *store.Store
	hub    *notify.Hub
	hasher *auth.PasswordHasher
	tokens *auth.Tokens
	token  string
}

type response struct {
	Status int         `json:"-"`
	Header http.Header `json:"-"`
	Raw    []byte      `json:"-"`

	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Token    string          `json:"token"`
	SaleID   int64           `json:"sale_id"`
	Kind     string          `json:"kind"`
	Product  ent.Product     `json:"product"`
	Products []ent.Product   `json:"products"`
	Data     json.RawMessage `json:"data"`
}

func newEnv(t *testing.T) *env {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "kairos.db")
	require.NoError(t, migrations.Migrate("sqlite3", dsn))

	log := logrus.New()
	log.SetLevel(logrus.FatalLevel)

	st, err := store.Open("sqlite3", dsn, store.Options{Location: time.UTC, Logger: log})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	e := &env{
		t:      t,
		store:  st,
		hub:    notify.NewHub(log),
		hasher: auth.NewPasswordHasher(bcrypt.MinCost),
		tokens: auth.NewTokens("test-secret", time.Hour),
	}
	e.srv = api.New(st, e.tokens, e.hasher, e.hub, api.Config{
		LowStock: 5,
		Location: time.UTC,
		Shop:     "Mercadinho",
		Logger:   log,
	})

	u, err := st.CreateUser(context.Background(), "cashier", e.hash("secret1"))
	require.NoError(t, err)
	e.token, _, err = e.tokens.Issue(u.ID, u.Username)
	require.NoError(t, err)

	return e
}

func (e *env) hash(password string) string {
	h, err := e.hasher.Hash(password)
	require.NoError(e.t, err)
	return h
}

func (e *env) request(method, path string, body interface{}, mod func(*http.Request)) response {
	e.t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(e.t, err)
		r = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if mod != nil {
		mod(req)
	}

	resp, err := e.srv.App().Test(req, -1)
	require.NoError(e.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)

	out := response{Status: resp.StatusCode, Header: resp.Header, Raw: raw}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(e.t, json.Unmarshal(raw, &out), string(raw))
	}

	return out
}

// call sends an authenticated request.
func (e *env) call(method, path string, body interface{}) response {
	e.t.Helper()

	return e.request(method, path, body, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+e.token)
	})
}

func (e *env) product(name, price string, qty int64, barcode string) ent.Product {
	e.t.Helper()

	p, err := e.store.CreateProduct(context.Background(), ent.ProductInput{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Quantity: qty,
		Barcode:  barcode,
	})
	require.NoError(e.t, err)

	return p
}

type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) WriteJSON(v interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, v.(notify.Event))
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) types() []notify.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	ts := make([]notify.EventType, 0, len(r.events))
	for _, e := range r.events {
		ts = append(ts, e.Type)
	}
	return ts
}

func TestSessionRequired(t *testing.T) {
	e := newEnv(t)

	r := e.request(http.MethodGet, "/api/products", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, r.Status)
	assert.False(t, r.Success)
	assert.Equal(t, "authentication required", r.Message)

	r = e.request(http.MethodGet, "/api/products", nil, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer garbage")
	})
	assert.Equal(t, http.StatusUnauthorized, r.Status)

	r = e.call(http.MethodGet, "/api/products", nil)
	assert.Equal(t, http.StatusOK, r.Status)
	assert.True(t, r.Success)
}

func TestSignupLoginLogout(t *testing.T) {
	e := newEnv(t)

	r := e.request(http.MethodPost, "/api/signup", map[string]string{
		"username": "maria", "password": "hunter22", "confirm_password": "hunter2x",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, r.Status)

	r = e.request(http.MethodPost, "/api/signup", map[string]string{
		"username": "<b>maria</b>", "password": "hunter22", "confirm_password": "hunter22",
	}, nil)
	require.Equal(t, http.StatusCreated, r.Status, string(r.Raw))

	u, err := e.store.UserByUsername(context.Background(), "maria")
	require.NoError(t, err)
	assert.Equal(t, "maria", u.Username)

	r = e.request(http.MethodPost, "/api/signup", map[string]string{
		"username": "maria", "password": "hunter22", "confirm_password": "hunter22",
	}, nil)
	assert.Equal(t, http.StatusConflict, r.Status)

	r = e.request(http.MethodPost, "/api/login", map[string]string{
		"username": "maria", "password": "wrong-one",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, r.Status)

	r = e.request(http.MethodPost, "/api/login", map[string]string{
		"username": "nobody", "password": "hunter22",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, r.Status)

	r = e.request(http.MethodPost, "/api/login", map[string]string{
		"username": "maria", "password": "hunter22",
	}, nil)
	require.Equal(t, http.StatusOK, r.Status, string(r.Raw))
	require.NotEmpty(t, r.Token)

	resp := &http.Response{Header: r.Header}
	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "kairos_session" {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)

	r = e.request(http.MethodGet, "/api/me", nil, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: session.Name, Value: session.Value})
	})
	require.Equal(t, http.StatusOK, r.Status)
	assert.Contains(t, string(r.Raw), `"username":"maria"`)

	r = e.request(http.MethodPost, "/api/logout", nil, nil)
	assert.Equal(t, http.StatusOK, r.Status)
}

func TestErrorMapping(t *testing.T) {
	e := newEnv(t)

	r := e.call(http.MethodPost, "/api/products", "{not json")
	assert.Equal(t, http.StatusBadRequest, r.Status)
	assert.False(t, r.Success)

	r = e.call(http.MethodGet, "/api/products/abc", nil)
	assert.Equal(t, http.StatusBadRequest, r.Status)
	assert.Equal(t, "invalid id", r.Message)

	r = e.call(http.MethodGet, "/api/products/42", nil)
	assert.Equal(t, http.StatusNotFound, r.Status)
	assert.Equal(t, "product 42 not found", r.Message)

	r = e.call(http.MethodGet, "/api/nothing-here", nil)
	assert.Equal(t, http.StatusNotFound, r.Status)
	assert.False(t, r.Success)
}

func TestStaticUI(t *testing.T) {
	e := newEnv(t)

	r := e.request(http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, r.Status)
	assert.Contains(t, string(r.Raw), "<title>Kairos</title>")
}
