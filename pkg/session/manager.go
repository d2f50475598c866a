package session

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"communityboard/pkg/generator"
	"communityboard/pkg/response"
)

type CookieConfig struct {
	Name     string
	Path     string
	Secure   bool
	SameSite http.SameSite
}

// Manager loads the session named by the request cookie before the handler
// runs and reconciles the store and the cookie with what the handler left
// behind once it returns.
type Manager struct {
	store    Store
	ttl      time.Duration
	cookie   CookieConfig
	logger   *zap.SugaredLogger
	newToken func() (string, error)
}

func NewManager(store Store, ttl time.Duration, cookie CookieConfig, logger *zap.SugaredLogger) *Manager {
	if cookie.Path == "" {
		cookie.Path = "/"
	}
	return &Manager{
		store:    store,
		ttl:      ttl,
		cookie:   cookie,
		logger:   logger,
		newToken: generator.NewSessionToken,
	}
}

func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.load(r)
		if err != nil {
			response.Error(w, m.logger, err)
			return
		}

		bw := newBufferedWriter()
		next.ServeHTTP(bw, r.WithContext(NewContext(r.Context(), sess)))

		// finalize only after a handler that ran to completion
		if err := r.Context().Err(); err != nil {
			m.logger.Debugw("request aborted, session left untouched", "path", r.URL.Path, "error", err)
			return
		}

		if err := m.finalize(r.Context(), w, sess); err != nil {
			response.Error(w, m.logger, err)
			return
		}
		bw.flushTo(w)
	})
}

var errRevokeUnsupported = errors.New("session store cannot look sessions up by user")

// RevokeOthers deletes every stored session of userID except the one keep is
// bound to. A nil keep revokes them all.
func (m *Manager) RevokeOthers(ctx context.Context, userID string, keep *Session) error {
	deleter, ok := m.store.(UserDeleter)
	if !ok {
		return errRevokeUnsupported
	}
	except := ""
	if keep != nil {
		except = keep.token
	}

	n, err := deleter.DeleteByUser(ctx, userID, except)
	if err != nil {
		return err
	}
	if n > 0 {
		m.logger.Infow("sessions revoked", "user", userID, "count", n)
	}
	return nil
}

func (m *Manager) load(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.cookie.Name)
	if err != nil || cookie.Value == "" {
		return &Session{}, nil
	}

	values, err := m.store.Get(r.Context(), cookie.Value)
	if errors.Is(err, ErrNotFound) {
		return &Session{stale: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Session{token: cookie.Value, snapshot: values, values: values}, nil
}

func (m *Manager) finalize(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if !s.Changed() {
		if s.stale {
			m.clearCookie(w)
		}
		return nil
	}

	if s.values.IsZero() {
		if s.token != "" {
			if err := m.store.Delete(ctx, s.token); err != nil {
				return err
			}
		}
		m.clearCookie(w)
		return nil
	}

	token := s.token
	if token != "" && s.snapshot.UserID != s.values.UserID {
		// a different identity never inherits the previous token
		if err := m.store.Delete(ctx, token); err != nil {
			return err
		}
		token = ""
	}
	if token == "" {
		var err error
		if token, err = m.newToken(); err != nil {
			return err
		}
	}

	if err := m.store.Put(ctx, token, s.values, m.ttl); err != nil {
		return err
	}
	s.token = token
	m.setCookie(w, token)
	return nil
}

func (m *Manager) setCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie.Name,
		Value:    token,
		Path:     m.cookie.Path,
		MaxAge:   int(m.ttl / time.Second),
		HttpOnly: true,
		Secure:   m.cookie.Secure,
		SameSite: m.cookie.SameSite,
	})
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie.Name,
		Value:    "",
		Path:     m.cookie.Path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cookie.Secure,
		SameSite: m.cookie.SameSite,
	})
}

// bufferedWriter holds the handler's response until the session is settled;
// Set-Cookie has to go out before the first body byte.
type bufferedWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newBufferedWriter() *bufferedWriter {
	return &bufferedWriter{header: make(http.Header)}
}

func (b *bufferedWriter) Header() http.Header {
	return b.header
}

func (b *bufferedWriter) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *bufferedWriter) flushTo(w http.ResponseWriter) {
	dst := w.Header()
	for k, v := range b.header {
		dst[k] = append(dst[k], v...)
	}
	if b.status == 0 {
		b.status = http.StatusOK
	}
	w.WriteHeader(b.status)
	_, _ = w.Write(b.body.Bytes())
}
