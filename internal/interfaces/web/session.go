package web

import (
	"net/http"

	"github.com/gorilla/securecookie"
)

const sessionName = "octiv_booker_session"

// SessionManager keeps the dashboard user id in a signed and encrypted
// cookie.
type SessionManager struct {
	sc     *securecookie.SecureCookie
	secure bool
}

func NewSessionManager(hashKey, blockKey []byte, secure bool) *SessionManager {
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(7 * 24 * 3600)
	return &SessionManager{sc: sc, secure: secure}
}

func (s *SessionManager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     sessionName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *SessionManager) SetUserID(w http.ResponseWriter, userID string) error {
	encoded, err := s.sc.Encode(sessionName, map[string]string{"uid": userID})
	if err != nil {
		return err
	}
	http.SetCookie(w, s.cookie(encoded, 0))
	return nil
}

func (s *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie("", -1))
}

func (s *SessionManager) UserID(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionName)
	if err != nil {
		return "", false
	}
	value := map[string]string{}
	if err := s.sc.Decode(sessionName, c.Value, &value); err != nil {
		return "", false
	}
	uid := value["uid"]
	return uid, uid != ""
}
