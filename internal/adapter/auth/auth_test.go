package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"go.ngs.io/medenv/internal/domain"
)

type fakePrompter struct {
	user, pass string
	asked      []string
}

func (f *fakePrompter) Prompt(label string) (string, error) {
	f.asked = append(f.asked, label)
	return f.user, nil
}

func (f *fakePrompter) PromptSecret(label string) (string, error) {
	f.asked = append(f.asked, label)
	return f.pass, nil
}

func TestResolve_FromEnvironment(t *testing.T) {
	p := &fakePrompter{}
	c, err := Resolve(Credentials{Username: "u", Password: "p"}, p, zerolog.Nop())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if c.Username != "u" || c.Password != "p" {
		t.Errorf("credentials = %+v", c)
	}
	if len(p.asked) != 0 {
		t.Errorf("prompted for %v", p.asked)
	}
}

func TestResolve_PromptsForMissing(t *testing.T) {
	p := &fakePrompter{user: "alice", pass: "secret"}
	c, err := Resolve(Credentials{}, p, zerolog.Nop())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if c.Username != "alice" || c.Password != "secret" {
		t.Errorf("credentials = %+v", c)
	}
	if len(p.asked) != 2 {
		t.Errorf("asked %v, want username and password", p.asked)
	}
}

func TestResolve_NoPrompter(t *testing.T) {
	_, err := Resolve(Credentials{Username: "u"}, nil, zerolog.Nop())
	if !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("err = %v, want ErrAuthentication", err)
	}
}

func TestResolve_EmptyAnswer(t *testing.T) {
	_, err := Resolve(Credentials{Username: "u"}, &fakePrompter{}, zerolog.Nop())
	if !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("err = %v, want ErrAuthentication", err)
	}
}

func tokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		if r.Form.Get("grant_type") != "password" || r.Form.Get("client_id") != DefaultClientID {
			t.Errorf("unexpected form %v", r.Form)
		}
		if r.Form.Get("username") != "alice" || r.Form.Get("password") != "secret" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"abc","token_type":"bearer","expires_in":300}`))
	}))
}

func TestLogin(t *testing.T) {
	srv := tokenServer(t)
	defer srv.Close()

	a := NewAuthenticator(srv.URL, "", srv.Client())
	tok, err := a.Login(context.Background(), Credentials{Username: "alice", Password: "secret"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if tok.AccessToken != "abc" {
		t.Errorf("token = %q", tok.AccessToken)
	}
}

func TestLogin_Rejected(t *testing.T) {
	srv := tokenServer(t)
	defer srv.Close()

	a := NewAuthenticator(srv.URL, "", srv.Client())
	_, err := a.Login(context.Background(), Credentials{Username: "alice", Password: "wrong"})
	if !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("err = %v, want ErrAuthentication", err)
	}
}

func TestCredentials_Userinfo(t *testing.T) {
	u := Credentials{Username: "a", Password: "b c"}.Userinfo()
	if u.String() != "a:b%20c" {
		t.Errorf("Userinfo = %s", u.String())
	}
}
