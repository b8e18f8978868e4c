// Package auth resolves Copernicus Marine credentials and logs in.
package auth

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/term"

	"go.ngs.io/medenv/internal/domain"
)

const (
	// DefaultTokenURL is the Copernicus Marine identity provider token endpoint.
	DefaultTokenURL = "https://auth.marine.copernicus.eu/realms/MIS/protocol/openid-connect/token"
	// DefaultClientID is the public client used by the Copernicus Marine toolbox.
	DefaultClientID = "toolbox"
)

// Credentials identify a Copernicus Marine account.
type Credentials struct {
	Username string
	Password string
}

// Userinfo returns the credentials in the form embedded in OPeNDAP URLs.
func (c Credentials) Userinfo() *url.Userinfo {
	return url.UserPassword(c.Username, c.Password)
}

// Prompter asks the user for missing credentials.
type Prompter interface {
	Prompt(label string) (string, error)
	PromptSecret(label string) (string, error)
}

// TerminalPrompter reads from a terminal. Secrets are read without echo.
type TerminalPrompter struct {
	In  *os.File
	Out io.Writer
}

func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{In: os.Stdin, Out: os.Stderr}
}

func (p *TerminalPrompter) Prompt(label string) (string, error) {
	fmt.Fprintf(p.Out, "%s: ", label)
	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read %s: %w", label, err)
	}
	return strings.TrimSpace(line), nil
}

func (p *TerminalPrompter) PromptSecret(label string) (string, error) {
	fmt.Fprintf(p.Out, "%s: ", label)
	b, err := term.ReadPassword(int(p.In.Fd())) //nolint:gosec // G115: file descriptors fit in int.
	fmt.Fprintln(p.Out)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", label, err)
	}
	return string(b), nil
}

// Resolve fills missing credentials through the prompter, logging a warning
// for each one that was not provided by the environment.
func Resolve(c Credentials, p Prompter, log zerolog.Logger) (Credentials, error) {
	if c.Username == "" {
		log.Warn().Msg("CMEMS_USERNAME is not set, asking for it")
		if p == nil {
			return c, fmt.Errorf("%w: no username and no prompt available", domain.ErrAuthentication)
		}
		u, err := p.Prompt("CMEMS username")
		if err != nil {
			return c, fmt.Errorf("%w: %w", domain.ErrAuthentication, err)
		}
		c.Username = u
	}
	if c.Password == "" {
		log.Warn().Msg("CMEMS_PASSWORD is not set, asking for it")
		if p == nil {
			return c, fmt.Errorf("%w: no password and no prompt available", domain.ErrAuthentication)
		}
		pw, err := p.PromptSecret("CMEMS password")
		if err != nil {
			return c, fmt.Errorf("%w: %w", domain.ErrAuthentication, err)
		}
		c.Password = pw
	}
	if c.Username == "" || c.Password == "" {
		return c, fmt.Errorf("%w: empty credentials", domain.ErrAuthentication)
	}
	return c, nil
}

// Authenticator logs in with the OAuth2 resource-owner password grant.
type Authenticator struct {
	cfg    oauth2.Config
	client *http.Client
}

// NewAuthenticator creates an authenticator. Empty arguments fall back to the
// Copernicus Marine defaults and http.DefaultClient.
func NewAuthenticator(tokenURL, clientID string, client *http.Client) *Authenticator {
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	if clientID == "" {
		clientID = DefaultClientID
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Authenticator{
		cfg: oauth2.Config{
			ClientID: clientID,
			Endpoint: oauth2.Endpoint{
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		client: client,
	}
}

// Login exchanges the credentials for a token. Any failure wraps
// domain.ErrAuthentication.
func (a *Authenticator) Login(ctx context.Context, c Credentials) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.client)
	tok, err := a.cfg.PasswordCredentialsToken(ctx, c.Username, c.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: login as %s: %w", domain.ErrAuthentication, c.Username, err)
	}
	return tok, nil
}
