package garmin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// LoginResult es el resultado de la primera fase del handshake.
// Exactamente uno de Tokens / MFAState viene poblado.
type LoginResult struct {
	// Tokens es el blob de sesión listo para usar.
	Tokens string
	// MFAState es el estado resumible que hay que guardar hasta que el
	// usuario ingrese el código. Opaco fuera de este paquete.
	MFAState []byte
}

// mfaState serializa lo necesario para retomar el handshake: las cookies de
// la sesión SSO a medio camino y el token CSRF vigente.
type mfaState struct {
	Cookies []*http.Cookie `json:"cookies"`
	CSRF    string         `json:"csrf"`
	IsCN    bool           `json:"is_cn"`
}

var (
	csrfRe   = regexp.MustCompile(`name="_csrf"\s+value="([^"]+)"`)
	ticketRe = regexp.MustCompile(`ticket=([A-Za-z0-9-]+)`)
)

func ssoURL(isCN bool) string {
	if isCN {
		return ssoBaseCN
	}
	return ssoBase
}

func newSSOHTTPClient() (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &http.Client{Timeout: 30 * time.Second, Jar: jar}, nil
}

// Login ejecuta la primera fase contra el SSO de Garmin.
// Retorna ErrMFARequired (con MFAState en el result) cuando la cuenta exige
// segundo factor; credenciales rechazadas devuelven AuthError.
func Login(ctx context.Context, email, password string, isCN bool) (LoginResult, error) {
	hc, err := newSSOHTTPClient()
	if err != nil {
		return LoginResult{}, err
	}
	base := ssoURL(isCN)

	signin := base + "/signin?" + url.Values{
		"service":   {base + "/embed"},
		"gauthHost": {base + "/embed"},
	}.Encode()

	// 1. página de signin: establece cookies y entrega el CSRF
	page, err := ssoGet(ctx, hc, signin)
	if err != nil {
		return LoginResult{}, err
	}
	csrf := extractCSRF(page)
	if csrf == "" {
		return LoginResult{}, fmt.Errorf("garmin: signin sin token csrf")
	}

	// 2. POST de credenciales
	form := url.Values{
		"username": {email},
		"password": {password},
		"embed":    {"true"},
		"_csrf":    {csrf},
	}
	body, err := ssoPost(ctx, hc, signin, form)
	if err != nil {
		return LoginResult{}, err
	}

	switch {
	case strings.Contains(body, "verifyMFA") || strings.Contains(body, "mfa-code"):
		// MFA: congelar cookies + csrf para la segunda fase
		u, _ := url.Parse(base)
		state, err := json.Marshal(mfaState{
			Cookies: hc.Jar.Cookies(u),
			CSRF:    extractCSRFOr(body, csrf),
			IsCN:    isCN,
		})
		if err != nil {
			return LoginResult{}, err
		}
		return LoginResult{MFAState: state}, ErrMFARequired

	case strings.Contains(body, "locked"), strings.Contains(body, "Invalid"):
		return LoginResult{}, &AuthError{Msg: "credenciales rechazadas por Garmin"}
	}

	ticket := extractTicket(body)
	if ticket == "" {
		return LoginResult{}, &AuthError{Msg: "login sin service ticket"}
	}
	tokens, err := exchangeTicket(ctx, hc, ticket, isCN)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Tokens: tokens}, nil
}

// ResumeLogin completa el handshake con el código MFA y el estado guardado
// por Login. Retorna el blob de tokens.
func ResumeLogin(ctx context.Context, state []byte, code string) (string, error) {
	var st mfaState
	if err := json.Unmarshal(state, &st); err != nil {
		return "", fmt.Errorf("garmin: estado mfa corrupto: %w", err)
	}
	hc, err := newSSOHTTPClient()
	if err != nil {
		return "", err
	}
	base := ssoURL(st.IsCN)
	u, _ := url.Parse(base)
	hc.Jar.SetCookies(u, st.Cookies)

	form := url.Values{
		"mfa-code": {strings.TrimSpace(code)},
		"embed":    {"true"},
		"_csrf":    {st.CSRF},
		"fromPage": {"setupEnterMfaCode"},
	}
	body, err := ssoPost(ctx, hc, base+"/verifyMFA/loginEnterMfaCode", form)
	if err != nil {
		return "", err
	}
	ticket := extractTicket(body)
	if ticket == "" {
		return "", &AuthError{Msg: "código MFA rechazado por Garmin"}
	}
	return exchangeTicket(ctx, hc, ticket, st.IsCN)
}

// exchangeTicket canjea el service ticket por el token OAuth2 de la Connect
// API y lo empaqueta en el blob opaco.
func exchangeTicket(ctx context.Context, hc *http.Client, ticket string, isCN bool) (string, error) {
	base := apiBase
	if isCN {
		base = apiBaseCN
	}
	form := url.Values{"ticket": {ticket}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		base+"/oauth-service/oauth/exchange/user/2.0", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("garmin: token exchange: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode/100 != 2 {
		return "", &AuthError{Msg: fmt.Sprintf("token exchange status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))}
	}

	var tok OAuth2Token
	if err := json.Unmarshal(raw, &tok); err != nil || tok.AccessToken == "" {
		return "", &AuthError{Msg: "token exchange sin access token"}
	}
	if tok.ExpiresAt == 0 {
		// Garmin reporta expires_in; normalizamos a instante absoluto
		var alt struct {
			ExpiresIn int64 `json:"expires_in"`
		}
		_ = json.Unmarshal(raw, &alt)
		if alt.ExpiresIn > 0 {
			tok.ExpiresAt = time.Now().Unix() + alt.ExpiresIn
		}
	}
	return EncodeTokens(TokenStore{OAuth2: tok})
}

func ssoGet(ctx context.Context, hc *http.Client, u string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	return ssoDo(hc, req)
}

func ssoPost(ctx context.Context, hc *http.Client, u string, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return ssoDo(hc, req)
}

func ssoDo(hc *http.Client, req *http.Request) (string, error) {
	// el SSO exige un referer del mismo host
	req.Header.Set("Referer", req.URL.Scheme+"://"+req.URL.Host)
	resp, err := hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("garmin: sso %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		return "", &AuthError{Msg: fmt.Sprintf("sso status %d", resp.StatusCode)}
	}
	return string(b), nil
}

func extractCSRF(body string) string {
	if m := csrfRe.FindStringSubmatch(body); len(m) == 2 {
		return m[1]
	}
	return ""
}

func extractCSRFOr(body, fallback string) string {
	if c := extractCSRF(body); c != "" {
		return c
	}
	return fallback
}

func extractTicket(body string) string {
	if m := ticketRe.FindStringSubmatch(body); len(m) == 2 {
		return m[1]
	}
	return ""
}
